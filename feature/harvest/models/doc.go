// Package models contains the GORM models of the harvest tables.
//
// A HarvestObject is a staging record. Each reconciliation pass writes one
// per classified identifier; at most one object per (source, guid) is current
// at any time, and superseded objects stay for audit until purged.
package models
