// Package dataverse harvests Dataverse installations through their search API.
package dataverse
