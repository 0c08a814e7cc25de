// Package harvest runs harvest passes and exposes them over HTTP.
//
// A pass gathers the remote catalog of one source, reconciles its
// identifiers against the records currently linked to that source, stages
// one record per identifier, and hands the staged records to the importer.
// Gathering always completes before importing starts.
package harvest
