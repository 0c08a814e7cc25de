// Package importer resolves staging records into dataset-store writes.
//
// Every staging record starts pending and ends resolved or failed. New and
// changed records are resolved in one database transaction covering both the
// staging linkage and the dataset write. A changed record whose content hash
// equals its prior record's is resolved without touching the dataset store:
// only the staging linkage and the search index move.
//
// ResolveAll runs records on a bounded worker pool and never resolves two
// records with the same identifier at the same time.
package importer
