// Package staging persists harvest sources, jobs and staging records.
//
// A staging record is written once per classified identifier of a pass and
// then walked through pending, resolved or failed by the importer. Every
// write that has to be atomic with a dataset-store write accepts the caller's
// transaction through WithTx.
package staging
