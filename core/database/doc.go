// Package database handles database connections and schema inspection.
//
// It wraps GORM to configure MySQL (production) or SQLite (single-node and
// tests) connections from the application's configuration. The harvest
// tables (sources, jobs, staging objects, errors) and the default dataset
// store live in the same database so that one record's resolution can commit
// in a single transaction.
//
// # Schema Inspection
//
// GetTableColumns and MissingColumns let the harvester verify at startup that
// the tables it writes to carry the expected columns.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("Database connection failed", err)
//	}
//
//	missing, err := database.MissingColumns(db, "harvest_objects", []string{"guid", "is_current"})
package database
