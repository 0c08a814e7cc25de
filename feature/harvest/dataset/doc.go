// Package dataset holds the dataset store and search index the harvester
// writes into, with default gorm implementations so the service runs on its
// own database.
package dataset
