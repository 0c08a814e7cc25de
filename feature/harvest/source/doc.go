// Package source defines what a remote catalog variant must provide to the
// harvester and parses the per-source configuration.
package source
