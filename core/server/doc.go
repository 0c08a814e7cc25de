// Package server holds the HTTP server configuration.
//
// The start command reads it to decide the listen address, request timeouts,
// whether the API is protected by an API key and whether Prometheus metrics
// are exposed.
package server
