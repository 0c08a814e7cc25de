// Package config provides configuration management for the harvester.
//
// It utilizes Viper for loading configuration from environment variables and
// an optional .env file. Defaults come from the `default` struct tags of each
// section.
//
// # Configuration Structure
//
// The Config struct is the central repository for all application settings, divided into subsections:
//   - Server: HTTP server settings (port, API key, metrics)
//   - Database: MySQL or SQLite connection details
//   - Storage: S3/MinIO credentials for the snapshot archive
//   - Log: Logging level and format
//   - Harvest: fetch timeout, import workers, throttling and the writing actor
//
// Per-source settings (id_field_name, filter) are not part of this process
// configuration; they are stored with each harvest source and parsed once per pass.
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Harvest.FetchTimeout())
package config
