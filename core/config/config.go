package config

import (
	"reflect"
	"strings"
	"time"

	"catalog-harvester/core/database"
	"catalog-harvester/core/logger"
	"catalog-harvester/core/server"
	"catalog-harvester/core/storage"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// It is divided into partial configurations for better modularity.
type Config struct {
	// Server holds configuration for the HTTP server.
	Server server.Config `mapstructure:"server"`
	// Storage holds configuration for the snapshot archive (S3, MinIO).
	Storage storage.Config `mapstructure:"storage"`
	// Log holds configuration for the logger.
	Log logger.Config `mapstructure:"log"`
	// Database holds configuration for the database connection.
	Database database.Config `mapstructure:"database"`
	// Harvest holds configuration for harvest passes.
	Harvest HarvestConfig `mapstructure:"harvest"`
}

// HarvestConfig holds the settings applied to every harvest pass.
type HarvestConfig struct {
	// FetchTimeoutSeconds bounds the remote catalog fetch. It is the only timeout of a pass.
	FetchTimeoutSeconds int `mapstructure:"fetch_timeout_seconds" default:"60"`
	// ImportWorkers is the number of staging records resolved concurrently.
	ImportWorkers int `mapstructure:"import_workers" default:"4"`
	// RequestsPerSecond throttles calls to remote catalogs.
	RequestsPerSecond float64 `mapstructure:"requests_per_second" default:"2"`
	// MaxResponseBytes caps the size of one catalog response.
	MaxResponseBytes int64 `mapstructure:"max_response_bytes" default:"67108864"`
	// UserName is the actor performing dataset writes. Empty means the site user.
	UserName string `mapstructure:"user_name" default:""`
	// SiteUser is the name of the site administrator identity.
	SiteUser string `mapstructure:"site_user" default:"site_user"`
}

// FetchTimeout returns the fetch timeout as a duration.
func (h HarvestConfig) FetchTimeout() time.Duration {
	if h.FetchTimeoutSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(h.FetchTimeoutSeconds) * time.Second
}

// Workers returns the import worker count, at least one.
func (h HarvestConfig) Workers() int {
	if h.ImportWorkers <= 0 {
		return 1
	}
	return h.ImportWorkers
}

// LoadConfig loads configuration from environment variables and .env file.
func LoadConfig(path string) (*Config, error) {
	envPath := path + "/.env"
	if path == "." {
		envPath = ".env"
	}

	// Ignore error if file doesn't exist (e.g. production)
	_ = godotenv.Overload(envPath)

	v := viper.New()

	// Recursively parse struct tags to set default values
	bindValues(v, Config{}, "")

	// Map environment variables to nested keys (e.g. SERVER_PORT -> server.port)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// bindValues uses reflection to iterate over the struct and set default values in Viper
// based on the 'default' and 'mapstructure' tags.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)

	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")

		if tag == "" {
			continue
		}

		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		if field.Type.Kind() == reflect.Struct {
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		}

		// Always set default (even if empty) to register the key for AutomaticEnv
		v.SetDefault(key, field.Tag.Get("default"))
	}
}
