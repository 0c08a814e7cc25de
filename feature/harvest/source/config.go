package source

import (
	"bytes"
	"encoding/json"
	"strings"

	harvesterrors "catalog-harvester/core/errors"
)

// DefaultFilter is the search filter used when a source sets none.
const DefaultFilter = "*"

// Config is the JSON configuration stored on a harvest source.
type Config struct {
	IDFieldName string `json:"id_field_name"`
	Filter      string `json:"filter,omitempty"`
}

// ParseConfig validates and decodes a source configuration.
// Every problem is returned as a *errors.ConfigError.
func ParseConfig(raw string) (*Config, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, harvesterrors.NewConfigError("", "Cannot process configuration not identifying 'id_field_name'")
	}

	var fields map[string]any
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	if err := dec.Decode(&fields); err != nil {
		return nil, harvesterrors.NewConfigError("", "configuration is not a JSON object: "+err.Error())
	}

	cfg := &Config{Filter: DefaultFilter}

	idField, ok := fields["id_field_name"]
	if !ok {
		return nil, harvesterrors.NewConfigError("id_field_name", "Cannot process configuration not identifying 'id_field_name'")
	}
	name, ok := idField.(string)
	if !ok {
		return nil, harvesterrors.NewConfigError("id_field_name", `"id_field_name" should be a string`)
	}
	if name == "" {
		return nil, harvesterrors.NewConfigError("id_field_name", `"id_field_name" must not be empty`)
	}
	cfg.IDFieldName = name

	if filter, ok := fields["filter"]; ok {
		s, ok := filter.(string)
		if !ok {
			return nil, harvesterrors.NewConfigError("filter", `"filter" should be a string`)
		}
		if s != "" {
			cfg.Filter = s
		}
	}

	return cfg, nil
}

// String renders the configuration as stored JSON.
func (c *Config) String() string {
	data, _ := json.Marshal(c)
	return string(data)
}
