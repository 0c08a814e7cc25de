package storage_test

import (
	"testing"
	"time"

	"catalog-harvester/core/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	tests := []struct {
		name string
		cfg  storage.Config
	}{
		{"plain endpoint", storage.Config{Endpoint: "localhost:9000", Region: "us-east-1"}},
		{"http scheme", storage.Config{Endpoint: "http://localhost:9000"}},
		{"https scheme", storage.Config{Endpoint: "https://s3.amazonaws.com", UseSSL: true, TimeoutSeconds: 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cfg.AccessKey, tt.cfg.SecretKey = "testkey", "testsecret"
			client, err := storage.NewClient(tt.cfg)
			require.NoError(t, err)
			assert.NotNil(t, client)
		})
	}
}

func TestConfig_Timeout(t *testing.T) {
	assert.Equal(t, 30*time.Second, storage.Config{}.Timeout())
	assert.Equal(t, 5*time.Second, storage.Config{TimeoutSeconds: 5}.Timeout())
}
