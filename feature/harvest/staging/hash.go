package staging

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Canonical serializes payload with sorted object keys and returns the text
// together with its SHA-256 hex digest. A nil payload yields empty strings.
func Canonical(payload map[string]any) (string, string, error) {
	if payload == nil {
		return "", "", nil
	}

	// encoding/json writes map keys in sorted order at every depth.
	data, err := json.Marshal(payload)
	if err != nil {
		return "", "", fmt.Errorf("failed to serialize payload: %w", err)
	}

	sum := sha256.Sum256(data)
	return string(data), hex.EncodeToString(sum[:]), nil
}
