package errors_test

import (
	"fmt"
	"testing"

	harvesterrors "catalog-harvester/core/errors"

	"github.com/stretchr/testify/assert"
)

func TestSentinelMatching(t *testing.T) {
	cause := fmt.Errorf("connection refused")

	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"Fetch", harvesterrors.NewFetchError("http://x", cause), harvesterrors.ErrFetch},
		{"Config", harvesterrors.NewConfigError("id_field_name", "missing"), harvesterrors.ErrConfig},
		{"DataIntegrity", &harvesterrors.DataIntegrityError{Identifier: "a", Reason: "duplicate"}, harvesterrors.ErrDataIntegrity},
		{"EmptyResult", &harvesterrors.EmptyResultError{SourceID: "s", Items: 3}, harvesterrors.ErrEmptyResult},
		{"Persistence", &harvesterrors.PersistenceError{Identifier: "a", Op: "stage", Err: cause}, harvesterrors.ErrPersistence},
		{"Validation", &harvesterrors.ValidationError{}, harvesterrors.ErrValidation},
		{"Integrity", &harvesterrors.IntegrityError{ObjectID: "o", Reason: "missing guid"}, harvesterrors.ErrIntegrity},
		{"NotFound", harvesterrors.NewNotFoundError("package", "p"), harvesterrors.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("pass: %w", tt.err)
			assert.ErrorIs(t, wrapped, tt.sentinel)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestUnwrapKeepsCause(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := &harvesterrors.PersistenceError{Identifier: "a", Op: "stage", Err: cause}
	assert.ErrorIs(t, err, cause)

	fetchErr := harvesterrors.NewFetchError("http://x", cause)
	assert.ErrorIs(t, fetchErr, cause)
}

func TestValidationError_Summary(t *testing.T) {
	v := &harvesterrors.ValidationError{}
	assert.True(t, v.Empty())

	v.Add("title", "Missing value")
	v.Add("name", "Must be at least 2 characters long")
	v.Add("name", "Must be purely lowercase alphanumeric")

	assert.False(t, v.Empty())
	assert.Equal(t, "name: Must be at least 2 characters long, Must be purely lowercase alphanumeric; title: Missing value", v.Summary())
}
