package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Re-exported helpers so callers importing this package under its own name
// do not also need the standard library one.
var (
	New = errors.New
	Is  = errors.Is
	As  = errors.As
)

// Sentinel errors, one per failure kind.
var (
	ErrFetch         = errors.New("fetch failed")
	ErrConfig        = errors.New("invalid configuration")
	ErrDataIntegrity = errors.New("data integrity violation")
	ErrEmptyResult   = errors.New("empty result")
	ErrPersistence   = errors.New("persistence failure")
	ErrValidation    = errors.New("validation failed")
	ErrIntegrity     = errors.New("integrity violation")
	ErrNotFound      = errors.New("not found")
)

// FetchError reports a network or remote-service failure while fetching a catalog.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Is(target error) bool { return target == ErrFetch }

func (e *FetchError) Unwrap() error { return e.Err }

// NewFetchError creates a new FetchError.
func NewFetchError(url string, err error) *FetchError {
	return &FetchError{URL: url, Err: err}
}

// ConfigError reports bad or missing configuration.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return "config: " + e.Message
	}
	return fmt.Sprintf("config %q: %s", e.Field, e.Message)
}

func (e *ConfigError) Is(target error) bool { return target == ErrConfig }

// NewConfigError creates a new ConfigError.
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{Field: field, Message: message}
}

// DataIntegrityError reports a duplicate or malformed identifier in a fetched catalog.
type DataIntegrityError struct {
	Identifier string
	Index      int
	Reason     string
}

func (e *DataIntegrityError) Error() string {
	if e.Identifier == "" {
		return fmt.Sprintf("item %d: %s", e.Index, e.Reason)
	}
	return fmt.Sprintf("item %d (%s): %s", e.Index, e.Identifier, e.Reason)
}

func (e *DataIntegrityError) Is(target error) bool { return target == ErrDataIntegrity }

// EmptyResultError reports a fetch that returned items but no usable identifiers.
type EmptyResultError struct {
	SourceID string
	Items    int
}

func (e *EmptyResultError) Error() string {
	return fmt.Sprintf("source %s: %d items fetched but no usable identifiers", e.SourceID, e.Items)
}

func (e *EmptyResultError) Is(target error) bool { return target == ErrEmptyResult }

// PersistenceError reports a storage failure for one identifier.
type PersistenceError struct {
	Identifier string
	Op         string
	Err        error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Identifier, e.Err)
}

func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }

func (e *PersistenceError) Unwrap() error { return e.Err }

// ValidationError reports a dataset rejected by the dataset store.
// Fields maps a field name to its problems.
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	return "validation error: " + e.Summary()
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Summary renders the field errors in a stable order.
func (e *ValidationError) Summary() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, strings.Join(e.Fields[k], ", ")))
	}
	return strings.Join(parts, "; ")
}

// Add records a problem for field.
func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], message)
}

// Empty reports whether no problems were recorded.
func (e *ValidationError) Empty() bool {
	return len(e.Fields) == 0
}

// IntegrityError reports a violated internal invariant for one staging record.
type IntegrityError struct {
	ObjectID string
	Reason   string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("object %s: %s", e.ObjectID, e.Reason)
}

func (e *IntegrityError) Is(target error) bool { return target == ErrIntegrity }

// NotFoundError represents a missing resource.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %s not found", e.Resource, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}
