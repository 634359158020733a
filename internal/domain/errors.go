package domain

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrNoBaseline no balance record has been stored yet.
	ErrNoBaseline = errors.New("no baseline balance recorded")
	// ErrInvalidRecord record violates the stored-record invariants.
	ErrInvalidRecord = errors.New("invalid balance record")
	// ErrBaselineMismatch baseline was recorded for a different asset.
	ErrBaselineMismatch = errors.New("baseline currency does not match asset")
)

// ProviderError market-data provider could not answer.
type ProviderError struct {
	Op  string
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("market data provider: %s: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// NewProviderError wraps err unless it already is a ProviderError.
func NewProviderError(op string, err error) error {
	if err == nil {
		return nil
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return err
	}
	return &ProviderError{Op: op, Err: err}
}

// PersistenceError history store could not complete a read or write.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("balance history: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// NewPersistenceError wraps err unless it already is a PersistenceError.
func NewPersistenceError(op string, err error) error {
	if err == nil {
		return nil
	}
	var pe *PersistenceError
	if errors.As(err, &pe) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}

// ConfigurationError invalid construction arguments.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration: %s: %s", e.Field, e.Reason)
}

// NewConfigurationError creates a ConfigurationError for field.
func NewConfigurationError(field, reason string) error {
	return &ConfigurationError{Field: field, Reason: reason}
}

// IsProviderError reports whether err carries a ProviderError.
func IsProviderError(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe)
}

// IsPersistenceError reports whether err carries a PersistenceError.
func IsPersistenceError(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}

// IsConfigurationError reports whether err carries a ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}
