package datatables

import (
	"errors"
	"fmt"
)

// ErrConfiguration is matched by every configuration error. Configuration
// errors are programmer errors in the hosting application; they are not
// meant to be retried.
var ErrConfiguration = errors.New("datatables: configuration error")

// ErrStorage is matched by every persistent storage failure.
var ErrStorage = errors.New("datatables: storage error")

var (
	ErrIncompleteControlledAxis = errors.New("controlled state requires both a value and an OnChange callback")
	ErrManualModeWithoutState   = errors.New("manual mode requires the caller to own the state of the axis")
	ErrInvalidPageSize          = errors.New("page size is not one of the allowed page sizes")
	ErrDragAndDropRowID         = errors.New("you must provide GetRowID in order to use the drag-and-drop feature")
	ErrInvalidConfig            = errors.New("invalid config")
	ErrUnknownColumn            = errors.New("unknown column")
	ErrStorageUnavailable       = errors.New("storage is not available")
	ErrMissingStorageKeyPrefix  = errors.New("persistent storage requires a storage key prefix")
)

// ConfigError reports a fatal configuration problem for a given field.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%v: %v", ErrConfiguration, e.Err)
	}
	return fmt.Sprintf("%v: %s: %v", ErrConfiguration, e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Is makes every ConfigError match ErrConfiguration.
func (e *ConfigError) Is(target error) bool { return target == ErrConfiguration }

func configError(field string, err error) error {
	return &ConfigError{Field: field, Err: err}
}

// StorageError wraps a failed read or write of a persisted state axis.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%v: %s %q: %v", ErrStorage, e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorage }
