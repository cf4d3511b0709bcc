package core

import (
	"errors"
	"fmt"
)

var (
	// ErrNoFile is returned by ImportCSV when no file was supplied.
	ErrNoFile = errors.New("no file provided")

	// ErrInvalidPageSize is returned when a page size is not positive or not allowed.
	ErrInvalidPageSize = errors.New("invalid page size")

	// ErrOperationPending is returned when a bulk operation is already in flight.
	ErrOperationPending = errors.New("operation pending")

	// ErrSensorNotFound is returned by the data service for an unknown sensor id.
	ErrSensorNotFound = errors.New("sensor not found")

	// ErrInvalidImport wraps decoding failures of an import file.
	ErrInvalidImport = errors.New("invalid import file")

	// ErrSuperseded is returned when a fetch result was discarded because a
	// newer navigation was issued while it was in flight.
	ErrSuperseded = errors.New("fetch superseded by newer request")
)

// ServiceError is a failure reported by the data service.
// Message is the human-readable text meant for the user.
type ServiceError struct {
	Op      string // Operation name, e.g. "delete sensor"
	Status  int    // HTTP status when the service was reached over HTTP, otherwise 0
	Code    string // Optional service error code
	Message string
}

func (e *ServiceError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s (status %d)", e.Op, e.Message, e.Status)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// ServiceMessage returns the user-facing message carried by err.
// For a ServiceError this is the service's own message; for anything else
// it is the error text.
func ServiceMessage(err error) string {
	if err == nil {
		return ""
	}
	var se *ServiceError
	if errors.As(err, &se) && se.Message != "" {
		return se.Message
	}
	return err.Error()
}
