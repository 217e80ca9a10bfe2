package errors

import "errors"

// Configuration errors
var (
	// ErrInvalidConfig is returned when pool or server configuration is invalid
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrUnsupportedDriver is returned when a driver type has no registered connector
	ErrUnsupportedDriver = errors.New("unsupported driver")
)

// Pool lifecycle errors
var (
	// ErrPoolClosed is returned when the underlying pool handle is closed or invalid
	ErrPoolClosed = errors.New("pool is closed")

	// ErrManagerClosed is returned when acquiring from a terminally closed manager
	ErrManagerClosed = errors.New("pool manager is closed")

	// ErrPoolNotFound is returned when a named pool is not registered
	ErrPoolNotFound = errors.New("pool not found")
)

// Connection errors
var (
	// ErrConnectionFailed is returned when pool creation or connection
	// acquisition failed and no further automatic recovery applies
	ErrConnectionFailed = errors.New("connection failed")

	// ErrStaleConnection marks a connection the driver reports as
	// closed or invalid while still being tracked
	ErrStaleConnection = errors.New("stale connection")
)
