package pool

import (
	"fmt"
	"time"

	sqlgateerrors "sqlgate/pkg/errors"
)

// Config describes one pool. Immutable once the pool is created from it.
// Zero values mean "use the driver default".
type Config struct {
	// Driver selects the connector implementation, e.g. "mysql" or "sqlite3"
	Driver string
	// DSN is the driver-level connection string. Required.
	DSN string
	// InitialSize is the number of connections opened eagerly on pool creation
	InitialSize int
	// IncrementSize is the number of connections added when the pool grows
	IncrementSize int
	// MaxSize caps the number of open connections
	MaxSize int
	// ShrinkOnReturn closes connections on release instead of pooling them
	ShrinkOnReturn bool
	// ConnectTimeout bounds a single connection acquisition
	ConnectTimeout time.Duration
	// LoginTimeout bounds the initial pool validation handshake
	LoginTimeout time.Duration
	// IdleTimeout enables idle reclamation when positive. The pool is
	// closed after this much time with no activity and no outstanding
	// leases. Zero disables all eviction machinery.
	IdleTimeout time.Duration
}

// Validate checks the configuration before a manager is built from it
func (c Config) Validate() error {
	if c.DSN == "" {
		return fmt.Errorf("%w: connection string is required", sqlgateerrors.ErrInvalidConfig)
	}
	if c.InitialSize < 0 || c.IncrementSize < 0 || c.MaxSize < 0 {
		return fmt.Errorf("%w: sizing values must be non-negative", sqlgateerrors.ErrInvalidConfig)
	}
	if c.MaxSize > 0 && c.InitialSize > c.MaxSize {
		return fmt.Errorf("%w: initial size %d exceeds max size %d", sqlgateerrors.ErrInvalidConfig, c.InitialSize, c.MaxSize)
	}
	if c.ConnectTimeout < 0 || c.LoginTimeout < 0 || c.IdleTimeout < 0 {
		return fmt.Errorf("%w: timeouts must be non-negative", sqlgateerrors.ErrInvalidConfig)
	}
	return nil
}
