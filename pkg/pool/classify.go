package pool

import (
	sqldriver "database/sql/driver"
	"errors"
	"strings"

	sqlgateerrors "sqlgate/pkg/errors"
)

// Driver error messages that mark a connection as stale: the driver
// still hands the connection out but reports it closed or invalid on use.
var staleMessages = []string{
	"connection does not exist",
	"not connected",
	"connection is closed",
	"invalid connection",
	"communication link failure",
	"bad connection",
	"broken pipe",
	"connection reset",
}

// IsStale reports whether an execute failure belongs to the
// stale-connection class that warrants one retry on a fresh connection.
func IsStale(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, sqldriver.ErrBadConn) || errors.Is(err, sqlgateerrors.ErrStaleConnection) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, s := range staleMessages {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

// isPoolInvalid reports whether a lease failure means the pool handle
// itself is closed/invalid, triggering pool recreation.
func isPoolInvalid(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, sqlgateerrors.ErrPoolClosed) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is closed") ||
		strings.Contains(msg, "pool is closed") ||
		strings.Contains(msg, "invalid pool")
}
