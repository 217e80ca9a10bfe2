package pool

import "context"

// Connector opens the underlying driver pool for a configuration
type Connector interface {
	// Open creates the driver pool. It may fail on a malformed DSN or
	// an unreachable resource.
	Open(ctx context.Context, cfg Config) (PoolHandle, error)
}

// PoolHandle represents one established driver pool
type PoolHandle interface {
	// Lease obtains one connection from the pool. It fails when the
	// handle itself is invalid or closed.
	Lease(ctx context.Context) (Conn, error)
	// Close closes the pool and all idle connections it holds
	Close() error
}

// Conn is a single driver connection
type Conn interface {
	// Execute runs a query with positional parameters
	Execute(ctx context.Context, query string, params []any) (*ResultSet, error)
	// CallProcedure invokes a stored procedure
	CallProcedure(ctx context.Context, call ProcedureCall) (*ResultSet, error)
	// Close releases the connection. Safe to invoke more than once.
	Close() error
}

// ResultSet is the decoded outcome of a query or procedure call
type ResultSet struct {
	Columns      []string `json:"columns"`
	Rows         [][]any  `json:"rows"`
	RowsAffected int64    `json:"rows_affected"`
}

// ProcedureCall identifies a stored procedure and its arguments.
// Catalog and Schema are optional qualifiers; empty means unset.
type ProcedureCall struct {
	Catalog string `json:"catalog,omitempty"`
	Schema  string `json:"schema,omitempty"`
	Name    string `json:"name"`
	Params  []any  `json:"params"`
}
