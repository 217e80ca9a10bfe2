package driver

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	sqlgateerrors "sqlgate/pkg/errors"
	"sqlgate/pkg/pool"
)

// SQLConnector implements pool.Connector on top of database/sql
type SQLConnector struct {
	driverName string
}

// Open creates the underlying pool and validates it with a ping bounded
// by the configured login timeout. Sizing knobs map onto database/sql:
// MaxSize caps open connections, ShrinkOnReturn disables idle pooling,
// InitialSize is warmed eagerly. IncrementSize has no database/sql
// counterpart; database/sql grows one connection at a time.
func (c *SQLConnector) Open(ctx context.Context, cfg pool.Config) (pool.PoolHandle, error) {
	db, err := sql.Open(c.driverName, cfg.DSN)
	if err != nil {
		return nil, err
	}
	if cfg.MaxSize > 0 {
		db.SetMaxOpenConns(cfg.MaxSize)
	}
	if cfg.ShrinkOnReturn {
		db.SetMaxIdleConns(0)
	} else if cfg.InitialSize > 0 {
		db.SetMaxIdleConns(cfg.InitialSize)
	}

	pingCtx := ctx
	if cfg.LoginTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, cfg.LoginTimeout)
		defer cancel()
	}
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, err
	}

	warm(ctx, db, cfg.InitialSize)
	return &sqlHandle{db: db, connectTimeout: cfg.ConnectTimeout}, nil
}

// warm opens the initial connections and parks them in the idle pool.
// Best-effort: the pool is already validated, a partial warm is fine.
func warm(ctx context.Context, db *sql.DB, n int) {
	if n <= 1 {
		// The validation ping already opened one connection.
		return
	}
	conns := make([]*sql.Conn, 0, n)
	for i := 0; i < n; i++ {
		conn, err := db.Conn(ctx)
		if err != nil {
			break
		}
		conns = append(conns, conn)
	}
	for _, conn := range conns {
		conn.Close()
	}
}

type sqlHandle struct {
	db             *sql.DB
	connectTimeout time.Duration
}

func (h *sqlHandle) Lease(ctx context.Context) (pool.Conn, error) {
	if h.connectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.connectTimeout)
		defer cancel()
	}
	conn, err := h.db.Conn(ctx)
	if err != nil {
		if strings.Contains(err.Error(), "database is closed") {
			return nil, fmt.Errorf("%w: %v", sqlgateerrors.ErrPoolClosed, err)
		}
		return nil, err
	}
	return &sqlConn{conn: conn}, nil
}

func (h *sqlHandle) Close() error {
	return h.db.Close()
}

// sqlConn wraps one dedicated *sql.Conn. Close is idempotent even
// though sql.Conn's own Close is not.
type sqlConn struct {
	conn   *sql.Conn
	closed atomic.Bool
}

func (c *sqlConn) Execute(ctx context.Context, query string, params []any) (*pool.ResultSet, error) {
	if returnsRows(query) {
		rows, err := c.conn.QueryContext(ctx, query, params...)
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		return scanRows(rows)
	}

	res, err := c.conn.ExecContext(ctx, query, params...)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		// Some drivers cannot report this; the statement still ran.
		affected = 0
	}
	return &pool.ResultSet{RowsAffected: affected}, nil
}

func (c *sqlConn) CallProcedure(ctx context.Context, call pool.ProcedureCall) (*pool.ResultSet, error) {
	rows, err := c.conn.QueryContext(ctx, buildCall(call), call.Params...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRows(rows)
}

func (c *sqlConn) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	return c.conn.Close()
}

// buildCall renders a CALL statement with optional catalog and schema
// qualifiers and one placeholder per parameter.
func buildCall(call pool.ProcedureCall) string {
	name := call.Name
	if call.Schema != "" {
		name = call.Schema + "." + name
	}
	if call.Catalog != "" {
		name = call.Catalog + "." + name
	}
	if len(call.Params) == 0 {
		return fmt.Sprintf("CALL %s()", name)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(call.Params)), ", ")
	return fmt.Sprintf("CALL %s(%s)", name, placeholders)
}

// Statement prefixes that produce a row set rather than an affected count
var rowReturningPrefixes = []string{
	"SELECT", "WITH", "SHOW", "DESCRIBE", "DESC", "EXPLAIN", "PRAGMA", "VALUES", "CALL",
}

func returnsRows(query string) bool {
	fields := strings.Fields(strings.ToUpper(query))
	if len(fields) == 0 {
		return false
	}
	for _, p := range rowReturningPrefixes {
		if fields[0] == p {
			return true
		}
	}
	return false
}

func scanRows(rows *sql.Rows) (*pool.ResultSet, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	rs := &pool.ResultSet{Columns: cols}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		for i, v := range vals {
			// Raw byte slices are only valid until the next scan
			if b, ok := v.([]byte); ok {
				vals[i] = string(b)
			}
		}
		rs.Rows = append(rs.Rows, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return rs, nil
}
