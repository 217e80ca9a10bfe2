package driver

import (
	"fmt"

	sqlgateerrors "sqlgate/pkg/errors"
	"sqlgate/pkg/pool"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
)

// Supported driver types
const (
	TypeMySQL  = "mysql"
	TypeSQLite = "sqlite3"
)

// New returns a connector for the given driver type. An empty type
// defaults to SQLite.
func New(driverType string) (pool.Connector, error) {
	switch driverType {
	case TypeMySQL:
		return &SQLConnector{driverName: "mysql"}, nil
	case TypeSQLite, "sqlite", "":
		return &SQLConnector{driverName: "sqlite3"}, nil
	default:
		return nil, fmt.Errorf("%w: %s", sqlgateerrors.ErrUnsupportedDriver, driverType)
	}
}
