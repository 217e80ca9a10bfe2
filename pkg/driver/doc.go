// Package driver provides the concrete database connector behind the
// pool core, implemented on database/sql.
//
// The package registers the supported drivers (MySQL and SQLite) and
// maps a configured driver type to a pool.Connector. Opened pools hand
// out dedicated connections; query results are decoded into generic
// result sets and stored procedures are invoked through generated CALL
// statements. Query text, parameter binding, and value decoding follow
// database/sql semantics and are passed through untouched.
package driver
