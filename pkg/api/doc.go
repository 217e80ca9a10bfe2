// Package api provides the HTTP surface for submitting queries and
// procedure calls to named pools.
//
// This package encapsulates all HTTP-related concerns:
// - REST endpoints for query/procedure submission and pool stats
// - Health endpoint
// - Live pool-stats websocket stream
// - Request logging and CORS middleware
// - Standard JSON error/success envelopes
//
// The package uses gin-gonic for routing.
package api
