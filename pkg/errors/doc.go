// Package errors provides standardized error definitions for sqlgate.
// All error definitions are centralized here to ensure consistency across
// the pool core, the driver layer, and the HTTP surface.
package errors
