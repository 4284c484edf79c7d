package conn

import (
	"fmt"

	"pgnative/wire"
)

// ProtocolError is returned when the server sends a message sequence
// this client's protocol engine does not expect in its current phase
// (e.g. a DataRow outside a portal execution, or a message tag the
// engine has no handler for).
type ProtocolError struct {
	Phase   string
	Message string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol error in phase %s: %s", e.Phase, e.Message)
}

// PostgresError wraps a server-sent ErrorResponse, carrying the fields
// the server reported rather than collapsing them to a single string.
type PostgresError struct {
	Severity     string
	Code         string
	Message      string
	Detail       string
	Hint         string
	Position     string
	SchemaName   string
	TableName    string
	ColumnName   string
	ConstraintName string
}

func (e *PostgresError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s (%s): %s (%s)", e.Severity, e.Code, e.Message, e.Detail)
	}
	return fmt.Sprintf("%s (%s): %s", e.Severity, e.Code, e.Message)
}

// ConnectionError wraps a failure to establish or maintain the
// underlying network connection (dial failure, reset, closed pipe).
type ConnectionError struct {
	Addr string
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection to %s: %v", e.Addr, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// AuthenticationError wraps a failure in the startup authentication
// sub-dialogue, distinguishing it from a later PostgresError so callers
// can tell "bad credentials" apart from "bad query".
type AuthenticationError struct {
	Err error
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("authentication failed: %v", e.Err)
}

func (e *AuthenticationError) Unwrap() error { return e.Err }

// DataError is returned when a value crossing the wire cannot be
// encoded for a parameter or decoded for a column — a codec error
// surfaced with the column/parameter position that triggered it.
type DataError struct {
	Column int
	Err    error
}

func (e *DataError) Error() string {
	return fmt.Sprintf("column %d: %v", e.Column, e.Err)
}

func (e *DataError) Unwrap() error { return e.Err }

// InterfaceError is returned when the caller misuses this package's own
// API — a statement whose parameter count doesn't match the arguments
// given, a cursor fetched after Close, a transaction committed twice.
type InterfaceError struct {
	Message string
}

func (e *InterfaceError) Error() string {
	return fmt.Sprintf("interface error: %s", e.Message)
}

// CancelledError is returned when an operation's context was cancelled
// before the server replied. The operation may already have reached
// the server; the caller owns the decision of whether to retry.
type CancelledError struct {
	Err error
}

func (e *CancelledError) Error() string {
	return fmt.Sprintf("operation cancelled: %v", e.Err)
}

func (e *CancelledError) Unwrap() error { return e.Err }

// TimeoutError is returned when an operation's deadline expired before
// the server replied.
type TimeoutError struct {
	Op string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out", e.Op)
}

// PoolError is returned by pool.Pool.Acquire when the pool has been
// closed. A context that ends while waiting yields CancelledError, and
// idle connections that fail a health check are replaced by a fresh
// dial rather than reported.
type PoolError struct {
	Reason string
}

func (e *PoolError) Error() string {
	return fmt.Sprintf("pool: %s", e.Reason)
}

func postgresErrorFromFields(f wire.ErrorFields) *PostgresError {
	return &PostgresError{
		Severity:       f.Severity(),
		Code:           f.Code(),
		Message:        f.Message(),
		Detail:         f.Detail(),
		Hint:           f.Hint(),
		Position:       f.Position(),
		SchemaName:     f.SchemaName(),
		TableName:      f.TableName(),
		ColumnName:     f.ColumnName(),
		ConstraintName: f.ConstraintName(),
	}
}
