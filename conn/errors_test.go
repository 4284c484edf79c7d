package conn

import (
	"errors"
	"testing"

	"pgnative/wire"
)

func TestPostgresErrorFromFields(t *testing.T) {
	fields := wire.ErrorFields{
		wire.FieldSeverity: "ERROR",
		wire.FieldCode:     "23505",
		wire.FieldMessage:  "duplicate key value violates unique constraint",
		wire.FieldDetail:   `Key (id)=(1) already exists.`,
	}
	err := postgresErrorFromFields(fields)
	if err.Code != "23505" {
		t.Fatalf("Code = %q, want 23505", err.Code)
	}
	want := `ERROR (23505): duplicate key value violates unique constraint (Key (id)=(1) already exists.)`
	if err.Error() != want {
		t.Fatalf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestConnectionError_Unwrap(t *testing.T) {
	inner := errors.New("connection reset by peer")
	err := &ConnectionError{Addr: "localhost:5432", Err: inner}
	if !errors.Is(err, inner) {
		t.Fatalf("errors.Is did not see through ConnectionError.Unwrap")
	}
}

func TestAuthenticationError_Unwrap(t *testing.T) {
	inner := errors.New("bad password")
	err := &AuthenticationError{Err: inner}
	if !errors.Is(err, inner) {
		t.Fatalf("errors.Is did not see through AuthenticationError.Unwrap")
	}
}
