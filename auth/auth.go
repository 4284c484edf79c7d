// Package auth drives the server's authentication sub-dialogue that
// follows a StartupMessage: cleartext password, MD5, and
// SCRAM-SHA-256, selected by the Authentication* message the server
// sends back. SCRAM-SHA-256-PLUS (channel binding) is not implemented.
package auth

import (
	"fmt"

	"pgnative/wire"
)

// Credentials carries what a Mechanism needs to answer a server
// challenge. Password may be empty for mechanisms (or connections) that
// do not require one.
type Credentials struct {
	User     string
	Password string
}

// Mechanism drives one authentication sub-type to completion, reading
// and writing messages on the given reader/writer until it sees
// AuthenticationOk or returns an error.
type Mechanism interface {
	Name() string
	Negotiate(r *wire.Reader, w *wire.Writer, creds Credentials, rest []byte) error
}

// Dispatch inspects the Authentication* sub-type carried by msg (which
// must have Type == wire.MsgAuthentication) and drives the corresponding
// Mechanism to completion. It returns once the server sends
// AuthenticationOk.
func Dispatch(r *wire.Reader, w *wire.Writer, creds Credentials, msg wire.Message) error {
	subType, rest, err := wire.DecodeAuthentication(msg.Payload)
	if err != nil {
		return fmt.Errorf("auth: decode authentication message: %w", err)
	}
	switch subType {
	case wire.AuthOk:
		return nil
	case wire.AuthCleartextPassword:
		return (&Cleartext{}).Negotiate(r, w, creds, rest)
	case wire.AuthMD5Password:
		return (&MD5{}).Negotiate(r, w, creds, rest)
	case wire.AuthSASL:
		return (&SCRAM{}).Negotiate(r, w, creds, rest)
	default:
		return &UnsupportedMechanismError{SubType: subType}
	}
}

// UnsupportedMechanismError is returned when the server requests an
// authentication sub-type this client does not implement (e.g. GSSAPI,
// Kerberos V5, or SSPI).
type UnsupportedMechanismError struct {
	SubType int32
}

func (e *UnsupportedMechanismError) Error() string {
	return fmt.Sprintf("auth: unsupported authentication sub-type %d", e.SubType)
}

// waitForOK reads messages until AuthenticationOk or an ErrorResponse,
// the common tail shared by every mechanism once its own exchange
// finishes.
func waitForOK(r *wire.Reader) error {
	msg, err := r.ReadMessage()
	if err != nil {
		return fmt.Errorf("auth: read response: %w", err)
	}
	switch msg.Type {
	case wire.MsgAuthentication:
		subType, _, err := wire.DecodeAuthentication(msg.Payload)
		if err != nil {
			return err
		}
		if subType != wire.AuthOk {
			return fmt.Errorf("auth: expected AuthenticationOk, got sub-type %d", subType)
		}
		return nil
	case wire.MsgErrorResponse:
		fields, err := wire.DecodeErrorFields(msg.Payload)
		if err != nil {
			return err
		}
		return fmt.Errorf("auth: server rejected authentication: %s", fields.Message())
	default:
		return fmt.Errorf("auth: unexpected message %q while waiting for AuthenticationOk", msg.Type)
	}
}
