package auth

import "pgnative/wire"

// Cleartext implements AuthenticationCleartextPassword: the password is
// sent as-is in a PasswordMessage. It exists for compatibility with
// servers configured for trust/password auth methods; SCRAM should be
// preferred whenever the server offers it.
type Cleartext struct{}

func (c *Cleartext) Name() string { return "cleartext" }

func (c *Cleartext) Negotiate(r *wire.Reader, w *wire.Writer, creds Credentials, rest []byte) error {
	if err := w.WritePasswordMessage(creds.Password); err != nil {
		return err
	}
	return waitForOK(r)
}
