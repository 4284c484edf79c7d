package auth

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"

	"pgnative/wire"
)

// MD5 implements AuthenticationMD5Password. The digest scheme
// (md5(md5(password+user)+salt)) is fixed by the wire protocol, not a
// design choice; there is no library for it worth reaching for over
// crypto/md5, which is why this is the one auth mechanism implemented
// directly on the standard library.
type MD5 struct{}

func (m *MD5) Name() string { return "md5" }

func (m *MD5) Negotiate(r *wire.Reader, w *wire.Writer, creds Credentials, rest []byte) error {
	if len(rest) != 4 {
		return fmt.Errorf("auth: md5 salt must be 4 bytes, got %d", len(rest))
	}
	inner := md5Hex(append([]byte(creds.Password), []byte(creds.User)...))
	outer := md5Hex(append([]byte(inner), rest...))
	if err := w.WritePasswordMessage("md5" + outer); err != nil {
		return err
	}
	return waitForOK(r)
}

func md5Hex(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}
