package cookie

import (
	"errors"
	"fmt"
)

var (
	ErrNoSecret       = errors.New("cookie: no signing secret")
	ErrSecretTooShort = errors.New("cookie: signing secret too short")
	ErrNotFound       = errors.New("cookie: not found")
	ErrMalformed      = errors.New("cookie: malformed signed value")
	ErrBadSignature   = errors.New("cookie: signature mismatch")
	ErrNoCipher       = errors.New("cookie: no cipher configured")

	// ErrDecryptionFailed hides the cipher's own error so callers cannot
	// tell a wrong key from a corrupted payload.
	ErrDecryptionFailed = errors.New("cookie: decryption failed")
)

// TooLargeError is returned by Set when the serialized Set-Cookie header
// would exceed the manager's size limit.
type TooLargeError struct {
	Name string
	Size int
	Max  int
}

func (e TooLargeError) Error() string {
	return fmt.Sprintf("cookie: %q is %d bytes, limit %d", e.Name, e.Size, e.Max)
}
