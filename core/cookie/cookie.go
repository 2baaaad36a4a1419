package cookie

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"time"
)

const (
	// MaxCookieSize is the per-cookie limit browsers are required to honor.
	MaxCookieSize = 4096

	minSecretLength = 32
)

// Cipher encrypts cookie payloads before they are signed.
// *secrets.Engine satisfies it.
type Cipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(payload string) (string, error)
}

// Manager reads and writes plain, signed and encrypted cookies.
type Manager struct {
	signer   signer
	defaults http.Cookie
	maxSize  int
	cipher   Cipher
}

// ManagerOption configures the Manager rather than individual cookies.
type ManagerOption func(*Manager)

// WithMaxSize overrides MaxCookieSize. Non-positive values are ignored.
func WithMaxSize(size int) ManagerOption {
	return func(m *Manager) {
		if size > 0 {
			m.maxSize = size
		}
	}
}

// WithCipher enables SetEncrypted and the encrypted readers.
func WithCipher(c Cipher) ManagerOption {
	return func(m *Manager) {
		if c != nil {
			m.cipher = c
		}
	}
}

// New creates a Manager. Empty secrets are dropped; the remaining ones must
// be at least 32 characters. The first secret signs.
// Cookies default to Path=/, HttpOnly and SameSite=Strict.
func New(secrets []string, opts ...Option) (*Manager, error) {
	secrets = slices.DeleteFunc(slices.Clone(secrets), func(s string) bool { return s == "" })
	if len(secrets) == 0 {
		return nil, ErrNoSecret
	}
	for i, s := range secrets {
		if len(s) < minSecretLength {
			return nil, fmt.Errorf("%w: secret %d has %d chars, need at least %d",
				ErrSecretTooShort, i+1, len(s), minSecretLength)
		}
	}

	base := http.Cookie{
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	}

	return &Manager{
		signer:   newSigner(secrets),
		defaults: template(base, opts),
		maxSize:  MaxCookieSize,
	}, nil
}

// NewWithOptions is New followed by the manager options.
func NewWithOptions(secrets []string, cookieOpts []Option, managerOpts ...ManagerOption) (*Manager, error) {
	m, err := New(secrets, cookieOpts...)
	if err != nil {
		return nil, err
	}
	for _, opt := range managerOpts {
		opt(m)
	}
	return m, nil
}

// Set writes a plain cookie. It returns TooLargeError instead of writing a
// header the browser would drop.
func (m *Manager) Set(w http.ResponseWriter, name, value string, opts ...Option) error {
	c := template(m.defaults, opts)
	c.Name = name
	c.Value = value

	if size := len(c.String()); size > m.maxSize {
		return TooLargeError{Name: name, Size: size, Max: m.maxSize}
	}

	http.SetCookie(w, &c)
	return nil
}

// Get returns the raw cookie value or ErrNotFound.
func (m *Manager) Get(r *http.Request, name string) (string, error) {
	c, err := r.Cookie(name)
	if errors.Is(err, http.ErrNoCookie) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return c.Value, nil
}

// Present reports whether the request carries a non-empty cookie with this
// name, without verifying it.
func (m *Manager) Present(r *http.Request, name string) bool {
	v, err := m.Get(r, name)
	return err == nil && v != ""
}

// Delete expires the cookie using the manager's default attributes, so the
// browser matches it against the cookie that was set.
func (m *Manager) Delete(w http.ResponseWriter, name string) {
	c := m.defaults
	c.Name = name
	c.Value = ""
	c.MaxAge = -1
	c.Expires = time.Unix(0, 0)
	http.SetCookie(w, &c)
}

func (m *Manager) SetSigned(w http.ResponseWriter, name, value string, opts ...Option) error {
	return m.Set(w, name, m.signer.sign(name, value), opts...)
}

// GetSigned returns the verified value, ErrMalformed or ErrBadSignature.
func (m *Manager) GetSigned(r *http.Request, name string) (string, error) {
	signed, err := m.Get(r, name)
	if err != nil {
		return "", err
	}
	return m.signer.verify(name, signed)
}

// SetEncrypted encrypts value with the cipher and stores the ciphertext
// signed.
func (m *Manager) SetEncrypted(w http.ResponseWriter, name, value string, opts ...Option) error {
	if m.cipher == nil {
		return ErrNoCipher
	}
	payload, err := m.cipher.Encrypt(value)
	if err != nil {
		return fmt.Errorf("cookie: encrypt %q: %w", name, err)
	}
	return m.SetSigned(w, name, payload, opts...)
}

// GetEncrypted verifies the signature before decrypting. Cipher failures
// are reported as ErrDecryptionFailed.
func (m *Manager) GetEncrypted(r *http.Request, name string) (string, error) {
	if m.cipher == nil {
		return "", ErrNoCipher
	}
	payload, err := m.GetSigned(r, name)
	if err != nil {
		return "", err
	}
	value, err := m.cipher.Decrypt(payload)
	if err != nil {
		return "", ErrDecryptionFailed
	}
	return value, nil
}

// Encrypted returns the decrypted value and true, or "" and false when the
// cookie is missing, unsigned, tampered or undecryptable. A panicking
// cipher counts as a failure.
func (m *Manager) Encrypted(r *http.Request, name string) (value string, ok bool) {
	defer func() {
		if recover() != nil {
			value, ok = "", false
		}
	}()

	v, err := m.GetEncrypted(r, name)
	if err != nil {
		return "", false
	}
	return v, true
}

// HasEncrypted reports whether Encrypted would succeed.
func (m *Manager) HasEncrypted(r *http.Request, name string) bool {
	_, ok := m.Encrypted(r, name)
	return ok
}
