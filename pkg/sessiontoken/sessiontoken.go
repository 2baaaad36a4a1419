package sessiontoken

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultIdentityClaim is the payload field read as the identity.
const DefaultIdentityClaim = "sub"

// Status classifies a token.
type Status int

const (
	StatusAbsent Status = iota
	StatusValid
	StatusExpired
	StatusMalformed
)

// String implements fmt.Stringer.
func (s Status) String() string {
	switch s {
	case StatusAbsent:
		return "absent"
	case StatusValid:
		return "valid"
	case StatusExpired:
		return "expired"
	case StatusMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// Token is the outcome of validating raw token material.
// IdentityID is empty unless Valid is true.
type Token struct {
	IdentityID string
	ExpiresAt  time.Time
	Valid      bool
	Status     Status
}

// ExpirationFunc returns the expiry of token, or false when it has none
// or cannot be read.
type ExpirationFunc func(token string) (time.Time, bool)

// JWTExpiration reads the "exp" claim without verifying the signature.
func JWTExpiration(token string) (time.Time, bool) {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, false
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// Validator checks expiry and extracts identity. It is stateless after
// construction and safe for concurrent use.
type Validator struct {
	expiration    ExpirationFunc
	identityClaim string
	now           func() time.Time
	leeway        time.Duration
}

// Option configures a Validator.
type Option func(*Validator)

// WithExpiration replaces the expiry accessor.
func WithExpiration(fn ExpirationFunc) Option {
	return func(v *Validator) {
		if fn != nil {
			v.expiration = fn
		}
	}
}

// WithIdentityClaim sets the payload field holding the identity.
func WithIdentityClaim(name string) Option {
	return func(v *Validator) {
		if name != "" {
			v.identityClaim = name
		}
	}
}

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(v *Validator) {
		if now != nil {
			v.now = now
		}
	}
}

// WithLeeway tolerates clock skew when comparing expiry.
func WithLeeway(d time.Duration) Option {
	return func(v *Validator) {
		if d >= 0 {
			v.leeway = d
		}
	}
}

// New creates a Validator.
func New(opts ...Option) *Validator {
	v := &Validator{
		expiration:    JWTExpiration,
		identityClaim: DefaultIdentityClaim,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate classifies token. It never panics on malformed input.
func (v *Validator) Validate(token string) (result Token) {
	defer func() {
		if recover() != nil {
			result = Token{Status: StatusMalformed}
		}
	}()

	token = strings.TrimSpace(token)
	if token == "" {
		return Token{Status: StatusAbsent}
	}

	exp, ok := v.expiration(token)
	if !ok || exp.IsZero() {
		return Token{Status: StatusMalformed}
	}
	if !v.now().Before(exp.Add(v.leeway)) {
		return Token{ExpiresAt: exp, Status: StatusExpired}
	}

	id, ok := v.identity(token)
	if !ok {
		return Token{ExpiresAt: exp, Status: StatusMalformed}
	}

	return Token{
		IdentityID: id,
		ExpiresAt:  exp,
		Valid:      true,
		Status:     StatusValid,
	}
}

// IsValid reports whether Validate yields StatusValid.
func (v *Validator) IsValid(token string) bool {
	return v.Validate(token).Valid
}

// identity decodes the middle segment as JSON and reads the identity claim.
func (v *Validator) identity(token string) (string, bool) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return "", false
	}

	payload, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(parts[1], "="))
	if err != nil {
		return "", false
	}

	var claims map[string]any
	if err := json.Unmarshal(payload, &claims); err != nil {
		return "", false
	}

	id, ok := claims[v.identityClaim].(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}
