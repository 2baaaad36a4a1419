package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/dmitrymomot/sessionguard/core/cookie"
	"github.com/dmitrymomot/sessionguard/core/handler"
	"github.com/dmitrymomot/sessionguard/core/logger"
	"github.com/dmitrymomot/sessionguard/core/response"
	"github.com/dmitrymomot/sessionguard/pkg/sessiontoken"
)

// DefaultSessionCookie is the cookie carrying the encrypted access token.
const DefaultSessionCookie = "encrypted_access_token"

// AuthOutcome classifies the session cookie of a request.
type AuthOutcome int

const (
	AuthNoToken AuthOutcome = iota
	AuthValid
	AuthExpired
	AuthMalformed
)

// String implements fmt.Stringer.
func (o AuthOutcome) String() string {
	switch o {
	case AuthNoToken:
		return "no_token"
	case AuthValid:
		return "valid"
	case AuthExpired:
		return "expired"
	case AuthMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// User is the identity attached to an authenticated request.
type User struct {
	IdentityID string    `json:"identityId"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

type userContextKey struct{}

// AuthConfig configures RequireAuth and OptionalAuth.
type AuthConfig struct {
	// Cookies decrypts the session cookie. Must have a cipher.
	Cookies *cookie.Manager
	// CookieName defaults to DefaultSessionCookie.
	CookieName string
	// Validator classifies the decrypted token (default: sessiontoken.New()).
	Validator *sessiontoken.Validator
	Logger    *slog.Logger
	// Skip defines a function to skip middleware execution for specific requests
	Skip SkipFunc
	// ErrorHandler builds the rejection for the required gate
	// (default: 401 with error, details and timestamp). Expired and
	// malformed cookies are cleared before it writes.
	ErrorHandler func(ctx handler.Context, outcome AuthOutcome) handler.Response
	// Now is the clock used for response timestamps.
	Now func() time.Time
}

// UnauthorizedBody is the JSON body of a rejected request.
type UnauthorizedBody struct {
	Error     string `json:"error"`
	Details   string `json:"details"`
	Timestamp string `json:"timestamp"`
}

// RequireAuth rejects requests without a valid session with 401. Expired
// and malformed cookies are cleared so the client stops replaying them;
// a missing cookie is rejected without touching cookies.
// Panics if no cookie manager is provided.
//
//	r.With(middleware.RequireAuth[*guard.Context](middleware.AuthConfig{
//		Cookies: cookies,
//	})).Get("/api/me", me)
func RequireAuth[C handler.Context](cfg AuthConfig) handler.Middleware[C] {
	g := newGate(cfg)

	return func(next handler.HandlerFunc[C]) handler.HandlerFunc[C] {
		return func(ctx C) handler.Response {
			if g.cfg.Skip != nil && g.cfg.Skip(ctx) {
				return next(ctx)
			}

			r := ctx.Request()
			user, outcome := g.authenticate(r)
			if outcome == AuthValid {
				ctx.SetValue(userContextKey{}, user)
				return next(ctx)
			}

			g.cfg.Logger.DebugContext(ctx, "request not authenticated",
				logger.Component("auth"),
				logger.Outcome(outcome.String()),
				logger.Method(r.Method),
				logger.Path(r.URL.Path))

			resp := g.cfg.ErrorHandler(ctx, outcome)
			if outcome != AuthExpired && outcome != AuthMalformed {
				return resp
			}
			return func(w http.ResponseWriter, r *http.Request) error {
				g.cfg.Cookies.Delete(w, g.cfg.CookieName)
				return render(resp, w, r)
			}
		}
	}
}

// OptionalAuth attaches the user when the session is valid and otherwise
// continues anonymously. It never rejects and never clears cookies.
// Panics if no cookie manager is provided.
func OptionalAuth[C handler.Context](cfg AuthConfig) handler.Middleware[C] {
	g := newGate(cfg)

	return func(next handler.HandlerFunc[C]) handler.HandlerFunc[C] {
		return func(ctx C) handler.Response {
			if g.cfg.Skip != nil && g.cfg.Skip(ctx) {
				return next(ctx)
			}

			r := ctx.Request()
			user, outcome := g.authenticate(r)
			if outcome == AuthValid {
				ctx.SetValue(userContextKey{}, user)
			} else {
				g.cfg.Logger.DebugContext(ctx, "continuing anonymously",
					logger.Component("auth"),
					logger.Outcome(outcome.String()),
					logger.Path(r.URL.Path))
			}
			return next(ctx)
		}
	}
}

// WithUser stores user in ctx.
func WithUser(ctx context.Context, user User) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// GetUser returns the user attached by the auth gates.
func GetUser(ctx context.Context) (User, bool) {
	user, ok := ctx.Value(userContextKey{}).(User)
	return user, ok
}

type gate struct {
	cfg AuthConfig
}

func newGate(cfg AuthConfig) *gate {
	if cfg.Cookies == nil {
		panic("auth middleware: cookie manager is required")
	}
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultSessionCookie
	}
	if cfg.Validator == nil {
		cfg.Validator = sessiontoken.New()
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Discard()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.ErrorHandler == nil {
		now := cfg.Now
		cfg.ErrorHandler = func(ctx handler.Context, outcome AuthOutcome) handler.Response {
			return response.JSONWithStatus(UnauthorizedBody{
				Error:     "Unauthorized",
				Details:   unauthorizedDetails(outcome),
				Timestamp: now().UTC().Format(time.RFC3339),
			}, http.StatusUnauthorized)
		}
	}
	return &gate{cfg: cfg}
}

// authenticate classifies the request. Any panic below it counts as a
// malformed cookie.
func (g *gate) authenticate(r *http.Request) (user User, outcome AuthOutcome) {
	defer func() {
		if rec := recover(); rec != nil {
			g.cfg.Logger.WarnContext(r.Context(), "recovered panic in auth gate",
				logger.Component("auth"),
				slog.Any("panic", rec))
			user, outcome = User{}, AuthMalformed
		}
	}()

	if !g.cfg.Cookies.Present(r, g.cfg.CookieName) {
		return User{}, AuthNoToken
	}

	raw, ok := g.cfg.Cookies.Encrypted(r, g.cfg.CookieName)
	if !ok {
		return User{}, AuthMalformed
	}

	token := g.cfg.Validator.Validate(raw)
	switch token.Status {
	case sessiontoken.StatusValid:
		return User{IdentityID: token.IdentityID, ExpiresAt: token.ExpiresAt}, AuthValid
	case sessiontoken.StatusExpired:
		return User{}, AuthExpired
	default:
		// An empty token inside a valid envelope is still a bad cookie
		return User{}, AuthMalformed
	}
}

func unauthorizedDetails(outcome AuthOutcome) string {
	switch outcome {
	case AuthExpired:
		return "Session has expired"
	case AuthMalformed:
		return "Session is invalid"
	default:
		return "Authentication required"
	}
}
