package guard

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrymomot/sessionguard/core/cookie"
	"github.com/dmitrymomot/sessionguard/core/handler"
	"github.com/dmitrymomot/sessionguard/core/logger"
	"github.com/dmitrymomot/sessionguard/core/response"
	"github.com/dmitrymomot/sessionguard/core/router"
	"github.com/dmitrymomot/sessionguard/middleware"
)

// maxSessionBody caps POST /auth/session bodies.
const maxSessionBody = 16 << 10

func (a *App) routes() http.Handler {
	gate := middleware.AuthConfig{
		Cookies:    a.cookies,
		CookieName: a.config.SessionCookie,
		Validator:  a.validator,
		Logger:     a.logger,
		Now:        a.now,
	}

	limit := func(bucket string, key middleware.KeyExtractor) handler.Middleware[*Context] {
		return middleware.RateLimit[*Context](middleware.RateLimitConfig{
			Bucket:       a.limiter.MustBucket(bucket),
			KeyExtractor: key,
			Logger:       a.logger,
		})
	}

	globalSkip := middleware.SkipPathPrefixes("/static/", "/favicon.ico")
	if !a.config.IsProduction() {
		globalSkip = middleware.SkipAny(globalSkip, middleware.SkipLoopback)
	}

	security := middleware.APISecurity
	security.IsDevelopment = !a.config.IsProduction()

	r := router.New[*Context](
		router.WithContextFactory(newContext),
		router.WithErrorHandler(response.ErrorHandler[*Context]),
		router.WithLogger[*Context](a.logger),
	)

	r.Use(
		middleware.RequestID[*Context](),
		middleware.ClientIPWithConfig[*Context](middleware.ClientIPConfig{TrustProxyHeaders: a.config.TrustProxyHeaders}),
		middleware.Logging[*Context](a.logger),
		middleware.SecurityHeadersWithConfig[*Context](security),
		middleware.RateLimit[*Context](middleware.RateLimitConfig{
			Bucket: a.limiter.MustBucket(BucketGlobal),
			Skip:   globalSkip,
			Logger: a.logger,
		}),
	)

	r.With(limit(BucketHealth, middleware.KeyByIP)).Get("/healthz", a.handleHealth)
	r.With(middleware.RequireAuth[*Context](gate)).Get("/api/me", a.handleMe)
	r.With(
		limit(BucketFeature, middleware.KeyByIP),
		middleware.OptionalAuth[*Context](gate),
	).Get("/api/availability", a.handleAvailability)

	r.Route("/auth", func(r router.Router[*Context]) {
		r.With(
			middleware.BodyLimit[*Context](maxSessionBody),
			limit(BucketAuth, middleware.KeyByIPAndEmail("email")),
		).Post("/session", a.handleCreateSession)
		r.Delete("/session", a.handleDeleteSession)
	})

	return r
}

type healthResponse struct {
	Status string `json:"status"`
}

func (a *App) handleHealth(ctx *Context) handler.Response {
	if err := a.healthcheck(ctx); err != nil {
		a.logger.ErrorContext(ctx, "healthcheck failed", logger.Component("app"), logger.Error(err))
		return response.JSONWithStatus(healthResponse{Status: "unavailable"}, http.StatusServiceUnavailable)
	}
	return response.JSON(healthResponse{Status: "ok"})
}

func (a *App) handleMe(ctx *Context) handler.Response {
	user, _ := middleware.GetUser(ctx)
	return response.JSON(user)
}

type availabilityResponse struct {
	Authenticated bool     `json:"authenticated"`
	IdentityID    string   `json:"identityId,omitempty"`
	Features      []string `json:"features"`
}

func (a *App) handleAvailability(ctx *Context) handler.Response {
	resp := availabilityResponse{Features: []string{"public"}}
	if user, ok := middleware.GetUser(ctx); ok {
		resp.Authenticated = true
		resp.IdentityID = user.IdentityID
		resp.Features = append(resp.Features, "account")
	}
	return response.JSON(resp)
}

func (a *App) handleCreateSession(ctx *Context) handler.Response {
	if a.provider == nil {
		return response.Error(response.ErrServiceUnavailable.WithMessage("Sign in is not configured"))
	}

	var req SessionRequest
	if err := json.NewDecoder(ctx.Request().Body).Decode(&req); err != nil {
		return response.Error(response.ErrBadRequest.WithMessage("Request body must be JSON"))
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Credential == "" {
		return response.Error(response.ErrBadRequest.WithMessage("email and credential are required"))
	}

	token, err := a.provider.Exchange(ctx, req)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			return response.Error(response.ErrUnauthorized.WithMessage("Invalid credentials"))
		}
		a.logger.ErrorContext(ctx, "identity provider exchange failed",
			logger.Component("app"), logger.Error(err))
		return response.Error(response.ErrServiceUnavailable)
	}

	session := a.validator.Validate(token)
	if !session.Valid {
		a.logger.WarnContext(ctx, "identity provider returned unusable token",
			logger.Component("app"), logger.Outcome(session.Status.String()))
		return response.Error(response.ErrUnauthorized.WithMessage("Invalid credentials"))
	}

	maxAge := int(session.ExpiresAt.Sub(a.now()) / time.Second)
	body := response.JSON(middleware.User{
		IdentityID: session.IdentityID,
		ExpiresAt:  session.ExpiresAt,
	})

	return func(w http.ResponseWriter, r *http.Request) error {
		if err := a.cookies.SetEncrypted(w, a.config.SessionCookie, token, cookie.WithMaxAge(max(maxAge, 1))); err != nil {
			a.logger.ErrorContext(r.Context(), "set session cookie", logger.Component("app"), logger.Error(err))
			return response.ErrInternalServerError
		}
		return body(w, r)
	}
}

func (a *App) handleDeleteSession(*Context) handler.Response {
	return func(w http.ResponseWriter, r *http.Request) error {
		a.cookies.Delete(w, a.config.SessionCookie)
		return response.NoContent()(w, r)
	}
}
