// Package middleware provides session authentication, rate limiting and the
// request plumbing they depend on as handler.Middleware values.
//
// Every constructor is generic over the request context, configured
// through a Config struct with a Skip predicate and, where a request can be
// rejected, an ErrorHandler hook that returns a handler.Response.
//
// # Authentication
//
// RequireAuth and OptionalAuth read the encrypted session cookie through a
// cookie.Manager, classify it with a sessiontoken.Validator and attach a User
// to the request context:
//
//	gate := middleware.AuthConfig{Cookies: cookies, Logger: log}
//	r.With(middleware.RequireAuth[*guard.Context](gate)).Get("/api/me", me)
//	r.With(middleware.OptionalAuth[*guard.Context](gate)).Get("/api/availability", availability)
//
//	func me(ctx *guard.Context) handler.Response {
//		user, _ := middleware.GetUser(ctx)
//		return response.JSON(user)
//	}
//
// RequireAuth answers 401 with {error, details, timestamp}. Expired or
// malformed cookies are deleted; a missing cookie is not. OptionalAuth never
// rejects. Neither lets a decryption or parsing failure escape as a 500.
//
// # Rate limiting
//
// RateLimit applies one ratelimiter.Bucket. Skip predicates act as an
// allow-list and run before the key is computed:
//
//	r.Use(middleware.RateLimit[*guard.Context](middleware.RateLimitConfig{
//		Bucket:       limiter.MustBucket("global"),
//		KeyExtractor: middleware.KeyByIP,
//		Skip:         middleware.SkipAny(middleware.SkipPathPrefixes("/static/"), middleware.SkipLoopback),
//	}))
//
// Store failures reject with 429 unless FailOpen is set.
//
// # Plumbing
//
// RequestID, ClientIP, Logging, SecurityHeaders and BodyLimit cover request
// correlation, client address extraction, access logs with redacted
// credentials, response hardening and body caps.
package middleware
