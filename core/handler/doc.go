// Package handler defines the typed handler, response and middleware
// contracts shared by the router and the middleware packages.
//
// A handler receives a Context and returns a Response that is rendered
// later by the router:
//
//	func me(ctx *guard.Context) handler.Response {
//		user, ok := middleware.GetUser(ctx)
//		if !ok {
//			return response.Error(response.ErrUnauthorized)
//		}
//		return response.JSON(user)
//	}
//
// Middleware wraps a HandlerFunc and may replace or decorate its Response:
//
//	func Timing[C handler.Context]() handler.Middleware[C] {
//		return func(next handler.HandlerFunc[C]) handler.HandlerFunc[C] {
//			return func(ctx C) handler.Response {
//				start := time.Now()
//				resp := next(ctx)
//				return func(w http.ResponseWriter, r *http.Request) error {
//					w.Header().Set("Server-Timing", fmt.Sprintf("app;dur=%d", time.Since(start).Milliseconds()))
//					return resp(w, r)
//				}
//			}
//		}
//	}
package handler
