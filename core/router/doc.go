// Package router maps method and path patterns to typed handlers.
//
// Matching is delegated to net/http.ServeMux, so patterns use its syntax
// and precedence rules. The router adds a typed request context built by a
// factory, middleware at the root, group and prefix level, rendering of
// handler.Response values, panic recovery and a single error handler for
// not found, method not allowed and handler errors.
//
//	r := router.New[*AppContext](
//		router.WithContextFactory(newAppContext),
//		router.WithErrorHandler(response.ErrorHandler[*AppContext]),
//	)
//	r.Use(middleware.RequestID[*AppContext]())
//	r.Get("/healthz", health)
//	r.Route("/api", func(api router.Router[*AppContext]) {
//		api.With(requireAuth).Get("/me", me)
//	})
package router
