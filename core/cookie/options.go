package cookie

import "net/http"

// Option adjusts an outgoing cookie. Options passed to New become the
// manager's defaults; options passed to Set override them per call.
type Option func(*http.Cookie)

func WithPath(path string) Option {
	return func(c *http.Cookie) { c.Path = path }
}

func WithDomain(domain string) Option {
	return func(c *http.Cookie) { c.Domain = domain }
}

// WithMaxAge sets Max-Age in seconds. Zero means a browser-session cookie.
func WithMaxAge(seconds int) Option {
	return func(c *http.Cookie) { c.MaxAge = seconds }
}

func WithSecure(secure bool) Option {
	return func(c *http.Cookie) { c.Secure = secure }
}

func WithHTTPOnly(httpOnly bool) Option {
	return func(c *http.Cookie) { c.HttpOnly = httpOnly }
}

func WithSameSite(sameSite http.SameSite) Option {
	return func(c *http.Cookie) { c.SameSite = sameSite }
}

// template returns a copy of base with opts applied.
func template(base http.Cookie, opts []Option) http.Cookie {
	for _, opt := range opts {
		if opt != nil {
			opt(&base)
		}
	}
	return base
}
