// Package guard assembles the sessionguard HTTP service: the encrypted
// session cookie, the auth gates, the four rate limit buckets and the
// server lifecycle.
//
// Routes:
//
//	GET    /healthz            health bucket, counting store healthcheck
//	GET    /api/me             required session
//	GET    /api/availability   optional session, feature bucket
//	POST   /auth/session       auth bucket keyed by IP and email; exchanges
//	                           credentials through the IdentityProvider and
//	                           sets the encrypted session cookie
//	DELETE /auth/session       clears the session cookie
//
// Every route also passes the global bucket, except static paths and, outside
// production, loopback clients.
//
// NewApp validates the whole Config first and returns a
// *config.ValidationError listing every violation, so the process can refuse
// to start with weak secrets or unusable quotas.
package guard
