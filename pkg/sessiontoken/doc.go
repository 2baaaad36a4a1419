// Package sessiontoken checks decrypted session token material for expiry and
// extracts the identity it carries.
//
// The token is an identity-provider JWT. Its signature is not verified here:
// the token only reaches this package after the session cookie signature and
// the encryption envelope have both been verified, and the provider remains
// the authority on its own signing keys.
//
// Validation never returns an error. Every anomaly maps to a Status:
//
//	v := sessiontoken.New()
//	tok := v.Validate(raw)
//	switch tok.Status {
//	case sessiontoken.StatusValid:
//		// tok.IdentityID, tok.ExpiresAt
//	case sessiontoken.StatusExpired:
//	case sessiontoken.StatusMalformed:
//	case sessiontoken.StatusAbsent:
//	}
//
// The expiry accessor is replaceable with WithExpiration when the provider
// exposes its own; by default the JWT "exp" claim is read.
package sessiontoken
