// Package cookie provides HTTP cookie management with HMAC signing and
// pluggable payload encryption.
//
// # Features
//
//   - HMAC-SHA256 signing for tamper detection
//   - Secret rotation: sign with the first secret, verify against all
//   - Encrypted cookies through an injected Cipher
//   - 4KB size limit enforcement
//   - Secure defaults (HttpOnly, SameSite=Strict, Path=/)
//   - Environment-based configuration
//
// # Basic Usage
//
//	import "github.com/dmitrymomot/sessionguard/core/cookie"
//
//	manager, err := cookie.New([]string{"your-32-char-secret-key-here!!!!"})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	err = manager.Set(w, "theme", "dark", cookie.WithMaxAge(3600))
//	value, err := manager.Get(r, "theme")
//	manager.Delete(w, "theme")
//
// # Signed Cookies
//
// The stored value is base64url(value) + "|" + base64url(hmac):
//
//	err := manager.SetSigned(w, "session_id", sessionID)
//
//	sessionID, err := manager.GetSigned(r, "session_id")
//	if errors.Is(err, cookie.ErrBadSignature) {
//		// Cookie was tampered with
//	}
//
// # Encrypted Cookies
//
// SetEncrypted encrypts with the configured Cipher and then signs the
// ciphertext. The read side verifies the signature before decrypting:
//
//	engine, _ := secrets.New(secret, secrets.DefaultConfig())
//	manager, _ := cookie.NewWithOptions(secretList, nil, cookie.WithCipher(engine))
//
//	err := manager.SetEncrypted(w, "encrypted_access_token", token,
//		cookie.WithSecure(true),
//	)
//
//	token, ok := manager.Encrypted(r, "encrypted_access_token")
//	if !ok {
//		// missing, tampered or undecryptable; deliberately indistinguishable
//	}
//
// GetEncrypted returns the underlying error for callers that need it;
// Encrypted and HasEncrypted never do.
//
// # Configuration
//
//	var cfg cookie.Config
//	config.MustLoad(&cfg)
//	manager, err := cookie.NewFromConfig(cfg, engine)
//
// Environment variables:
//
//	COOKIE_SECRETS="secret1,secret2"  # Comma-separated, first signs
//	COOKIE_PATH="/"
//	COOKIE_DOMAIN=""
//	COOKIE_MAX_AGE="0"                # Session cookie
//	COOKIE_SECURE="false"
//	COOKIE_HTTP_ONLY="true"
//	COOKIE_SAME_SITE="3"              # http.SameSiteStrictMode
//	COOKIE_MAX_SIZE="4096"
package cookie
