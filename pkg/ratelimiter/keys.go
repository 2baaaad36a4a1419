package ratelimiter

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// AnonymousEmail stands in for a missing or blank email.
const AnonymousEmail = "anonymous"

// keySeparator cannot appear in IPs or normalized emails, so distinct part
// lists never join to the same input.
const keySeparator = "\x1f"

// Digest returns the hex SHA-256 of parts. Counter keys are always digests,
// so raw IPs and emails never reach a store.
func Digest(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, keySeparator)))
	return hex.EncodeToString(sum[:])
}

// NormalizeEmail trims, applies NFKC and lowercases email so visually
// identical addresses share a counter.
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(norm.NFKC.String(email))
	if email == "" {
		return AnonymousEmail
	}
	// Casers are stateful, so one is built per call.
	return cases.Lower(language.Und).String(email)
}

// IPKey returns the counter key for a client IP.
func IPKey(ip string) string {
	return Digest("ip", ip)
}

// IPEmailKey returns the counter key for a client IP and email pair.
func IPEmailKey(ip, email string) string {
	return Digest("ip+email", ip, NormalizeEmail(email))
}
