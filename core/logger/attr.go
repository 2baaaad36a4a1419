package logger

import (
	"log/slog"
	"time"
)

// Helpers return the zero slog.Attr for empty input; slog drops it, so
// call sites never need nil or empty checks.

const keyDigestLen = 12

func str(key, v string) slog.Attr {
	if v == "" {
		return slog.Attr{}
	}
	return slog.String(key, v)
}

// Error logs err under "error".
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Violations logs configuration problems as a list under "violations".
func Violations(v []string) slog.Attr {
	if len(v) == 0 {
		return slog.Attr{}
	}
	return slog.Any("violations", v)
}

func Component(name string) slog.Attr { return str("component", name) }
func Event(name string) slog.Attr     { return str("event", name) }

func RequestID(id string) slog.Attr  { return str("request_id", id) }
func Method(method string) slog.Attr { return str("method", method) }
func Path(path string) slog.Attr     { return str("path", path) }
func UserAgent(ua string) slog.Attr  { return str("user_agent", ua) }

func StatusCode(code int) slog.Attr { return slog.Int("status_code", code) }
func BytesOut(n int64) slog.Attr    { return slog.Int64("bytes_out", n) }

func Duration(d time.Duration) slog.Attr   { return slog.Duration("duration", d) }
func RetryAfter(d time.Duration) slog.Attr { return slog.Duration("retry_after", d) }

// Bucket names the rate-limit bucket a record is about.
func Bucket(name string) slog.Attr { return str("bucket", name) }

// KeyDigest logs the first characters of a counter key digest. Raw IPs and
// emails never reach this helper; only their digests do.
func KeyDigest(key string) slog.Attr {
	if len(key) > keyDigestLen {
		key = key[:keyDigestLen]
	}
	return str("key_digest", key)
}

// Outcome logs an authentication outcome such as "expired".
func Outcome(outcome string) slog.Attr { return str("outcome", outcome) }
