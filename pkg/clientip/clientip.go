package clientip

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

var headers = []string{
	"CF-Connecting-IP",
	"DO-Connecting-IP",
	"X-Forwarded-For",
	"X-Real-IP",
}

// GetIP returns the client IP, preferring proxy headers over RemoteAddr.
// For X-Forwarded-For it takes the right-most entry, the one appended by the
// proxy in front of the server. Entries to its left are client supplied.
func GetIP(r *http.Request) string {
	for _, h := range headers {
		v := r.Header.Get(h)
		if v == "" {
			continue
		}
		if h == "X-Forwarded-For" {
			v = v[strings.LastIndex(v, ",")+1:]
		}
		if ip, ok := parse(v); ok {
			return ip
		}
	}
	return FromRemoteAddr(r)
}

// FromRemoteAddr returns the IP of the direct peer, ignoring headers.
func FromRemoteAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if ip, ok := parse(host); ok {
		return ip
	}
	return r.RemoteAddr
}

// IsLoopback reports whether ip is a loopback address.
func IsLoopback(ip string) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	return addr.Unmap().IsLoopback()
}

func parse(s string) (string, bool) {
	addr, err := netip.ParseAddr(strings.TrimSpace(s))
	if err != nil || addr.IsUnspecified() {
		return "", false
	}
	return addr.Unmap().WithZone("").String(), true
}
