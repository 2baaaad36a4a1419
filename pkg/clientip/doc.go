// Package clientip extracts real client IP addresses from HTTP requests.
//
// # Header Priority
//
// GetIP checks headers in this order:
//  1. CF-Connecting-IP (Cloudflare)
//  2. DO-Connecting-IP (DigitalOcean)
//  3. X-Forwarded-For (leftmost entry)
//  4. X-Real-IP (nginx and other proxies)
//  5. RemoteAddr (direct connection)
//
// Headers are client-controlled unless a trusted proxy overwrites them. When
// the service is reachable directly, use FromRemoteAddr instead.
//
// # Validation
//
// Values are parsed with net/netip and returned in canonical form. Invalid
// values and the unspecified addresses 0.0.0.0 and :: are skipped. If no
// valid address is found, the raw RemoteAddr is returned.
//
// # Usage
//
//	ip := clientip.GetIP(r)
//	if clientip.IsLoopback(ip) {
//		// local development traffic
//	}
package clientip
