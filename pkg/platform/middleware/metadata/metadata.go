package metadata

import (
	"net/http"
	"strings"

	"github.com/mssola/useragent"

	"credchain/pkg/requestcontext"
)

// ClientMetadata extracts client IP address and User-Agent from the request
// and adds them to the context for audit events.
// This middleware should be applied early in the chain.
func ClientMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithClientMetadata(r.Context(), ClientIPFromRequest(r), r.Header.Get("User-Agent"))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ClientIPFromRequest extracts the real client IP from the request, handling proxies and load balancers.
func ClientIPFromRequest(r *http.Request) string {
	// X-Forwarded-For can contain multiple IPs (client, proxy1, proxy2, ...);
	// the first is the original client.
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	// RemoteAddr is "ip:port", or "[::1]:port" for IPv6.
	if addr := r.RemoteAddr; addr != "" {
		if idx := strings.LastIndex(addr, ":"); idx != -1 {
			return strings.Trim(addr[:idx], "[]")
		}
		return addr
	}

	return "unknown"
}

// DescribeUserAgent reduces a User-Agent header to a short client label such
// as "Chrome on Linux", "bot" or "curl/8.5.0" for access logs.
func DescribeUserAgent(header string) string {
	if header == "" {
		return "unknown"
	}
	ua := useragent.New(header)
	if ua.Bot() {
		return "bot"
	}
	name, _ := ua.Browser()
	os := ua.OS()
	switch {
	case name == "" || os == "":
		if idx := strings.IndexByte(header, ' '); idx != -1 {
			return header[:idx]
		}
		return header
	case ua.Mobile():
		return name + " on " + os + " (mobile)"
	default:
		return name + " on " + os
	}
}
