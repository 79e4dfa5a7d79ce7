package clientip

import (
	"net"
	"net/http"
	"strings"
)

// ForwardedHeader is the proxy header consulted before the connection address.
const ForwardedHeader = "X-Forwarded-For"

// GetIP returns the client's address for the request.
// The first comma-separated entry of X-Forwarded-For wins when it parses as
// an IP; otherwise the host part of RemoteAddr is used. Returns an empty
// string when neither yields a valid address.
func GetIP(r *http.Request) string {
	if forwarded := r.Header.Get(ForwardedHeader); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := parseIP(first); ip != "" {
			return ip
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RemoteAddr without a port
		return parseIP(r.RemoteAddr)
	}
	return parseIP(host)
}

// Resolve returns the address stored by Middleware, falling back to GetIP.
func Resolve(r *http.Request) string {
	if ip := FromContext(r.Context()); ip != "" {
		return ip
	}
	return GetIP(r)
}

// parseIP validates and normalizes an IP address string.
func parseIP(ipStr string) string {
	ipStr = strings.TrimSpace(ipStr)
	if ipStr == "" {
		return ""
	}

	ip := net.ParseIP(ipStr)
	if ip == nil {
		return ""
	}

	return ip.String()
}
