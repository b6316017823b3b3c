package security

import (
	"net"
	"net/http"
	"strings"
)

// GetClientIP extracts the client IP used as the rate limiting key.
//
// Only enable trustProxy when running behind a reverse proxy you control;
// otherwise X-Forwarded-For is attacker-controlled and rate limits can be
// bypassed by rotating the header. trustedProxyCount is how many rightmost
// entries in X-Forwarded-For belong to proxies you trust.
func GetClientIP(r *http.Request, trustProxy bool, trustedProxyCount int) string {
	if trustProxy {
		if ip := extractIPFromXFF(r.Header.Get("X-Forwarded-For"), trustedProxyCount); ip != "" {
			return ip
		}
		if ip := extractIPFromXRealIP(r.Header.Get("X-Real-IP")); ip != "" {
			return ip
		}
	}
	return extractIPFromRemoteAddr(r.RemoteAddr)
}

// extractIPFromXFF picks the client entry from an X-Forwarded-For list of the
// form "client, proxyN, ..., proxy1" where the rightmost entries were added
// by trusted proxies.
func extractIPFromXFF(xff string, trustedProxyCount int) string {
	if xff == "" {
		return ""
	}

	ips := strings.Split(xff, ",")
	clientIP := strings.TrimSpace(ips[calculateClientIPIndex(len(ips), trustedProxyCount)])

	if net.ParseIP(clientIP) != nil {
		return clientIP
	}
	return ""
}

// calculateClientIPIndex returns the index of the client IP given the number
// of entries and trusted proxies. A count of 0 is treated as 1 trusted proxy.
// When there are fewer entries than expected, the leftmost entry is used.
func calculateClientIPIndex(numIPs, trustedProxyCount int) int {
	proxyCount := trustedProxyCount
	if proxyCount == 0 {
		proxyCount = 1
	}

	clientIndex := numIPs - proxyCount - 1
	if clientIndex < 0 {
		return 0
	}
	return clientIndex
}

func extractIPFromXRealIP(xri string) string {
	if xri == "" {
		return ""
	}
	if net.ParseIP(xri) != nil {
		return xri
	}
	return ""
}

func extractIPFromRemoteAddr(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}
