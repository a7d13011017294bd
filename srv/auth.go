package srv

import (
	"crypto/subtle"
	"net"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/crypto/bcrypt"
)

// AdminSecretHeader carries the shared secret on mutating requests.
const AdminSecretHeader = "x-admin-secret"

// SecretMatches compares a presented secret with the configured one. A
// configured value starting with "$2" is treated as a bcrypt hash.
func SecretMatches(configured, presented string) bool {
	if configured == "" || presented == "" {
		return false
	}
	if strings.HasPrefix(configured, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(configured), []byte(presented)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(configured), []byte(presented)) == 1
}

// authorizeAdmin runs every check a mutating request must pass before the
// store is touched: configuration, rate limit, then the shared secret.
func (s *Server) authorizeAdmin(r *http.Request) error {
	if missing := s.Config.Missing(true); len(missing) > 0 {
		return &ConfigError{Missing: missing}
	}

	ip := clientIP(r)
	if s.AdminLimiter != nil && !s.AdminLimiter.Allow(ip) {
		RecordSecurityEvent(r.Context(), "rate_limited",
			attribute.String("rate_limit.key", "ip:"+ip),
			attribute.String("path", r.URL.Path),
		)
		return ErrRateLimited
	}

	if !SecretMatches(s.Config.AdminSecret, r.Header.Get(AdminSecretHeader)) {
		RecordSecurityEvent(r.Context(), "unauthorized",
			attribute.String("client.ip", ip),
			attribute.String("http.method", r.Method),
			attribute.String("path", r.URL.Path),
		)
		return ErrUnauthorized
	}
	return nil
}

// clientIP prefers the first X-Forwarded-For hop, since the service normally
// runs behind a proxy.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
