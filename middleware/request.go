package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/MrEthical07/provision"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

// RequestContext attaches a request id and the caller's IP to the context
// for audit records. An incoming X-Request-ID is reused when it looks sane.
// X-Forwarded-For is honored only when trustProxy is set.
func RequestContext(trustProxy bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(requestIDHeader)
			if id == "" || len(id) > 64 || strings.ContainsAny(id, "<>\r\n") {
				id = uuid.NewString()
			}
			w.Header().Set(requestIDHeader, id)

			ctx := provision.WithRequestID(r.Context(), id)
			ctx = provision.WithClientIP(ctx, clientIP(r, trustProxy))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func clientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
			first, _, _ := strings.Cut(fwd, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
