package middleware

import (
	"context"
	"net/http"
	"strings"
)

type ticketContextKey struct{}

// TicketFromContext returns the registration ticket extracted by [Ticket].
func TicketFromContext(ctx context.Context) (string, bool) {
	ticket, ok := ctx.Value(ticketContextKey{}).(string)
	return ticket, ok && ticket != ""
}

// Ticket moves a bearer registration ticket from the Authorization header
// into the request context. Requests without one pass through unchanged;
// the engine decides what a missing session means for each step.
func Ticket(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r.Header.Get("Authorization"))
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		ctx := context.WithValue(r.Context(), ticketContextKey{}, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := strings.TrimSpace(value[len(bearer):])
	if token == "" {
		return "", false
	}

	return token, true
}
