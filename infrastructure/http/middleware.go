package http

import (
	"context"
	"net/http"
	"strings"

	"chat-hub/auth"
	"chat-hub/domain"
)

type contextKey string

const claimsKey contextKey = "claims"

// Authenticator rejects requests without a valid bearer token and stores the
// claims on the request context.
func Authenticator(tokens *auth.TokenIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token := strings.TrimPrefix(header, "Bearer ")
			if token == "" || token == header {
				respondJSON(w, http.StatusUnauthorized, errorBody{Error: "missing bearer token"})
				return
			}
			claims, err := tokens.Validate(token)
			if err != nil {
				respondJSON(w, http.StatusUnauthorized, errorBody{Error: "invalid token"})
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey, claims)))
		})
	}
}

func claimsFrom(r *http.Request) *auth.Claims {
	claims, _ := r.Context().Value(claimsKey).(*auth.Claims)
	return claims
}

func userFrom(r *http.Request) domain.UserID {
	if c := claimsFrom(r); c != nil {
		return domain.UserID(c.UserID)
	}
	return ""
}
