package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

type contextKey string

const userIDKey = contextKey("userID")

var ErrNoIdentity = errors.New("user ID not found in context")

// Сохраняет userID в контексте
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// Достает userID из контекста
func GetUserIDFromContext(ctx context.Context) (string, error) {
	id, ok := ctx.Value(userIDKey).(string)
	if !ok || id == "" {
		return "", ErrNoIdentity
	}
	return id, nil
}

// AuthMiddleware puts the token's user id into the request context. Requests
// without a valid token pass through anonymously.
func AuthMiddleware(tokens *Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := TokenFromRequest(r)
			if tokenStr == "" {
				next.ServeHTTP(w, r) // нет токена, пропускаем
				return
			}

			claims, err := tokens.Parse(tokenStr)
			if err != nil {
				next.ServeHTTP(w, r) // невалидный токен, пропускаем
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), claims.UserID)))
		})
	}
}

// TokenFromRequest reads a bearer token from the Authorization header, or
// from the token query parameter for websocket upgrades.
func TokenFromRequest(r *http.Request) string {
	if tok := extractTokenFromHeader(r.Header.Get("Authorization")); tok != "" {
		return tok
	}
	return r.URL.Query().Get("token")
}

func extractTokenFromHeader(header string) string {
	parts := strings.Split(header, " ")
	if len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1]
	}
	return ""
}
