package middleware

import (
	"context"
	"net/http"
	"strings"

	"taskManager/internal/auth"
	"taskManager/internal/logger"
	"taskManager/internal/models"

	"go.uber.org/zap"
)

const UserKey contextKey = "current_user"

// UserResolver превращает subject токена в сохранённого пользователя
type UserResolver interface {
	ResolveUser(ctx context.Context, username string) (*models.User, error)
}

// Auth проверяет bearer-токен и кладёт пользователя в контекст запроса.
// Дальше идентичность передаётся явным параметром, глобального
// security-контекста нет.
func Auth(tokens *auth.TokenProvider, resolver UserResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				unauthorized(w, r, "требуется bearer-токен")
				return
			}

			claims, err := tokens.ParseToken(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				logger.Warn("HTTP: Недействительный токен",
					zap.String("client_ip", r.RemoteAddr))
				unauthorized(w, r, "недействительный или просроченный токен")
				return
			}

			user, err := resolver.ResolveUser(r.Context(), claims.Subject)
			if err != nil {
				unauthorized(w, r, "пользователь не найден")
				return
			}

			ctx := context.WithValue(r.Context(), UserKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole пропускает только пользователей с одной из ролей
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := GetUser(r.Context())
			if user == nil {
				unauthorized(w, r, "требуется аутентификация")
				return
			}
			for _, role := range roles {
				if user.HasRole(role) {
					next.ServeHTTP(w, r)
					return
				}
			}

			logger.Warn("HTTP: Недостаточно прав",
				zap.String("username", user.Username),
				zap.Strings("required", roles))

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"error":"FORBIDDEN","message":"недостаточно прав"}`))
		})
	}
}

func GetUser(ctx context.Context) *models.User {
	if user, ok := ctx.Value(UserKey).(*models.User); ok {
		return user
	}
	return nil
}

func unauthorized(w http.ResponseWriter, r *http.Request, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"UNAUTHORIZED","message":"` + message + `","request_id":"` +
		GetRequestID(r.Context()) + `"}`))
}
