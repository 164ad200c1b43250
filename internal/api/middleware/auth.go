package middleware

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

const tokenKey contextKey = "bearer_token"

// TokenStore хранилище текущего токена сессии
type TokenStore interface {
	Token() string
	Set(token string)
}

// Auth берёт bearer-токен из заголовка Authorization и запоминает его в store,
// чтобы фоновая синхронизация шла с последним токеном приложения.
// Без заголовка используется сохранённый токен. Запросы без токена пропускаются:
// локальные операции работают и без сессии.
func Auth(store TokenStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token != "" {
				if token != store.Token() {
					store.Set(token)
				}
			} else {
				token = store.Token()
			}

			if token != "" {
				r = r.WithContext(WithToken(r.Context(), token))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithToken кладёт токен в контекст
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey, token)
}

// GetToken достаёт токен из контекста
func GetToken(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(tokenKey).(string)
	return token, ok && token != ""
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(h[len(prefix):])
}
