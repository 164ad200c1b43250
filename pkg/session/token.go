// Package session хранит текущий bearer-токен пользователя.
// Токен выдаёт и обновляет приложение; агент его не проверяет,
// а только читает срок действия, чтобы не ходить в сеть с просроченной сессией.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoToken возвращается, когда токен ещё не передан
var ErrNoToken = errors.New("session: no bearer token")

// ErrExpired возвращается для токена с истёкшим exp
var ErrExpired = errors.New("session: bearer token expired")

// ExpiresAt читает claim exp без проверки подписи.
// ok=false, если токен не JWT или exp отсутствует.
func ExpiresAt(raw string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// Check проверяет, что токен есть и не просрочен на момент now.
// Непрозрачные (не JWT) токены считаются действительными.
func Check(raw string, now time.Time) error {
	if raw == "" {
		return ErrNoToken
	}
	if exp, ok := ExpiresAt(raw); ok && !now.Before(exp) {
		return ErrExpired
	}
	return nil
}

// Holder потокобезопасное хранилище текущего токена
type Holder struct {
	mu    sync.RWMutex
	token string
}

// NewHolder создает хранилище с начальным токеном (может быть пустым)
func NewHolder(token string) *Holder {
	return &Holder{token: token}
}

// Token текущий токен
func (h *Holder) Token() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.token
}

// Set заменяет токен
func (h *Holder) Set(token string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.token = token
}
