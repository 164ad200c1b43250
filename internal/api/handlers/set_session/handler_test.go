package set_session

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-WashSync/pkg/logger"
	"github.com/m04kA/SMC-WashSync/pkg/session"
)

type fakeTrigger struct{ calls int }

func (f *fakeTrigger) TriggerBackground() { f.calls++ }

func signed(t *testing.T, exp time.Time) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": exp.Unix()}).
		SignedString([]byte("secret"))
	require.NoError(t, err)
	return token
}

func put(h *Handler, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.Handle(w, httptest.NewRequest(http.MethodPut, "/api/v1/session", strings.NewReader(body)))
	return w
}

func TestHandle(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	newHandler := func() (*Handler, *session.Holder, *fakeTrigger) {
		holder := session.NewHolder("")
		trigger := &fakeTrigger{}
		h := NewHandler(holder, trigger, logger.Nop())
		h.now = func() time.Time { return now }
		return h, holder, trigger
	}

	t.Run("valid jwt", func(t *testing.T) {
		h, holder, trigger := newHandler()
		token := signed(t, now.Add(time.Hour))

		w := put(h, `{"token":"`+token+`"}`)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, token, holder.Token())
		assert.Equal(t, 1, trigger.calls)
		assert.Contains(t, w.Body.String(), "expiresAt")
	})

	t.Run("opaque token", func(t *testing.T) {
		h, holder, _ := newHandler()
		w := put(h, `{"token":"opaque-token"}`)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "opaque-token", holder.Token())
		assert.JSONEq(t, `{}`, w.Body.String())
	})

	t.Run("expired", func(t *testing.T) {
		h, holder, trigger := newHandler()
		w := put(h, `{"token":"`+signed(t, now.Add(-time.Minute))+`"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Empty(t, holder.Token())
		assert.Zero(t, trigger.calls)
	})

	t.Run("empty", func(t *testing.T) {
		h, _, _ := newHandler()
		assert.Equal(t, http.StatusBadRequest, put(h, `{"token":"  "}`).Code)
	})
}
