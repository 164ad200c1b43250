package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"

	"github.com/m04kA/SMC-WashSync/pkg/session"
)

type observation struct {
	method, path, status string
}

type fakeObserver struct {
	mu   sync.Mutex
	seen []observation
}

func (o *fakeObserver) ObserveHTTP(method, path, status string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.seen = append(o.seen, observation{method, path, status})
}

func TestAuth(t *testing.T) {
	holder := session.NewHolder("stored")

	var got string
	var present bool
	h := Auth(holder)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, present = GetToken(r.Context())
	}))

	t.Run("stored token used without header", func(t *testing.T) {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		assert.True(t, present)
		assert.Equal(t, "stored", got)
	})

	t.Run("header replaces stored token", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer fresh")
		h.ServeHTTP(httptest.NewRecorder(), r)
		assert.Equal(t, "fresh", got)
		assert.Equal(t, "fresh", holder.Token())
	})

	t.Run("no token at all", func(t *testing.T) {
		empty := Auth(session.NewHolder(""))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, present = GetToken(r.Context())
		}))
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Basic abc")
		empty.ServeHTTP(httptest.NewRecorder(), r)
		assert.False(t, present)
	})
}

func TestMetricsMiddleware_UsesRouteTemplate(t *testing.T) {
	obs := &fakeObserver{}
	r := mux.NewRouter()
	r.Use(MetricsMiddleware(obs))
	r.HandleFunc("/bookings/{bookingId}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/bookings/abc-123", nil))

	assert.Equal(t, []observation{{http.MethodGet, "/bookings/{bookingId}", "404"}}, obs.seen)
}
