package report_connectivity

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-WashSync/internal/connectivity"
	"github.com/m04kA/SMC-WashSync/pkg/logger"
)

func TestHandle(t *testing.T) {
	monitor := connectivity.NewMonitor(nil, 0, logger.Nop(), nil)
	h := NewHandler(monitor, logger.Nop())

	var seen []connectivity.State
	unsubscribe := monitor.Subscribe(func(s connectivity.State) { seen = append(seen, s) })
	defer unsubscribe()

	w := httptest.NewRecorder()
	h.Handle(w, httptest.NewRequest(http.MethodPut, "/api/v1/connectivity",
		strings.NewReader(`{"isConnected":true,"isInternetReachable":true}`)))

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, monitor.IsOnline())
	assert.Len(t, seen, 1)
	assert.JSONEq(t, `{"isConnected":true,"isInternetReachable":true,"isOnline":true}`, w.Body.String())

	w = httptest.NewRecorder()
	h.Handle(w, httptest.NewRequest(http.MethodPut, "/api/v1/connectivity",
		strings.NewReader(`{"isConnected":true,"isInternetReachable":null}`)))

	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, monitor.IsOnline())

	w = httptest.NewRecorder()
	h.Handle(w, httptest.NewRequest(http.MethodPut, "/api/v1/connectivity", strings.NewReader(`[]`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
