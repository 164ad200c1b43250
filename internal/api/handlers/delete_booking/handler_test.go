package delete_booking

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"

	"github.com/m04kA/SMC-WashSync/internal/api/middleware"
	"github.com/m04kA/SMC-WashSync/internal/service/bookings"
	"github.com/m04kA/SMC-WashSync/pkg/logger"
)

type fakeService struct {
	err      error
	gotID    string
	gotToken string
}

func (f *fakeService) Delete(_ context.Context, id, token string) error {
	f.gotID = id
	f.gotToken = token
	return f.err
}

func del(svc BookingService, id string) *httptest.ResponseRecorder {
	r := mux.NewRouter()
	r.HandleFunc("/api/v1/bookings/{bookingId}", NewHandler(svc, logger.Nop()).Handle).Methods(http.MethodDelete)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/bookings/"+id, nil)
	req = req.WithContext(middleware.WithToken(req.Context(), "tok"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandle(t *testing.T) {
	svc := &fakeService{}
	w := del(svc, "srv-9")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "srv-9", svc.gotID)
	assert.Equal(t, "tok", svc.gotToken)

	assert.Equal(t, http.StatusNotFound, del(&fakeService{err: bookings.ErrBookingNotFound}, "x").Code)
	assert.Equal(t, http.StatusInternalServerError, del(&fakeService{err: bookings.ErrEnqueue}, "x").Code)
}
