package update_booking

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-WashSync/internal/service/bookings"
	"github.com/m04kA/SMC-WashSync/internal/service/bookings/models"
	"github.com/m04kA/SMC-WashSync/pkg/logger"
)

type fakeService struct {
	err    error
	gotID  string
	gotReq *models.UpdateBookingRequest
}

func (f *fakeService) Update(_ context.Context, id, _ string, req *models.UpdateBookingRequest) (*models.BookingResponse, error) {
	f.gotID = id
	f.gotReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &models.BookingResponse{LocalID: id}, nil
}

func patch(svc BookingService, id, body string) *httptest.ResponseRecorder {
	r := mux.NewRouter()
	r.HandleFunc("/api/v1/bookings/{bookingId}", NewHandler(svc, logger.Nop()).Handle).Methods(http.MethodPatch)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPatch, "/api/v1/bookings/"+id, strings.NewReader(body)))
	return w
}

func TestHandle(t *testing.T) {
	t.Run("partial update", func(t *testing.T) {
		svc := &fakeService{}
		w := patch(svc, "loc-1", `{"status":"completed","attendantId":""}`)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "loc-1", svc.gotID)
		require.NotNil(t, svc.gotReq.Status)
		assert.Equal(t, "completed", *svc.gotReq.Status)
		require.NotNil(t, svc.gotReq.AttendantID)
		assert.Empty(t, *svc.gotReq.AttendantID)
		assert.Nil(t, svc.gotReq.Amount)
	})

	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "not found", err: bookings.ErrBookingNotFound, want: http.StatusNotFound},
		{name: "attendant not found", err: bookings.ErrAttendantNotFound, want: http.StatusNotFound},
		{name: "invalid", err: bookings.ErrInvalidInput, want: http.StatusBadRequest},
		{name: "enqueue failed", err: bookings.ErrEnqueue, want: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := patch(&fakeService{err: tt.err}, "loc-1", `{"note":"x"}`)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}
