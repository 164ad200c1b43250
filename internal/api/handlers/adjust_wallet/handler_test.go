package adjust_wallet

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-WashSync/internal/service/wallets"
	"github.com/m04kA/SMC-WashSync/internal/service/wallets/models"
	"github.com/m04kA/SMC-WashSync/pkg/logger"
)

type fakeService struct {
	err          error
	gotAttendant string
	gotReq       *models.AdjustRequest
}

func (f *fakeService) AdjustWalletBalance(_ context.Context, _, attendantID string, req *models.AdjustRequest) (*models.OperationResponse, error) {
	f.gotAttendant = attendantID
	f.gotReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &models.OperationResponse{Queued: true}, nil
}

func post(svc WalletService, body string) *httptest.ResponseRecorder {
	r := mux.NewRouter()
	r.HandleFunc("/api/v1/attendants/{attendantId}/wallet/adjustments", NewHandler(svc, logger.Nop()).Handle).
		Methods(http.MethodPost)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/attendants/att-1/wallet/adjustments",
		strings.NewReader(body)))
	return w
}

func TestHandle(t *testing.T) {
	const body = `{"amount":200,"type":"tip","reason":"customer tip"}`

	svc := &fakeService{}
	w := post(svc, body)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "att-1", svc.gotAttendant)
	assert.Equal(t, "tip", svc.gotReq.Type)
	assert.Contains(t, w.Body.String(), `"queued":true`)

	assert.Equal(t, http.StatusBadRequest, post(&fakeService{err: wallets.ErrInvalidInput}, body).Code)
	assert.Equal(t, http.StatusNotFound, post(&fakeService{err: wallets.ErrWalletNotFound}, body).Code)
	assert.Equal(t, http.StatusInternalServerError, post(&fakeService{err: wallets.ErrEnqueue}, body).Code)
	assert.Equal(t, http.StatusBadRequest, post(&fakeService{}, `not json`).Code)
}
