package adjust_wallet

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-WashSync/internal/api/handlers"
	"github.com/m04kA/SMC-WashSync/internal/api/middleware"
	"github.com/m04kA/SMC-WashSync/internal/service/wallets"
	"github.com/m04kA/SMC-WashSync/internal/service/wallets/models"
)

const (
	msgInvalidAttendantID = "некорректный ID мойщика"
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidInput       = "некорректная корректировка: нужны сумма больше нуля, тип tip или deduction и причина"
	msgNotFound           = "кошелёк не найден"
	msgNotSaved           = "не удалось сохранить корректировку"
)

type Handler struct {
	service WalletService
	logger  Logger
}

func NewHandler(service WalletService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle POST /api/v1/attendants/{attendantId}/wallet/adjustments
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	attendantID := mux.Vars(r)["attendantId"]
	if attendantID == "" {
		h.logger.Warn("POST /attendants/{id}/wallet/adjustments - Missing attendant ID")
		handlers.RespondBadRequest(w, msgInvalidAttendantID)
		return
	}

	var req models.AdjustRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /attendants/{id}/wallet/adjustments - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	token, _ := middleware.GetToken(r.Context())

	result, err := h.service.AdjustWalletBalance(r.Context(), token, attendantID, &req)
	if err != nil {
		switch {
		case errors.Is(err, wallets.ErrInvalidInput):
			h.logger.Warn("POST /attendants/{id}/wallet/adjustments - Invalid input: attendant_id=%s, error=%v",
				attendantID, err)
			handlers.RespondBadRequest(w, msgInvalidInput)

		case errors.Is(err, wallets.ErrWalletNotFound):
			h.logger.Warn("POST /attendants/{id}/wallet/adjustments - Wallet not found: attendant_id=%s", attendantID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, wallets.ErrEnqueue):
			h.logger.Error("POST /attendants/{id}/wallet/adjustments - Failed to queue adjustment: attendant_id=%s, error=%v",
				attendantID, err)
			handlers.RespondError(w, http.StatusInternalServerError, msgNotSaved)

		default:
			h.logger.Error("POST /attendants/{id}/wallet/adjustments - Failed to adjust wallet: attendant_id=%s, error=%v",
				attendantID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /attendants/{id}/wallet/adjustments - Wallet adjusted: attendant_id=%s, type=%s, queued=%t",
		attendantID, req.Type, result.Queued)
	handlers.RespondJSON(w, http.StatusCreated, result)
}
