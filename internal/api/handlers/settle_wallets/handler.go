package settle_wallets

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-WashSync/internal/api/handlers"
	"github.com/m04kA/SMC-WashSync/internal/api/middleware"
	"github.com/m04kA/SMC-WashSync/internal/service/wallets"
	"github.com/m04kA/SMC-WashSync/internal/service/wallets/models"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidInput       = "нужно указать хотя бы одного мойщика"
	msgNotFound           = "кошелёк не найден"
	msgNotSaved           = "не удалось сохранить расчёт"
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

// Handle POST /api/v1/wallets/settle
// Обнуляет балансы и долги выбранных мойщиков.
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	var req models.SettleRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /wallets/settle - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	token, _ := middleware.GetToken(r.Context())

	result, err := h.service.SettleAttendantBalances(r.Context(), token, &req)
	if err != nil {
		switch {
		case errors.Is(err, wallets.ErrInvalidInput):
			h.logger.Warn("POST /wallets/settle - Invalid input: %v", err)
			handlers.RespondBadRequest(w, msgInvalidInput)

		case errors.Is(err, wallets.ErrWalletNotFound):
			h.logger.Warn("POST /wallets/settle - Wallet not found: attendants=%v", req.AttendantIDs)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, wallets.ErrEnqueue):
			h.logger.Error("POST /wallets/settle - Failed to queue settlement: error=%v", err)
			handlers.RespondError(w, http.StatusInternalServerError, msgNotSaved)

		default:
			h.logger.Error("POST /wallets/settle - Failed to settle balances: error=%v", err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /wallets/settle - Balances settled successfully: count=%d, queued=%t",
		len(result.Wallets), result.Queued)
	handlers.RespondJSON(w, http.StatusOK, result)
}
