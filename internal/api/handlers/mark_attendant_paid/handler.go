package mark_attendant_paid

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-WashSync/internal/api/handlers"
	"github.com/m04kA/SMC-WashSync/internal/api/middleware"
	"github.com/m04kA/SMC-WashSync/internal/service/wallets"
)

const (
	msgInvalidAttendantID = "некорректный ID мойщика"
	msgNotFound           = "кошелёк не найден"
	msgNotSaved           = "не удалось сохранить выплату"
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

// Handle POST /api/v1/attendants/{attendantId}/wallet/mark-paid
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	attendantID := mux.Vars(r)["attendantId"]
	if attendantID == "" {
		h.logger.Warn("POST /attendants/{id}/wallet/mark-paid - Missing attendant ID")
		handlers.RespondBadRequest(w, msgInvalidAttendantID)
		return
	}

	token, _ := middleware.GetToken(r.Context())

	result, err := h.service.MarkAttendantPaid(r.Context(), token, attendantID)
	if err != nil {
		switch {
		case errors.Is(err, wallets.ErrWalletNotFound):
			h.logger.Warn("POST /attendants/{id}/wallet/mark-paid - Wallet not found: attendant_id=%s", attendantID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, wallets.ErrEnqueue):
			h.logger.Error("POST /attendants/{id}/wallet/mark-paid - Failed to queue payment: attendant_id=%s, error=%v",
				attendantID, err)
			handlers.RespondError(w, http.StatusInternalServerError, msgNotSaved)

		default:
			h.logger.Error("POST /attendants/{id}/wallet/mark-paid - Failed to mark paid: attendant_id=%s, error=%v",
				attendantID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /attendants/{id}/wallet/mark-paid - Attendant marked paid: attendant_id=%s, queued=%t",
		attendantID, result.Queued)
	handlers.RespondJSON(w, http.StatusOK, result)
}
