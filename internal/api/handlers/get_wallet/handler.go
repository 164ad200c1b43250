package get_wallet

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-WashSync/internal/api/handlers"
	"github.com/m04kA/SMC-WashSync/internal/service/wallets"
)

const (
	msgInvalidAttendantID = "некорректный ID мойщика"
	msgNotFound           = "кошелёк не найден"
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

// Handle GET /api/v1/attendants/{attendantId}/wallet
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	attendantID := mux.Vars(r)["attendantId"]
	if attendantID == "" {
		h.logger.Warn("GET /attendants/{id}/wallet - Missing attendant ID")
		handlers.RespondBadRequest(w, msgInvalidAttendantID)
		return
	}

	wallet, err := h.service.GetByAttendant(r.Context(), attendantID)
	if err != nil {
		switch {
		case errors.Is(err, wallets.ErrWalletNotFound):
			h.logger.Warn("GET /attendants/{id}/wallet - Wallet not found: attendant_id=%s", attendantID)
			handlers.RespondNotFound(w, msgNotFound)

		default:
			h.logger.Error("GET /attendants/{id}/wallet - Failed to get wallet: attendant_id=%s, error=%v",
				attendantID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /attendants/{id}/wallet - Wallet retrieved successfully: attendant_id=%s", attendantID)
	handlers.RespondJSON(w, http.StatusOK, wallet)
}
