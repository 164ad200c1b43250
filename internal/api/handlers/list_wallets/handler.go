package list_wallets

import (
	"net/http"

	"github.com/m04kA/SMC-WashSync/internal/api/handlers"
	"github.com/m04kA/SMC-WashSync/internal/api/middleware"
)

const (
	msgInvalidParams = "некорректные параметры запроса"
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

// Handle GET /api/v1/wallets
// Query params: date (YYYY-MM-DD), unpaidOnly (опционально).
// За прошедшую дату при наличии сети возвращается серверная история.
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	serviceReq, err := ToServiceRequest(r.URL.Query())
	if err != nil {
		h.logger.Warn("GET /wallets - Invalid parameters: %v", err)
		handlers.RespondBadRequest(w, msgInvalidParams)
		return
	}

	token, _ := middleware.GetToken(r.Context())

	result, err := h.service.List(r.Context(), token, serviceReq)
	if err != nil {
		h.logger.Error("GET /wallets - Failed to list wallets: error=%v", err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("GET /wallets - Wallets retrieved successfully: source=%s, count=%d",
		result.Source, len(result.Wallets))
	handlers.RespondJSON(w, http.StatusOK, result)
}
