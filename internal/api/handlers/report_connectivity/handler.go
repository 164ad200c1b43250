package report_connectivity

import (
	"net/http"

	"github.com/m04kA/SMC-WashSync/internal/api/handlers"
	"github.com/m04kA/SMC-WashSync/internal/connectivity"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
)

// ConnectivityResponse принятое состояние сети
type ConnectivityResponse struct {
	connectivity.State
	Online bool `json:"isOnline"`
}

type Handler struct {
	monitor Monitor
	logger  Logger
}

func NewHandler(monitor Monitor, logger Logger) *Handler {
	return &Handler{
		monitor: monitor,
		logger:  logger,
	}
}

// Handle PUT /api/v1/connectivity
// Оболочка приложения сообщает состояние сети, которое видит ОС.
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	var state connectivity.State
	if err := handlers.DecodeJSON(r, &state); err != nil {
		h.logger.Warn("PUT /connectivity - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	h.monitor.Report(state)

	h.logger.Info("PUT /connectivity - State reported: connected=%t, online=%t", state.Connected, state.IsOnline())
	handlers.RespondJSON(w, http.StatusOK, ConnectivityResponse{State: state, Online: state.IsOnline()})
}
