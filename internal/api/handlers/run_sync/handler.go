package run_sync

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-WashSync/internal/api/handlers"
	"github.com/m04kA/SMC-WashSync/internal/api/middleware"
	"github.com/m04kA/SMC-WashSync/internal/service/syncengine"
)

const (
	msgMissingToken   = "отсутствует токен сессии"
	msgOffline        = "нет подключения к сети"
	msgSessionExpired = "сессия истекла, войдите заново"
)

type Handler struct {
	engine SyncEngine
	logger Logger
}

func NewHandler(engine SyncEngine, logger Logger) *Handler {
	return &Handler{
		engine: engine,
		logger: logger,
	}
}

// Handle POST /api/v1/sync
// Запускает цикл синхронизации и ждёт его завершения.
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	token, ok := middleware.GetToken(r.Context())
	if !ok {
		h.logger.Warn("POST /sync - Missing token")
		handlers.RespondUnauthorized(w, msgMissingToken)
		return
	}

	result, err := h.engine.Sync(r.Context(), token)
	if err != nil {
		switch {
		case errors.Is(err, syncengine.ErrOffline):
			h.logger.Warn("POST /sync - Device is offline")
			handlers.RespondError(w, http.StatusServiceUnavailable, msgOffline)

		case errors.Is(err, syncengine.ErrSessionExpired):
			h.logger.Warn("POST /sync - Session expired: %v", err)
			handlers.RespondUnauthorized(w, msgSessionExpired)

		default:
			h.logger.Error("POST /sync - Sync failed: error=%v", err)
			handlers.RespondInternalError(w)
		}
		return
	}

	if result.AlreadySyncing {
		h.logger.Info("POST /sync - Sync already in progress")
		handlers.RespondJSON(w, http.StatusAccepted, result)
		return
	}

	h.logger.Info("POST /sync - Sync finished: pushed=%d, failed=%d, unsynced=%d, errors=%t",
		result.Queue.Succeeded, result.Queue.Failed, result.Unsynced, result.HasErrors())
	handlers.RespondJSON(w, http.StatusOK, result)
}
