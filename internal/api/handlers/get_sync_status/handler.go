package get_sync_status

import (
	"net/http"

	"github.com/m04kA/SMC-WashSync/internal/api/handlers"
)

type Handler struct {
	engine       SyncEngine
	connectivity Connectivity
	queue        Queue
	logger       Logger
}

func NewHandler(engine SyncEngine, connectivity Connectivity, queue Queue, logger Logger) *Handler {
	return &Handler{
		engine:       engine,
		connectivity: connectivity,
		queue:        queue,
		logger:       logger,
	}
}

// Handle GET /api/v1/sync/status
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	unsynced, err := h.engine.UnsyncedCount(r.Context())
	if err != nil {
		h.logger.Error("GET /sync/status - Failed to count unsynced records: error=%v", err)
		handlers.RespondInternalError(w)
		return
	}

	depth, err := h.queue.Depth(r.Context())
	if err != nil {
		h.logger.Error("GET /sync/status - Failed to read queue depth: error=%v", err)
		handlers.RespondInternalError(w)
		return
	}

	state := h.connectivity.State()
	resp := StatusResponse{
		Status:       h.engine.Status(),
		Online:       state.IsOnline(),
		Connectivity: state,
		Unsynced:     unsynced,
		QueueDepth:   depth,
	}

	handlers.RespondJSON(w, http.StatusOK, resp)
}
