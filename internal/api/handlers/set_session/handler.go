package set_session

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/m04kA/SMC-WashSync/internal/api/handlers"
	"github.com/m04kA/SMC-WashSync/pkg/session"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgMissingToken       = "отсутствует токен сессии"
	msgExpired            = "токен сессии истёк"
)

// SetSessionRequest новый токен сессии
type SetSessionRequest struct {
	Token string `json:"token"`
}

// SessionResponse срок действия принятого токена, если он известен
type SessionResponse struct {
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

type Handler struct {
	store  TokenStore
	sync   SyncTrigger
	logger Logger
	now    func() time.Time
}

func NewHandler(store TokenStore, sync SyncTrigger, logger Logger) *Handler {
	return &Handler{
		store:  store,
		sync:   sync,
		logger: logger,
		now:    time.Now,
	}
}

// Handle PUT /api/v1/session
// Приложение передаёт токен после входа и при каждом обновлении.
// Новый токен запускает фоновую синхронизацию.
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	var req SetSessionRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("PUT /session - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	token := strings.TrimSpace(req.Token)
	if err := session.Check(token, h.now()); err != nil {
		switch {
		case errors.Is(err, session.ErrExpired):
			h.logger.Warn("PUT /session - Token already expired")
			handlers.RespondBadRequest(w, msgExpired)

		default:
			h.logger.Warn("PUT /session - Missing token")
			handlers.RespondBadRequest(w, msgMissingToken)
		}
		return
	}

	h.store.Set(token)
	h.sync.TriggerBackground()

	resp := SessionResponse{}
	if exp, ok := session.ExpiresAt(token); ok {
		resp.ExpiresAt = &exp
	}

	h.logger.Info("PUT /session - Session token updated")
	handlers.RespondJSON(w, http.StatusOK, resp)
}
