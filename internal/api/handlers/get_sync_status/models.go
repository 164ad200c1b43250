package get_sync_status

import (
	"github.com/m04kA/SMC-WashSync/internal/connectivity"
	"github.com/m04kA/SMC-WashSync/internal/service/syncengine"
)

// StatusResponse состояние синхронизации для индикатора в приложении
type StatusResponse struct {
	syncengine.Status
	Online       bool               `json:"isOnline"`
	Connectivity connectivity.State `json:"connectivity"`
	Unsynced     int                `json:"unsynced"`
	QueueDepth   int                `json:"queueDepth"`
}
