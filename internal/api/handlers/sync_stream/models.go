package sync_stream

import (
	"github.com/m04kA/SMC-WashSync/internal/connectivity"
	"github.com/m04kA/SMC-WashSync/internal/service/syncengine"
)

// Типы событий потока
const (
	EventSync         = "sync"
	EventConnectivity = "connectivity"
)

// Event сообщение потока: изменение состояния синхронизации или сети
type Event struct {
	Type         string              `json:"type"`
	Sync         *syncengine.Status  `json:"sync,omitempty"`
	Connectivity *connectivity.State `json:"connectivity,omitempty"`
	Online       *bool               `json:"isOnline,omitempty"`
}

func syncEvent(s syncengine.Status) Event {
	return Event{Type: EventSync, Sync: &s}
}

func connectivityEvent(s connectivity.State) Event {
	online := s.IsOnline()
	return Event{Type: EventConnectivity, Connectivity: &s, Online: &online}
}
