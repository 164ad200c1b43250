package connectivity

import (
	"context"
	"net"
	"time"
)

// NetProber определяет подключение по сетевым интерфейсам,
// а доступность интернета по ответу сервера
type NetProber struct {
	ping       func(ctx context.Context) error
	timeout    time.Duration
	interfaces func() ([]net.Interface, error)
}

// NewNetProber создает проверку сети. ping должен вернуть nil, если сервер ответил.
func NewNetProber(ping func(ctx context.Context) error, timeout time.Duration) *NetProber {
	return &NetProber{
		ping:       ping,
		timeout:    timeout,
		interfaces: net.Interfaces,
	}
}

// Probe возвращает текущее состояние сети
func (p *NetProber) Probe(ctx context.Context) State {
	if !p.hasActiveInterface() {
		reachable := false
		return State{Connected: false, InternetReachable: &reachable}
	}

	pingCtx := ctx
	if p.timeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	reachable := p.ping(pingCtx) == nil
	return State{Connected: true, InternetReachable: &reachable}
}

func (p *NetProber) hasActiveInterface() bool {
	ifaces, err := p.interfaces()
	if err != nil {
		return false
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		return true
	}
	return false
}
