// Package connectivity отслеживает доступность сети и сервера
// и уведомляет подписчиков о переходах.
package connectivity

import (
	"context"
	"sync"
	"time"
)

// State состояние сети
type State struct {
	Connected         bool  `json:"isConnected"`
	InternetReachable *bool `json:"isInternetReachable"`
}

// IsOnline returns true only when the device is connected and the internet is known to be reachable
func (s State) IsOnline() bool {
	return s.Connected && s.InternetReachable != nil && *s.InternetReachable
}

func (s State) equal(o State) bool {
	if s.Connected != o.Connected {
		return false
	}
	if (s.InternetReachable == nil) != (o.InternetReachable == nil) {
		return false
	}
	return s.InternetReachable == nil || *s.InternetReachable == *o.InternetReachable
}

// Monitor хранит последнее известное состояние сети
type Monitor struct {
	prober   Prober
	interval time.Duration
	log      Logger
	observer OnlineObserver

	mu     sync.RWMutex
	state  State
	subs   map[int]func(State)
	nextID int

	startOnce sync.Once
}

// NewMonitor создает монитор. prober и observer могут быть nil:
// тогда состояние меняется только через Report.
func NewMonitor(prober Prober, interval time.Duration, log Logger, observer OnlineObserver) *Monitor {
	return &Monitor{
		prober:   prober,
		interval: interval,
		log:      log,
		observer: observer,
		subs:     make(map[int]func(State)),
	}
}

// IsOnline снимок текущего состояния
func (m *Monitor) IsOnline() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.IsOnline()
}

// State последнее известное состояние сети
func (m *Monitor) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Subscribe регистрирует обработчик переходов и возвращает функцию отписки
func (m *Monitor) Subscribe(fn func(State)) func() {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.subs[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}

// Report принимает состояние, сообщённое оболочкой приложения.
// Подписчики уведомляются о каждом вызове, включая повторные.
func (m *Monitor) Report(s State) {
	m.set(s, true)
}

// Initialize выполняет первую проверку синхронно и запускает периодический опрос.
// Опрос уведомляет подписчиков только при изменении состояния.
func (m *Monitor) Initialize(ctx context.Context) {
	if m.prober == nil {
		return
	}
	m.startOnce.Do(func() {
		m.probe(ctx)
		if m.interval <= 0 {
			return
		}
		go m.loop(ctx)
	})
}

func (m *Monitor) loop(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.probe(ctx)
		}
	}
}

func (m *Monitor) probe(ctx context.Context) {
	m.set(m.prober.Probe(ctx), false)
}

func (m *Monitor) set(s State, always bool) {
	m.mu.Lock()
	prev := m.state
	m.state = s
	changed := !prev.equal(s)
	subs := make([]func(State), 0, len(m.subs))
	if changed || always {
		for _, fn := range m.subs {
			subs = append(subs, fn)
		}
	}
	m.mu.Unlock()

	if m.observer != nil {
		m.observer.SetOnline(s.IsOnline())
	}
	if changed {
		m.log.Info("Connectivity: state changed connected=%t online=%t", s.Connected, s.IsOnline())
	}
	for _, fn := range subs {
		fn(s)
	}
}
