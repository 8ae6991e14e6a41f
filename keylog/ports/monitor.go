package ports

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Monitor watches for keyboard consoles appearing on the bus and merges
// every line they log into one stream. Keyboards drop off when they are
// replugged or reflashed, so a long capture cannot rely on the set of
// ports it started with.
type Monitor struct {
	interval time.Duration

	mu   sync.Mutex
	open map[string]func()
}

// NewMonitor returns a monitor that polls every five seconds.
func NewMonitor() *Monitor {
	return &Monitor{
		interval: 5 * time.Second,
		open:     make(map[string]func()),
	}
}

// Watch polls for keyboard consoles and streams their lines until ctx is
// cancelled. Ports that disappear are dropped and picked up again when they
// return. The channel closes once ctx is done and every open port drained.
func (m *Monitor) Watch(ctx context.Context) <-chan string {
	out := make(chan string, 5)

	go func() {
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		var wg sync.WaitGroup

		for {
			m.scan(&wg, out)

			select {
			case <-ctx.Done():
				m.closeAll()
				wg.Wait()
				close(out)

				return
			case <-ticker.C:
			}
		}
	}()

	return out
}

func (m *Monitor) scan(wg *sync.WaitGroup, out chan<- string) {
	devices, err := GetAvailableDevices()
	if err != nil {
		slog.Error("could not poll for devices", "error", err)

		return
	}

	for _, devicePath := range devices {
		if err := m.add(wg, devicePath, out); err != nil {
			slog.Error("could not open device", "path", devicePath, "error", err)
		}
	}
}

func (m *Monitor) add(wg *sync.WaitGroup, devicePath string, out chan<- string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.open[devicePath]; ok {
		return nil
	}

	reader, closer, err := Open(devicePath)
	if err != nil {
		return err
	}

	m.open[devicePath] = closer
	slog.Info("device attached", "path", devicePath)

	wg.Add(1)

	go func() {
		defer wg.Done()

		for line := range ReadFile(reader) {
			out <- line
		}

		m.release(devicePath)
		slog.Info("device detached", "path", devicePath)
	}()

	return nil
}

// release closes one port unless closeAll already took it.
func (m *Monitor) release(devicePath string) {
	m.mu.Lock()
	closer := m.open[devicePath]
	delete(m.open, devicePath)
	m.mu.Unlock()

	if closer != nil {
		closer()
	}
}

func (m *Monitor) closeAll() {
	m.mu.Lock()
	closers := m.open
	m.open = make(map[string]func())
	m.mu.Unlock()

	for _, closer := range closers {
		closer()
	}
}
