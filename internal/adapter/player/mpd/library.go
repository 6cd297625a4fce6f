// Package mpd provides a PlayerLibrary backed by a Music Player Daemon server.
// Media item IDs are MPD URIs (database paths or stream URLs).
package mpd

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/fhs/gompd/v2/mpd"

	"github.com/tejashwikalptaru/moodtune/internal/domain"
	"github.com/tejashwikalptaru/moodtune/internal/ports"
)

const backendName = "mpd"

// Config holds the MPD connection settings.
type Config struct {
	Network  string // "tcp" or "unix"
	Address  string // host:port or socket path
	Password string
}

// DefaultConfig returns the settings of a local MPD server.
func DefaultConfig() Config {
	return Config{
		Network: "tcp",
		Address: "localhost:6600",
	}
}

// Library connects to MPD and creates players on that connection.
//
// "Loading" the library means dialing the server. A failed dial is logged and
// never reported back, which leaves waiting adapters bootstrapping. Once
// loaded, a dropped connection is redialed by the next command.
type Library struct {
	logger *slog.Logger
	cfg    Config

	mu      sync.Mutex
	client  *mpd.Client
	players []*Player
	loaded  bool
	loading bool
}

// NewLibrary creates an MPD library that has not connected yet.
func NewLibrary(logger *slog.Logger, cfg Config) *Library {
	if cfg.Network == "" {
		cfg.Network = DefaultConfig().Network
	}
	if cfg.Address == "" {
		cfg.Address = DefaultConfig().Address
	}
	return &Library{
		logger: logger.With(slog.String("component", "MPDLibrary"), slog.String("addr", cfg.Address)),
		cfg:    cfg,
	}
}

// Loaded reports whether MPD was reached since the last Close.
func (l *Library) Loaded() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loaded
}

// Load dials MPD on a new goroutine and calls onReady once connected.
func (l *Library) Load(onReady func()) {
	l.mu.Lock()
	if l.loaded || l.loading {
		l.mu.Unlock()
		return
	}
	l.loading = true
	l.mu.Unlock()

	go func() {
		client, err := l.dial()

		l.mu.Lock()
		l.loading = false
		if err == nil {
			l.client = client
			l.loaded = true
		}
		l.mu.Unlock()

		if err != nil {
			l.logger.Error("failed to connect to MPD", slog.Any("error", err))
			return
		}

		l.logger.Info("connected to MPD")
		onReady()
	}()
}

func (l *Library) dial() (*mpd.Client, error) {
	l.logger.Debug("connecting to MPD", slog.String("network", l.cfg.Network))

	client, err := mpd.Dial(l.cfg.Network, l.cfg.Address)
	if err != nil {
		return nil, domain.NewPlayerError("dial", backendName, "failed to connect", err)
	}

	if l.cfg.Password != "" {
		if err := client.Command("password %s", l.cfg.Password).OK(); err != nil {
			client.Close()
			return nil, domain.NewPlayerError("auth", backendName, "authentication failed", err)
		}
	}

	return client, nil
}

// NewPlayer creates a player that watches MPD for state changes.
// The container ID only labels log lines; MPD has no embedded surface.
func (l *Library) NewPlayer(containerID string, opts ports.PlayerOptions, callbacks ports.PlayerCallbacks) (ports.PlayerInstance, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.loaded {
		return nil, domain.ErrLibraryNotLoaded
	}

	p := &Player{
		lib:       l,
		logger:    l.logger.With(slog.String("container", containerID)),
		callbacks: callbacks,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	l.players = append(l.players, p)
	go p.run()
	return p, nil
}

// Close closes the MPD connection, then stops every player and waits for
// its watcher to exit.
func (l *Library) Close() error {
	l.mu.Lock()
	players := l.players
	l.players = nil
	l.loaded = false
	var err error
	if l.client != nil {
		err = l.client.Close()
		l.client = nil
	}
	l.mu.Unlock()

	for _, p := range players {
		p.Destroy()
		<-p.done
	}
	return err
}

// ensureConnectedLocked pings the shared connection and redials when it is
// gone or dead.
func (l *Library) ensureConnectedLocked() error {
	if l.client != nil {
		if err := l.client.Ping(); err == nil {
			return nil
		}
		l.logger.Warn("MPD connection lost, reconnecting")
		_ = l.client.Close()
		l.client = nil
	}

	client, err := l.dial()
	if err != nil {
		return err
	}
	l.client = client
	l.logger.Info("reconnected to MPD")
	return nil
}

// do runs fn on the shared connection. Errors are logged and returned.
func (l *Library) do(op string, fn func(c *mpd.Client) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.loaded {
		return domain.ErrNotReady
	}

	if err := l.ensureConnectedLocked(); err != nil {
		l.logger.Warn("MPD unreachable", slog.String("op", op), slog.Any("error", err))
		return fmt.Errorf("mpd %s: %w", op, err)
	}

	if err := fn(l.client); err != nil {
		// Anything but a server ACK means the connection broke mid-command
		var ack mpd.Error
		if !errors.As(err, &ack) {
			_ = l.client.Close()
			l.client = nil
		}
		l.logger.Warn("MPD command failed", slog.String("op", op), slog.Any("error", err))
		return fmt.Errorf("mpd %s: %w", op, err)
	}
	return nil
}

// status returns the MPD status, or nil on failure.
func (l *Library) status() mpd.Attrs {
	var attrs mpd.Attrs
	_ = l.do("status", func(c *mpd.Client) error {
		var err error
		attrs, err = c.Status()
		return err
	})
	return attrs
}

// Verify that Library implements the PlayerLibrary interface
var _ ports.PlayerLibrary = (*Library)(nil)
