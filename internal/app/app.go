// Package app provides application-level orchestration and dependency injection.
// This package wires together all components and manages the application lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"fyne.io/fyne/v2"

	"github.com/tejashwikalptaru/moodtune/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/moodtune/internal/adapter/metadata/tag"
	"github.com/tejashwikalptaru/moodtune/internal/adapter/player/mock"
	"github.com/tejashwikalptaru/moodtune/internal/adapter/player/mpd"
	"github.com/tejashwikalptaru/moodtune/internal/adapter/repository/kv"
	"github.com/tejashwikalptaru/moodtune/internal/adapter/storage/file"
	"github.com/tejashwikalptaru/moodtune/internal/adapter/storage/prefs"
	"github.com/tejashwikalptaru/moodtune/internal/adapter/storage/sqlite"
	"github.com/tejashwikalptaru/moodtune/internal/config"
	"github.com/tejashwikalptaru/moodtune/internal/domain"
	"github.com/tejashwikalptaru/moodtune/internal/logger"
	"github.com/tejashwikalptaru/moodtune/internal/ports"
	"github.com/tejashwikalptaru/moodtune/internal/service"
)

// DatabaseFile is the SQLite file name inside the data directory.
const DatabaseFile = "moodtune.db"

// Application is the root application structure that holds all dependencies.
// It follows the Dependency Injection pattern with constructor-based injection.
//
// The Application struct is responsible for:
// - Creating and wiring all dependencies
// - Managing the application lifecycle (start, shutdown)
// - Providing a clean entry point for the CLI
type Application struct {
	// Core dependencies
	logger   *slog.Logger
	settings *config.Config

	// Infrastructure
	eventBus *eventbus.SyncEventBus
	store    ports.KeyValueStore
	library  ports.PlayerLibrary
	resolver ports.MetadataResolver

	// Repositories
	historyRepo ports.HistoryRepository

	// Services
	historyService *service.HistoryService
	sessionService *service.SessionService
	bootstrap      *service.APIBootstrap
	playerAdapter  *service.PlayerAdapter

	startOnce    sync.Once
	shutdownOnce sync.Once
}

// Config holds application configuration.
type Config struct {
	// Settings are the loaded configuration values
	Settings *config.Config

	// Preferences backs storage.backend=preferences (nil otherwise)
	Preferences fyne.Preferences

	// Library overrides the player backend named in Settings (for testing)
	Library ports.PlayerLibrary

	// Logger overrides the logger built from Settings (for testing)
	Logger *slog.Logger
}

// DefaultConfig returns the default application configuration.
func DefaultConfig() Config {
	return Config{Settings: config.Default()}
}

// NewApplication creates a new application with all dependencies wired.
// Nothing talks to the player until Start.
func NewApplication(cfg Config) (*Application, error) {
	settings := cfg.Settings
	if settings == nil {
		settings = config.Default()
	}
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	app := &Application{settings: settings}

	// Step 1: Create logger
	app.logger = cfg.Logger
	if app.logger == nil {
		app.logger = logger.NewLogger(logger.Config{
			Level:  logger.ParseLevel(settings.Log.Level, slog.LevelInfo),
			Format: settings.Log.Format,
		})
	}
	app.logger.Info("initializing application",
		slog.String("version", GetVersionInfo().Version),
		slog.String("storage", settings.Storage.Backend),
		slog.String("player", settings.Player.Backend))

	// Step 2: Create an event bus
	app.eventBus = eventbus.NewSyncEventBus()
	app.eventBus.SetLogger(app.logger.With(slog.String("component", "eventbus")))

	// Step 3: Open the key-value store
	store, err := openStore(app.logger, settings, cfg.Preferences)
	if err != nil {
		_ = app.eventBus.Close()
		return nil, fmt.Errorf("failed to open %s store: %w", settings.Storage.Backend, err)
	}
	app.store = store

	// Step 4: Create repositories
	app.historyRepo = kv.NewHistoryRepository(app.logger, app.store, settings.Storage.Key)

	// Step 5: Create services (with dependency injection)
	app.historyService = service.NewHistoryService(app.logger, app.historyRepo, app.eventBus)
	app.sessionService = service.NewSessionService(app.logger, app.eventBus, app.historyService)

	// Step 6: Create the player library and adapter
	app.library = cfg.Library
	if app.library == nil {
		app.library = newLibrary(app.logger, settings.Player)
	}
	app.bootstrap = service.NewAPIBootstrap(app.logger, app.library)

	adapterCfg := service.DefaultPlayerAdapterConfig()
	adapterCfg.ContainerID = settings.Player.ContainerID
	adapterCfg.PollInterval = settings.Player.PollInterval
	adapterCfg.BootstrapTimeout = settings.Player.BootstrapTimeout

	app.playerAdapter = service.NewPlayerAdapter(
		app.logger,
		app.library,
		app.bootstrap,
		app.eventBus,
		app.sessionService,
		adapterCfg,
	)

	// Step 7: Metadata for local files
	app.resolver = tag.NewResolver(app.logger)

	return app, nil
}

// openStore opens the key-value backend named in settings.
func openStore(log *slog.Logger, settings *config.Config, preferences fyne.Preferences) (ports.KeyValueStore, error) {
	switch settings.Storage.Backend {
	case config.StorageFile:
		return file.NewStore(log, settings.DataDir)
	case config.StorageSQLite:
		if err := os.MkdirAll(settings.DataDir, 0o755); err != nil {
			return nil, domain.NewRepositoryError("open", "sqlite", "failed to create data directory", err)
		}
		return sqlite.Open(filepath.Join(settings.DataDir, DatabaseFile))
	case config.StoragePreferences:
		return prefs.NewStore(preferences)
	default:
		return nil, domain.ErrUnknownBackend
	}
}

// newLibrary creates the player library named in settings.
func newLibrary(log *slog.Logger, settings config.PlayerConfig) ports.PlayerLibrary {
	if settings.Backend == config.PlayerMPD {
		return mpd.NewLibrary(log, mpd.Config{
			Network:  settings.Network,
			Address:  settings.Address,
			Password: settings.Password,
		})
	}

	lib := mock.NewLibrary()
	lib.SetLogger(log.With(slog.String("engine", "mock")))
	lib.SetAutoPilot(true)
	return lib
}

// Start begins bootstrapping the player. Calling Start again is a no-op.
func (a *Application) Start() {
	a.startOnce.Do(func() {
		a.logger.Info("MoodTune core started")
		a.playerAdapter.Start()
	})
}

// WaitReady blocks until the player adapter is Ready or ctx is done.
func (a *Application) WaitReady(ctx context.Context) error {
	if err := readiness(a.playerAdapter.State()); err != errWaiting {
		return err
	}

	ready := make(chan struct{})
	var once sync.Once

	id := a.eventBus.SubscribeFiltered(domain.EventPlayerLifecycle, func(event domain.Event) bool {
		e, ok := event.(domain.PlayerLifecycleEvent)
		return ok && e.To == domain.StateReady
	}, func(domain.Event) {
		once.Do(func() { close(ready) })
	})
	defer a.eventBus.Unsubscribe(id)

	// The adapter may have become ready before the subscription
	if err := readiness(a.playerAdapter.State()); err != errWaiting {
		return err
	}

	select {
	case <-ready:
		return nil
	case <-ctx.Done():
		return domain.NewServiceError("App", "WaitReady", "player not ready", errors.Join(domain.ErrNotReady, ctx.Err()))
	}
}

var errWaiting = errors.New("waiting")

func readiness(state domain.LifecycleState) error {
	switch state {
	case domain.StateReady:
		return nil
	case domain.StateDestroyed:
		return domain.ErrPlayerDestroyed
	default:
		return errWaiting
	}
}

// Shutdown gracefully shuts down the application.
// Components are stopped in reverse order of creation. Calling it again is a no-op.
func (a *Application) Shutdown() error {
	var shutdownErr error

	a.shutdownOnce.Do(func() {
		a.logger.Info("shutting down application")

		a.playerAdapter.Shutdown()

		if closer, ok := a.library.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				a.logger.Warn("failed to close player library", slog.Any("error", err))
			}
		}

		if err := a.store.Close(); err != nil {
			a.logger.Warn("failed to close store", slog.Any("error", err))
			shutdownErr = err
		}

		if err := a.eventBus.Close(); err != nil {
			a.logger.Warn("failed to close event bus", slog.Any("error", err))
		}

		a.logger.Info("application shutdown complete")
	})

	return shutdownErr
}

// Logger returns the application logger.
func (a *Application) Logger() *slog.Logger {
	return a.logger
}

// Settings returns the configuration the application was built with.
func (a *Application) Settings() *config.Config {
	return a.settings
}

// EventBus returns the application event bus.
func (a *Application) EventBus() ports.FilteringEventBus {
	return a.eventBus
}

// Session returns the playback session service.
func (a *Application) Session() *service.SessionService {
	return a.sessionService
}

// History returns the listening history service.
func (a *Application) History() *service.HistoryService {
	return a.historyService
}

// Player returns the external player adapter.
func (a *Application) Player() *service.PlayerAdapter {
	return a.playerAdapter
}

// Resolver returns the metadata resolver for local files.
func (a *Application) Resolver() ports.MetadataResolver {
	return a.resolver
}
