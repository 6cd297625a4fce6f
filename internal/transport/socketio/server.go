// Package socketio provides the Socket.io server presentation clients talk to.
//
// Clients send playback commands and receive pushState, pushHistory, nowPlaying
// and notify events mirroring the core's event bus.
package socketio

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/zishang520/socket.io/servers/socket/v3"
	"github.com/zishang520/socket.io/v3/pkg/types"

	"github.com/tejashwikalptaru/moodtune/internal/domain"
	"github.com/tejashwikalptaru/moodtune/internal/ports"
)

// Outgoing event names.
const (
	EventPushState   = "pushState"
	EventPushHistory = "pushHistory"
	EventNowPlaying  = "nowPlaying"
	EventNotify      = "notify"
)

// HistoryClearedMessage is the notify title sent after the history is cleared.
const HistoryClearedMessage = "History cleared successfully"

// Session is the playback session the server drives.
type Session interface {
	PlayItem(id, title, artist, thumbnail, mood string)
	Stop()
	SetPlaying(playing bool)
	State() domain.PlaybackSession
}

// Player is the external player adapter the server drives.
type Player interface {
	SeekTo(seconds float64)
	SetVolume(volume int)
	ToggleMute()
	Snapshot() domain.PlayerSnapshot
}

// History is the listening history the server exposes.
type History interface {
	Log() domain.HistoryLog
	Clear()
}

// Config holds server settings.
type Config struct {
	// Debounce coalesces bursts of broadcasts; zero pushes every change
	Debounce time.Duration
}

// SessionPayload is the session part of pushState.
type SessionPayload struct {
	Item    *domain.MediaItem `json:"item"`
	Playing bool              `json:"playing"`
}

// StatePayload is the body of pushState.
type StatePayload struct {
	Session SessionPayload        `json:"session"`
	Player  domain.PlayerSnapshot `json:"player"`
}

// NowPlayingPayload is the body of nowPlaying.
type NowPlayingPayload struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
}

// NotifyPayload is the body of notify, a general user notification.
type NotifyPayload struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle,omitempty"`
}

// Server handles Socket.io connections and events.
type Server struct {
	logger  *slog.Logger
	io      *socket.Server
	bus     ports.EventBus
	session Session
	player  Player
	history History

	commands  map[string]func(args ...any)
	subs      []domain.SubscriptionID
	debouncer *Debouncer

	// emit broadcasts to every client; replaced in tests
	emit func(event string, data any)

	mu        sync.RWMutex
	clients   map[string]*socket.Socket
	closeOnce sync.Once
}

// NewServer creates a new Socket.io server subscribed to bus.
func NewServer(
	logger *slog.Logger,
	bus ports.EventBus,
	session Session,
	player Player,
	history History,
	cfg Config,
) (*Server, error) {
	// Configure Socket.io server options
	opts := socket.DefaultServerOptions()
	opts.SetPingTimeout(20 * time.Second)
	opts.SetPingInterval(25 * time.Second)
	opts.SetCors(&types.Cors{
		Origin:      "*",
		Credentials: true,
	})

	s := &Server{
		logger:  logger.With(slog.String("component", "SocketIO")),
		io:      socket.NewServer(nil, opts),
		bus:     bus,
		session: session,
		player:  player,
		history: history,
		clients: make(map[string]*socket.Socket),
	}
	s.emit = func(event string, data any) {
		s.io.Emit(event, data)
	}

	if cfg.Debounce > 0 {
		s.debouncer = NewDebouncer(cfg.Debounce, s.BroadcastState, s.BroadcastHistory)
	}

	s.registerCommands()
	s.setupHandlers()
	s.subscribe()

	return s, nil
}

// registerCommands builds the table of client commands that need no reply.
func (s *Server) registerCommands() {
	s.commands = map[string]func(args ...any){
		"playItem": func(args ...any) {
			m, ok := firstMap(args)
			if !ok {
				s.logger.Warn("playItem without payload")
				return
			}
			item := domain.MediaItem{
				ID:        stringField(m, "id"),
				Title:     stringField(m, "title"),
				Artist:    stringField(m, "artist"),
				Thumbnail: stringField(m, "thumbnail"),
			}
			if err := item.Validate(); err != nil {
				s.logger.Warn("playItem rejected", slog.Any("error", err))
				return
			}
			s.session.PlayItem(item.ID, item.Title, item.Artist, item.Thumbnail, stringField(m, "mood"))
		},
		"stop": func(args ...any) {
			s.session.Stop()
		},
		"pause": func(args ...any) {
			s.session.SetPlaying(false)
		},
		"resume": func(args ...any) {
			s.session.SetPlaying(true)
		},
		"seek": func(args ...any) {
			if pos, ok := firstNumber(args); ok {
				s.player.SeekTo(pos)
			}
		},
		"volume": func(args ...any) {
			if vol, ok := firstNumber(args); ok {
				s.player.SetVolume(int(vol))
			}
		},
		"toggleMute": func(args ...any) {
			s.player.ToggleMute()
		},
		"clearHistory": func(args ...any) {
			s.history.Clear()
		},
	}
}

// dispatch runs a client command. Unknown commands are ignored.
func (s *Server) dispatch(clientID, event string, args ...any) {
	handler, ok := s.commands[event]
	if !ok {
		return
	}
	s.logger.Debug("client command", slog.String("id", clientID), slog.String("event", event), slog.Any("data", args))
	handler(args...)
}

// setupHandlers registers all Socket.io event handlers.
func (s *Server) setupHandlers() {
	s.io.On("connection", func(clients ...any) {
		client := clients[0].(*socket.Socket)
		clientID := string(client.Id())

		s.logger.Info("client connected", slog.String("id", clientID))

		s.mu.Lock()
		s.clients[clientID] = client
		s.mu.Unlock()

		// Send initial state after small delay
		go func() {
			time.Sleep(100 * time.Millisecond)
			s.pushState(client)
			s.pushHistory(client)
		}()

		client.On("disconnect", func(args ...any) {
			reason := ""
			if len(args) > 0 {
				if r, ok := args[0].(string); ok {
					reason = r
				}
			}
			s.logger.Info("client disconnected", slog.String("id", clientID), slog.String("reason", reason))

			s.mu.Lock()
			delete(s.clients, clientID)
			s.mu.Unlock()
		})

		client.On("getState", func(args ...any) {
			s.pushState(client)
		})

		client.On("getHistory", func(args ...any) {
			s.pushHistory(client)
		})

		for name := range s.commands {
			client.On(name, func(args ...any) {
				s.dispatch(clientID, name, args...)
			})
		}
	})
}

// subscribe forwards bus events to every client.
func (s *Server) subscribe() {
	state := func(domain.Event) {
		if s.debouncer != nil {
			s.debouncer.TriggerState()
			return
		}
		s.BroadcastState()
	}
	history := func(domain.Event) {
		if s.debouncer != nil {
			s.debouncer.TriggerHistory()
			return
		}
		s.BroadcastHistory()
	}

	for _, t := range []domain.EventType{
		domain.EventSessionChanged,
		domain.EventPlayerLifecycle,
		domain.EventPlayerSignal,
		domain.EventTrackProgress,
		domain.EventPlayerDegraded,
		domain.EventBootstrapStalled,
		domain.EventVolumeChanged,
		domain.EventMuteToggled,
	} {
		s.subs = append(s.subs, s.bus.Subscribe(t, state))
	}

	s.subs = append(s.subs,
		s.bus.Subscribe(domain.EventHistoryChanged, history),
		s.bus.Subscribe(domain.EventHistoryCleared, history),
		s.bus.Subscribe(domain.EventHistoryCleared, func(domain.Event) {
			s.emit(EventNotify, NotifyPayload{Title: HistoryClearedMessage})
		}),
		s.bus.Subscribe(domain.EventNowPlaying, func(event domain.Event) {
			e, ok := event.(domain.NowPlayingEvent)
			if !ok {
				return
			}
			s.emit(EventNowPlaying, NowPlayingPayload{Title: e.Title, Subtitle: e.Subtitle})
		}),
	)
}

// State returns the current pushState payload.
func (s *Server) State() StatePayload {
	sess := s.session.State()
	return StatePayload{
		Session: SessionPayload{Item: sess.CurrentItem, Playing: sess.IsPlaying},
		Player:  s.player.Snapshot(),
	}
}

// History returns the current pushHistory payload.
func (s *Server) History() []domain.HistoryEntry {
	return s.history.Log().Clone()
}

// pushState sends current state to a client.
func (s *Server) pushState(client *socket.Socket) {
	client.Emit(EventPushState, s.State())
}

// pushHistory sends the history log to a client.
func (s *Server) pushHistory(client *socket.Socket) {
	client.Emit(EventPushHistory, s.History())
}

// BroadcastState sends state to all connected clients.
func (s *Server) BroadcastState() {
	s.emit(EventPushState, s.State())
}

// BroadcastHistory sends the history log to all connected clients.
func (s *Server) BroadcastHistory() {
	s.emit(EventPushHistory, s.History())
}

// ClientCount returns the number of connected clients.
func (s *Server) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// ServeHTTP implements http.Handler for the Socket.io server.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.io.ServeHandler(nil).ServeHTTP(w, r)
}

// Close unsubscribes from the bus and closes the Socket.io server.
func (s *Server) Close() error {
	s.closeOnce.Do(func() {
		for _, id := range s.subs {
			s.bus.Unsubscribe(id)
		}
		if s.debouncer != nil {
			s.debouncer.Stop()
		}
		s.io.Close(nil)
	})
	return nil
}
