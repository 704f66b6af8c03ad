package ws

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/veil-waf/phishcheck/internal/checker"
	"github.com/veil-waf/phishcheck/internal/ratelimit"
)

// AlertRateLimited is shown instead of sending a request when a client checks too often.
const AlertRateLimited = "Too many checks. Please wait a minute and try again."

const (
	writeWait      = 5 * time.Second
	maxMessageSize = 16 << 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Manager tracks the live page sessions.
type Manager struct {
	mu        sync.RWMutex
	sessions  map[*session]struct{}
	predictor checker.Predictor
	limiter   *ratelimit.Limiter
	logger    *slog.Logger
}

// NewManager creates a new WebSocket manager.
func NewManager(predictor checker.Predictor, limiter *ratelimit.Limiter, logger *slog.Logger) *Manager {
	return &Manager{
		sessions:  make(map[*session]struct{}),
		predictor: predictor,
		limiter:   limiter,
		logger:    logger,
	}
}

// HandleWS upgrades an HTTP connection to WebSocket and serves one page
// session on it until the client goes away.
func (m *Manager) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		m.logger.Error("websocket upgrade failed", "err", err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &session{
		id:     uuid.NewString(),
		ip:     ratelimit.ClientIP(r),
		conn:   conn,
		ctx:    ctx,
		logger: m.logger,
	}
	s.checker = checker.New(m.predictor, s, s, s, s)

	m.mu.Lock()
	m.sessions[s] = struct{}{}
	m.mu.Unlock()
	m.logger.Debug("session opened", "session", s.id, "ip", s.ip)

	defer func() {
		// Stop in-flight requests before the socket goes away.
		cancel()
		s.wg.Wait()

		m.mu.Lock()
		delete(m.sessions, s)
		m.mu.Unlock()
		conn.Close()
		m.logger.Debug("session closed", "session", s.id)
	}()

	conn.SetReadLimit(maxMessageSize)
	for {
		var msg inbound
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				m.logger.Debug("session read failed", "session", s.id, "err", err)
			}
			return
		}
		m.dispatch(s, msg)
	}
}

func (m *Manager) dispatch(s *session, msg inbound) {
	switch msg.Type {
	case "check":
		s.setValue(msg.URL)
		// Empty input is rejected locally and does not count.
		if strings.TrimSpace(msg.URL) != "" && !m.limiter.AllowClient("check", s.ip) {
			s.Alert(AlertRateLimited)
			return
		}
		done, sent := s.checker.Start(s.ctx)
		if sent {
			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				<-done
			}()
		}
	case "open":
		s.setValue(msg.URL)
		if err := s.checker.OpenURL(); err != nil {
			m.logger.Warn("open url failed", "session", s.id, "err", err)
		}
	case "toggle":
		if expanded, ok := s.checker.Toggle(msg.Panel); ok {
			s.send(outbound{Type: "panel", ID: msg.Panel, Expanded: &expanded})
		}
	default:
		m.logger.Debug("unknown message type", "session", s.id, "type", msg.Type)
	}
}

// Count returns the number of open sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// CloseAll sends a close frame to every session, used on shutdown.
func (m *Manager) CloseAll() {
	m.mu.RLock()
	sessions := make([]*session, 0, len(m.sessions))
	for s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.RUnlock()

	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
	for _, s := range sessions {
		s.writeMu.Lock()
		s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
		s.writeMu.Unlock()
	}
}

type inbound struct {
	Type  string `json:"type"`
	URL   string `json:"url,omitempty"`
	Panel string `json:"panel,omitempty"`
}

type outbound struct {
	Type     string `json:"type"`
	HTML     string `json:"html,omitempty"`
	Message  string `json:"message,omitempty"`
	URL      string `json:"url,omitempty"`
	ID       string `json:"id,omitempty"`
	Expanded *bool  `json:"expanded,omitempty"`
}
