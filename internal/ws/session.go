// Package ws serves the live page over WebSocket. Every connection is one
// page: it supplies the URL field, the result container, alerts and new
// tabs to its own checker.
package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/veil-waf/phishcheck/internal/checker"
	"github.com/veil-waf/phishcheck/internal/render"
	"github.com/veil-waf/phishcheck/internal/view"
)

type session struct {
	id      string
	ip      string
	conn    *websocket.Conn
	ctx     context.Context
	checker *checker.Checker
	logger  *slog.Logger
	wg      sync.WaitGroup

	// writeMu serializes writes; gorilla connections allow one writer.
	writeMu sync.Mutex

	valueMu sync.Mutex
	value   string
}

func (s *session) setValue(v string) {
	s.valueMu.Lock()
	s.value = v
	s.valueMu.Unlock()
}

// Value implements checker.Input.
func (s *session) Value() string {
	s.valueMu.Lock()
	defer s.valueMu.Unlock()
	return s.value
}

// Render implements checker.Output.
func (s *session) Render(state view.State) {
	html, err := render.HTMLString(state)
	if err != nil {
		s.logger.Error("render failed", "session", s.id, "err", err)
		return
	}
	s.send(outbound{Type: "render", HTML: html})
}

// Alert implements checker.Alerter.
func (s *session) Alert(msg string) {
	s.send(outbound{Type: "alert", Message: msg})
}

// Open implements checker.Opener. The page opens the tab.
func (s *session) Open(url string) error {
	return s.send(outbound{Type: "open", URL: url})
}

func (s *session) send(msg outbound) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		s.logger.Debug("session write failed", "session", s.id, "type", msg.Type, "err", err)
		return err
	}
	return nil
}
