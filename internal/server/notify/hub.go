// Package notify pushes "something changed" nudges to a user's connected
// devices over websockets. The nudge carries no data; clients react by
// scheduling a regular sync.
package notify

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/notesync/internal/logging"
)

// Hub tracks live websocket sessions per user.
type Hub struct {
	logger logging.Logger

	// sessions map: userID -> set of live sessions
	mu       sync.RWMutex
	sessions map[string]map[*Session]struct{}
}

func NewHub(logger logging.Logger) *Hub {
	return &Hub{
		logger:   logger.With("module", "notify_hub"),
		sessions: make(map[string]map[*Session]struct{}),
	}
}

func (h *Hub) register(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.sessions[s.userID]
	if !ok {
		set = make(map[*Session]struct{})
		h.sessions[s.userID] = set
	}
	set[s] = struct{}{}
	h.logger.Debug(context.Background(), "session connected", "user_id", s.userID)
}

func (h *Hub) unregister(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.sessions[s.userID]
	if !ok {
		return
	}
	if _, ok := set[s]; !ok {
		return
	}
	delete(set, s)
	close(s.send)
	if len(set) == 0 {
		delete(h.sessions, s.userID)
	}
	h.logger.Debug(context.Background(), "session disconnected", "user_id", s.userID)
}

// NotifyPushed tells every live session of userID to re-sync. Sessions with a
// full send buffer are skipped; they will catch up on their periodic sync.
func (h *Hub) NotifyPushed(userID string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.sessions[userID] {
		select {
		case s.send <- syncNudge:
		default:
		}
	}
}

// SessionCount reports the number of live sessions for userID.
func (h *Hub) SessionCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[userID])
}
