package controller

import (
	"sync"

	"go.uber.org/zap"

	"github.com/gartstein/roimodeling/internal/roimodel/metrics"
)

// Sessions hands out one RoiModelService per owner. A closed session is
// replaced by a fresh one on the next Open.
type Sessions struct {
	deps   Dependencies
	logger *zap.Logger

	mu       sync.Mutex
	sessions map[string]*RoiModelService
}

func NewSessions(deps Dependencies) *Sessions {
	return &Sessions{
		deps:     deps,
		logger:   deps.Logger.Named("sessions"),
		sessions: make(map[string]*RoiModelService),
	}
}

// Open returns the owner's live session, starting one when needed.
func (r *Sessions) Open(owner string) (*RoiModelService, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[owner]; ok && !s.IsClosed() {
		return s, nil
	}

	s, err := NewRoiModelService(owner, r.deps)
	if err != nil {
		return nil, err
	}
	r.sessions[owner] = s
	metrics.ActiveSessions.Set(float64(len(r.sessions)))
	r.logger.Info("Session opened",
		zap.String("owner", owner),
		zap.String("session_id", s.SessionID()),
	)
	return s, nil
}

// Get returns the owner's live session, if any.
func (r *Sessions) Get(owner string) (*RoiModelService, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[owner]
	if !ok || s.IsClosed() {
		return nil, false
	}
	return s, true
}

// Close ends the owner's session. Closing an unknown owner is a no-op.
func (r *Sessions) Close(owner string) {
	r.mu.Lock()
	s, ok := r.sessions[owner]
	delete(r.sessions, owner)
	metrics.ActiveSessions.Set(float64(len(r.sessions)))
	r.mu.Unlock()

	if ok {
		s.Close()
	}
}

// CloseAll ends every session and waits for their calculations to settle.
func (r *Sessions) CloseAll() {
	r.mu.Lock()
	all := r.sessions
	r.sessions = make(map[string]*RoiModelService)
	metrics.ActiveSessions.Set(0)
	r.mu.Unlock()

	for _, s := range all {
		s.Close()
		s.WaitForCalculations()
	}
}

// Len returns the number of registered sessions.
func (r *Sessions) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
