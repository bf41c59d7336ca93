package session

import (
	"context"
	"sync"
	"time"

	"vogueapi/metrics"
	"vogueapi/models"
	"vogueapi/services"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type entry struct {
	session *Session
	timer   *time.Timer
}

// Store keeps sessions in memory and drops them after ttl without access.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*entry
	ttl      time.Duration
	provider services.StylistProvider
	metrics  *metrics.Registry
}

func NewStore(provider services.StylistProvider, ttl time.Duration, registry *metrics.Registry) *Store {
	return &Store{
		sessions: make(map[string]*entry),
		ttl:      ttl,
		provider: provider,
		metrics:  registry,
	}
}

func (st *Store) Create() *Session {
	id := uuid.NewString()
	sess := New(id, st.provider, Hooks{
		OnTransition: func(sessionID string, from, to models.Step) {
			st.metrics.RecordTransition(string(from), string(to))
			log.Debug().Str("session_id", sessionID).Str("from", string(from)).Str("to", string(to)).Msg("session transition")
		},
	})

	e := &entry{session: sess}
	if st.ttl > 0 {
		e.timer = time.AfterFunc(st.ttl, func() {
			st.Delete(id)
		})
	}

	st.mu.Lock()
	st.sessions[id] = e
	st.mu.Unlock()

	st.metrics.SessionOpened()
	log.Info().Str("session_id", id).Msgf("[Session: %s] created", id)
	return sess
}

// Get returns the session and extends its lifetime.
func (st *Store) Get(id string) (*Session, error) {
	st.mu.RLock()
	e, ok := st.sessions[id]
	st.mu.RUnlock()
	if !ok {
		return nil, models.ErrSessionNotFound
	}
	if e.timer != nil {
		e.timer.Reset(st.ttl)
	}
	return e.session, nil
}

func (st *Store) Delete(id string) {
	st.mu.Lock()
	e, ok := st.sessions[id]
	if ok {
		delete(st.sessions, id)
	}
	st.mu.Unlock()
	if !ok {
		return
	}

	if e.timer != nil {
		e.timer.Stop()
	}
	e.session.Close()
	st.metrics.SessionClosed()
	log.Info().Str("session_id", id).Msgf("[Session: %s] released", id)
}

func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Shutdown releases every session, cancelling in-flight generations.
func (st *Store) Shutdown(ctx context.Context) {
	st.mu.RLock()
	ids := make([]string, 0, len(st.sessions))
	for id := range st.sessions {
		ids = append(ids, id)
	}
	st.mu.RUnlock()

	for _, id := range ids {
		if ctx.Err() != nil {
			return
		}
		st.Delete(id)
	}
}
