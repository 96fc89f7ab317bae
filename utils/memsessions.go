package utils

import (
	"context"
	"projectcamp/models"
	"sync"
	"time"
)

// MemorySessionStore is the in-process session store used when no Redis URL is
// configured outside production.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]memSession
	now      func() time.Time
}

type memSession struct {
	session models.Session
	expires time.Time
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: map[string]memSession{}, now: time.Now}
}

func (s *MemorySessionStore) StoreSession(_ context.Context, session models.Session, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.TokenID] = memSession{session: session, expires: s.now().Add(ttl)}
	return nil
}

func (s *MemorySessionStore) GetSession(_ context.Context, tokenID string) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ms, ok := s.sessions[tokenID]
	if !ok || !s.now().Before(ms.expires) {
		delete(s.sessions, tokenID)
		return nil, ErrSessionNotFound
	}
	session := ms.session
	return &session, nil
}

func (s *MemorySessionStore) DeleteSession(_ context.Context, tokenID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[tokenID]; !ok {
		return ErrSessionNotFound
	}
	delete(s.sessions, tokenID)
	return nil
}

func (s *MemorySessionStore) DeleteAllUserSessions(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, ms := range s.sessions {
		if ms.session.UserID == userID {
			delete(s.sessions, id)
		}
	}
	return nil
}

func (s *MemorySessionStore) CountUserSessions(_ context.Context, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	now := s.now()
	for _, ms := range s.sessions {
		if ms.session.UserID == userID && now.Before(ms.expires) {
			n++
		}
	}
	return n, nil
}

func (s *MemorySessionStore) Ping(context.Context) error { return nil }
