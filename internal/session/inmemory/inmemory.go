package inmemory

import (
	"context"
	"sync"
	"time"

	"github.com/civitas-ai/civitas/internal/session"
	"github.com/civitas-ai/civitas/models"
)

// Store is an in-memory session store with TTL expiry.
type Store struct {
	sessions map[string]*session.Session
	ttl      time.Duration
	fanout   int
	mu       sync.RWMutex
}

// NewStore creates an in-memory session store. Sessions are dropped once
// idle for ttl; fanout caps concurrent paragraph translations per session,
// values below one keep the session default.
func NewStore(ttl time.Duration, fanout int) *Store {
	return &Store{sessions: make(map[string]*session.Session), ttl: ttl, fanout: fanout}
}

func (store *Store) Create(id, userID string, doc models.Document, resolver session.QuestionResolver) (*session.Session, error) {
	sess, err := session.New(id, userID, doc, resolver)
	if err != nil {
		return nil, err
	}
	sess.SetTranslateFanout(store.fanout)
	sess.Expire(store.ttl)

	store.mu.Lock()
	old, replaced := store.sessions[sess.ID()]
	store.sessions[sess.ID()] = sess
	store.mu.Unlock()
	if replaced {
		_ = old.Close()
	}
	return sess, nil
}

func (store *Store) Get(id string) (*session.Session, bool) {
	store.mu.RLock()
	sess, ok := store.sessions[id]
	store.mu.RUnlock()
	if !ok || sess.Expired(time.Now()) {
		return nil, false
	}
	sess.Expire(store.ttl)
	return sess, true
}

func (store *Store) Drop(id string) {
	store.mu.Lock()
	sess, ok := store.sessions[id]
	delete(store.sessions, id)
	store.mu.Unlock()
	if ok {
		_ = sess.Close()
	}
}

// Sweep removes sessions that expired before now and returns the count.
func (store *Store) Sweep(now time.Time) int {
	store.mu.Lock()
	var expired []*session.Session
	for id, sess := range store.sessions {
		if sess.Expired(now) {
			expired = append(expired, sess)
			delete(store.sessions, id)
		}
	}
	store.mu.Unlock()
	for _, sess := range expired {
		_ = sess.Close()
	}
	return len(expired)
}

// StartJanitor sweeps expired sessions every interval until ctx is done.
func (store *Store) StartJanitor(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				store.Sweep(now)
			}
		}
	}()
}

var _ session.Store = (*Store)(nil)
