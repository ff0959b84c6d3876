package study

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/sakif/vocapp/internal/apperror"
	"github.com/sakif/vocapp/internal/model"
)

// Registry keeps the open sessions of an HTTP server, keyed by a UUIDv7 id.
// Each owner has at most one session: opening a new one drops the old.
// Ended sessions stay readable until dropped or replaced.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*entry
	byOwner  map[string]string
}

type entry struct {
	owner   string
	session *Session
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*entry),
		byOwner:  make(map[string]string),
	}
}

// Open starts a session on deck for owner and returns its id.
func (r *Registry) Open(owner string, deck *model.Deck) (string, *Session, error) {
	s, err := Start(deck)
	if err != nil {
		return "", nil, err
	}
	id, err := uuid.NewV7()
	if err != nil {
		return "", nil, fmt.Errorf("study: generating session id: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.byOwner[owner]; ok {
		delete(r.sessions, old)
	}
	r.sessions[id.String()] = &entry{owner: owner, session: s}
	r.byOwner[owner] = id.String()
	return id.String(), s, nil
}

// Get returns owner's session id. Another owner's session is Forbidden.
func (r *Registry) Get(owner, id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[id]
	if !ok {
		return nil, apperror.NotFound("study session", id)
	}
	if e.owner != owner {
		return nil, apperror.Forbidden("study session belongs to another user")
	}
	return e.session, nil
}

// Drop forgets a session.
func (r *Registry) Drop(owner, id string) error {
	if _, err := r.Get(owner, id); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	if r.byOwner[owner] == id {
		delete(r.byOwner, owner)
	}
	return nil
}

// Len is the number of sessions held.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
