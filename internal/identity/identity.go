// Package identity is the contract between the application and whatever
// tells it who is signed in.
//
// A Provider pushes principal changes to subscribers. A nil principal means
// "signed out". Subscribers hold a Subscription and call Unsubscribe on
// teardown. After Unsubscribe no new delivery starts, though one already
// under way may still finish, so callbacks must not block.
package identity

import "sync"

// Principal is a signed-in identity. ID keys the user's profile document.
type Principal struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}

// Subscription cancels a Subscribe call.
type Subscription interface {
	Unsubscribe()
}

// Provider is an identity session source.
type Provider interface {
	// Subscribe registers fn for every principal change. Once the provider
	// has resolved, fn is also called with the current principal.
	Subscribe(fn func(*Principal)) Subscription

	// CurrentPrincipal returns the signed-in principal, or nil when signed
	// out or not yet resolved.
	CurrentPrincipal() *Principal
}

var _ Provider = (*Session)(nil)

// Session is an in-process Provider. It starts unresolved: subscribers hear
// nothing until the first SignIn or SignOut.
type Session struct {
	mu       sync.Mutex
	resolved bool
	current  *Principal
	subs     map[*subscriber]struct{}
}

// NewSession returns an unresolved session.
func NewSession() *Session {
	return &Session{subs: make(map[*subscriber]struct{})}
}

// NewResolvedSession returns a session already resolved to p. A nil p is a
// resolved, signed-out session.
func NewResolvedSession(p *Principal) *Session {
	s := NewSession()
	s.resolved = true
	s.current = clone(p)
	return s
}

// SignIn resolves the session to p and notifies subscribers.
func (s *Session) SignIn(p Principal) {
	s.publish(&p)
}

// SignOut resolves the session to "no principal" and notifies subscribers.
func (s *Session) SignOut() {
	s.publish(nil)
}

func (s *Session) CurrentPrincipal() *Principal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clone(s.current)
}

// Resolved reports whether SignIn or SignOut has happened.
func (s *Session) Resolved() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolved
}

func (s *Session) Subscribe(fn func(*Principal)) Subscription {
	sub := newSubscriber(fn)

	s.mu.Lock()
	s.subs[sub] = struct{}{}
	if s.resolved {
		sub.enqueue(clone(s.current))
	}
	s.mu.Unlock()

	go sub.run()
	return &subscription{session: s, sub: sub}
}

func (s *Session) publish(p *Principal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resolved = true
	s.current = clone(p)
	for sub := range s.subs {
		sub.enqueue(clone(p))
	}
}

func (s *Session) remove(sub *subscriber) {
	s.mu.Lock()
	delete(s.subs, sub)
	s.mu.Unlock()
	sub.stop()
}

type subscription struct {
	session *Session
	once    sync.Once
	sub     *subscriber
}

func (u *subscription) Unsubscribe() {
	u.once.Do(func() { u.session.remove(u.sub) })
}

// subscriber delivers queued principals to fn on its own goroutine, in the
// order they were published.
type subscriber struct {
	fn      func(*Principal)
	signal  chan struct{}
	done    chan struct{}
	mu      sync.Mutex
	pending []*Principal
	stopped bool
}

func newSubscriber(fn func(*Principal)) *subscriber {
	return &subscriber{
		fn:     fn,
		signal: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

func (s *subscriber) enqueue(p *Principal) {
	s.mu.Lock()
	s.pending = append(s.pending, p)
	s.mu.Unlock()
	select {
	case s.signal <- struct{}{}:
	default:
	}
}

func (s *subscriber) run() {
	for {
		select {
		case <-s.done:
			return
		case <-s.signal:
		}
		for {
			s.mu.Lock()
			if s.stopped || len(s.pending) == 0 {
				s.mu.Unlock()
				break
			}
			p := s.pending[0]
			s.pending = s.pending[1:]
			s.mu.Unlock()

			s.fn(p)
		}
	}
}

// stop drops queued deliveries and ends the delivery goroutine. It is safe
// to call from inside fn.
func (s *subscriber) stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	s.pending = nil
	s.mu.Unlock()
	close(s.done)
}

func clone(p *Principal) *Principal {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}
