package client

import "sync"

// Session holds the bearer token for one signed-in user. It is safe for
// concurrent use. Hooks registered with OnInvalidate run whenever the server
// rejects the token.
type Session struct {
	mu    sync.RWMutex
	token string
	hooks []func()
}

func NewSession() *Session {
	return &Session{}
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) Set(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

// Clear signs the session out without firing hooks.
func (s *Session) Clear() {
	s.Set("")
}

// OnInvalidate registers fn to run after the session is invalidated.
func (s *Session) OnInvalidate(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, fn)
}

// Invalidate clears the token and runs the hooks outside the lock.
func (s *Session) Invalidate() {
	s.mu.Lock()
	s.token = ""
	hooks := make([]func(), len(s.hooks))
	copy(hooks, s.hooks)
	s.mu.Unlock()

	for _, fn := range hooks {
		fn()
	}
}
