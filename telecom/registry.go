package telecom

import (
	"sync"

	"golang.org/x/exp/maps"

	. "TCAGo/global"
)

// Siblings is the query surface a Session uses to reach the other
// sessions of its call-control domain. Injected at construction; the
// Registry is the production implementation.
type Siblings interface {
	Others(except *Session) []*Session
}

type Registry struct {
	sessions map[string]*Session
	mu       sync.RWMutex
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

func (r *Registry) Store(ss *Session) {
	r.mu.Lock()
	r.sessions[ss.ID()] = ss
	if Prometrics != nil {
		Prometrics.ConSessions.Inc()
	}
	r.mu.Unlock()
}

func (r *Registry) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return
	}
	delete(r.sessions, id)
	if Prometrics != nil {
		Prometrics.ConSessions.Dec()
	}
}

func (r *Registry) Load(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

func (r *Registry) Others(except *Session) []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return Filter(maps.Values(r.sessions), func(x *Session) bool { return x != except })
}

// Summaries snapshots the session set first: String() takes each
// session's lock, which must never happen under the registry lock.
func (r *Registry) Summaries() []string {
	r.mu.RLock()
	sessions := maps.Values(r.sessions)
	r.mu.RUnlock()
	return Map(sessions, func(x *Session) string { return x.String() })
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func (r *Registry) IsEmpty() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions) == 0
}
