package chat

import (
	"sync"

	"github.com/vetdesk/vetdesk/internal/observability"
)

// Registry tracks live sessions and their delivery groups. A delivery group
// is the set of sessions bound to one identity; every session of an identity
// receives traffic addressed to it. The registry is the only shared mutable
// state in the chat core.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	groups   map[string]map[string]*Session
}

// NewRegistry creates an empty session registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		groups:   make(map[string]map[string]*Session),
	}
}

// Register adds a session and joins it to its identity's delivery group.
// There is no uniqueness constraint on identity: multi-tab sessions coexist.
func (r *Registry) Register(sess *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[sess.ID] = sess

	group, ok := r.groups[sess.Identity.ID]
	if !ok {
		group = make(map[string]*Session)
		r.groups[sess.Identity.ID] = group
	}
	group[sess.ID] = sess

	observability.SetConnectedSessions(len(r.sessions))
}

// Unregister removes a session and its group membership. It returns the
// removed session so callers can announce the departure.
func (r *Registry) Unregister(sessionID string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.sessions[sessionID]
	if !ok {
		return nil, false
	}
	delete(r.sessions, sessionID)

	if group, ok := r.groups[sess.Identity.ID]; ok {
		delete(group, sessionID)
		if len(group) == 0 {
			delete(r.groups, sess.Identity.ID)
		}
	}

	observability.SetConnectedSessions(len(r.sessions))
	return sess, true
}

// Get retrieves a session by ID.
func (r *Registry) Get(sessionID string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sess, ok := r.sessions[sessionID]
	return sess, ok
}

// Group returns the live sessions of an identity. An unknown identity yields
// an empty slice: delivery to it is a silent no-op, never an error.
func (r *Registry) Group(identityID string) []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	group := r.groups[identityID]
	sessions := make([]*Session, 0, len(group))
	for _, sess := range group {
		sessions = append(sessions, sess)
	}
	return sessions
}

// All returns every live session.
func (r *Registry) All() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sessions := make([]*Session, 0, len(r.sessions))
	for _, sess := range r.sessions {
		sessions = append(sessions, sess)
	}
	return sessions
}

// ListOnline produces the roster of all live sessions at call time. The
// snapshot is exact with respect to completed Register/Unregister calls;
// roster queries never observe stale state.
func (r *Registry) ListOnline() []RosterEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	roster := make([]RosterEntry, 0, len(r.sessions))
	for _, sess := range r.sessions {
		roster = append(roster, RosterEntry{
			SessionID: sess.ID,
			Identity:  sess.Identity,
		})
	}
	return roster
}

// Count returns the number of live sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.sessions)
}
