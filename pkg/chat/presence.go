package chat

import (
	"github.com/rs/zerolog"
)

// Presence announces connect/disconnect events and answers roster queries.
// Delivery is best effort: a write failure to one session is logged and does
// not affect the others.
type Presence struct {
	registry *Registry
	logger   zerolog.Logger
}

// NewPresence creates a presence broadcaster over a registry.
func NewPresence(registry *Registry, logger zerolog.Logger) *Presence {
	return &Presence{
		registry: registry,
		logger:   logger,
	}
}

// Announce greets a freshly registered session and tells everyone else about
// it. The roster unicast and the broadcast both reflect the registry state
// that already includes the new session.
func (p *Presence) Announce(sess *Session) {
	if err := sess.Send(EventWelcome, welcomeOut{Data: "Welcome to server"}); err != nil {
		p.logger.Warn().
			Err(err).
			Str("sessionId", sess.ID).
			Msg("Failed to send welcome")
	}

	if err := sess.Send(EventUsersOnline, p.registry.ListOnline()); err != nil {
		p.logger.Warn().
			Err(err).
			Str("sessionId", sess.ID).
			Msg("Failed to send roster")
	}

	p.broadcastExcept(sess.ID, EventUserConnected, RosterEntry{
		SessionID: sess.ID,
		Identity:  sess.Identity,
	})

	p.logger.Info().
		Str("sessionId", sess.ID).
		Str("identityId", sess.Identity.ID).
		Int("online", p.registry.Count()).
		Msg("Session connected")
}

// Depart broadcasts a departure to all remaining sessions. The departed
// session has already been unregistered, so the broadcast naturally excludes
// it.
func (p *Presence) Depart(sess *Session) {
	p.broadcastExcept(sess.ID, EventUserDisconnected, sess.Identity.ID)

	p.logger.Info().
		Str("sessionId", sess.ID).
		Str("identityId", sess.Identity.ID).
		Int("online", p.registry.Count()).
		Msg("Session disconnected")
}

func (p *Presence) broadcastExcept(sessionID, event string, data interface{}) {
	for _, other := range p.registry.All() {
		if other.ID == sessionID {
			continue
		}
		if err := other.Send(event, data); err != nil {
			p.logger.Warn().
				Err(err).
				Str("sessionId", other.ID).
				Str("event", event).
				Msg("Failed to broadcast presence event")
		}
	}
}
