package chat

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/vetdesk/vetdesk/internal/observability"
)

// defaultPersistTimeout bounds a single store write or history fetch.
const defaultPersistTimeout = 10 * time.Second

// Router delivers private messages and signals to delivery groups and hands
// messages to the conversation store. Delivery and persistence are
// independent effects of the same event: a store failure never delays or
// rolls back delivery, and an offline target never fails the sender.
type Router struct {
	registry *Registry
	store    ConversationStore
	logger   zerolog.Logger

	now      func() time.Time
	inFlight sync.WaitGroup
}

// NewRouter creates a message router.
func NewRouter(registry *Registry, store ConversationStore, logger zerolog.Logger) *Router {
	return &Router{
		registry: registry,
		store:    store,
		logger:   logger,
		now:      time.Now,
	}
}

// PrivateMessage stamps and fans out one private message, then persists it
// out-of-band. The sender's own group is included so other tabs of the same
// identity see the outgoing message.
func (rt *Router) PrivateMessage(sender *Session, in privateMessageIn) {
	msg := Message{
		From:    sender.Identity.ID,
		To:      in.To,
		Content: in.Content,
		Date:    rt.now().UTC(),
	}

	delivered := 0
	delivered += rt.deliver(rt.registry.Group(msg.To), EventPrivateMessage, msg)
	if msg.To != msg.From {
		delivered += rt.deliver(rt.registry.Group(msg.From), EventPrivateMessage, msg)
	}
	observability.AddMessagesDelivered(delivered)

	rt.inFlight.Add(1)
	go func() {
		defer rt.inFlight.Done()
		rt.persist(msg)
	}()
}

// Signal forwards an ephemeral payload to the target's delivery group with
// the sender stamped. Signals are point-to-point: no sender echo and no
// persistence.
func (rt *Router) Signal(sender *Session, in signalIn) {
	out := signalOut{
		Message: in.Message,
		From:    sender.Identity.ID,
	}
	delivered := rt.deliver(rt.registry.Group(in.To), EventSignalResponse, out)
	observability.AddSignalsDelivered(delivered)
}

// OpenChat fetches the conversation with another participant and replies to
// the requesting session only. The fetch runs off the event path so a slow
// store cannot stall other traffic from this or any other session.
func (rt *Router) OpenChat(sender *Session, in openChatIn) {
	rt.inFlight.Add(1)
	go func() {
		defer rt.inFlight.Done()

		ctx, cancel := context.WithTimeout(context.Background(), defaultPersistTimeout)
		defer cancel()

		start := time.Now()
		history, err := rt.store.Conversation(ctx, sender.Identity.ID, in.ID)
		observability.ObserveHistoryFetch(time.Since(start))
		if err != nil {
			rt.logger.Error().
				Err(err).
				Str("sessionId", sender.ID).
				Str("participant", in.ID).
				Msg("Failed to fetch conversation history")
			return
		}

		if err := sender.Send(EventFetchHistory, historyOut{ID: in.ID, History: history}); err != nil {
			rt.logger.Warn().
				Err(err).
				Str("sessionId", sender.ID).
				Msg("Failed to send conversation history")
		}
	}()
}

// Wait blocks until all in-flight persistence and history tasks finish.
// Used on shutdown; disconnects never cancel writes already in flight.
func (rt *Router) Wait() {
	rt.inFlight.Wait()
}

func (rt *Router) deliver(group []*Session, event string, data interface{}) int {
	sent := 0
	for _, sess := range group {
		if err := sess.Send(event, data); err != nil {
			rt.logger.Warn().
				Err(err).
				Str("sessionId", sess.ID).
				Str("event", event).
				Msg("Failed to deliver to session")
			continue
		}
		sent++
	}
	return sent
}

func (rt *Router) persist(msg Message) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultPersistTimeout)
	defer cancel()

	start := time.Now()
	err := rt.store.Append(ctx, msg)
	observability.ObservePersistDuration(time.Since(start), err == nil)
	if err != nil {
		// Best effort to disk: the message was already delivered, the
		// failure is only visible in later history fetches.
		rt.logger.Error().
			Err(err).
			Str("from", msg.From).
			Str("to", msg.To).
			Msg("Failed to persist message")
	}
}
