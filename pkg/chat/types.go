package chat

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Event tags exchanged over the socket. Names are part of the wire contract
// with the web client and must not change.
const (
	EventWelcome          = "welcome"
	EventUsersOnline      = "usersOnline"
	EventUserConnected    = "user connected"
	EventUserDisconnected = "user disconnected"
	EventPrivateMessage   = "private message"
	EventOpenChatTab      = "open chat tab"
	EventFetchHistory     = "fetch history"
	EventSignal           = "message"
	EventSignalResponse   = "messageResponse"
	EventSocketLog        = "socket log"
)

// Identity is the account bound to a session. It is supplied fully formed by
// the handshake and treated as opaque beyond its ID: whatever the client sent
// is what roster and presence events carry back out.
type Identity struct {
	ID          string `json:"id"`
	Role        string `json:"role,omitempty"`
	DisplayName string `json:"displayName,omitempty"`

	raw json.RawMessage
}

// ParseIdentity decodes a serialized identity payload. The only required
// field is a non-empty id.
func ParseIdentity(data []byte) (Identity, error) {
	var ident Identity
	if err := json.Unmarshal(data, &ident); err != nil {
		return Identity{}, fmt.Errorf("malformed identity payload: %w", err)
	}
	if ident.ID == "" {
		return Identity{}, fmt.Errorf("identity payload has no id")
	}
	ident.raw = append(json.RawMessage(nil), data...)
	return ident, nil
}

// MarshalJSON re-emits the original handshake payload when available so
// fields the server does not model survive the round trip.
func (i Identity) MarshalJSON() ([]byte, error) {
	if len(i.raw) > 0 {
		return i.raw, nil
	}
	type identity Identity
	return json.Marshal(identity(i))
}

// Message is a single private chat message. Immutable once created.
type Message struct {
	From    string    `json:"from"`
	To      string    `json:"to"`
	Content string    `json:"content"`
	Date    time.Time `json:"date"`
}

// RosterEntry is one live session in a presence roster or a
// "user connected" broadcast.
type RosterEntry struct {
	SessionID string   `json:"sessionId"`
	Identity  Identity `json:"identity"`
}

// Frame is the envelope for every socket message in both directions.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// outFrame is the server-side counterpart of Frame with an arbitrary payload.
type outFrame struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data,omitempty"`
}

// privateMessageIn is the client payload for EventPrivateMessage.
type privateMessageIn struct {
	Content string `json:"content"`
	To      string `json:"to"`
}

// openChatIn is the client payload for EventOpenChatTab.
type openChatIn struct {
	ID string `json:"id"`
}

// signalIn is the client payload for EventSignal. The message body is routed
// verbatim and never inspected.
type signalIn struct {
	Message json.RawMessage `json:"message"`
	To      string          `json:"to"`
}

// signalOut is the server payload for EventSignalResponse.
type signalOut struct {
	Message json.RawMessage `json:"message"`
	From    string          `json:"from"`
}

// historyOut is the server payload for EventFetchHistory.
type historyOut struct {
	ID      string    `json:"id"`
	History []Message `json:"history"`
}

// welcomeOut is the server payload for EventWelcome.
type welcomeOut struct {
	Data string `json:"data"`
}

// Session is one live socket connection with its bound identity.
type Session struct {
	ID          string
	Identity    Identity
	Conn        *websocket.Conn
	ConnectedAt time.Time

	limiter      *EventLimiter
	writeMu      sync.Mutex
	writeTimeout time.Duration
}

// Send writes a single event frame to the session. Writes are serialized:
// the read loop, the router and the presence broadcaster all send through
// here.
func (s *Session) Send(event string, data interface{}) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if s.writeTimeout > 0 {
		if err := s.Conn.SetWriteDeadline(time.Now().Add(s.writeTimeout)); err != nil {
			return err
		}
	}
	return s.Conn.WriteJSON(outFrame{Event: event, Data: data})
}

// ping sends a transport-level ping control frame.
func (s *Session) ping(deadline time.Time) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.Conn.WriteControl(websocket.PingMessage, nil, deadline)
}
