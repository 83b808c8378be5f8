package chat

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func websocketConnPair(t *testing.T) (*websocket.Conn, *websocket.Conn, func()) {
	t.Helper()

	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	serverConnCh := make(chan *websocket.Conn, 1)
	errCh := make(chan error, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			errCh <- err
			return
		}
		serverConnCh <- conn
	}))

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	clientConn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)

	var serverConn *websocket.Conn
	select {
	case serverConn = <-serverConnCh:
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for server websocket connection")
	}

	cleanup := func() {
		_ = clientConn.Close()
		_ = serverConn.Close()
		srv.Close()
	}

	return serverConn, clientConn, cleanup
}

func readFrame(t *testing.T, conn *websocket.Conn) Frame {
	t.Helper()

	var frame Frame
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&frame))
	return frame
}

func TestPresenceAnnounce(t *testing.T) {
	aliceServer, aliceClient, cleanupA := websocketConnPair(t)
	defer cleanupA()
	bobServer, bobClient, cleanupB := websocketConnPair(t)
	defer cleanupB()

	registry := NewRegistry()
	presence := NewPresence(registry, zerolog.Nop())

	alice := &Session{ID: "s-alice", Identity: Identity{ID: "alice"}, Conn: aliceServer}
	registry.Register(alice)
	presence.Announce(alice)

	// First session sees the greeting and a roster holding only itself
	welcome := readFrame(t, aliceClient)
	assert.Equal(t, EventWelcome, welcome.Event)

	roster := readFrame(t, aliceClient)
	assert.Equal(t, EventUsersOnline, roster.Event)
	var entries []RosterEntry
	require.NoError(t, json.Unmarshal(roster.Data, &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "alice", entries[0].Identity.ID)

	// Second session: its roster includes both, and the first session is
	// told about the arrival
	bob := &Session{ID: "s-bob", Identity: Identity{ID: "bob"}, Conn: bobServer}
	registry.Register(bob)
	presence.Announce(bob)

	assert.Equal(t, EventWelcome, readFrame(t, bobClient).Event)

	bobRoster := readFrame(t, bobClient)
	assert.Equal(t, EventUsersOnline, bobRoster.Event)
	require.NoError(t, json.Unmarshal(bobRoster.Data, &entries))
	assert.Len(t, entries, 2)

	connected := readFrame(t, aliceClient)
	assert.Equal(t, EventUserConnected, connected.Event)
	var arrival RosterEntry
	require.NoError(t, json.Unmarshal(connected.Data, &arrival))
	assert.Equal(t, "s-bob", arrival.SessionID)
	assert.Equal(t, "bob", arrival.Identity.ID)
}

func TestPresenceDepart(t *testing.T) {
	bobServer, bobClient, cleanup := websocketConnPair(t)
	defer cleanup()

	registry := NewRegistry()
	presence := NewPresence(registry, zerolog.Nop())

	bob := &Session{ID: "s-bob", Identity: Identity{ID: "bob"}, Conn: bobServer}
	registry.Register(bob)

	// Departure is broadcast with the identity id as payload, skipping
	// the departing session's own group
	departed := &Session{ID: "s-carol", Identity: Identity{ID: "carol"}}
	presence.Depart(departed)

	frame := readFrame(t, bobClient)
	assert.Equal(t, EventUserDisconnected, frame.Event)

	var id string
	require.NoError(t, json.Unmarshal(frame.Data, &id))
	assert.Equal(t, "carol", id)
}
