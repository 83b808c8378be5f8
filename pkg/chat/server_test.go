package chat

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, cfg Config) (*Server, *httptest.Server) {
	t.Helper()

	if cfg.Store == nil {
		cfg.Store = &memStore{}
	}
	cfg.Logger = zerolog.Nop()

	srv, err := NewServer(cfg)
	require.NoError(t, err)

	ts := httptest.NewServer(http.HandlerFunc(srv.HandleWS))
	t.Cleanup(ts.Close)

	return srv, ts
}

func dialChat(t *testing.T, ts *httptest.Server, identity string) *websocket.Conn {
	t.Helper()

	conn, resp, err := websocket.DefaultDialer.Dial(chatURL(ts, identity, ""), nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func chatURL(ts *httptest.Server, identity, token string) string {
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http")
	if identity == "" {
		return wsURL
	}
	u := wsURL + "?user=" + url.QueryEscape(fmt.Sprintf(`{"id":%q}`, identity))
	if token != "" {
		u += "&token=" + url.QueryEscape(token)
	}
	return u
}

// waitForEvent reads frames until the wanted event arrives, discarding
// presence chatter that interleaves with the frame under test.
func waitForEvent(t *testing.T, conn *websocket.Conn, event string) Frame {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	require.NoError(t, conn.SetReadDeadline(deadline))
	for {
		var frame Frame
		require.NoError(t, conn.ReadJSON(&frame))
		if frame.Event == event {
			return frame
		}
		require.True(t, time.Now().Before(deadline), "timed out waiting for %q", event)
	}
}

func TestServerRejectsHandshakeWithoutIdentity(t *testing.T) {
	_, ts := newTestServer(t, Config{})

	conn, resp, err := websocket.DefaultDialer.Dial(chatURL(ts, "", ""), nil)
	require.Error(t, err)
	require.Nil(t, conn)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestServerRejectsMalformedIdentity(t *testing.T) {
	_, ts := newTestServer(t, Config{})

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "?user=" + url.QueryEscape("not json")
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.Nil(t, conn)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestServerTokenVerifier(t *testing.T) {
	verifier := func(token string) error {
		if token != "good" {
			return fmt.Errorf("bad token")
		}
		return nil
	}
	_, ts := newTestServer(t, Config{TokenVerifier: verifier})

	t.Run("rejected", func(t *testing.T) {
		conn, resp, err := websocket.DefaultDialer.Dial(chatURL(ts, "alice", "bad"), nil)
		require.Error(t, err)
		require.Nil(t, conn)
		require.NotNil(t, resp)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("accepted", func(t *testing.T) {
		conn, resp, err := websocket.DefaultDialer.Dial(chatURL(ts, "alice", "good"), nil)
		require.NoError(t, err)
		if resp != nil {
			resp.Body.Close()
		}
		defer conn.Close()

		frame := waitForEvent(t, conn, EventWelcome)
		assert.Equal(t, EventWelcome, frame.Event)
	})
}

func TestServerConnectSequence(t *testing.T) {
	_, ts := newTestServer(t, Config{})

	alice := dialChat(t, ts, "alice")

	// Greeting first, then the roster with this session in it
	assert.Equal(t, EventWelcome, waitForEvent(t, alice, EventWelcome).Event)

	roster := waitForEvent(t, alice, EventUsersOnline)
	var entries []RosterEntry
	require.NoError(t, json.Unmarshal(roster.Data, &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "alice", entries[0].Identity.ID)

	// A second client shows up in alice's stream as "user connected"
	bob := dialChat(t, ts, "bob")
	waitForEvent(t, bob, EventUsersOnline)

	connected := waitForEvent(t, alice, EventUserConnected)
	var arrival RosterEntry
	require.NoError(t, json.Unmarshal(connected.Data, &arrival))
	assert.Equal(t, "bob", arrival.Identity.ID)
}

func TestServerDisconnectBroadcast(t *testing.T) {
	_, ts := newTestServer(t, Config{})

	alice := dialChat(t, ts, "alice")
	waitForEvent(t, alice, EventUsersOnline)

	bob := dialChat(t, ts, "bob")
	waitForEvent(t, bob, EventUsersOnline)
	waitForEvent(t, alice, EventUserConnected)

	bob.Close()

	departed := waitForEvent(t, alice, EventUserDisconnected)
	var id string
	require.NoError(t, json.Unmarshal(departed.Data, &id))
	assert.Equal(t, "bob", id)
}

func TestServerPrivateMessageFlow(t *testing.T) {
	store := &memStore{}
	_, ts := newTestServer(t, Config{Store: store})

	alice := dialChat(t, ts, "alice")
	waitForEvent(t, alice, EventUsersOnline)
	bob := dialChat(t, ts, "bob")
	waitForEvent(t, bob, EventUsersOnline)
	waitForEvent(t, alice, EventUserConnected)

	require.NoError(t, alice.WriteJSON(outFrame{
		Event: EventPrivateMessage,
		Data:  privateMessageIn{Content: "hi bob", To: "bob"},
	}))

	frame := waitForEvent(t, bob, EventPrivateMessage)
	var msg Message
	require.NoError(t, json.Unmarshal(frame.Data, &msg))
	assert.Equal(t, "alice", msg.From)
	assert.Equal(t, "bob", msg.To)
	assert.Equal(t, "hi bob", msg.Content)

	// Sender echo
	echo := waitForEvent(t, alice, EventPrivateMessage)
	require.NoError(t, json.Unmarshal(echo.Data, &msg))
	assert.Equal(t, "hi bob", msg.Content)

	// Persistence is async; give it a moment
	require.Eventually(t, func() bool {
		return len(store.all()) == 1
	}, 2*time.Second, 20*time.Millisecond)
}

func TestServerMultiTabDelivery(t *testing.T) {
	_, ts := newTestServer(t, Config{})

	bobTab1 := dialChat(t, ts, "bob")
	waitForEvent(t, bobTab1, EventUsersOnline)
	bobTab2 := dialChat(t, ts, "bob")
	waitForEvent(t, bobTab2, EventUsersOnline)
	alice := dialChat(t, ts, "alice")
	waitForEvent(t, alice, EventUsersOnline)

	require.NoError(t, alice.WriteJSON(outFrame{
		Event: EventPrivateMessage,
		Data:  privateMessageIn{Content: "both tabs", To: "bob"},
	}))

	// Every session of the target identity receives the message
	var msg Message
	require.NoError(t, json.Unmarshal(waitForEvent(t, bobTab1, EventPrivateMessage).Data, &msg))
	assert.Equal(t, "both tabs", msg.Content)
	require.NoError(t, json.Unmarshal(waitForEvent(t, bobTab2, EventPrivateMessage).Data, &msg))
	assert.Equal(t, "both tabs", msg.Content)
}

func TestServerSignalFlow(t *testing.T) {
	_, ts := newTestServer(t, Config{})

	alice := dialChat(t, ts, "alice")
	waitForEvent(t, alice, EventUsersOnline)
	bob := dialChat(t, ts, "bob")
	waitForEvent(t, bob, EventUsersOnline)

	require.NoError(t, alice.WriteJSON(outFrame{
		Event: EventSignal,
		Data:  signalIn{Message: json.RawMessage(`"ping"`), To: "bob"},
	}))

	frame := waitForEvent(t, bob, EventSignalResponse)
	var out signalOut
	require.NoError(t, json.Unmarshal(frame.Data, &out))
	assert.Equal(t, "alice", out.From)
	assert.JSONEq(t, `"ping"`, string(out.Message))
}

func TestServerOpenChatTab(t *testing.T) {
	store := &memStore{messages: []Message{
		{From: "bob", To: "alice", Content: "earlier", Date: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)},
	}}
	_, ts := newTestServer(t, Config{Store: store})

	alice := dialChat(t, ts, "alice")
	waitForEvent(t, alice, EventUsersOnline)

	require.NoError(t, alice.WriteJSON(outFrame{
		Event: EventOpenChatTab,
		Data:  openChatIn{ID: "bob"},
	}))

	frame := waitForEvent(t, alice, EventFetchHistory)
	var out historyOut
	require.NoError(t, json.Unmarshal(frame.Data, &out))
	assert.Equal(t, "bob", out.ID)
	require.Len(t, out.History, 1)
	assert.Equal(t, "earlier", out.History[0].Content)
}

func TestServerIgnoresUnknownEvents(t *testing.T) {
	_, ts := newTestServer(t, Config{})

	alice := dialChat(t, ts, "alice")
	waitForEvent(t, alice, EventUsersOnline)

	require.NoError(t, alice.WriteJSON(outFrame{Event: "no such event"}))

	// Connection stays up and keeps serving known events
	require.NoError(t, alice.WriteJSON(outFrame{
		Event: EventOpenChatTab,
		Data:  openChatIn{ID: "bob"},
	}))
	frame := waitForEvent(t, alice, EventFetchHistory)
	assert.Equal(t, EventFetchHistory, frame.Event)
}

func TestServerStopRefusesNewHandshakes(t *testing.T) {
	srv, ts := newTestServer(t, Config{})

	alice := dialChat(t, ts, "alice")
	waitForEvent(t, alice, EventUsersOnline)

	srv.Stop(time.Second)

	conn, resp, err := websocket.DefaultDialer.Dial(chatURL(ts, "carol", ""), nil)
	require.Error(t, err)
	require.Nil(t, conn)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

// A handshake can pass the pre-upgrade shutdown check just before Stop flips
// the flag. Admission re-checks under the shutdown lock, so such a session is
// refused instead of lingering outside Stop's registry snapshot.
func TestServerAdmitRefusedAfterStop(t *testing.T) {
	srv, _ := newTestServer(t, Config{})

	srv.Stop(100 * time.Millisecond)

	sess := &Session{ID: "s-late", Identity: Identity{ID: "carol"}}
	assert.False(t, srv.admit(sess))
	assert.Empty(t, srv.registry.All())
	assert.Empty(t, srv.registry.Group("carol"))
}

func TestServerAdmitRegisters(t *testing.T) {
	srv, _ := newTestServer(t, Config{})

	sess := &Session{ID: "s-1", Identity: Identity{ID: "alice"}}
	require.True(t, srv.admit(sess))
	require.Len(t, srv.registry.All(), 1)

	srv.sessionWG.Done()
	removed, ok := srv.registry.Unregister("s-1")
	require.True(t, ok)
	assert.Equal(t, "alice", removed.Identity.ID)
}
