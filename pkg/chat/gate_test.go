package chat

import (
	"fmt"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGateBind(t *testing.T) {
	t.Run("valid identity", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/ws?user="+url.QueryEscape(`{"id":"alice","role":"Vet"}`), nil)

		ident, err := NewGate(nil).Bind(r)
		require.NoError(t, err)
		assert.Equal(t, "alice", ident.ID)
		assert.Equal(t, "Vet", ident.Role)
	})

	t.Run("missing identity", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/ws", nil)

		_, err := NewGate(nil).Bind(r)
		assert.Error(t, err)
	})

	t.Run("malformed identity", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/ws?user=notjson", nil)

		_, err := NewGate(nil).Bind(r)
		assert.Error(t, err)
	})

	t.Run("identity without id", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/ws?user="+url.QueryEscape(`{"role":"Vet"}`), nil)

		_, err := NewGate(nil).Bind(r)
		assert.Error(t, err)
	})

	t.Run("token verifier accepts", func(t *testing.T) {
		gate := NewGate(func(token string) error {
			if token != "good" {
				return fmt.Errorf("bad token")
			}
			return nil
		})

		r := httptest.NewRequest("GET", "/ws?user="+url.QueryEscape(`{"id":"alice"}`)+"&token=good", nil)
		_, err := gate.Bind(r)
		assert.NoError(t, err)
	})

	t.Run("token verifier rejects", func(t *testing.T) {
		gate := NewGate(func(token string) error {
			return fmt.Errorf("bad token")
		})

		r := httptest.NewRequest("GET", "/ws?user="+url.QueryEscape(`{"id":"alice"}`), nil)
		_, err := gate.Bind(r)
		assert.Error(t, err)
	})
}

func TestParseIdentityRoundTrip(t *testing.T) {
	raw := []byte(`{"id":"alice","role":"Tutor","favoriteColor":"green"}`)

	ident, err := ParseIdentity(raw)
	require.NoError(t, err)

	// Fields the server does not model survive re-serialization
	out, err := ident.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, string(raw), string(out))
}
