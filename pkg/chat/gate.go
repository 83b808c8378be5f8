package chat

import (
	"fmt"
	"net/http"
)

// TokenVerifier checks the handshake token. A nil verifier disables the
// check, trusting the upstream authentication layer.
type TokenVerifier func(token string) error

// Gate validates inbound connection attempts. A connection that cannot be
// bound to an identity is refused and closed; it never becomes a session.
type Gate struct {
	verify TokenVerifier
}

// NewGate creates a session gate. verify may be nil.
func NewGate(verify TokenVerifier) *Gate {
	return &Gate{verify: verify}
}

// Bind extracts the identity claims from the handshake request. The identity
// arrives as a serialized object in the "user" query parameter with an
// optional JWT in "token". The identity payload itself is not schema
// validated: it is trusted as already authenticated upstream.
func (g *Gate) Bind(r *http.Request) (Identity, error) {
	query := r.URL.Query()

	rawUser := query.Get("user")
	if rawUser == "" {
		return Identity{}, fmt.Errorf("handshake carries no identity")
	}

	ident, err := ParseIdentity([]byte(rawUser))
	if err != nil {
		return Identity{}, err
	}

	if g.verify != nil {
		if err := g.verify(query.Get("token")); err != nil {
			return Identity{}, fmt.Errorf("handshake token rejected: %w", err)
		}
	}

	return ident, nil
}
