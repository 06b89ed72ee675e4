// Package identity adapts the external authentication collaborator. The hub
// trusts whatever identity the resolver hands back; how it was verified is
// the collaborator's concern.
package identity

import (
	"context"
	"errors"
	"strings"
)

var ErrUnresolved = errors.New("identity could not be resolved")

// Resolver turns an opaque credential into a display identity.
type Resolver interface {
	Resolve(ctx context.Context, token string) (string, error)
}

// TrustedResolver accepts any non-empty token as an already-verified
// identity. It stands in for an upstream auth service that terminates
// authentication before traffic reaches the hub.
type TrustedResolver struct{}

func (TrustedResolver) Resolve(_ context.Context, token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrUnresolved
	}
	return token, nil
}

// StaticResolver resolves from a fixed token -> identity table. Used for
// tests and local development.
type StaticResolver map[string]string

func (s StaticResolver) Resolve(_ context.Context, token string) (string, error) {
	id, ok := s[token]
	if !ok {
		return "", ErrUnresolved
	}
	return id, nil
}
