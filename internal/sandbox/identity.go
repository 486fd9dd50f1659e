package sandbox

import (
	"context"
	"errors"
	"sync"
)

var ErrUnknownIDToken = errors.New("unknown id token")

// IdentityVerifier checks a federated id token and returns the identity it
// asserts.
type IdentityVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (Identity, error)
}

// StaticIdentities accepts only id tokens registered in advance.
type StaticIdentities struct {
	mu     sync.RWMutex
	tokens map[string]Identity
}

func NewStaticIdentities() *StaticIdentities {
	return &StaticIdentities{tokens: make(map[string]Identity)}
}

// Add makes idToken verify as id.
func (s *StaticIdentities) Add(idToken string, id Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[idToken] = id
}

func (s *StaticIdentities) VerifyIDToken(_ context.Context, idToken string) (Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.tokens[idToken]
	if !ok {
		return Identity{}, ErrUnknownIDToken
	}
	return id, nil
}
