package sandbox

import (
	"strings"
	"sync"

	"github.com/google/uuid"

	"viacarona/pkg/platform/sentinel"
)

// Store keeps accounts, codes and reset tokens in memory. Emails and
// usernames are unique; phone and CPF are unique among completed profiles.
type Store struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]*Account
	byEmail map[string]uuid.UUID
	codes   map[string]VerificationCode
	resets  map[string]*ResetToken
}

func NewStore() *Store {
	return &Store{
		byID:    make(map[uuid.UUID]*Account),
		byEmail: make(map[string]uuid.UUID),
		codes:   make(map[string]VerificationCode),
		resets:  make(map[string]*ResetToken),
	}
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Create stores a new account. It fails with a ConflictError naming the
// clashing attribute.
func (s *Store) Create(a *Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byEmail[emailKey(a.Email)]; taken {
		return &ConflictError{Field: "email"}
	}
	if a.Username != "" {
		for _, existing := range s.byID {
			if existing.Username == a.Username {
				return &ConflictError{Field: "username"}
			}
		}
	}
	stored := *a
	s.byID[a.ID] = &stored
	s.byEmail[emailKey(a.Email)] = a.ID
	return nil
}

// FindByEmail returns a copy of the account.
func (s *Store) FindByEmail(email string) (Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[emailKey(email)]
	if !ok {
		return Account{}, sentinel.ErrNotFound
	}
	return *s.byID[id], nil
}

// FindByGoogleSubject returns a copy of the account linked to subject.
func (s *Store) FindByGoogleSubject(subject string) (Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.byID {
		if a.GoogleSubject == subject {
			return *a, nil
		}
	}
	return Account{}, sentinel.ErrNotFound
}

// Update applies fn to the account under the write lock. fn's error aborts
// the update. Profile uniqueness is checked after fn runs.
func (s *Store) Update(email string, fn func(*Account) error) (Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byEmail[emailKey(email)]
	if !ok {
		return Account{}, sentinel.ErrNotFound
	}
	draft := *s.byID[id]
	if err := fn(&draft); err != nil {
		return Account{}, err
	}
	for otherID, other := range s.byID {
		if otherID == id || other.Stage != AccountComplete {
			continue
		}
		if draft.Phone != "" && other.Phone == draft.Phone {
			return Account{}, &ConflictError{Field: "phone"}
		}
		if draft.CPF != "" && other.CPF == draft.CPF {
			return Account{}, &ConflictError{Field: "cpf"}
		}
	}
	s.byID[id] = &draft
	return draft, nil
}

func (s *Store) SaveCode(email string, code VerificationCode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[emailKey(email)] = code
}

func (s *Store) Code(email string) (VerificationCode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.codes[emailKey(email)]
	if !ok {
		return VerificationCode{}, sentinel.ErrNotFound
	}
	return c, nil
}

func (s *Store) DeleteCode(email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.codes, emailKey(email))
}

func (s *Store) SaveReset(t ResetToken) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := t
	s.resets[t.Token] = &stored
}

// ConsumeReset marks token used and returns it. check runs under the lock
// before the token is consumed and may reject it.
func (s *Store) ConsumeReset(token string, check func(ResetToken) error) (ResetToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.resets[token]
	if !ok {
		return ResetToken{}, sentinel.ErrNotFound
	}
	if t.Used {
		return ResetToken{}, sentinel.ErrAlreadyUsed
	}
	if err := check(*t); err != nil {
		return ResetToken{}, err
	}
	t.Used = true
	return *t, nil
}

// LatestReset returns the most recently issued unused token for email.
func (s *Store) LatestReset(email string) (ResetToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest *ResetToken
	for _, t := range s.resets {
		if t.Used || emailKey(t.Email) != emailKey(email) {
			continue
		}
		if latest == nil || t.ExpiresAt.After(latest.ExpiresAt) {
			latest = t
		}
	}
	if latest == nil {
		return ResetToken{}, sentinel.ErrNotFound
	}
	return *latest, nil
}

// ConflictError reports a uniqueness clash on Field.
type ConflictError struct {
	Field string
}

func (e *ConflictError) Error() string {
	return e.Field + " already in use"
}

func (e *ConflictError) Unwrap() error {
	return sentinel.ErrConflict
}
