package sandbox

import (
	"time"

	"github.com/google/uuid"
)

// AccountStage is how far an account has progressed server-side.
type AccountStage int

const (
	AccountRegistered AccountStage = iota
	AccountVerified
	AccountComplete
)

func (s AccountStage) String() string {
	switch s {
	case AccountRegistered:
		return "registered"
	case AccountVerified:
		return "verified"
	case AccountComplete:
		return "complete"
	}
	return "unknown"
}

// Account is a user known to the sandbox.
type Account struct {
	ID           uuid.UUID
	Email        string
	Username     string
	Name         string
	PasswordHash []byte
	Stage        AccountStage

	Phone      string
	BirthDate  time.Time
	Gender     string
	CPF        string
	State      string
	City       string
	PhotoBytes int
	PictureURL string

	GoogleSubject string
	CreatedAt     time.Time
}

// VerificationCode is the pending email code of an account.
type VerificationCode struct {
	Code      string
	ExpiresAt time.Time
}

// ResetToken is a single-use password reset token.
type ResetToken struct {
	Token     string
	Email     string
	ExpiresAt time.Time
	Used      bool
}

// Identity is what a federated identity provider asserts about a user.
type Identity struct {
	Subject    string
	Email      string
	Name       string
	PictureURL string
}
