package models

// Stage is the furthest-completed onboarding step of an account.
type Stage int

const (
	StageNone Stage = iota
	StageRegistered
	StageEmailVerified
	StageProfileComplete
	StageAuthenticated
)

func (s Stage) String() string {
	switch s {
	case StageNone:
		return "none"
	case StageRegistered:
		return "registered"
	case StageEmailVerified:
		return "email_verified"
	case StageProfileComplete:
		return "profile_complete"
	case StageAuthenticated:
		return "authenticated"
	}
	return "unknown"
}

// Advance returns the later of s and next. Stages never regress.
func (s Stage) Advance(next Stage) Stage {
	if next > s {
		return next
	}
	return s
}
