package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) and services translate them into domain errors or outcomes.
//
//   - ErrNotFound: key or record does not exist
//   - ErrConflict: a uniqueness constraint would be violated
//   - ErrExpired: code or token has passed its expiry
//   - ErrAlreadyUsed: a single-use token was consumed
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrExpired     = errors.New("expired")
	ErrAlreadyUsed = errors.New("already used")
)
