package models

import "time"

// View is a screen of the onboarding flow as seen by the state machine.
type View string

const (
	ViewRegister        View = "register"
	ViewLogin           View = "login"
	ViewForgotPassword  View = "forgot_password"
	ViewResetPassword   View = "reset_password"
	ViewVerifyEmail     View = "verify_email"
	ViewCompleteProfile View = "complete_profile"
	ViewHome            View = "home"
)

// IsEntry reports whether the host may open the view directly. Gated views
// are only reached through transitions decided from server responses.
func (v View) IsEntry() bool {
	switch v {
	case ViewRegister, ViewLogin, ViewForgotPassword, ViewResetPassword:
		return true
	}
	return false
}

// Params carries navigation parameters forward between views.
type Params struct {
	Email      string
	Name       string
	PictureURL string
}

// Transition is a navigation decided by the state machine. Delay is zero for
// immediate navigation.
type Transition struct {
	To     View
	Params Params
	Delay  time.Duration
}
