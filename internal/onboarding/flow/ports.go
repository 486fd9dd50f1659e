package flow

import (
	"context"
	"time"

	"viacarona/internal/gateway"
	"viacarona/internal/onboarding/models"
)

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks

// Gateway is the auth API as seen by the machine. *gateway.Client
// implements it.
type Gateway interface {
	Register(ctx context.Context, req gateway.RegisterRequest) (*gateway.Response[gateway.RegisterData], error)
	VerifyEmail(ctx context.Context, req gateway.VerifyEmailRequest) (*gateway.Response[gateway.VerifyData], error)
	ResendCode(ctx context.Context, req gateway.ResendCodeRequest) (*gateway.Response[gateway.Ack], error)
	CompleteProfile(ctx context.Context, req gateway.CompleteProfileRequest) (*gateway.Response[gateway.TokenData], error)
	Login(ctx context.Context, req gateway.LoginRequest) (*gateway.Response[gateway.TokenData], error)
	SocialSignIn(ctx context.Context, req gateway.SocialSignInRequest) (*gateway.Response[gateway.TokenData], error)
	RequestPasswordReset(ctx context.Context, req gateway.PasswordResetRequest) (*gateway.Response[gateway.PasswordResetData], error)
	ResetPassword(ctx context.Context, req gateway.ResetPasswordRequest) (*gateway.Response[gateway.PasswordResetData], error)
}

// TokenStore persists the session token.
type TokenStore interface {
	Set(ctx context.Context, key, value string) error
}

// Navigator is told about every view change the machine decides. It is
// called without the machine lock held and may call back into the machine.
type Navigator interface {
	Navigate(t models.Transition)
}

// Timer is a pending delayed call.
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type clockScheduler struct{}

func (clockScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(models.Transition)

func (f NavigatorFunc) Navigate(t models.Transition) { f(t) }
