package sandbox

import (
	"context"
	"log/slog"
)

// Delivery kinds.
const (
	DeliveryVerificationCode = "verification_code"
	DeliveryPasswordReset    = "password_reset"
)

// Delivery is a message the real API would email to the user.
type Delivery struct {
	Kind  string
	Email string
	Value string
}

// Outbox receives deliveries. It stands in for the email provider.
type Outbox interface {
	Deliver(ctx context.Context, d Delivery) error
}

// LogOutbox writes deliveries to the log so a developer can read codes from
// the sandbox console.
type LogOutbox struct {
	Logger *slog.Logger
}

func (o LogOutbox) Deliver(ctx context.Context, d Delivery) error {
	o.Logger.InfoContext(ctx, "sandbox delivery",
		"kind", d.Kind,
		"email", d.Email,
		"sandbox_value", d.Value,
	)
	return nil
}
