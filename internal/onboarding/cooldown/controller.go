// Package cooldown implements the resend throttle of the email verification
// view: a countdown that must reach zero between resends and a ceiling on
// successful resends per view lifetime.
package cooldown

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"viacarona/internal/platform/metrics"
	dErrors "viacarona/pkg/domain-errors"
)

const (
	DefaultWindow      = 60 * time.Second
	DefaultMaxAttempts = 3
)

// Labels shown on the resend control.
const (
	LabelResend    = "Reenviar código"
	LabelWait      = "Aguarde para reenviar"
	LabelLimit     = "Limite de tentativas atingido. Tente novamente mais tarde."
	MsgResendOK    = "Código reenviado com sucesso."
	MsgCoolingDown = "Aguarde o fim da contagem para reenviar"
)

// ResendResult classifies how a resend call ended.
type ResendResult int

const (
	// ResendSucceeded: the server acknowledged the resend.
	ResendSucceeded ResendResult = iota
	// ResendRejected: the server answered with a business error.
	ResendRejected
	// ResendTransportFailed: the request never got a response.
	ResendTransportFailed
)

func (r ResendResult) String() string {
	switch r {
	case ResendSucceeded:
		return "success"
	case ResendRejected:
		return "rejected"
	case ResendTransportFailed:
		return "transport_failure"
	}
	return fmt.Sprintf("ResendResult(%d)", int(r))
}

// Snapshot is a consistent read of the controller.
type Snapshot struct {
	Remaining    int
	Attempts     int
	MaxAttempts  int
	CanResend    bool
	InFlight     bool
	LimitReached bool
	// Countdown is Remaining rendered as MM:SS.
	Countdown string
	// Label is the text of the resend control.
	Label string
}

// Controller is safe for concurrent use.
type Controller struct {
	mu sync.Mutex

	window      int
	maxAttempts int

	remaining int
	attempts  int
	inFlight  bool
	// reopened is set after a transport failure: resend is allowed again
	// even though the countdown restarted by BeginResend is still running.
	reopened bool

	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Controller)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Controller) {
		c.metrics = m
	}
}

// WithWindow sets the countdown length; it is truncated to whole seconds.
func WithWindow(d time.Duration) Option {
	return func(c *Controller) {
		if secs := int(d / time.Second); secs > 0 {
			c.window = secs
		}
	}
}

func WithMaxAttempts(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// New returns a controller whose countdown has just started, as when the
// verification view opens after a code was sent.
func New(opts ...Option) *Controller {
	c := &Controller{
		window:      int(DefaultWindow / time.Second),
		maxAttempts: DefaultMaxAttempts,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.remaining = c.window
	return c
}

// Tick advances the countdown by one second, floored at zero.
func (c *Controller) Tick() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.remaining > 0 {
		c.remaining--
	}
	return c.snapshotLocked()
}

// CanResend reports whether BeginResend would succeed now.
func (c *Controller) CanResend() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.canResendLocked()
}

// BeginResend restarts the countdown and locks the control before the
// network call is made.
func (c *Controller) BeginResend() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case c.attempts >= c.maxAttempts:
		return dErrors.New(dErrors.CodeLimitReached, LabelLimit)
	case c.inFlight:
		return dErrors.New(dErrors.CodeBusy, "resend already in flight")
	case !c.canResendLocked():
		return dErrors.New(dErrors.CodeBusy, MsgCoolingDown)
	}

	c.remaining = c.window
	c.reopened = false
	c.inFlight = true
	return nil
}

// CompleteResend records how the call started by BeginResend ended. Only
// a success consumes an attempt. A transport failure re-opens resend at
// once without consuming one, so repeated induced failures are not
// throttled by the countdown; those are logged and counted.
func (c *Controller) CompleteResend(result ResendResult) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.inFlight = false
	switch result {
	case ResendSucceeded:
		c.attempts++
	case ResendTransportFailed:
		c.reopened = true
		c.metrics.IncrementResendReopened()
		c.logger.Warn("resend window re-opened after transport failure",
			"attempts_used", c.attempts,
			"remaining_seconds", c.remaining,
		)
	}
	c.metrics.IncrementResend(result.String())
	return c.snapshotLocked()
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) canResendLocked() bool {
	return c.attempts < c.maxAttempts && !c.inFlight && (c.remaining == 0 || c.reopened)
}

func (c *Controller) snapshotLocked() Snapshot {
	s := Snapshot{
		Remaining:    c.remaining,
		Attempts:     c.attempts,
		MaxAttempts:  c.maxAttempts,
		CanResend:    c.canResendLocked(),
		InFlight:     c.inFlight,
		LimitReached: c.attempts >= c.maxAttempts,
		Countdown:    FormatCountdown(c.remaining),
	}
	switch {
	case s.LimitReached:
		s.Label = LabelLimit
	case s.CanResend:
		s.Label = LabelResend
	default:
		s.Label = LabelWait
	}
	return s
}

// FormatCountdown renders seconds as zero-padded MM:SS.
func FormatCountdown(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
