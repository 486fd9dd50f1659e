package cooldown

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"viacarona/internal/platform/logger"
	"viacarona/internal/platform/metrics"
	dErrors "viacarona/pkg/domain-errors"
)

type ControllerSuite struct {
	suite.Suite
	metrics *metrics.Metrics
	ctrl    *Controller
}

func TestControllerSuite(t *testing.T) {
	suite.Run(t, new(ControllerSuite))
}

func (s *ControllerSuite) SetupTest() {
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.ctrl = New(WithLogger(logger.Discard()), WithMetrics(s.metrics))
}

func (s *ControllerSuite) tickN(n int) Snapshot {
	var snap Snapshot
	for range n {
		snap = s.ctrl.Tick()
	}
	return snap
}

func (s *ControllerSuite) TestStartsCountingDown() {
	snap := s.ctrl.Snapshot()
	s.Equal(60, snap.Remaining)
	s.False(snap.CanResend)
	s.Equal("01:00", snap.Countdown)
	s.Equal(LabelWait, snap.Label)

	snap = s.tickN(59)
	s.Equal(1, snap.Remaining)
	s.False(snap.CanResend)

	snap = s.ctrl.Tick()
	s.Equal(0, snap.Remaining)
	s.True(snap.CanResend)
	s.Equal(LabelResend, snap.Label)

	snap = s.ctrl.Tick()
	s.Equal(0, snap.Remaining, "floored at zero")
}

func (s *ControllerSuite) TestSuccessfulResendSequenceHitsCeiling() {
	s.tickN(60)

	for attempt := 1; attempt <= DefaultMaxAttempts; attempt++ {
		s.Require().True(s.ctrl.CanResend(), "attempt %d", attempt)
		s.Require().NoError(s.ctrl.BeginResend())

		snap := s.ctrl.CompleteResend(ResendSucceeded)
		s.Equal(60, snap.Remaining)
		s.False(snap.CanResend)
		s.Equal(attempt, snap.Attempts)

		s.tickN(60)
	}

	snap := s.ctrl.Snapshot()
	s.True(snap.LimitReached)
	s.False(snap.CanResend)
	s.Equal(LabelLimit, snap.Label)

	snap = s.tickN(500)
	s.False(snap.CanResend, "ceiling is permanent")

	err := s.ctrl.BeginResend()
	s.True(dErrors.HasCode(err, dErrors.CodeLimitReached))
	s.Equal(3.0, testutil.ToFloat64(s.metrics.ResendRequests.WithLabelValues("success")))
}

func (s *ControllerSuite) TestBeginLocksBeforeCompletion() {
	s.tickN(60)
	s.Require().NoError(s.ctrl.BeginResend())

	snap := s.ctrl.Snapshot()
	s.Equal(60, snap.Remaining)
	s.True(snap.InFlight)
	s.False(snap.CanResend)

	err := s.ctrl.BeginResend()
	s.True(dErrors.HasCode(err, dErrors.CodeBusy))
}

func (s *ControllerSuite) TestBeginDuringCountdownRefused() {
	s.tickN(10)
	err := s.ctrl.BeginResend()
	s.True(dErrors.HasCode(err, dErrors.CodeBusy))
	s.Equal(50, s.ctrl.Snapshot().Remaining, "refused begin leaves the countdown alone")
}

func (s *ControllerSuite) TestBusinessFailureLetsCountdownGovern() {
	s.tickN(60)
	s.Require().NoError(s.ctrl.BeginResend())

	snap := s.ctrl.CompleteResend(ResendRejected)
	s.Equal(0, snap.Attempts)
	s.Equal(60, snap.Remaining, "cooldown is not rolled back")
	s.False(snap.CanResend)

	snap = s.tickN(60)
	s.True(snap.CanResend)
}

func (s *ControllerSuite) TestTransportFailureReopensImmediately() {
	s.tickN(60)
	s.Require().NoError(s.ctrl.BeginResend())

	snap := s.ctrl.CompleteResend(ResendTransportFailed)
	s.True(snap.CanResend)
	s.Equal(0, snap.Attempts)
	s.Equal(60, snap.Remaining)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.ResendReopened))

	s.Run("a second begin restarts the countdown and clears the reopen", func() {
		s.Require().NoError(s.ctrl.BeginResend())
		snap := s.ctrl.CompleteResend(ResendSucceeded)
		s.Equal(1, snap.Attempts)
		s.False(snap.CanResend)
	})
}

func (s *ControllerSuite) TestOptions() {
	c := New(WithWindow(5500*time.Millisecond), WithMaxAttempts(1), WithLogger(logger.Discard()))
	s.Equal(5, c.Snapshot().Remaining)
	s.Equal(1, c.Snapshot().MaxAttempts)
}

func (s *ControllerSuite) TestFormatCountdown() {
	s.Equal("00:00", FormatCountdown(0))
	s.Equal("00:09", FormatCountdown(9))
	s.Equal("01:00", FormatCountdown(60))
	s.Equal("10:05", FormatCountdown(605))
	s.Equal("00:00", FormatCountdown(-3))
}
