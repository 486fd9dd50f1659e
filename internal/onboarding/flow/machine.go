// Package flow is the onboarding state machine. It owns the current view,
// the account stage and the verification cooldown, calls the auth API for
// each submitted step and classifies the answers into outcomes and
// navigation.
package flow

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"viacarona/internal/gateway"
	"viacarona/internal/onboarding/cooldown"
	"viacarona/internal/onboarding/models"
	"viacarona/internal/onboarding/validation"
	"viacarona/internal/platform/metrics"
	dErrors "viacarona/pkg/domain-errors"
)

const (
	// TokenKey is the Token Store key of the session token.
	TokenKey = "@auth_token"

	DefaultRedirectDelay = 2 * time.Second
	DefaultTickInterval  = time.Second

	msgSocialNoToken = "Erro ao obter token do Google"
)

// Machine drives one client session through onboarding. It is safe for
// concurrent use; the lock is never held across network calls or host
// callbacks.
type Machine struct {
	gateway   Gateway
	tokens    TokenStore
	navigator Navigator
	scheduler Scheduler
	logger    *slog.Logger
	metrics   *metrics.Metrics
	now       func() time.Time

	redirectDelay time.Duration
	resendWindow  time.Duration
	maxResends    int
	tickInterval  time.Duration
	onCooldown    func(cooldown.Snapshot)

	mu          sync.Mutex
	closed      bool
	view        models.View
	params      models.Params
	stage       models.Stage
	epoch       uint64
	loading     map[Step]bool
	pending     Timer
	pendingSeq  uint64
	cooldown    *cooldown.Controller
	ticker      *cooldown.Ticker
	knownStates map[string]struct{}
}

type Option func(*Machine)

func WithLogger(logger *slog.Logger) Option {
	return func(m *Machine) {
		m.logger = logger
	}
}

func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Machine) {
		m.metrics = mt
	}
}

func WithScheduler(s Scheduler) Option {
	return func(m *Machine) {
		m.scheduler = s
	}
}

// WithClock sets the time source of birth date validation.
func WithClock(now func() time.Time) Option {
	return func(m *Machine) {
		m.now = now
	}
}

func WithRedirectDelay(d time.Duration) Option {
	return func(m *Machine) {
		if d >= 0 {
			m.redirectDelay = d
		}
	}
}

func WithResendWindow(d time.Duration) Option {
	return func(m *Machine) {
		if d > 0 {
			m.resendWindow = d
		}
	}
}

func WithMaxResendAttempts(n int) Option {
	return func(m *Machine) {
		if n > 0 {
			m.maxResends = n
		}
	}
}

func WithTickInterval(d time.Duration) Option {
	return func(m *Machine) {
		if d > 0 {
			m.tickInterval = d
		}
	}
}

// WithCooldownObserver receives a snapshot on every cooldown tick. It runs
// on the ticker goroutine and must not block.
func WithCooldownObserver(fn func(cooldown.Snapshot)) Option {
	return func(m *Machine) {
		m.onCooldown = fn
	}
}

// WithKnownStateCodes sets the reference set of state codes.
func WithKnownStateCodes(codes map[string]struct{}) Option {
	return func(m *Machine) {
		m.knownStates = codes
	}
}

// New returns a machine with no open view. nav may be nil.
func New(gw Gateway, tokens TokenStore, nav Navigator, opts ...Option) (*Machine, error) {
	if gw == nil {
		return nil, fmt.Errorf("gateway is required")
	}
	if tokens == nil {
		return nil, fmt.Errorf("token store is required")
	}
	if nav == nil {
		nav = NavigatorFunc(func(models.Transition) {})
	}
	m := &Machine{
		gateway:       gw,
		tokens:        tokens,
		navigator:     nav,
		scheduler:     clockScheduler{},
		logger:        slog.Default(),
		now:           time.Now,
		redirectDelay: DefaultRedirectDelay,
		resendWindow:  cooldown.DefaultWindow,
		maxResends:    cooldown.DefaultMaxAttempts,
		tickInterval:  DefaultTickInterval,
		loading:       make(map[Step]bool),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Open moves to an entry view. Gated views cannot be opened.
func (m *Machine) Open(view models.View) error {
	if !view.IsEntry() {
		return dErrors.New(dErrors.CodeOutOfOrder, fmt.Sprintf("view %q is reached only through the flow", view))
	}
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return dErrors.New(dErrors.CodeOutOfOrder, "machine is closed")
	}
	e := m.moveLocked(view, models.Params{})
	m.mu.Unlock()

	m.apply(e)
	return nil
}

// Close ends the session: pending redirects are cancelled, the cooldown
// ticker is stopped and answers still in flight are discarded.
func (m *Machine) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	e := m.moveLocked("", models.Params{})
	m.closed = true
	m.mu.Unlock()

	m.apply(e)
}

func (m *Machine) View() models.View {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.view
}

func (m *Machine) Stage() models.Stage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stage
}

// Email is the account email the current view is bound to.
func (m *Machine) Email() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.params.Email
}

// Params returns the navigation parameters of the current view.
func (m *Machine) Params() models.Params {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.params
}

// Loading reports whether step has a request in flight.
func (m *Machine) Loading(step Step) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loading[step]
}

// Cooldown returns the resend cooldown of the verification view. ok is false
// on any other view.
func (m *Machine) Cooldown() (cooldown.Snapshot, bool) {
	m.mu.Lock()
	c := m.cooldown
	m.mu.Unlock()
	if c == nil {
		return cooldown.Snapshot{}, false
	}
	return c.Snapshot(), true
}

// SetKnownStateCodes replaces the reference set of state codes, typically
// once the locality catalogue has loaded.
func (m *Machine) SetKnownStateCodes(codes map[string]struct{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.knownStates = codes
}

func (m *Machine) Register(ctx context.Context, form RegistrationForm) (Outcome, error) {
	const step = StepRegister
	s, err := m.begin(step, models.ViewRegister)
	if err != nil {
		return Outcome{}, err
	}
	defer m.end(step)

	form.Email = strings.TrimSpace(form.Email)
	if field, msg, ok := checkForm(form.values(), models.RegistrationFields, m.validationContext()); !ok {
		return m.invalid(step, field, msg), nil
	}

	email := form.Email
	resp, err := m.gateway.Register(ctx, gateway.RegisterRequest{
		Email:    email,
		Password: form.Password,
		Name:     strings.TrimSpace(form.Name),
		Username: form.Username,
	})
	if err != nil {
		return m.finish(ctx, s, decision{outcome: transportFailure(step, err, MsgRegisterConnectivity, MsgServerNonJSON)}), nil
	}

	r := replyOf(resp)
	if !r.ok {
		return m.finish(ctx, s, decision{outcome: rejected(step, r, registerFailure(r))}), nil
	}
	return m.finish(ctx, s, decision{
		outcome: Outcome{Step: step, Result: ResultSuccess},
		stage:   models.StageRegistered,
		next:    &models.Transition{To: models.ViewVerifyEmail, Params: models.Params{Email: email}},
	}), nil
}

func (m *Machine) VerifyEmail(ctx context.Context, code string) (Outcome, error) {
	const step = StepVerifyEmail
	s, err := m.begin(step, models.ViewVerifyEmail)
	if err != nil {
		return Outcome{}, err
	}
	defer m.end(step)

	if !isCode(code) {
		return m.invalid(step, "", MsgVerifyIncomplete), nil
	}

	resp, err := m.gateway.VerifyEmail(ctx, gateway.VerifyEmailRequest{Email: s.params.Email, Code: code})
	if err != nil {
		return m.finish(ctx, s, decision{outcome: transportFailure(step, err, MsgVerifyConnectivity, MsgServerNonJSON)}), nil
	}

	r := replyOf(resp)
	if !r.ok {
		out := rejected(step, r, verifyFailure(r))
		out.ClearCode = true
		return m.finish(ctx, s, decision{outcome: out}), nil
	}
	return m.finish(ctx, s, decision{
		outcome: Outcome{Step: step, Result: ResultSuccess},
		stage:   models.StageEmailVerified,
		next:    &models.Transition{To: models.ViewCompleteProfile, Params: s.params},
	}), nil
}

// ResendCode asks for a new verification code. It fails with a coded error
// when the cooldown does not allow a resend.
func (m *Machine) ResendCode(ctx context.Context) (Outcome, error) {
	const step = StepResendCode
	s, err := m.begin(step, models.ViewVerifyEmail)
	if err != nil {
		return Outcome{}, err
	}
	defer m.end(step)

	if err := s.cooldown.BeginResend(); err != nil {
		return Outcome{}, err
	}

	resp, err := m.gateway.ResendCode(ctx, gateway.ResendCodeRequest{Email: s.params.Email})
	if err != nil {
		result := cooldown.ResendRejected
		if gateway.IsTransport(err) {
			result = cooldown.ResendTransportFailed
		}
		s.cooldown.CompleteResend(result)
		return m.finish(ctx, s, decision{outcome: transportFailure(step, err, MsgVerifyConnectivity, MsgServerNonJSON)}), nil
	}

	r := replyOf(resp)
	if !r.ok {
		s.cooldown.CompleteResend(cooldown.ResendRejected)
		return m.finish(ctx, s, decision{outcome: rejected(step, r, resendFailure(r))}), nil
	}
	s.cooldown.CompleteResend(cooldown.ResendSucceeded)
	return m.finish(ctx, s, decision{
		outcome: Outcome{Step: step, Result: ResultSuccess, Message: cooldown.MsgResendOK, ClearCode: true},
	}), nil
}

func (m *Machine) CompleteProfile(ctx context.Context, form ProfileForm) (Outcome, error) {
	const step = StepCompleteProfile
	s, err := m.begin(step, models.ViewCompleteProfile)
	if err != nil {
		return Outcome{}, err
	}
	defer m.end(step)

	if field, msg, ok := checkForm(form.values(), models.ProfileFields, m.validationContext()); !ok {
		return m.invalid(step, field, msg), nil
	}
	birthISO, err := validation.BirthDateISO(form.BirthDate)
	if err != nil {
		return m.invalid(step, models.FieldBirthDate, validation.MsgBirthDateInvalid), nil
	}

	req := gateway.CompleteProfileRequest{
		Email:     s.params.Email,
		Phone:     validation.NormalizePhone(form.Phone),
		BirthDate: birthISO,
		Gender:    strings.ToUpper(form.Gender),
		CPF:       validation.NormalizeNationalID(form.NationalID),
		State:     strings.ToUpper(strings.TrimSpace(form.StateCode)),
		City:      strings.TrimSpace(form.City),
		Photo:     form.Photo,
	}
	if form.PhotoURI != "" && form.PhotoURI == s.params.PictureURL {
		req.Photo = nil
	}

	resp, err := m.gateway.CompleteProfile(ctx, req)
	if err != nil {
		if gateway.KindOf(err) == gateway.KindNonJSON && gateway.StatusOf(err) == http.StatusForbidden {
			return m.finish(ctx, s, decision{outcome: Outcome{
				Step:      step,
				Result:    ResultRejected,
				Message:   MessageFor(CodeEmailUnverified),
				ErrorCode: CodeEmailUnverified,
			}}), nil
		}
		return m.finish(ctx, s, decision{outcome: transportFailure(step, err, MsgProfileConnectivity, MsgServerNonJSON)}), nil
	}

	r := replyOf(resp)
	if !r.ok {
		return m.finish(ctx, s, decision{outcome: rejected(step, r, profileFailure(r))}), nil
	}
	if resp.Data == nil || resp.Data.Token == "" {
		return m.finish(ctx, s, decision{outcome: Outcome{Step: step, Result: ResultUnexpected, Message: MsgLoginUnexpected}}), nil
	}
	return m.finish(ctx, s, decision{
		outcome: Outcome{Step: step, Result: ResultSuccess, Message: MsgProfileDone},
		token:   resp.Data.Token,
		stage:   models.StageAuthenticated,
		next: &models.Transition{
			To:     models.ViewHome,
			Params: models.Params{Email: s.params.Email, Name: s.params.Name},
			Delay:  m.redirectDelay,
		},
	}), nil
}

func (m *Machine) Login(ctx context.Context, email, password string) (Outcome, error) {
	const step = StepLogin
	s, err := m.begin(step, models.ViewLogin)
	if err != nil {
		return Outcome{}, err
	}
	defer m.end(step)

	email = strings.TrimSpace(email)
	switch {
	case email == "":
		return m.invalid(step, models.FieldEmail, MsgLoginFieldsRequired), nil
	case strings.TrimSpace(password) == "":
		return m.invalid(step, models.FieldPassword, MsgLoginFieldsRequired), nil
	case !validation.ValidEmail(email):
		return m.invalid(step, models.FieldEmail, MsgLoginEmailInvalid), nil
	}

	resp, err := m.gateway.Login(ctx, gateway.LoginRequest{Email: email, Password: password})
	if err != nil {
		return m.finish(ctx, s, decision{outcome: transportFailure(step, err, MsgLoginConnectivity, MsgServerNonJSON)}), nil
	}

	r := statusReply(resp)
	if r.ok {
		if resp.Data == nil || resp.Data.Token == "" {
			return m.finish(ctx, s, decision{outcome: Outcome{Step: step, Result: ResultUnexpected, Message: MsgLoginUnexpected}}), nil
		}
		return m.finish(ctx, s, decision{
			outcome: Outcome{Step: step, Result: ResultSuccess},
			token:   resp.Data.Token,
			stage:   models.StageAuthenticated,
			next:    &models.Transition{To: models.ViewHome, Params: models.Params{Email: email, Name: resp.Data.Name}},
		}), nil
	}

	class, fallback := ClassifyLogin(r.status, r.code)
	out := rejected(step, r, orDefault(r.message, fallback))
	switch class {
	case LoginEmailUnverified:
		out.Result = ResultRedirect
		return m.finish(ctx, s, decision{
			outcome: out,
			stage:   models.StageRegistered,
			next:    m.redirect(models.ViewVerifyEmail, models.Params{Email: email}),
		}), nil
	case LoginProfileIncomplete:
		out.Result = ResultRedirect
		return m.finish(ctx, s, decision{
			outcome: out,
			stage:   models.StageEmailVerified,
			next:    m.redirect(models.ViewCompleteProfile, models.Params{Email: email}),
		}), nil
	}
	return m.finish(ctx, s, decision{outcome: out}), nil
}

// SocialSignIn exchanges a federated id token for a session. Accounts with
// an incomplete profile are sent to profile completion with the federated
// name and picture carried forward.
func (m *Machine) SocialSignIn(ctx context.Context, idToken string) (Outcome, error) {
	const step = StepSocialSignIn
	s, err := m.begin(step, models.ViewLogin, models.ViewRegister)
	if err != nil {
		return Outcome{}, err
	}
	defer m.end(step)

	if strings.TrimSpace(idToken) == "" {
		return m.invalid(step, "", msgSocialNoToken), nil
	}

	resp, err := m.gateway.SocialSignIn(ctx, gateway.SocialSignInRequest{IDToken: idToken})
	if err != nil {
		return m.finish(ctx, s, decision{outcome: transportFailure(step, err, MsgSocialConnectivity, MsgSocialNonJSON)}), nil
	}

	r := replyOf(resp)
	if !r.ok {
		return m.finish(ctx, s, decision{outcome: rejected(step, r, orDefault(r.message, MsgSocialFailed))}), nil
	}
	if resp.Data == nil || resp.Data.Token == "" {
		return m.finish(ctx, s, decision{outcome: Outcome{Step: step, Result: ResultUnexpected, Message: MsgSocialUnexpected}}), nil
	}

	data := resp.Data
	params := models.Params{Email: data.Email, Name: data.Name, PictureURL: data.PictureURL}
	if data.ProfileComplete != nil && !*data.ProfileComplete {
		return m.finish(ctx, s, decision{
			outcome: Outcome{Step: step, Result: ResultRedirect, Message: MsgSocialIncomplete},
			token:   data.Token,
			stage:   models.StageEmailVerified,
			next:    m.redirect(models.ViewCompleteProfile, params),
		}), nil
	}
	return m.finish(ctx, s, decision{
		outcome: Outcome{Step: step, Result: ResultSuccess},
		token:   data.Token,
		stage:   models.StageAuthenticated,
		next:    &models.Transition{To: models.ViewHome, Params: params},
	}), nil
}

func (m *Machine) RequestPasswordReset(ctx context.Context, email string) (Outcome, error) {
	const step = StepRequestPasswordReset
	s, err := m.begin(step, models.ViewForgotPassword)
	if err != nil {
		return Outcome{}, err
	}
	defer m.end(step)

	email = strings.TrimSpace(email)
	switch {
	case email == "":
		return m.invalid(step, models.FieldEmail, MsgForgotEmailRequired), nil
	case !validation.ValidEmail(email):
		return m.invalid(step, models.FieldEmail, MsgForgotEmailInvalid), nil
	}

	resp, err := m.gateway.RequestPasswordReset(ctx, gateway.PasswordResetRequest{Email: email})
	if err != nil {
		return m.finish(ctx, s, decision{outcome: transportFailure(step, err, MsgForgotConnectivity, MsgServerNonJSON)}), nil
	}

	r := replyOf(resp)
	if !r.ok {
		return m.finish(ctx, s, decision{outcome: rejected(step, r, forgotFailure(r))}), nil
	}
	return m.finish(ctx, s, decision{
		outcome: Outcome{Step: step, Result: ResultSuccess, Message: MsgForgotSent},
		next:    &models.Transition{To: models.ViewLogin, Params: models.Params{Email: email}},
	}), nil
}

// ResetPassword sets a new password with a reset token. The new password
// must meet the strong policy.
func (m *Machine) ResetPassword(ctx context.Context, token, newPassword, confirmPassword string) (Outcome, error) {
	const step = StepResetPassword
	s, err := m.begin(step, models.ViewResetPassword)
	if err != nil {
		return Outcome{}, err
	}
	defer m.end(step)

	switch {
	case token == "":
		return m.invalid(step, "", MsgResetTokenMissing), nil
	case strings.TrimSpace(newPassword) == "":
		return m.invalid(step, models.FieldPassword, MsgResetFieldsRequired), nil
	case strings.TrimSpace(confirmPassword) == "":
		return m.invalid(step, models.FieldConfirmPassword, MsgResetFieldsRequired), nil
	case newPassword != confirmPassword:
		return m.invalid(step, models.FieldConfirmPassword, MsgResetMismatch), nil
	case !validation.StrongPassword(newPassword):
		return m.invalid(step, models.FieldPassword, validation.StrongPasswordPolicy), nil
	}

	resp, err := m.gateway.ResetPassword(ctx, gateway.ResetPasswordRequest{
		Token:           token,
		NewPassword:     newPassword,
		ConfirmPassword: confirmPassword,
	})
	if err != nil {
		return m.finish(ctx, s, decision{outcome: transportFailure(step, err, MsgResetConnectivity, MsgServerNonJSON)}), nil
	}

	r := replyOf(resp)
	if !r.ok {
		return m.finish(ctx, s, decision{outcome: rejected(step, r, resetFailure(r))}), nil
	}
	var params models.Params
	if resp.Data != nil {
		params.Email = resp.Data.Email
	}
	return m.finish(ctx, s, decision{
		outcome: Outcome{Step: step, Result: ResultSuccess, Message: MsgResetDone},
		next:    &models.Transition{To: models.ViewLogin, Params: params},
	}), nil
}

// session is what a step captured when it started.
type session struct {
	epoch    uint64
	params   models.Params
	cooldown *cooldown.Controller
}

// decision is a classified answer waiting to be applied.
type decision struct {
	outcome Outcome
	token   string
	stage   models.Stage
	next    *models.Transition
}

// effects run after the lock is released.
type effects struct {
	stop     *cooldown.Ticker
	navigate *models.Transition
	// epoch is the one the move produced; navigate is dropped once it is stale.
	epoch uint64
}

func (m *Machine) begin(step Step, views ...models.View) (session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed || !slices.Contains(views, m.view) {
		return session{}, dErrors.New(dErrors.CodeOutOfOrder,
			fmt.Sprintf("%s is not available on view %q", step, m.view))
	}
	if m.loading[step] {
		return session{}, dErrors.New(dErrors.CodeBusy, fmt.Sprintf("%s already in flight", step))
	}
	m.loading[step] = true
	return session{epoch: m.epoch, params: m.params, cooldown: m.cooldown}, nil
}

func (m *Machine) end(step Step) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.loading, step)
}

func (m *Machine) validationContext() validation.Context {
	m.mu.Lock()
	defer m.mu.Unlock()
	return validation.Context{KnownStateCodes: m.knownStates, Now: m.now()}
}

func (m *Machine) redirect(to models.View, params models.Params) *models.Transition {
	return &models.Transition{To: to, Params: params, Delay: m.redirectDelay}
}

func (m *Machine) invalid(step Step, field models.FieldKey, msg string) Outcome {
	out := Outcome{Step: step, Result: ResultInvalid, Message: msg, Field: field}
	m.record(out)
	return out
}

func rejected(step Step, r reply, msg string) Outcome {
	return Outcome{Step: step, Result: ResultRejected, Message: msg, ErrorCode: r.code}
}

// finish applies d unless the view changed since the step began. Stage and
// view are committed first; the token is then written before the host is
// told to navigate.
func (m *Machine) finish(ctx context.Context, s session, d decision) Outcome {
	m.mu.Lock()
	if m.closed || m.epoch != s.epoch {
		m.mu.Unlock()
		return m.discard(d.outcome.Step)
	}
	m.stage = m.stage.Advance(d.stage)
	var (
		e       effects
		delayed *models.Transition
	)
	if d.next != nil {
		if d.next.Delay > 0 {
			delayed = d.next
		} else {
			e = m.moveLocked(d.next.To, d.next.Params)
			next := *d.next
			e.navigate = &next
		}
		d.outcome.Transition = d.next
	}
	epoch := m.epoch
	m.mu.Unlock()

	if d.token != "" {
		m.persistToken(ctx, d.token)
	}
	if delayed != nil {
		m.schedule(epoch, *delayed)
	}
	m.apply(e)
	m.record(d.outcome)
	return d.outcome
}

func (m *Machine) stale(epoch uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed || m.epoch != epoch
}

func (m *Machine) discard(step Step) Outcome {
	out := Outcome{Step: step, Result: ResultDiscarded}
	m.logger.Debug("stale answer discarded", "step", step.String())
	m.record(out)
	return out
}

func (m *Machine) persistToken(ctx context.Context, token string) {
	if err := m.tokens.Set(ctx, TokenKey, token); err != nil {
		m.logger.WarnContext(ctx, "session token not persisted", "error", err)
	}
}

// moveLocked changes the view. Leaving a view cancels its pending redirect
// and cooldown ticker; entering the verification view starts a fresh one.
func (m *Machine) moveLocked(to models.View, params models.Params) effects {
	var e effects
	m.epoch++
	e.epoch = m.epoch
	m.cancelPendingLocked()
	if m.ticker != nil {
		e.stop = m.ticker
		m.ticker = nil
	}
	m.cooldown = nil

	m.view, m.params = to, params
	if to == models.ViewVerifyEmail {
		m.cooldown = cooldown.New(
			cooldown.WithLogger(m.logger),
			cooldown.WithMetrics(m.metrics),
			cooldown.WithWindow(m.resendWindow),
			cooldown.WithMaxAttempts(m.maxResends),
		)
		m.ticker = cooldown.StartTicker(m.cooldown, m.tickInterval, m.onCooldown)
	}
	return e
}

func (m *Machine) cancelPendingLocked() {
	if m.pending != nil {
		m.pending.Stop()
		m.pending = nil
	}
	m.pendingSeq++
}

// schedule arms t unless the view moved on after epoch was read.
func (m *Machine) schedule(epoch uint64, t models.Transition) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || m.epoch != epoch {
		return
	}
	m.scheduleLocked(t)
}

func (m *Machine) scheduleLocked(t models.Transition) {
	m.cancelPendingLocked()
	epoch, seq := m.epoch, m.pendingSeq
	m.pending = m.scheduler.AfterFunc(t.Delay, func() {
		m.fire(epoch, seq, t)
	})
}

func (m *Machine) fire(epoch, seq uint64, t models.Transition) {
	m.mu.Lock()
	if m.closed || m.epoch != epoch || m.pendingSeq != seq {
		m.mu.Unlock()
		return
	}
	m.pending = nil
	e := m.moveLocked(t.To, t.Params)
	e.navigate = &t
	m.mu.Unlock()

	m.apply(e)
}

func (m *Machine) apply(e effects) {
	if e.stop != nil {
		e.stop.Stop()
	}
	if e.navigate != nil && !m.stale(e.epoch) {
		m.navigator.Navigate(*e.navigate)
	}
}

func (m *Machine) record(out Outcome) {
	m.metrics.ObserveStep(out.Step.String(), out.Result.String())
	attrs := []any{"step", out.Step.String(), "result", out.Result.String()}
	if out.ErrorCode != "" {
		attrs = append(attrs, "error_code", out.ErrorCode)
	}
	if out.Transition != nil {
		attrs = append(attrs, "next_view", string(out.Transition.To), "delay", out.Transition.Delay)
	}
	m.logger.Info("onboarding step finished", attrs...)
}

func isCode(code string) bool {
	if len(code) != 6 {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
