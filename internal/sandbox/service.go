// Package sandbox is an in-memory implementation of the auth API contract the
// onboarding client speaks. It exists for local development and end-to-end
// tests of the client and is not a production server.
package sandbox

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"viacarona/internal/gateway"
	jwttoken "viacarona/internal/jwt_token"
	"viacarona/internal/onboarding/models"
	"viacarona/internal/onboarding/validation"
	"viacarona/internal/platform/metrics"
	"viacarona/pkg/email"
	"viacarona/pkg/platform/sentinel"
)

const (
	defaultCodeTTL  = 15 * time.Minute
	defaultTokenTTL = 24 * time.Hour
	defaultResetTTL = 30 * time.Minute
	codeDigits      = 6
)

// ProfileInput is a decoded profile completion form.
type ProfileInput struct {
	Email      string
	Phone      string
	BirthDate  string
	Gender     string
	CPF        string
	State      string
	City       string
	PhotoBytes int
}

type Service struct {
	store      *Store
	tokens     *jwttoken.JWTService
	outbox     Outbox
	identities IdentityVerifier
	logger     *slog.Logger
	metrics    *metrics.Metrics
	now        func() time.Time
	codeTTL    time.Duration
	tokenTTL   time.Duration
	resetTTL   time.Duration
	bcryptCost int
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func WithOutbox(o Outbox) Option {
	return func(s *Service) {
		s.outbox = o
	}
}

func WithIdentityVerifier(v IdentityVerifier) Option {
	return func(s *Service) {
		s.identities = v
	}
}

func WithCodeTTL(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.codeTTL = d
		}
	}
}

func WithTokenTTL(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.tokenTTL = d
		}
	}
}

// WithBcryptCost lowers hashing cost; tests use bcrypt.MinCost.
func WithBcryptCost(cost int) Option {
	return func(s *Service) {
		s.bcryptCost = cost
	}
}

func New(store *Store, tokens *jwttoken.JWTService, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("sandbox store is required")
	}
	if tokens == nil {
		return nil, fmt.Errorf("token service is required")
	}
	svc := &Service{
		store:      store,
		tokens:     tokens,
		identities: NewStaticIdentities(),
		logger:     slog.Default(),
		now:        time.Now,
		codeTTL:    defaultCodeTTL,
		tokenTTL:   defaultTokenTTL,
		resetTTL:   defaultResetTTL,
		bcryptCost: bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.outbox == nil {
		svc.outbox = LogOutbox{Logger: svc.logger}
	}
	return svc, nil
}

func (s *Service) Register(ctx context.Context, req gateway.RegisterRequest) (gateway.RegisterData, error) {
	fields := map[string]string{}
	for key, value := range map[models.FieldKey]string{
		models.FieldName:     req.Name,
		models.FieldUsername: req.Username,
		models.FieldEmail:    req.Email,
		models.FieldPassword: req.Password,
	} {
		if v := validation.Validate(key, value, validation.Context{}); !v.Valid {
			fields[key.String()] = v.Error
		}
	}
	if len(fields) > 0 {
		return gateway.RegisterData{}, validationError(fields)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		s.logger.ErrorContext(ctx, "hash password", "error", err)
		return gateway.RegisterData{}, errInternal
	}

	account := &Account{
		ID:           uuid.New(),
		Email:        strings.TrimSpace(req.Email),
		Username:     req.Username,
		Name:         strings.TrimSpace(req.Name),
		PasswordHash: hash,
		Stage:        AccountRegistered,
		CreatedAt:    s.now(),
	}
	if err := s.store.Create(account); err != nil {
		return gateway.RegisterData{}, conflictToAPI(err)
	}
	s.metrics.IncrementAccountsCreated()
	s.logger.InfoContext(ctx, "account registered", "account_id", account.ID)

	if err := s.issueCode(ctx, account.Email); err != nil {
		return gateway.RegisterData{}, err
	}
	return gateway.RegisterData{Email: account.Email, EmailVerificationRequired: true}, nil
}

func (s *Service) VerifyEmail(ctx context.Context, email, code string) error {
	account, err := s.store.FindByEmail(email)
	if err != nil {
		return errUserNotFound
	}
	if account.Stage >= AccountVerified {
		return nil
	}

	pending, err := s.store.Code(email)
	if err != nil || pending.Code != code {
		return apiError(http.StatusBadRequest, CodeWrongCode, "Código de verificação inválido")
	}
	if !s.now().Before(pending.ExpiresAt) {
		return apiError(http.StatusBadRequest, CodeExpiredCode, "Código de verificação expirado")
	}

	if _, err := s.store.Update(email, func(a *Account) error {
		a.Stage = AccountVerified
		return nil
	}); err != nil {
		s.logger.ErrorContext(ctx, "mark verified", "error", err)
		return errInternal
	}
	s.store.DeleteCode(email)
	s.logger.InfoContext(ctx, "email verified", "account_id", account.ID)
	return nil
}

func (s *Service) ResendCode(ctx context.Context, email string) error {
	account, err := s.store.FindByEmail(email)
	if err != nil {
		return apiError(http.StatusNotFound, CodeUserNotFound, "Email não encontrado")
	}
	if account.Stage >= AccountVerified {
		return apiError(http.StatusConflict, CodeAlreadyVerified, "Email já verificado")
	}
	return s.issueCode(ctx, account.Email)
}

func (s *Service) CompleteProfile(ctx context.Context, in ProfileInput) (gateway.TokenData, error) {
	account, err := s.store.FindByEmail(in.Email)
	if err != nil {
		return gateway.TokenData{}, errUserNotFound
	}
	switch account.Stage {
	case AccountRegistered:
		return gateway.TokenData{}, apiError(http.StatusForbidden, CodeEmailUnverified, "Email não verificado")
	case AccountComplete:
		return gateway.TokenData{}, apiError(http.StatusConflict, CodeProfileComplete, "Cadastro já completo")
	}

	birth, err := time.Parse(time.DateOnly, in.BirthDate)
	if err != nil {
		return gateway.TokenData{}, apiError(http.StatusBadRequest, CodeDateFormat, "Formato de data inválido")
	}

	fields := map[string]string{}
	vctx := validation.Context{Now: s.now()}
	for key, value := range map[models.FieldKey]string{
		models.FieldPhone:      in.Phone,
		models.FieldBirthDate:  birth.Format("02/01/2006"),
		models.FieldGender:     in.Gender,
		models.FieldNationalID: in.CPF,
		models.FieldStateCode:  in.State,
		models.FieldCity:       in.City,
	} {
		if v := validation.Validate(key, value, vctx); !v.Valid {
			fields[key.String()] = v.Error
		}
	}
	if len(fields) > 0 {
		return gateway.TokenData{}, validationError(fields)
	}

	updated, err := s.store.Update(in.Email, func(a *Account) error {
		a.Phone = validation.NormalizePhone(in.Phone)
		a.BirthDate = birth
		a.Gender = strings.ToUpper(in.Gender)
		a.CPF = validation.NormalizeNationalID(in.CPF)
		a.State = strings.ToUpper(in.State)
		a.City = strings.TrimSpace(in.City)
		if in.PhotoBytes > 0 {
			a.PhotoBytes = in.PhotoBytes
		}
		a.Stage = AccountComplete
		return nil
	})
	if err != nil {
		return gateway.TokenData{}, conflictToAPI(err)
	}
	s.logger.InfoContext(ctx, "profile completed", "account_id", updated.ID)
	return s.session(ctx, updated)
}

func (s *Service) Login(ctx context.Context, email, password string) (gateway.TokenData, error) {
	account, err := s.store.FindByEmail(email)
	if err != nil {
		return gateway.TokenData{}, errUserNotFound
	}
	if len(account.PasswordHash) == 0 || bcrypt.CompareHashAndPassword(account.PasswordHash, []byte(password)) != nil {
		return gateway.TokenData{}, apiError(http.StatusUnauthorized, CodeBadCredentials, "Credenciais inválidas")
	}
	switch account.Stage {
	case AccountRegistered:
		return gateway.TokenData{}, apiError(http.StatusForbidden, CodeEmailUnverified, "Email não verificado")
	case AccountVerified:
		return gateway.TokenData{}, apiError(http.StatusForbidden, CodeProfileIncomplete, "Cadastro incompleto")
	}
	return s.session(ctx, account)
}

// GoogleSignIn links or creates an account for a federated identity. New
// accounts start verified with an incomplete profile.
func (s *Service) GoogleSignIn(ctx context.Context, idToken string) (gateway.TokenData, error) {
	identity, err := s.identities.VerifyIDToken(ctx, idToken)
	if err != nil {
		s.logger.WarnContext(ctx, "id token rejected", "error", err)
		return gateway.TokenData{}, apiError(http.StatusUnauthorized, CodeInvalidSession, "Token inválido ou expirado")
	}

	account, err := s.store.FindByGoogleSubject(identity.Subject)
	if errors.Is(err, sentinel.ErrNotFound) {
		account, err = s.linkIdentity(ctx, identity)
	}
	if err != nil {
		return gateway.TokenData{}, err
	}

	data, err := s.session(ctx, account)
	if err != nil {
		return gateway.TokenData{}, err
	}
	complete := account.Stage == AccountComplete
	data.ProfileComplete = &complete
	data.PictureURL = account.PictureURL
	return data, nil
}

func (s *Service) linkIdentity(ctx context.Context, identity Identity) (Account, error) {
	if _, err := s.store.FindByEmail(identity.Email); errors.Is(err, sentinel.ErrNotFound) {
		name := identity.Name
		if name == "" {
			name = email.DisplayName(identity.Email)
		}
		created := &Account{
			ID:            uuid.New(),
			Email:         identity.Email,
			Name:          name,
			PictureURL:    identity.PictureURL,
			GoogleSubject: identity.Subject,
			Stage:         AccountVerified,
			CreatedAt:     s.now(),
		}
		if err := s.store.Create(created); err != nil {
			return Account{}, conflictToAPI(err)
		}
		s.metrics.IncrementAccountsCreated()
		s.logger.InfoContext(ctx, "account created from federated identity", "account_id", created.ID)
		return *created, nil
	}

	linked, err := s.store.Update(identity.Email, func(a *Account) error {
		a.GoogleSubject = identity.Subject
		if a.PictureURL == "" {
			a.PictureURL = identity.PictureURL
		}
		if a.Stage == AccountRegistered {
			// The provider has verified the address.
			a.Stage = AccountVerified
		}
		return nil
	})
	if err != nil {
		return Account{}, conflictToAPI(err)
	}
	s.store.DeleteCode(identity.Email)
	return linked, nil
}

func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	if !validation.ValidEmail(email) {
		return validationError(map[string]string{"email": validation.MsgEmailInvalid})
	}
	account, err := s.store.FindByEmail(email)
	if err != nil {
		return errUserNotFound
	}
	token := ResetToken{Token: uuid.NewString(), Email: account.Email, ExpiresAt: s.now().Add(s.resetTTL)}
	s.store.SaveReset(token)
	if err := s.outbox.Deliver(ctx, Delivery{Kind: DeliveryPasswordReset, Email: account.Email, Value: token.Token}); err != nil {
		s.logger.ErrorContext(ctx, "deliver reset token", "error", err)
		return apiError(http.StatusBadGateway, "EMAIL_SENDING_ERROR", "Falha ao enviar email")
	}
	return nil
}

// ResetPassword consumes a reset token and returns the account email.
func (s *Service) ResetPassword(ctx context.Context, req gateway.ResetPasswordRequest) (string, error) {
	if req.Token == "" || req.NewPassword == "" || req.ConfirmPassword == "" {
		return "", validationError(map[string]string{"token": "Campos obrigatórios ausentes"})
	}
	if req.NewPassword != req.ConfirmPassword || !validation.StrongPassword(req.NewPassword) {
		return "", apiError(http.StatusBadRequest, CodeInvalidNewPassword, "As senhas não coincidem ou são inválidas")
	}

	now := s.now()
	token, err := s.store.ConsumeReset(req.Token, func(t ResetToken) error {
		if !now.Before(t.ExpiresAt) {
			return sentinel.ErrExpired
		}
		return nil
	})
	switch {
	case errors.Is(err, sentinel.ErrExpired):
		return "", apiError(http.StatusBadRequest, CodeExpiredResetToken, "Token expirado")
	case err != nil:
		return "", apiError(http.StatusBadRequest, CodeInvalidResetToken, "Token inválido ou já utilizado")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), s.bcryptCost)
	if err != nil {
		s.logger.ErrorContext(ctx, "hash password", "error", err)
		return "", errInternal
	}
	if _, err := s.store.Update(token.Email, func(a *Account) error {
		a.PasswordHash = hash
		return nil
	}); err != nil {
		return "", errUserNotFound
	}
	s.logger.InfoContext(ctx, "password reset", "email", token.Email)
	return token.Email, nil
}

// LastCode returns the pending verification code for email.
func (s *Service) LastCode(email string) (string, error) {
	c, err := s.store.Code(email)
	if err != nil {
		return "", err
	}
	return c.Code, nil
}

// LastResetToken returns the newest unused reset token for email.
func (s *Service) LastResetToken(email string) (string, error) {
	t, err := s.store.LatestReset(email)
	if err != nil {
		return "", err
	}
	return t.Token, nil
}

func (s *Service) issueCode(ctx context.Context, email string) error {
	code, err := randomCode()
	if err != nil {
		s.logger.ErrorContext(ctx, "generate code", "error", err)
		return errInternal
	}
	s.store.SaveCode(email, VerificationCode{Code: code, ExpiresAt: s.now().Add(s.codeTTL)})
	if err := s.outbox.Deliver(ctx, Delivery{Kind: DeliveryVerificationCode, Email: email, Value: code}); err != nil {
		s.logger.ErrorContext(ctx, "deliver verification code", "error", err)
		return apiError(http.StatusBadGateway, CodeEmailDelivery, "Erro ao enviar email")
	}
	return nil
}

func (s *Service) session(ctx context.Context, a Account) (gateway.TokenData, error) {
	token, err := s.tokens.IssueSessionToken(a.ID, a.Email, s.tokenTTL)
	if err != nil {
		s.logger.ErrorContext(ctx, "issue session token", "error", err)
		return gateway.TokenData{}, apiError(http.StatusInternalServerError, CodeTokenIssue, "Erro ao gerar token")
	}
	return gateway.TokenData{Token: token, Email: a.Email, Name: a.Name}, nil
}

func randomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", codeDigits, n.Int64()), nil
}

func conflictToAPI(err error) error {
	var ce *ConflictError
	if !errors.As(err, &ce) {
		if errors.Is(err, sentinel.ErrNotFound) {
			return errUserNotFound
		}
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return apiErr
		}
		return errInternal
	}
	switch ce.Field {
	case "email":
		return apiError(http.StatusConflict, CodeEmailTaken, "Email já em uso")
	case "username":
		return apiError(http.StatusConflict, CodeUsernameTaken, "Username já em uso")
	case "phone":
		return apiError(http.StatusConflict, CodePhoneTaken, "Telefone já em uso")
	case "cpf":
		return apiError(http.StatusConflict, CodeCPFTaken, "CPF já em uso")
	}
	return apiError(http.StatusConflict, "CONFLICT", ce.Error())
}

// ProfileView is the public part of an account.
type ProfileView struct {
	Email           string `json:"email"`
	Name            string `json:"name"`
	Username        string `json:"username,omitempty"`
	State           string `json:"state,omitempty"`
	City            string `json:"city,omitempty"`
	PictureURL      string `json:"pictureUrl,omitempty"`
	ProfileComplete bool   `json:"profileComplete"`
}

// Profile returns the account of an authenticated session.
func (s *Service) Profile(_ context.Context, email string) (ProfileView, error) {
	a, err := s.store.FindByEmail(email)
	if err != nil {
		return ProfileView{}, errUserNotFound
	}
	return ProfileView{
		Email:           a.Email,
		Name:            a.Name,
		Username:        a.Username,
		State:           a.State,
		City:            a.City,
		PictureURL:      a.PictureURL,
		ProfileComplete: a.Stage == AccountComplete,
	}, nil
}
