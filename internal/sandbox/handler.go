package sandbox

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"viacarona/internal/gateway"
	"viacarona/internal/platform/middleware"
	"viacarona/pkg/platform/httputil"
	"viacarona/pkg/requestcontext"
)

const maxPhotoBytes = 5 << 20

// API is the behaviour the handler exposes over HTTP.
type API interface {
	Register(ctx context.Context, req gateway.RegisterRequest) (gateway.RegisterData, error)
	VerifyEmail(ctx context.Context, email, code string) error
	ResendCode(ctx context.Context, email string) error
	CompleteProfile(ctx context.Context, in ProfileInput) (gateway.TokenData, error)
	Login(ctx context.Context, email, password string) (gateway.TokenData, error)
	GoogleSignIn(ctx context.Context, idToken string) (gateway.TokenData, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, req gateway.ResetPasswordRequest) (string, error)
	Profile(ctx context.Context, email string) (ProfileView, error)
}

// Handler serves the auth API endpoints.
type Handler struct {
	api    API
	tokens middleware.TokenValidator
	logger *slog.Logger
}

func NewHandler(api API, tokens middleware.TokenValidator, logger *slog.Logger) *Handler {
	return &Handler{api: api, tokens: tokens, logger: logger}
}

// Register mounts the endpoints on r.
func (h *Handler) Register(r chi.Router) {
	r.Post(gateway.PathRegister, h.HandleRegister)
	r.Post(gateway.PathVerifyEmail, h.HandleVerifyEmail)
	r.Post(gateway.PathResendCode, h.HandleResendCode)
	r.Post(gateway.PathCompleteProfile+"{email}", h.HandleCompleteProfile)
	r.Post(gateway.PathLogin, h.HandleLogin)
	r.Post(gateway.PathSocialSignIn, h.HandleGoogleSignIn)
	r.Post(gateway.PathRequestPasswordReset, h.HandleRequestPasswordReset)
	r.Post(gateway.PathResetPassword, h.HandleResetPassword)
	r.With(middleware.RequireAuth(h.tokens, h.logger)).Get("/auth/me", h.HandleMe)
}

// Router builds the sandbox HTTP handler with its middleware chain and a
// /metrics endpoint served from gatherer.
func Router(h *Handler, gatherer prometheus.Gatherer, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.RequestContext)
	r.Use(chimw.RealIP)
	r.Use(middleware.AccessLog(logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))

	h.Register(r)
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[gateway.RegisterRequest](h, w, r)
	if !ok {
		return
	}
	data, err := h.api.Register(r.Context(), req)
	if err != nil {
		h.fail(w, r, "register", err)
		return
	}
	httputil.WriteSuccess(w, http.StatusCreated, "Usuário registrado. Verifique seu email.", data)
}

func (h *Handler) HandleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[gateway.VerifyEmailRequest](h, w, r)
	if !ok {
		return
	}
	if err := h.api.VerifyEmail(r.Context(), req.Email, req.Code); err != nil {
		h.fail(w, r, "verify email", err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "Email verificado com sucesso", gateway.VerifyData{Email: req.Email})
}

func (h *Handler) HandleResendCode(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[gateway.ResendCodeRequest](h, w, r)
	if !ok {
		return
	}
	if err := h.api.ResendCode(r.Context(), req.Email); err != nil {
		h.fail(w, r, "resend code", err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "Código reenviado", nil)
}

func (h *Handler) HandleCompleteProfile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxPhotoBytes+httputil.MaxBodyBytes)
	if err := r.ParseMultipartForm(maxPhotoBytes); err != nil {
		h.fail(w, r, "complete profile", validationError(map[string]string{"form": "Formulário inválido"}))
		return
	}
	in := ProfileInput{
		Email:     chi.URLParam(r, "email"),
		Phone:     r.FormValue("phone"),
		BirthDate: r.FormValue("birthDate"),
		Gender:    r.FormValue("gender"),
		CPF:       r.FormValue("cpf"),
		State:     r.FormValue("state"),
		City:      r.FormValue("city"),
	}
	if file, _, err := r.FormFile("photo"); err == nil {
		n, _ := io.Copy(io.Discard, file)
		_ = file.Close()
		in.PhotoBytes = int(n)
	}

	data, err := h.api.CompleteProfile(r.Context(), in)
	if err != nil {
		h.fail(w, r, "complete profile", err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "Cadastro completo", data)
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[gateway.LoginRequest](h, w, r)
	if !ok {
		return
	}
	data, err := h.api.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(w, r, "login", err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "Login realizado com sucesso", data)
}

func (h *Handler) HandleGoogleSignIn(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[gateway.SocialSignInRequest](h, w, r)
	if !ok {
		return
	}
	data, err := h.api.GoogleSignIn(r.Context(), req.IDToken)
	if err != nil {
		h.fail(w, r, "google sign in", err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "Login realizado com sucesso", data)
}

func (h *Handler) HandleRequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[gateway.PasswordResetRequest](h, w, r)
	if !ok {
		return
	}
	if err := h.api.RequestPasswordReset(r.Context(), req.Email); err != nil {
		h.fail(w, r, "request password reset", err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "Email de redefinição enviado",
		gateway.PasswordResetData{Email: req.Email})
}

func (h *Handler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[gateway.ResetPasswordRequest](h, w, r)
	if !ok {
		return
	}
	email, err := h.api.ResetPassword(r.Context(), req)
	if err != nil {
		h.fail(w, r, "reset password", err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "Senha redefinida com sucesso",
		gateway.PasswordResetData{Email: email})
}

func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	claims := middleware.Claims(r.Context())
	profile, err := h.api.Profile(r.Context(), claims.Email)
	if err != nil {
		h.fail(w, r, "profile", err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "", profile)
}

func decode[T any](h *Handler, w http.ResponseWriter, r *http.Request) (T, bool) {
	v, err := httputil.DecodeJSON[T](r)
	if err != nil {
		h.logger.WarnContext(r.Context(), "invalid request body",
			"request_id", requestcontext.RequestID(r.Context()),
			"error", err,
		)
		httputil.WriteFailure(w, http.StatusBadRequest, CodeValidation, "Corpo da requisição inválido", nil)
		return v, false
	}
	return v, true
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	ctx := r.Context()
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		apiErr = errInternal
	}
	level := slog.LevelInfo
	if apiErr.Status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	h.logger.Log(ctx, level, op+" failed",
		"request_id", requestcontext.RequestID(ctx),
		"status", apiErr.Status,
		"error_code", apiErr.Code,
	)
	httputil.WriteFailure(w, apiErr.Status, apiErr.Code, apiErr.Message, apiErr.Fields)
}
