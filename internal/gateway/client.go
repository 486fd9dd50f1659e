// Package gateway is the HTTP client of the auth API used by the onboarding
// flow. It validates request DTOs, sends them, and decodes the JSON envelope.
// Classifying business outcomes is left to the caller.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"viacarona/internal/platform/metrics"
	"viacarona/pkg/requestcontext"
)

const (
	defaultTimeout = 15 * time.Second
	maxBodyBytes   = 1 << 20
	requestIDHdr   = "X-Request-ID"
)

// Client talks to one auth API base URL. It is safe for concurrent use.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	timeout    time.Duration
	validate   *validator.Validate
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// New returns a client for baseURL, which must be absolute.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base URL %q is not absolute", baseURL)
	}

	c := &Client{
		baseURL:    u,
		httpClient: &http.Client{Timeout: defaultTimeout},
		validate:   validator.New(validator.WithRequiredStructEnabled()),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		hc := *c.httpClient
		hc.Timeout = c.timeout
		c.httpClient = &hc
	}
	return c, nil
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) (*Response[RegisterData], error) {
	return postJSON[RegisterData](ctx, c, EndpointRegister, PathRegister, req)
}

func (c *Client) VerifyEmail(ctx context.Context, req VerifyEmailRequest) (*Response[VerifyData], error) {
	return postJSON[VerifyData](ctx, c, EndpointVerifyEmail, PathVerifyEmail, req)
}

func (c *Client) ResendCode(ctx context.Context, req ResendCodeRequest) (*Response[Ack], error) {
	return postJSON[Ack](ctx, c, EndpointResendCode, PathResendCode, req)
}

func (c *Client) Login(ctx context.Context, req LoginRequest) (*Response[TokenData], error) {
	return postJSON[TokenData](ctx, c, EndpointLogin, PathLogin, req)
}

func (c *Client) SocialSignIn(ctx context.Context, req SocialSignInRequest) (*Response[TokenData], error) {
	return postJSON[TokenData](ctx, c, EndpointSocialSignIn, PathSocialSignIn, req)
}

func (c *Client) RequestPasswordReset(ctx context.Context, req PasswordResetRequest) (*Response[PasswordResetData], error) {
	return postJSON[PasswordResetData](ctx, c, EndpointRequestPasswordReset, PathRequestPasswordReset, req)
}

func (c *Client) ResetPassword(ctx context.Context, req ResetPasswordRequest) (*Response[PasswordResetData], error) {
	return postJSON[PasswordResetData](ctx, c, EndpointResetPassword, PathResetPassword, req)
}

// CompleteProfile uploads the profile as multipart form data to the
// per-email completion endpoint.
func (c *Client) CompleteProfile(ctx context.Context, req CompleteProfileRequest) (*Response[TokenData], error) {
	if err := c.validate.Struct(req); err != nil {
		return nil, newError(KindInvalidRequest, EndpointCompleteProfile, 0, "request failed validation", err)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, f := range [][2]string{
		{"phone", req.Phone},
		{"birthDate", req.BirthDate},
		{"gender", req.Gender},
		{"cpf", req.CPF},
		{"state", req.State},
		{"city", req.City},
	} {
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return nil, newError(KindInvalidRequest, EndpointCompleteProfile, 0, "build form", err)
		}
	}
	if req.Photo != nil && req.Photo.Body != nil {
		if err := writePhoto(mw, req.Photo); err != nil {
			return nil, newError(KindInvalidRequest, EndpointCompleteProfile, 0, "attach photo", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, newError(KindInvalidRequest, EndpointCompleteProfile, 0, "build form", err)
	}

	path := PathCompleteProfile + url.PathEscape(req.Email)
	return send[TokenData](ctx, c, EndpointCompleteProfile, path, mw.FormDataContentType(), &body)
}

func writePhoto(mw *multipart.Writer, p *Photo) error {
	name := p.Name
	if name == "" {
		name = "photo.jpg"
	}
	contentType := p.ContentType
	if contentType == "" {
		contentType = "image/jpeg"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="photo"; filename=%q`, name))
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return err
	}
	_, err = io.Copy(part, p.Body)
	return err
}

func postJSON[T any](ctx context.Context, c *Client, endpoint, path string, req any) (*Response[T], error) {
	if err := c.validate.Struct(req); err != nil {
		return nil, newError(KindInvalidRequest, endpoint, 0, "request failed validation", err)
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, newError(KindInvalidRequest, endpoint, 0, "encode request", err)
	}
	return send[T](ctx, c, endpoint, path, "application/json", bytes.NewReader(payload))
}

func send[T any](ctx context.Context, c *Client, endpoint, path, contentType string, body io.Reader) (*Response[T], error) {
	requestID := requestcontext.RequestID(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL.String()+path, body)
	if err != nil {
		return nil, newError(KindInvalidRequest, endpoint, 0, "build request", err)
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set(requestIDHdr, requestID)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.observe(ctx, endpoint, string(KindTransport), requestID, 0, start)
		c.logger.WarnContext(ctx, "auth API unreachable", "endpoint", endpoint, "request_id", requestID, "error", err)
		return nil, newError(KindTransport, endpoint, 0, "request failed", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		c.observe(ctx, endpoint, string(KindTransport), requestID, resp.StatusCode, start)
		return nil, newError(KindTransport, endpoint, resp.StatusCode, "read body", err)
	}

	if !isJSON(resp.Header.Get("Content-Type")) {
		c.observe(ctx, endpoint, string(KindNonJSON), requestID, resp.StatusCode, start)
		c.logger.WarnContext(ctx, "auth API answered without JSON",
			"endpoint", endpoint,
			"request_id", requestID,
			"status", resp.StatusCode,
			"content_type", resp.Header.Get("Content-Type"),
		)
		return nil, newError(KindNonJSON, endpoint, resp.StatusCode, "response is not JSON", nil)
	}

	out, err := decode[T](resp.StatusCode, raw)
	if err != nil {
		c.observe(ctx, endpoint, string(KindDecode), requestID, resp.StatusCode, start)
		return nil, newError(KindDecode, endpoint, resp.StatusCode, "decode envelope", err)
	}

	outcome := "ok"
	if !out.OK() {
		outcome = "rejected"
	}
	c.observe(ctx, endpoint, outcome, requestID, resp.StatusCode, start)
	return out, nil
}

func decode[T any](status int, raw []byte) (*Response[T], error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, err
	}
	out := &Response[T]{
		Status:    status,
		Success:   env.Success,
		Message:   env.Message,
		ErrorCode: env.ErrorCode,
		Errors:    env.Errors,
	}
	if len(env.Data) > 0 && !bytes.Equal(env.Data, []byte("null")) {
		var data T
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return nil, fmt.Errorf("decode data: %w", err)
		}
		out.Data = &data
	}
	if env.Token != "" {
		if td, ok := any(out).(*Response[TokenData]); ok {
			if td.Data == nil {
				td.Data = &TokenData{}
			}
			if td.Data.Token == "" {
				td.Data.Token = env.Token
			}
		}
	}
	return out, nil
}

func isJSON(contentType string) bool {
	return strings.Contains(strings.ToLower(contentType), "application/json")
}

func (c *Client) observe(ctx context.Context, endpoint, outcome, requestID string, status int, start time.Time) {
	elapsed := time.Since(start)
	c.metrics.ObserveGateway(endpoint, outcome, elapsed)
	c.logger.DebugContext(ctx, "auth API call",
		"endpoint", endpoint,
		"outcome", outcome,
		"status", status,
		"request_id", requestID,
		"elapsed", elapsed,
	)
}
