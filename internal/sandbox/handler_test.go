package sandbox

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"viacarona/internal/gateway"
	jwttoken "viacarona/internal/jwt_token"
	"viacarona/internal/onboarding/validation"
	"viacarona/internal/platform/logger"
	"viacarona/internal/platform/metrics"
)

type HandlerSuite struct {
	suite.Suite
	ctx    context.Context
	server *httptest.Server
	svc    *Service
	client *gateway.Client
	tokens *jwttoken.JWTService
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.ctx = context.Background()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	log := logger.Discard()

	s.tokens = jwttoken.NewJWTService("handler-test-key", "viacarona-sandbox", "viacarona")
	svc, err := New(NewStore(), s.tokens,
		WithLogger(log),
		WithMetrics(m),
		WithBcryptCost(bcrypt.MinCost),
	)
	s.Require().NoError(err)
	s.svc = svc

	s.server = httptest.NewServer(Router(NewHandler(svc, s.tokens, log), reg, log))
	s.client, err = gateway.New(s.server.URL, gateway.WithLogger(log))
	s.Require().NoError(err)
}

func (s *HandlerSuite) TearDownTest() {
	s.server.Close()
}

func (s *HandlerSuite) registerAndVerify(email string) {
	resp, err := s.client.Register(s.ctx, gateway.RegisterRequest{
		Email: email, Password: "segredo123", Name: "Ana Souza", Username: strings.Split(email, "@")[0],
	})
	s.Require().NoError(err)
	s.Require().True(resp.OK())

	code, err := s.svc.LastCode(email)
	s.Require().NoError(err)
	vresp, err := s.client.VerifyEmail(s.ctx, gateway.VerifyEmailRequest{Email: email, Code: code})
	s.Require().NoError(err)
	s.Require().True(vresp.OK())
}

func (s *HandlerSuite) TestRegisterEnvelope() {
	resp, err := s.client.Register(s.ctx, gateway.RegisterRequest{
		Email: "ana@example.com", Password: "segredo123", Name: "Ana Souza", Username: "ana",
	})
	s.Require().NoError(err)
	s.Equal(http.StatusCreated, resp.Status)
	s.True(resp.Success)
	s.Require().NotNil(resp.Data)
	s.True(resp.Data.EmailVerificationRequired)

	resp, err = s.client.Register(s.ctx, gateway.RegisterRequest{
		Email: "ana@example.com", Password: "segredo123", Name: "Ana Souza", Username: "ana_b",
	})
	s.Require().NoError(err)
	s.Equal(http.StatusConflict, resp.Status)
	s.False(resp.OK())
	s.Equal(CodeEmailTaken, resp.ErrorCode)
}

func (s *HandlerSuite) TestVerifyWrongCode() {
	_, err := s.client.Register(s.ctx, gateway.RegisterRequest{
		Email: "ana@example.com", Password: "segredo123", Name: "Ana Souza", Username: "ana",
	})
	s.Require().NoError(err)

	code, _ := s.svc.LastCode("ana@example.com")
	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	resp, err := s.client.VerifyEmail(s.ctx, gateway.VerifyEmailRequest{Email: "ana@example.com", Code: wrong})
	s.Require().NoError(err)
	s.Equal(http.StatusBadRequest, resp.Status)
	s.Equal(CodeWrongCode, resp.ErrorCode)
}

func (s *HandlerSuite) TestCompleteProfileMultipartAndLogin() {
	s.registerAndVerify("ana@example.com")
	cpf, err := validation.CompleteCPF("529982247")
	s.Require().NoError(err)

	resp, err := s.client.CompleteProfile(s.ctx, gateway.CompleteProfileRequest{
		Email:     "ana@example.com",
		Phone:     "11987654321",
		BirthDate: "1995-02-28",
		Gender:    "F",
		CPF:       cpf,
		State:     "SP",
		City:      "Campinas",
		Photo:     &gateway.Photo{Name: "me.jpg", Body: strings.NewReader("jpeg-bytes")},
	})
	s.Require().NoError(err)
	s.Require().True(resp.OK(), resp.Message)
	s.Require().NotNil(resp.Data)
	s.NotEmpty(resp.Data.Token)

	login, err := s.client.Login(s.ctx, gateway.LoginRequest{Email: "ana@example.com", Password: "segredo123"})
	s.Require().NoError(err)
	s.Require().True(login.OK())
	s.Require().NotNil(login.Data)

	req, err := http.NewRequest(http.MethodGet, s.server.URL+"/auth/me", nil)
	s.Require().NoError(err)
	req.Header.Set("Authorization", "Bearer "+login.Data.Token)
	me, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	defer me.Body.Close()
	body, _ := io.ReadAll(me.Body)
	s.Equal(http.StatusOK, me.StatusCode)
	s.Contains(string(body), `"profileComplete":true`)
}

func (s *HandlerSuite) TestLoginProfileIncomplete() {
	s.registerAndVerify("ana@example.com")

	resp, err := s.client.Login(s.ctx, gateway.LoginRequest{Email: "ana@example.com", Password: "segredo123"})
	s.Require().NoError(err)
	s.Equal(http.StatusForbidden, resp.Status)
	s.Equal(CodeProfileIncomplete, resp.ErrorCode)
}

func (s *HandlerSuite) TestMalformedBody() {
	resp, err := http.Post(s.server.URL+"/auth/login", "application/json", strings.NewReader("{bad"))
	s.Require().NoError(err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	s.Equal(http.StatusBadRequest, resp.StatusCode)
	s.Contains(string(body), CodeValidation)
	s.NotEmpty(resp.Header.Get("X-Request-Id"))
}

func (s *HandlerSuite) TestMeRequiresToken() {
	resp, err := http.Get(s.server.URL + "/auth/me")
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func (s *HandlerSuite) TestMetricsEndpoint() {
	_, err := s.client.Register(s.ctx, gateway.RegisterRequest{
		Email: "ana@example.com", Password: "segredo123", Name: "Ana Souza", Username: "ana",
	})
	s.Require().NoError(err)

	resp, err := http.Get(s.server.URL + "/metrics")
	s.Require().NoError(err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	s.Contains(string(body), "viacarona_sandbox_accounts_created_total 1")
}
