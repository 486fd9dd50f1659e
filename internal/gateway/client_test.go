package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/suite"

	"viacarona/internal/platform/logger"
	"viacarona/pkg/requestcontext"
)

type ClientSuite struct {
	suite.Suite
	mux    *http.ServeMux
	server *httptest.Server
	client *Client
	hits   atomic.Int32
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientSuite))
}

func (s *ClientSuite) SetupTest() {
	s.hits.Store(0)
	s.mux = http.NewServeMux()
	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.hits.Add(1)
		s.mux.ServeHTTP(w, r)
	}))
	client, err := New(s.server.URL+"/", WithLogger(logger.Discard()))
	s.Require().NoError(err)
	s.client = client
}

func (s *ClientSuite) TearDownTest() {
	s.server.Close()
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (s *ClientSuite) TestRegisterSuccess() {
	s.mux.HandleFunc("POST "+PathRegister, func(w http.ResponseWriter, r *http.Request) {
		var req RegisterRequest
		s.NoError(json.NewDecoder(r.Body).Decode(&req))
		s.Equal("ana@example.com", req.Email)
		s.Equal("ana_lima", req.Username)
		writeJSON(w, http.StatusCreated, map[string]any{
			"success": true,
			"message": "Usuário registrado",
			"data":    map[string]any{"email": req.Email, "emailVerificationRequired": true},
		})
	})

	resp, err := s.client.Register(context.Background(), RegisterRequest{
		Email: "ana@example.com", Password: "segredo123", Name: "Ana", Username: "ana_lima",
	})
	s.Require().NoError(err)
	s.True(resp.OK())
	s.Equal(http.StatusCreated, resp.Status)
	s.Require().NotNil(resp.Data)
	s.Equal("ana@example.com", resp.Data.Email)
	s.True(resp.Data.EmailVerificationRequired)
}

func (s *ClientSuite) TestBusinessErrorIsAResponse() {
	s.mux.HandleFunc("POST "+PathRegister, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusConflict, map[string]any{
			"success": false, "message": "Email já em uso", "errorCode": "USER_001",
		})
	})

	resp, err := s.client.Register(context.Background(), RegisterRequest{
		Email: "ana@example.com", Password: "segredo123", Name: "Ana", Username: "ana",
	})
	s.Require().NoError(err)
	s.False(resp.OK())
	s.Equal(http.StatusConflict, resp.Status)
	s.Equal("USER_001", resp.ErrorCode)
	s.Nil(resp.Data)
}

func (s *ClientSuite) TestNonJSONResponse() {
	s.mux.HandleFunc("POST "+PathLogin, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, "<html>bad gateway</html>")
	})

	_, err := s.client.Login(context.Background(), LoginRequest{Email: "ana@example.com", Password: "x"})
	s.Require().Error(err)
	s.Equal(KindNonJSON, KindOf(err))
	s.Equal(http.StatusBadGateway, StatusOf(err))
	s.False(IsTransport(err))
}

func (s *ClientSuite) TestMalformedJSON() {
	s.mux.HandleFunc("POST "+PathLogin, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"success": tru`)
	})

	_, err := s.client.Login(context.Background(), LoginRequest{Email: "ana@example.com", Password: "x"})
	s.Equal(KindDecode, KindOf(err))
}

func (s *ClientSuite) TestTransportFailure() {
	s.server.Close()

	_, err := s.client.ResendCode(context.Background(), ResendCodeRequest{Email: "ana@example.com"})
	s.Require().Error(err)
	s.True(IsTransport(err))
	s.Zero(StatusOf(err))
}

func (s *ClientSuite) TestInvalidRequestIsNotSent() {
	_, err := s.client.VerifyEmail(context.Background(), VerifyEmailRequest{Email: "ana@example.com", Code: "12ab56"})
	s.Equal(KindInvalidRequest, KindOf(err))

	_, err = s.client.ResetPassword(context.Background(), ResetPasswordRequest{
		Token: "t", NewPassword: "Abcdef1!", ConfirmPassword: "Abcdef1?",
	})
	s.Equal(KindInvalidRequest, KindOf(err))
	s.Zero(s.hits.Load())
}

func (s *ClientSuite) TestTokenFallsBackToTopLevel() {
	s.mux.HandleFunc("POST "+PathLogin, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "token": "legacy-token"})
	})

	resp, err := s.client.Login(context.Background(), LoginRequest{Email: "ana@example.com", Password: "x"})
	s.Require().NoError(err)
	s.Require().NotNil(resp.Data)
	s.Equal("legacy-token", resp.Data.Token)
}

func (s *ClientSuite) TestNullDataStaysNil() {
	s.mux.HandleFunc("POST "+PathLogin, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": nil})
	})

	resp, err := s.client.Login(context.Background(), LoginRequest{Email: "ana@example.com", Password: "x"})
	s.Require().NoError(err)
	s.Nil(resp.Data)
}

func (s *ClientSuite) TestRequestIDPropagates() {
	var got string
	s.mux.HandleFunc("POST "+PathSocialSignIn, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get(requestIDHdr)
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": map[string]any{"token": "t", "profileComplete": false}})
	})

	ctx := requestcontext.WithRequestID(context.Background(), "req-123")
	resp, err := s.client.SocialSignIn(ctx, SocialSignInRequest{IDToken: "google-id-token"})
	s.Require().NoError(err)
	s.Equal("req-123", got)
	s.Require().NotNil(resp.Data.ProfileComplete)
	s.False(*resp.Data.ProfileComplete)
}

func (s *ClientSuite) TestCompleteProfileMultipart() {
	s.mux.HandleFunc("POST "+PathCompleteProfile+"{email}", func(w http.ResponseWriter, r *http.Request) {
		s.Equal("ana+1@example.com", r.PathValue("email"))
		if !s.NoError(r.ParseMultipartForm(1 << 20)) {
			return
		}
		s.Equal("11987654321", r.FormValue("phone"))
		s.Equal("1994-03-05", r.FormValue("birthDate"))
		s.Equal("F", r.FormValue("gender"))
		s.Equal("52998224725", r.FormValue("cpf"))
		s.Equal("SP", r.FormValue("state"))
		s.Equal("Campinas", r.FormValue("city"))

		file, header, err := r.FormFile("photo")
		if !s.NoError(err) {
			return
		}
		defer file.Close()
		body, _ := io.ReadAll(file)
		s.Equal("avatar.png", header.Filename)
		s.Equal("image/png", header.Header.Get("Content-Type"))
		s.Equal("png-bytes", string(body))

		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": map[string]any{"token": "session"}})
	})

	resp, err := s.client.CompleteProfile(context.Background(), CompleteProfileRequest{
		Email:     "ana+1@example.com",
		Phone:     "11987654321",
		BirthDate: "1994-03-05",
		Gender:    "F",
		CPF:       "52998224725",
		State:     "SP",
		City:      "Campinas",
		Photo:     &Photo{Name: "avatar.png", ContentType: "image/png", Body: strings.NewReader("png-bytes")},
	})
	s.Require().NoError(err)
	s.Equal("session", resp.Data.Token)
}

func (s *ClientSuite) TestCompleteProfileRejectsUnnormalisedValues() {
	_, err := s.client.CompleteProfile(context.Background(), CompleteProfileRequest{
		Email: "ana@example.com", Phone: "(11) 98765-4321", BirthDate: "05/03/1994",
		Gender: "f", CPF: "52998224725", State: "sp", City: "Campinas",
	})
	s.Equal(KindInvalidRequest, KindOf(err))
}

func (s *ClientSuite) TestNewRejectsRelativeBaseURL() {
	_, err := New("/api")
	s.Error(err)
}
