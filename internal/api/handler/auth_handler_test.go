package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/taskdesk/task-system/internal/api/middleware"
	"github.com/taskdesk/task-system/internal/core/domain"
	"github.com/taskdesk/task-system/internal/core/ports"
)

type stubAuthService struct {
	registerFn func(ctx context.Context, input ports.RegisterInput) (*domain.User, error)
	loginFn    func(ctx context.Context, username, password string) (*ports.LoginResult, error)
}

func (s *stubAuthService) Register(ctx context.Context, input ports.RegisterInput) (*domain.User, error) {
	return s.registerFn(ctx, input)
}

func (s *stubAuthService) Login(ctx context.Context, username, password string) (*ports.LoginResult, error) {
	return s.loginFn(ctx, username, password)
}

func (s *stubAuthService) Authenticate(context.Context, string) (*domain.Identity, error) {
	return nil, domain.ErrTokenInvalid
}

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func assertHTTPError(t *testing.T, err error, code int) {
	t.Helper()
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != code {
		t.Fatalf("expected HTTP %d error, got %v", code, err)
	}
}

func TestAuthHandler_Register_Success(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
			if in.Username != "alice" || in.Password != "secret1" || in.Role != "STAFF" {
				t.Fatalf("unexpected args: %+v", in)
			}
			u := domain.NewUser(in.Username, "digest", domain.RoleStaff)
			u.ID = "65f1c0ffee0000000000abcd"
			return u, nil
		},
	}
	h := NewAuthHandler(stub)

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/auth/register", `{"username":"alice","password":"secret1","role":"STAFF"}`), rec)

	if err := h.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["username"] != "alice" || resp["role"] != "STAFF" || resp["id"] != "65f1c0ffee0000000000abcd" {
		t.Fatalf("unexpected user payload: %+v", resp)
	}
	if _, leaked := resp["password"]; leaked {
		t.Fatalf("password must not be returned")
	}
}

func TestAuthHandler_Register_Validation(t *testing.T) {
	e := newTestEcho()
	h := NewAuthHandler(&stubAuthService{
		registerFn: func(context.Context, ports.RegisterInput) (*domain.User, error) {
			t.Fatalf("service must not be called")
			return nil, nil
		},
	})

	for _, body := range []string{
		`{"username":"bob"}`,
		`{"username":"bob","password":"secret1","role":"ROOT"}`,
		`{"username":"b!","password":"secret1","role":"STAFF"}`,
		`not json`,
	} {
		c := e.NewContext(jsonRequest(http.MethodPost, "/auth/register", body), httptest.NewRecorder())
		assertHTTPError(t, h.Register(c), http.StatusBadRequest)
	}
}

func TestAuthHandler_Register_PasswordByteLimit(t *testing.T) {
	e := newTestEcho()
	var got ports.RegisterInput
	h := NewAuthHandler(&stubAuthService{
		registerFn: func(_ context.Context, input ports.RegisterInput) (*domain.User, error) {
			got = input
			return domain.NewUser(input.Username, "digest", domain.RoleStaff), nil
		},
	})

	// 40 runes, 80 bytes.
	long := strings.Repeat("é", 40)
	c := e.NewContext(jsonRequest(http.MethodPost, "/auth/register", `{"username":"bob","password":"`+long+`","role":"STAFF"}`), httptest.NewRecorder())
	err := h.Register(c)
	assertHTTPError(t, err, http.StatusBadRequest)
	if !strings.Contains(err.Error(), "password must be at most 72 bytes") {
		t.Fatalf("unexpected message: %v", err)
	}

	fits := strings.Repeat("é", 36)
	rec := httptest.NewRecorder()
	c = e.NewContext(jsonRequest(http.MethodPost, "/auth/register", `{"username":"bob","password":"`+fits+`","role":"STAFF"}`), rec)
	if err := h.Register(c); err != nil {
		t.Fatalf("expected 72-byte password to pass, got %v", err)
	}
	if got.Password != fits {
		t.Fatalf("password not forwarded")
	}
}

func TestAuthHandler_Register_Duplicate(t *testing.T) {
	e := newTestEcho()
	h := NewAuthHandler(&stubAuthService{
		registerFn: func(context.Context, ports.RegisterInput) (*domain.User, error) {
			return nil, &domain.DuplicateValueError{Field: "username"}
		},
	})

	c := e.NewContext(jsonRequest(http.MethodPost, "/auth/register", `{"username":"bob","password":"secret1","role":"STAFF"}`), httptest.NewRecorder())
	if err := h.Register(c); !errors.Is(err, domain.ErrDuplicateValue) {
		t.Fatalf("expected ErrDuplicateValue, got %v", err)
	}
}

func TestAuthHandler_Login_Success(t *testing.T) {
	e := newTestEcho()
	expires := time.Date(2024, 5, 2, 12, 0, 0, 0, time.UTC)
	h := NewAuthHandler(&stubAuthService{
		loginFn: func(_ context.Context, username, password string) (*ports.LoginResult, error) {
			if username != "alice" || password != "secret" {
				t.Fatalf("unexpected credentials %s/%s", username, password)
			}
			return &ports.LoginResult{AccessToken: "tok", TokenType: "Bearer", Role: domain.RoleAdmin, ID: "1", ExpiresAt: expires}, nil
		},
	})

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/auth/login", `{"username":"alice","password":"secret"}`), rec)

	if err := h.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var resp loginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.AccessToken != "tok" || resp.TokenType != "Bearer" || resp.Role != "ADMIN" || resp.ID != "1" || !resp.ExpiresAt.Equal(expires) {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	e := newTestEcho()
	h := NewAuthHandler(&stubAuthService{
		loginFn: func(context.Context, string, string) (*ports.LoginResult, error) {
			return nil, domain.ErrInvalidCredentials
		},
	})

	c := e.NewContext(jsonRequest(http.MethodPost, "/auth/login", `{"username":"alice","password":"bad"}`), httptest.NewRecorder())
	if err := h.Login(c); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthHandler_Me(t *testing.T) {
	e := newTestEcho()
	h := NewAuthHandler(&stubAuthService{})

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/auth/me", nil), rec)
	if err := h.Me(c); !errors.Is(err, domain.ErrMissingToken) {
		t.Fatalf("expected ErrMissingToken without identity, got %v", err)
	}

	c.Set(middleware.IdentityKey, &domain.Identity{ID: "1", Username: "alice", Role: domain.RoleStaff})
	if err := h.Me(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["username"] != "alice" || resp["role"] != "STAFF" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}
