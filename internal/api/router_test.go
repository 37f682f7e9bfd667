package api

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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/99minutos/user-management/internal/api/handler"
	"github.com/99minutos/user-management/internal/core/domain"
	"github.com/99minutos/user-management/internal/core/ports"
)

// stubUserService returns err from every call, or a fixed user when err is nil.
type stubUserService struct {
	err error
}

var stamp = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func (s *stubUserService) user() (*domain.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &domain.User{
		ID: "65f1c0ffee0000000000000a", FirstName: "Alice", LastName: "June",
		Email: "alicejune@gmail.com", Stack: "Backend", CreatedAt: stamp, UpdatedAt: stamp,
	}, nil
}

func (s *stubUserService) CreateUser(context.Context, ports.CreateUserInput) (*domain.User, error) {
	return s.user()
}

func (s *stubUserService) ListUsers(context.Context) ([]*domain.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []*domain.User{}, nil
}

func (s *stubUserService) GetUserByID(context.Context, string) (*domain.User, error) {
	return s.user()
}

func (s *stubUserService) GetUserByName(context.Context, string) (*domain.User, error) {
	return s.user()
}

func (s *stubUserService) UpdateUserByID(context.Context, string, domain.UserPatch) (*domain.User, error) {
	return s.user()
}

func (s *stubUserService) UpdateUserByName(context.Context, string, domain.UserPatch) (*domain.User, error) {
	return s.user()
}

func (s *stubUserService) DeleteUserByID(context.Context, string) error { return s.err }

func (s *stubUserService) DeleteUserByName(context.Context, string) error { return s.err }

func newTestRouter(err error) *echo.Echo {
	return NewRouter(zerolog.Nop(), prometheus.NewRegistry(), Handlers{
		Users:  handler.NewUserHandler(&stubUserService{err: err}),
		Health: handler.NewHealthHandler(),
	})
}

func serve(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json %q: %v", rec.Body.String(), err)
	}
	return resp
}

func TestRouter_RoutesAreMounted(t *testing.T) {
	e := newTestRouter(nil)

	cases := []struct {
		method string
		target string
		body   string
		code   int
	}{
		{http.MethodPost, "/user", `{"firstName":"Alice"}`, http.StatusCreated},
		{http.MethodGet, "/user", "", http.StatusOK},
		{http.MethodGet, "/user/65f1c0ffee0000000000000a", "", http.StatusOK},
		{http.MethodGet, "/users?firstName=Alice", "", http.StatusOK},
		{http.MethodPut, "/user/update/65f1c0ffee0000000000000a", `{"stack":"Go"}`, http.StatusOK},
		{http.MethodPut, "/user/update?firstName=Alice", `{"stack":"Go"}`, http.StatusOK},
		{http.MethodDelete, "/user/delete/65f1c0ffee0000000000000a", "", http.StatusOK},
		{http.MethodDelete, "/user/delete?firstName=Alice", "", http.StatusOK},
		{http.MethodGet, "/", "", http.StatusOK},
		{http.MethodGet, "/health", "", http.StatusOK},
		{http.MethodGet, "/health/ready", "", http.StatusOK},
		{http.MethodGet, "/swagger/doc.json", "", http.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.method+" "+tc.target, func(t *testing.T) {
			if rec := serve(e, tc.method, tc.target, tc.body); rec.Code != tc.code {
				t.Fatalf("expected %d, got %d: %s", tc.code, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestRouter_ErrorBodies(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		method  string
		target  string
		body    string
		code    int
		message string
	}{
		{
			name: "validation", err: &domain.ValidationError{Field: "stack", Message: "Tech stack is required"},
			method: http.MethodPost, target: "/user", body: `{}`,
			code: http.StatusUnprocessableEntity, message: "Tech stack is required",
		},
		{
			name: "duplicate email", err: domain.ErrUserExists,
			method: http.MethodPost, target: "/user", body: `{}`,
			code: http.StatusUnprocessableEntity, message: "User with email already exists",
		},
		{
			name: "unknown id", err: domain.ErrUserNotFound,
			method: http.MethodGet, target: "/user/5f50d5c4e1b1a3a7d0c515b2",
			code: http.StatusNotFound, message: "User doesn't exist",
		},
		{
			name: "missing first name", err: nil,
			method: http.MethodDelete, target: "/user/delete",
			code: http.StatusNotFound, message: "params is missing user's first name",
		},
		{
			name: "bad json", err: nil,
			method: http.MethodPost, target: "/user", body: `{"firstName":`,
			code: http.StatusBadRequest, message: "invalid payload",
		},
		{
			name: "store failure on create", err: errors.New("connection reset"),
			method: http.MethodPost, target: "/user", body: `{}`,
			code: http.StatusInternalServerError, message: "An error occurred while creating user",
		},
		{
			name: "store failure on list", err: errors.New("connection reset"),
			method: http.MethodGet, target: "/user",
			code: http.StatusInternalServerError, message: "Encountered an error while fetching users",
		},
		{
			name: "store failure on delete", err: errors.New("connection reset"),
			method: http.MethodDelete, target: "/user/delete/5f50d5c4e1b1a3a7d0c515b2",
			code: http.StatusInternalServerError, message: "Encountered an error while deleting user",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := serve(newTestRouter(tc.err), tc.method, tc.target, tc.body)
			if rec.Code != tc.code {
				t.Fatalf("expected %d, got %d: %s", tc.code, rec.Code, rec.Body.String())
			}
			resp := decodeBody(t, rec)
			if resp["message"] != tc.message {
				t.Errorf("expected message %q, got %v", tc.message, resp["message"])
			}
			_, hasErr := resp["error"]
			if want := tc.code == http.StatusInternalServerError; hasErr != want {
				t.Errorf("error field presence = %v, want %v (%v)", hasErr, want, resp)
			}
			if hasErr && resp["error"] != "connection reset" {
				t.Errorf("unexpected error detail: %v", resp["error"])
			}
		})
	}
}

func TestRouter_MetricsEndpoint(t *testing.T) {
	e := newTestRouter(nil)
	serve(e, http.MethodGet, "/user", "")

	rec := serve(e, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "http_requests_total") {
		t.Errorf("request metrics missing from exposition")
	}
}
