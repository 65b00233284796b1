package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/akbasozcan3/isci-takip-app/internal/ratelimit"
	"github.com/akbasozcan3/isci-takip-app/internal/service"
)

func newTestContext(t *testing.T) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestAllowRateLimitsPerOperationAndIdentity(t *testing.T) {
	h := NewAuthHandler(nil, ratelimit.NewSlidingWindow(), 2, time.Minute)
	c, _ := newTestContext(t)

	for i := 0; i < 2; i++ {
		if !h.allow(c, "login", "a@x.com") {
			t.Fatalf("call %d should be allowed", i+1)
		}
	}
	if h.allow(c, "login", "a@x.com") {
		t.Fatal("third call within the window should be denied")
	}

	if !h.allow(c, "register", "a@x.com") {
		t.Fatal("different operation must have its own window")
	}
	if !h.allow(c, "login", "b@x.com") {
		t.Fatal("different identity must have its own window")
	}
}

func TestAllowNormalizesIdentityCase(t *testing.T) {
	h := NewAuthHandler(nil, ratelimit.NewSlidingWindow(), 1, time.Minute)
	c, _ := newTestContext(t)

	if !h.allow(c, "login", "A@X.com ") {
		t.Fatal("first call should be allowed")
	}
	if h.allow(c, "login", "a@x.com") {
		t.Fatal("case variants of the same identity must share a window")
	}
}

func TestAllowWithoutLimiterPassesThrough(t *testing.T) {
	h := NewAuthHandler(nil, nil, 5, time.Minute)
	c, _ := newTestContext(t)
	for i := 0; i < 100; i++ {
		if !h.allow(c, "login", "a@x.com") {
			t.Fatal("nil limiter must never deny")
		}
	}
}

func TestRegisterRateLimitsPhoneAcrossEmails(t *testing.T) {
	h := NewAuthHandler(nil, ratelimit.NewSlidingWindow(), 2, time.Minute)
	e := echo.New()

	// Drain the phone bucket the way prior registrations would have.
	warmup, _ := newTestContext(t)
	for i := 0; i < 2; i++ {
		if !h.allow(warmup, "register", "+905551234567") {
			t.Fatalf("warmup call %d should be allowed", i+1)
		}
	}

	body := `{"email":"fresh@x.com","password":"calisan123","phone":"0555 123 45 67"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.register(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("fresh email must not bypass the phone budget, got status %d", rec.Code)
	}
}

func TestPhoneKeyKeepsInvalidInputsApart(t *testing.T) {
	if got := phoneKey("0555 123 45 67"); got != "+905551234567" {
		t.Fatalf("expected normalized phone, got %q", got)
	}
	if got := phoneKey("  garbage-1  "); got != "garbage-1" {
		t.Fatalf("expected raw fallback, got %q", got)
	}

	h := NewAuthHandler(nil, ratelimit.NewSlidingWindow(), 1, time.Minute)
	c, _ := newTestContext(t)
	if !h.allow(c, "verify_phone", phoneKey("garbage-1")) {
		t.Fatal("first invalid input should be allowed")
	}
	if !h.allow(c, "verify_phone", phoneKey("garbage-2")) {
		t.Fatal("a different invalid input must have its own bucket")
	}
	if h.allow(c, "verify_phone", phoneKey("garbage-1")) {
		t.Fatal("repeating the same invalid input must hit its own budget")
	}
}

func TestCodeErrorCollapsesCodeFailures(t *testing.T) {
	h := NewAuthHandler(nil, nil, 5, time.Minute)

	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{"not found", service.ErrCodeNotFound, http.StatusBadRequest, "invalid or expired code"},
		{"expired", service.ErrCodeExpired, http.StatusBadRequest, "invalid or expired code"},
		{"internal", errors.New("db down"), http.StatusInternalServerError, "verification failed"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, rec := newTestContext(t)
			if err := h.codeError(c, "verify email", tc.err); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if rec.Code != tc.wantStatus {
				t.Fatalf("expected status %d, got %d", tc.wantStatus, rec.Code)
			}
			if !strings.Contains(rec.Body.String(), tc.wantBody) {
				t.Fatalf("expected body to contain %q, got %s", tc.wantBody, rec.Body.String())
			}
		})
	}
}

func TestRequireAuthRejectsMissingOrMalformedHeader(t *testing.T) {
	e := echo.New()
	next := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	mw := RequireAuth(nil)(next)

	cases := []struct {
		name   string
		header string
	}{
		{"missing", ""},
		{"no scheme", "sometoken"},
		{"wrong scheme", "Basic dXNlcjpwYXNz"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			if err := mw(c); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rec.Code)
			}
		})
	}
}
