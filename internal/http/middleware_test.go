package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jadwalin/jadwal/internal/application"
)

func TestRequireSession(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		cookie         *http.Cookie
		header         string
		validator      fakeSessionValidator
		expectedStatus int
		expectedCode   string
	}{
		{
			name:           "missing credentials",
			expectedStatus: http.StatusUnauthorized,
			expectedCode:   "AUTH_REQUIRED",
		},
		{
			name:           "non bearer authorization header",
			header:         "Basic abc",
			expectedStatus: http.StatusUnauthorized,
			expectedCode:   "AUTH_REQUIRED",
		},
		{
			name:           "unknown token",
			header:         "Bearer missing",
			validator:      fakeSessionValidator{err: application.ErrUnauthorized},
			expectedStatus: http.StatusUnauthorized,
			expectedCode:   "AUTH_INVALID_SESSION",
		},
		{
			name:           "revoked session",
			cookie:         &http.Cookie{Name: "session_token", Value: "revoked-token"},
			validator:      fakeSessionValidator{err: application.ErrSessionRevoked},
			expectedStatus: http.StatusUnauthorized,
			expectedCode:   "AUTH_SESSION_EXPIRED",
		},
		{
			name:           "expired session",
			header:         "Bearer old",
			validator:      fakeSessionValidator{err: application.ErrSessionExpired},
			expectedStatus: http.StatusUnauthorized,
			expectedCode:   "AUTH_SESSION_EXPIRED",
		},
		{
			name:           "storage failure",
			header:         "Bearer token",
			validator:      fakeSessionValidator{err: errors.New("disk unavailable")},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/schedules", nil)
			if tc.cookie != nil {
				req.AddCookie(tc.cookie)
			}
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			recorder := httptest.NewRecorder()

			handler := RequireSession(tc.validator, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatal("next handler should not be called when authentication fails")
			}))
			handler.ServeHTTP(recorder, req)

			if recorder.Code != tc.expectedStatus {
				t.Fatalf("expected status %d, got %d", tc.expectedStatus, recorder.Code)
			}
			if tc.expectedCode != "" {
				body := decodeError(t, recorder)
				if body.ErrorCode != tc.expectedCode {
					t.Fatalf("expected error code %q, got %q", tc.expectedCode, body.ErrorCode)
				}
			}
		})
	}

	t.Run("attaches principal to request context", func(t *testing.T) {
		t.Parallel()

		principal := application.Principal{UserID: "student-1"}
		req := httptest.NewRequest(http.MethodGet, "/schedules", nil)
		req.AddCookie(&http.Cookie{Name: "session_token", Value: "valid-token"})
		recorder := httptest.NewRecorder()

		var captured application.Principal
		handler := RequireSession(fakeSessionValidator{principal: principal}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFromContext(r.Context())
			if !ok {
				t.Fatal("expected principal in request context")
			}
			captured = p
			w.WriteHeader(http.StatusOK)
		}))
		handler.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", recorder.Code)
		}
		if captured != principal {
			t.Fatalf("expected principal %+v, got %+v", principal, captured)
		}
	})

	t.Run("public paths skip validation", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		recorder := httptest.NewRecorder()
		called := false
		handler := RequireSession(fakeSessionValidator{err: errors.New("must not be called")}, nil, "/login")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
			w.WriteHeader(http.StatusNoContent)
		}))
		handler.ServeHTTP(recorder, req)

		if !called || recorder.Code != http.StatusNoContent {
			t.Fatalf("expected public path to reach handler, got status %d", recorder.Code)
		}
	})
}

func TestRequestLogger(t *testing.T) {
	t.Parallel()

	t.Run("reuses incoming request id", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/schedules", nil)
		req.Header.Set("X-Request-ID", "req-42")
		recorder := httptest.NewRecorder()

		handler := RequestLogger(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if LoggerFromContext(r.Context()) == nil {
				t.Fatal("expected request logger in context")
			}
			w.WriteHeader(http.StatusTeapot)
		}))
		handler.ServeHTTP(recorder, req)

		if got := recorder.Header().Get("X-Request-ID"); got != "req-42" {
			t.Fatalf("expected request id to be echoed, got %q", got)
		}
		if recorder.Code != http.StatusTeapot {
			t.Fatalf("expected wrapped status to pass through, got %d", recorder.Code)
		}
	})

	t.Run("generates a request id when absent", func(t *testing.T) {
		t.Parallel()

		recorder := httptest.NewRecorder()
		RequestLogger(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})).
			ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

		if recorder.Header().Get("X-Request-ID") == "" {
			t.Fatal("expected generated request id header")
		}
	})
}

type fakeSessionValidator struct {
	principal application.Principal
	err       error
}

func (f fakeSessionValidator) ValidateSession(ctx context.Context, token string) (application.Principal, error) {
	return f.principal, f.err
}
