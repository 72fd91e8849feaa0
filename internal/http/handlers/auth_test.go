package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rjoubert/tablebook/internal/auth"
	"github.com/rjoubert/tablebook/internal/config"
	"github.com/rjoubert/tablebook/internal/domain/user"
	"github.com/rjoubert/tablebook/internal/http/handlers"
	"github.com/rjoubert/tablebook/internal/security"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeUserStore struct {
	createFn     func(ctx context.Context, email, passwordHash, name, role string) (user.User, error)
	getByEmailFn func(ctx context.Context, email string) (user.User, error)
}

func (f *fakeUserStore) Create(ctx context.Context, email, passwordHash, name, role string) (user.User, error) {
	if f.createFn != nil {
		return f.createFn(ctx, email, passwordHash, name, role)
	}
	return user.User{}, nil
}

func (f *fakeUserStore) GetByEmail(ctx context.Context, email string) (user.User, error) {
	if f.getByEmailFn != nil {
		return f.getByEmailFn(ctx, email)
	}
	return user.User{}, user.ErrNotFound
}

func testConfig() config.Config {
	return config.Config{
		Env:        "test",
		JWTSecret:  "test-secret",
		SessionTTL: 24 * time.Hour,
	}
}

func newAuthHandler(store *fakeUserStore) *handlers.AuthHandler {
	cfg := testConfig()
	tokens := auth.NewManager(cfg.JWTSecret, cfg.SessionTTL)
	return handlers.NewAuthHandler(store, tokens, cfg)
}

func setupAuthRouter(method, path string, h gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Handle(method, path, h)
	return r
}

func doJSON(t *testing.T, r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()

	for _, c := range w.Result().Cookies() {
		if c.Name == auth.SessionCookie {
			return c
		}
	}
	return nil
}

func TestSignUp(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		storeSetUp func(*fakeUserStore)
		wantStatus int
		wantCookie bool
	}{
		{
			name: "success",
			body: `{"name":"Ada Lovelace","email":"ada@example.com","password":"12345678"}`,
			storeSetUp: func(f *fakeUserStore) {
				f.createFn = func(ctx context.Context, email, passwordHash, name, role string) (user.User, error) {
					if role != user.RoleUser {
						t.Errorf("role = %q, want %q", role, user.RoleUser)
					}
					if passwordHash == "12345678" {
						t.Error("password stored in plain text")
					}
					return user.User{
						ID:           primitive.NewObjectID(),
						Name:         name,
						Email:        email,
						PasswordHash: passwordHash,
						Role:         role,
						CreatedAt:    time.Now().UTC(),
					}, nil
				}
			},
			wantStatus: http.StatusCreated,
			wantCookie: true,
		},
		{
			name: "duplicate email",
			body: `{"name":"Ada Lovelace","email":"ada@example.com","password":"12345678"}`,
			storeSetUp: func(f *fakeUserStore) {
				f.createFn = func(ctx context.Context, email, passwordHash, name, role string) (user.User, error) {
					return user.User{}, user.ErrEmailTaken
				}
			},
			wantStatus: http.StatusConflict,
		},
		{
			name:       "missing password",
			body:       `{"name":"Ada Lovelace","email":"ada@example.com"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "short password",
			body:       `{"name":"Ada Lovelace","email":"ada@example.com","password":"1234"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "name too short",
			body:       `{"name":"Al","email":"al@example.com","password":"12345678"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "invalid email",
			body:       `{"name":"Ada Lovelace","email":"not-an-email","password":"12345678"}`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := &fakeUserStore{}
			if tc.storeSetUp != nil {
				tc.storeSetUp(store)
			}

			h := newAuthHandler(store)
			r := setupAuthRouter(http.MethodPost, "/signup", h.SignUp)

			w := doJSON(t, r, http.MethodPost, "/signup", tc.body)

			if w.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d, body=%s", w.Code, tc.wantStatus, w.Body.String())
			}

			if tc.wantCookie && sessionCookie(t, w) == nil {
				t.Error("expected a session cookie")
			}

			if strings.Contains(w.Body.String(), "passwordHash") {
				t.Error("response leaks the password hash")
			}
		})
	}
}

func TestLoginGenericFailureMessage(t *testing.T) {
	hash, err := security.HashPassword("correct-password")

	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	known := user.User{
		ID:           primitive.NewObjectID(),
		Name:         "Ada Lovelace",
		Email:        "ada@example.com",
		PasswordHash: hash,
		Role:         user.RoleUser,
	}

	store := &fakeUserStore{
		getByEmailFn: func(ctx context.Context, email string) (user.User, error) {
			if email == known.Email {
				return known, nil
			}
			return user.User{}, user.ErrNotFound
		},
	}

	h := newAuthHandler(store)
	r := setupAuthRouter(http.MethodPost, "/login", h.Login)

	// unknown email and wrong password must be indistinguishable
	bodies := []string{
		`{"email":"nobody@example.com","password":"whatever1"}`,
		`{"email":"ada@example.com","password":"wrong-password"}`,
	}

	var messages []string

	for _, body := range bodies {
		w := doJSON(t, r, http.MethodPost, "/login", body)

		if w.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401, body=%s", w.Code, w.Body.String())
		}

		var resp struct {
			Success bool   `json:"success"`
			Message string `json:"message"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}

		if resp.Success {
			t.Error("success = true on a failed login")
		}

		messages = append(messages, resp.Message)
	}

	if messages[0] != messages[1] {
		t.Errorf("failure messages differ: %q vs %q", messages[0], messages[1])
	}
}

func TestLoginSuccess(t *testing.T) {
	hash, err := security.HashPassword("correct-password")

	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	known := user.User{
		ID:           primitive.NewObjectID(),
		Name:         "Ada Lovelace",
		Email:        "ada@example.com",
		PasswordHash: hash,
		Role:         user.RoleUser,
	}

	store := &fakeUserStore{
		getByEmailFn: func(ctx context.Context, email string) (user.User, error) {
			return known, nil
		},
	}

	h := newAuthHandler(store)
	r := setupAuthRouter(http.MethodPost, "/login", h.Login)

	w := doJSON(t, r, http.MethodPost, "/login", `{"email":"ada@example.com","password":"correct-password"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", w.Code, w.Body.String())
	}

	c := sessionCookie(t, w)

	if c == nil {
		t.Fatal("expected a session cookie")
	}

	if !c.HttpOnly {
		t.Error("session cookie must be http-only")
	}

	var resp struct {
		Success bool `json:"success"`
		User    struct {
			ID    string `json:"id"`
			Email string `json:"email"`
		} `json:"user"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if !resp.Success || resp.User.Email != known.Email {
		t.Errorf("unexpected response: %s", w.Body.String())
	}
}

func TestLogoutClearsCookie(t *testing.T) {
	h := newAuthHandler(&fakeUserStore{})
	r := setupAuthRouter(http.MethodGet, "/logout", h.Logout)

	req := httptest.NewRequest(http.MethodGet, "/logout", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	c := sessionCookie(t, w)

	if c == nil {
		t.Fatal("expected the session cookie to be rewritten")
	}

	if c.Value != "" || c.MaxAge >= 0 {
		t.Errorf("cookie not cleared: value=%q maxAge=%d", c.Value, c.MaxAge)
	}
}
