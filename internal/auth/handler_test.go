package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ayush/habit-tracker/backend/internal/models"
	"github.com/ayush/habit-tracker/backend/internal/response"
	"github.com/ayush/habit-tracker/backend/internal/store/storetest"
)

type memDenylist struct{ revoked map[string]time.Duration }

func (d *memDenylist) Revoke(_ context.Context, tokenID string, ttl time.Duration) error {
	d.revoked[tokenID] = ttl
	return nil
}

func (d *memDenylist) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	_, ok := d.revoked[tokenID]
	return ok, nil
}

type envelope struct {
	Success bool               `json:"success"`
	Message string             `json:"message"`
	Error   response.ErrorCode `json:"error"`
	Data    json.RawMessage    `json:"data"`
}

func call(t *testing.T, h http.HandlerFunc, ctx context.Context, body string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)).WithContext(ctx)
	rec := httptest.NewRecorder()
	h(rec, req)

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (body %q)", err, rec.Body.String())
	}
	return rec.Code, env
}

func newTestHandler() (*Handler, *memDenylist) {
	deny := &memDenylist{revoked: map[string]time.Duration{}}
	return NewHandler(storetest.NewMemory(), NewTokenManager("secret", time.Hour), deny), deny
}

const signupBody = `{"email":" Sam@Example.com ","username":"sam_1","password":"longenough","confirm_password":"longenough"}`

func TestSignup(t *testing.T) {
	t.Parallel()

	h, _ := newTestHandler()
	ctx := context.Background()

	status, env := call(t, h.Signup, ctx, `{"email":"sam@example.com","username":"sam","password":"short","confirm_password":"short"}`)
	if status != http.StatusBadRequest || env.Error != response.CodePasswordValidation {
		t.Fatalf("weak password = %d %+v", status, env)
	}

	status, env = call(t, h.Signup, ctx, signupBody)
	if status != http.StatusCreated {
		t.Fatalf("signup = %d %+v", status, env)
	}
	if strings.Contains(string(env.Data), "password") || strings.Contains(string(env.Data), "$2a$") {
		t.Fatalf("signup leaked password material: %s", env.Data)
	}
	var out models.AuthResponse
	_ = json.Unmarshal(env.Data, &out)
	if out.Token == "" || out.User.Email != "sam@example.com" || out.User.IsSetupComplete {
		t.Fatalf("signup data = %+v", out)
	}

	status, env = call(t, h.Signup, ctx, strings.Replace(signupBody, "sam_1", "sam_2", 1))
	if status != http.StatusConflict || env.Error != response.CodeUserExists {
		t.Fatalf("duplicate signup = %d %+v", status, env)
	}
}

func TestLoginDoesNotLeakExistence(t *testing.T) {
	t.Parallel()

	h, _ := newTestHandler()
	ctx := context.Background()
	if status, env := call(t, h.Signup, ctx, signupBody); status != http.StatusCreated {
		t.Fatalf("signup = %d %+v", status, env)
	}

	wrongStatus, wrong := call(t, h.Login, ctx, `{"email":"sam@example.com","password":"not-the-one"}`)
	unknownStatus, unknown := call(t, h.Login, ctx, `{"email":"nobody@example.com","password":"not-the-one"}`)
	if wrongStatus != http.StatusUnauthorized || wrongStatus != unknownStatus ||
		wrong.Error != response.CodeInvalidCredentials || wrong.Message != unknown.Message || wrong.Error != unknown.Error {
		t.Fatalf("wrong = %d %+v, unknown = %d %+v", wrongStatus, wrong, unknownStatus, unknown)
	}

	status, env := call(t, h.Login, ctx, `{"email":"SAM@example.com","password":"longenough"}`)
	var out models.AuthResponse
	_ = json.Unmarshal(env.Data, &out)
	if status != http.StatusOK || out.Token == "" || out.User.Username != "sam_1" {
		t.Fatalf("login = %d %+v", status, out)
	}
}

func TestProfileAndLogout(t *testing.T) {
	t.Parallel()

	h, deny := newTestHandler()
	_, env := call(t, h.Signup, context.Background(), signupBody)
	var out models.AuthResponse
	_ = json.Unmarshal(env.Data, &out)

	claims, err := h.tokens.Verify(out.Token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	ctx := WithIdentity(context.Background(), claims.Identity())

	status, env := call(t, h.UpdateProfile, ctx, `{"is_setup_complete":true}`)
	var user models.User
	_ = json.Unmarshal(env.Data, &user)
	if status != http.StatusOK || !user.IsSetupComplete || user.Username != "sam_1" {
		t.Fatalf("update profile = %d %+v", status, user)
	}

	status, env = call(t, h.Profile, ctx, "")
	_ = json.Unmarshal(env.Data, &user)
	if status != http.StatusOK || !user.IsSetupComplete {
		t.Fatalf("profile = %d %+v", status, user)
	}

	status, env = call(t, h.Logout, ctx, "")
	if status != http.StatusOK {
		t.Fatalf("logout = %d %+v", status, env)
	}
	if ttl, ok := deny.revoked[claims.ID]; !ok || ttl <= 0 || ttl > time.Hour {
		t.Fatalf("token not revoked for its remaining lifetime: %v %v", ttl, ok)
	}

	status, env = call(t, h.Profile, context.Background(), "")
	if status != http.StatusUnauthorized || env.Error != response.CodeUnauthorized {
		t.Fatalf("anonymous profile = %d %+v", status, env)
	}

	gone := WithIdentity(context.Background(), Identity{UserID: "deleted-user"})
	status, env = call(t, h.Profile, gone, "")
	if status != http.StatusNotFound || env.Error != response.CodeUserNotFound {
		t.Fatalf("missing user profile = %d %+v", status, env)
	}
}
