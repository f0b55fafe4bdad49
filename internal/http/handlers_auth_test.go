package http

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"findash/internal/auth"
)

func TestAuthGate(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	unknownUser, err := env.tokens.Issue("u-missing")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	tests := []struct {
		name    string
		header  string
		message string
	}{
		{"no header", "", "No token, authorization denied"},
		{"wrong scheme", "Basic abc", "No token, authorization denied"},
		{"garbage token", "Bearer not-a-jwt", "Token is not valid"},
		{"unknown user", "Bearer " + unknownUser, "Token is not valid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, path := range []string{"/transactions", "/transactions/summary", "/transactions/export", "/auth/me"} {
				req := newRequest(http.MethodGet, path, "")
				if tt.header != "" {
					req.Header.Set("Authorization", tt.header)
				}
				rec := serve(env, req)
				if rec.Code != http.StatusUnauthorized {
					t.Fatalf("%s: status = %d, want 401", path, rec.Code)
				}
				if got := decodeBody[map[string]string](t, rec)["message"]; got != tt.message {
					t.Errorf("%s: message = %q, want %q", path, got, tt.message)
				}
			}
		})
	}
}

func TestRegisterLoginMe(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	rec := env.do(http.MethodPost, "/auth/register", `{"email":"dana@example.com"}`, "")
	if rec.Code != http.StatusBadRequest || decodeBody[map[string]string](t, rec)["message"] != msgCredsRequired {
		t.Fatalf("missing password: %d %s", rec.Code, rec.Body.String())
	}

	rec = env.do(http.MethodPost, "/auth/register", `{"email":"Dana@Example.com","password":"hunter22","name":"Dana"}`, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: %d %s", rec.Code, rec.Body.String())
	}
	reg := decodeBody[authResponse](t, rec)
	if reg.Token == "" || reg.User.Email != "dana@example.com" || reg.User.Role != "user" || reg.User.Name != "Dana" {
		t.Fatalf("unexpected register response %+v", reg)
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Fatalf("password leaked: %s", rec.Body.String())
	}

	rec = env.do(http.MethodPost, "/auth/register", `{"email":"dana@example.com","password":"other"}`, "")
	if rec.Code != http.StatusBadRequest || decodeBody[map[string]string](t, rec)["message"] != msgUserExists {
		t.Fatalf("duplicate: %d %s", rec.Code, rec.Body.String())
	}

	for _, body := range []string{
		`{"email":"dana@example.com","password":"wrong"}`,
		`{"email":"nobody@example.com","password":"hunter22"}`,
		`{}`,
	} {
		rec = env.do(http.MethodPost, "/auth/login", body, "")
		if rec.Code != http.StatusBadRequest || decodeBody[map[string]string](t, rec)["message"] != msgInvalidCreds {
			t.Fatalf("login %s: %d %s", body, rec.Code, rec.Body.String())
		}
	}

	rec = env.do(http.MethodPost, "/auth/login", `{"email":"  DANA@example.com ","password":"hunter22"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login: %d %s", rec.Code, rec.Body.String())
	}
	login := decodeBody[authResponse](t, rec)
	if login.User.ID != reg.User.ID {
		t.Fatalf("login user %q != registered user %q", login.User.ID, reg.User.ID)
	}

	rec = env.do(http.MethodGet, "/auth/me", "", login.Token)
	if rec.Code != http.StatusOK {
		t.Fatalf("me: %d %s", rec.Code, rec.Body.String())
	}
	me := decodeBody[map[string]any](t, rec)
	if me["id"] != reg.User.ID || me["email"] != "dana@example.com" {
		t.Errorf("unexpected me response %v", me)
	}
	if _, ok := me["password_hash"]; ok {
		t.Error("password hash serialized")
	}

	rec = env.do(http.MethodPost, "/auth/login", `{"email": `, "")
	if rec.Code != http.StatusBadRequest || decodeBody[map[string]string](t, rec)["message"] != msgInvalidBody {
		t.Fatalf("malformed body: %d %s", rec.Code, rec.Body.String())
	}
}

func TestRegister_FormBody(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	req := newRequest(http.MethodPost, "/auth/register", "email=erin%40example.com&password=pw&name=Erin")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := serve(env, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: %d %s", rec.Code, rec.Body.String())
	}
}

func TestRegister_PasswordTooLong(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	body := `{"email":"frank@example.com","password":"` + strings.Repeat("x", 73) + `"}`
	rec := env.do(http.MethodPost, "/auth/register", body, "")
	if rec.Code != http.StatusBadRequest || decodeBody[map[string]string](t, rec)["message"] != msgPasswordTooLong {
		t.Fatalf("long password: %d %s", rec.Code, rec.Body.String())
	}

	body = `{"email":"frank@example.com","password":"` + strings.Repeat("x", 72) + `"}`
	if rec = env.do(http.MethodPost, "/auth/register", body, ""); rec.Code != http.StatusCreated {
		t.Fatalf("72-byte password: %d %s", rec.Code, rec.Body.String())
	}
}

func TestExpiredToken(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	expired, err := auth.NewTokens(testSecret, -time.Minute).Issue("u-admin")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	rec := env.do(http.MethodGet, "/transactions", "", expired)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestLoginRateLimit(t *testing.T) {
	env := newTestEnv(t, envOptions{rateLimit: 2})

	for i := 0; i < 2; i++ {
		rec := env.do(http.MethodPost, "/auth/login", `{"email":"x@example.com","password":"x"}`, "")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("attempt %d: status = %d", i+1, rec.Code)
		}
	}

	rec := env.do(http.MethodPost, "/auth/login", `{"email":"x@example.com","password":"x"}`, "")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if decodeBody[map[string]string](t, rec)["message"] != msgTooManyRequests || rec.Header().Get("Retry-After") == "" {
		t.Errorf("unexpected 429 response: %v %s", rec.Header(), rec.Body.String())
	}

	// Dashboard reads are not throttled.
	if rec := env.do(http.MethodGet, "/transactions", "", env.token); rec.Code != http.StatusOK {
		t.Errorf("transactions status = %d", rec.Code)
	}
}
