package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"findash/internal/core"
	"findash/internal/store/memory"
)

func TestTokenRoundTrip(t *testing.T) {
	tokens := NewTokens("secret", time.Hour)
	raw, err := tokens.Issue("user-1")
	if err != nil {
		t.Fatal(err)
	}
	sub, err := tokens.Parse(raw)
	if err != nil || sub != "user-1" {
		t.Fatalf("expected user-1, got %q (%v)", sub, err)
	}
}

func TestTokenRejections(t *testing.T) {
	tokens := NewTokens("secret", time.Hour)
	raw, _ := tokens.Issue("user-1")

	other := NewTokens("other", time.Hour)
	if _, err := other.Parse(raw); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("wrong secret: expected ErrInvalidToken, got %v", err)
	}

	expired := NewTokens("secret", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, err := expired.Parse(raw); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expired: expected ErrInvalidToken, got %v", err)
	}

	if _, err := tokens.Parse("not.a.token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("garbage: expected ErrInvalidToken, got %v", err)
	}
}

func TestBearerToken(t *testing.T) {
	cases := map[string]string{
		"Bearer abc":    "abc",
		"bearer  abc  ": "abc",
		"Basic abc":     "",
		"abc":           "",
		"":              "",
	}
	for in, want := range cases {
		if got := bearerToken(in); got != want {
			t.Fatalf("%q: expected %q, got %q", in, want, got)
		}
	}
}

func newGate(t *testing.T) (*Gate, *Tokens, *memory.Store) {
	t.Helper()
	users := memory.New()
	err := users.CreateUser(context.Background(), core.User{ID: "u1", Email: "a@b.c", PasswordHash: "h", Name: "A", Role: core.RoleUser})
	if err != nil {
		t.Fatal(err)
	}
	tokens := NewTokens("secret", time.Hour)
	return NewGate(tokens, users, nil), tokens, users
}

func TestGateMiddleware(t *testing.T) {
	gate, tokens, _ := newGate(t)
	valid, _ := tokens.Issue("u1")
	unknown, _ := tokens.Issue("ghost")

	var seen core.User
	h := gate.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = UserFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	cases := []struct {
		name   string
		header string
		status int
		msg    string
	}{
		{"missing", "", http.StatusUnauthorized, "No token, authorization denied"},
		{"wrong scheme", "Token " + valid, http.StatusUnauthorized, "No token, authorization denied"},
		{"garbage", "Bearer nope", http.StatusUnauthorized, "Token is not valid"},
		{"unknown user", "Bearer " + unknown, http.StatusUnauthorized, "Token is not valid"},
		{"valid", "Bearer " + valid, http.StatusNoContent, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/transactions", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			if rr.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, rr.Code)
			}
			if tc.msg != "" {
				var body map[string]string
				if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
					t.Fatal(err)
				}
				if body["message"] != tc.msg {
					t.Fatalf("expected %q, got %q", tc.msg, body["message"])
				}
			}
		})
	}
	if seen.ID != "u1" {
		t.Fatalf("expected user in context, got %+v", seen)
	}
}

func TestGateCachesUsers(t *testing.T) {
	gate, _, _ := newGate(t)
	if _, err := gate.resolve(context.Background(), "u1"); err != nil {
		t.Fatal(err)
	}
	if _, ok := gate.cache.Get("u1"); !ok {
		t.Fatal("resolved user should be cached")
	}
	if _, err := gate.resolve(context.Background(), "ghost"); !errors.Is(err, core.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if gate.cache.Size() != 1 {
		t.Fatalf("misses must not be cached")
	}
}
