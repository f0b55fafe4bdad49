package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"findash/internal/cache"
	"findash/internal/core"
	"findash/internal/store"
)

const (
	userCacheSize = 1000
	userCacheTTL  = time.Minute

	msgNoToken      = "No token, authorization denied"
	msgInvalidToken = "Token is not valid"
)

type ctxKey struct{}

// Gate authenticates requests carrying "Authorization: Bearer <token>" and
// stores the resolved user in the request context.
type Gate struct {
	tokens *Tokens
	users  store.UserStore
	cache  *cache.LRUCache[core.User]
	logger *slog.Logger
}

func NewGate(tokens *Tokens, users store.UserStore, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{
		tokens: tokens,
		users:  users,
		cache:  cache.NewLRUCache[core.User](userCacheSize, userCacheTTL),
		logger: logger,
	}
}

// Cache exposes the user cache so it can be registered for periodic cleanup.
func (g *Gate) Cache() cache.Cleaner { return g.cache }

// Middleware rejects unauthenticated requests with 401.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r.Header.Get("Authorization"))
		if raw == "" {
			unauthorized(w, msgNoToken)
			return
		}
		userID, err := g.tokens.Parse(raw)
		if err != nil {
			g.logger.DebugContext(r.Context(), "Rejected token", "error", err)
			unauthorized(w, msgInvalidToken)
			return
		}
		u, err := g.resolve(r.Context(), userID)
		if err != nil {
			g.logger.DebugContext(r.Context(), "Token user not resolved", "user_id", userID, "error", err)
			unauthorized(w, msgInvalidToken)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
	})
}

func (g *Gate) resolve(ctx context.Context, userID string) (core.User, error) {
	if u, ok := g.cache.Get(userID); ok {
		return u, nil
	}
	u, err := g.users.GetUserByID(ctx, userID)
	if err != nil {
		return core.User{}, err
	}
	g.cache.Set(userID, u)
	return u, nil
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": msg})
}

// WithUser returns a copy of ctx carrying u.
func WithUser(ctx context.Context, u core.User) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

// UserFromContext returns the authenticated user, if any.
func UserFromContext(ctx context.Context) (core.User, bool) {
	u, ok := ctx.Value(ctxKey{}).(core.User)
	return u, ok
}
