// Package auth resolves bearer credentials to an authenticated user. The
// token scheme is the shop's legacy one: an opaque random part joined to the
// user id with an underscore, issued by the login service.
package auth

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/Sifanww/senlin-yogurt/internal/domain"
)

type UserStore interface {
	GetUser(userID int) (*domain.User, error)
}

type UserCache interface {
	Get(ctx context.Context, userID int) (*domain.User, bool, error)
	Set(ctx context.Context, user *domain.User) error
}

type contextKey struct{}

// UserFrom returns the authenticated user stashed by Middleware.Require.
func UserFrom(ctx context.Context) (domain.User, bool) {
	user, ok := ctx.Value(contextKey{}).(domain.User)
	return user, ok
}

type Middleware struct {
	Users UserStore
	Cache UserCache
}

func NewMiddleware(users UserStore, cache UserCache) *Middleware {
	return &Middleware{Users: users, Cache: cache}
}

// Require rejects the request with 401 unless the bearer token resolves to a
// known user. Cache failures fall through to the user store.
func (m *Middleware) Require(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := parseToken(r.Header.Get("Authorization"))
		if !ok {
			http.Error(w, "Invalid credentials", http.StatusUnauthorized)
			return
		}

		ctx := r.Context()

		var user *domain.User
		if m.Cache != nil {
			if cached, hit, err := m.Cache.Get(ctx, userID); err == nil && hit {
				user = cached
			}
		}

		if user == nil {
			loaded, err := m.Users.GetUser(userID)
			if err != nil {
				http.Error(w, "Unknown user", http.StatusUnauthorized)
				return
			}
			user = loaded
			if m.Cache != nil {
				_ = m.Cache.Set(ctx, user)
			}
		}

		next(w, r.WithContext(context.WithValue(ctx, contextKey{}, *user)))
	}
}

func parseToken(header string) (int, bool) {
	token := strings.TrimPrefix(header, "Bearer ")
	if token == "" {
		return 0, false
	}
	sep := strings.LastIndex(token, "_")
	if sep < 0 {
		return 0, false
	}
	userID, err := strconv.Atoi(token[sep+1:])
	if err != nil || userID <= 0 {
		return 0, false
	}
	return userID, true
}
