package policy

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/diewo77/go-orders/gate"
	"github.com/diewo77/go-orders/httpx"
	"gorm.io/gorm"
)

// ProfileHeader names the operator profile acting on a request.
const ProfileHeader = "X-Profile"

// AuthGate is the gate used by the HTTP server: profiles come from the
// database through a TTL cache and orders are guarded by OrderPolicy.
type AuthGate struct {
	Gate          *gate.Gate[string]
	CacheResolver *gate.CachedResolver[string]
}

func NewAuthGate(db *gorm.DB, cacheTTL time.Duration) *AuthGate {
	return NewAuthGateWithResolver(NewDBProfileResolver(db), cacheTTL)
}

// NewAuthGateWithResolver builds the gate on any profile source.
func NewAuthGateWithResolver(resolver gate.ProfileResolver[string], cacheTTL time.Duration) *AuthGate {
	cached := gate.NewCachedResolver[string](resolver, cacheTTL)
	g := gate.New[string](cached)
	g.Register(gate.ResourceOrder, OrderPolicy{})
	return &AuthGate{Gate: g, CacheResolver: cached}
}

// Authorize checks the subject stored in ctx.
func (ag *AuthGate) Authorize(ctx context.Context, action gate.Action, resource gate.Resource, obj any) error {
	subject, ok := gate.SubjectFrom[string](ctx)
	if !ok {
		return gate.ErrUnauthorized
	}
	return ag.Gate.Authorize(ctx, subject, action, resource, obj)
}

// Identify puts the profile named by ProfileHeader, or fallback, into the
// request context.
func (ag *AuthGate) Identify(fallback string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			name := strings.TrimSpace(r.Header.Get(ProfileHeader))
			if name == "" {
				name = fallback
			}
			if name != "" {
				r = r.WithContext(gate.WithSubject(r.Context(), name))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Require rejects requests whose profile lacks resource:action.
func (ag *AuthGate) Require(resource gate.Resource, action gate.Action, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := ag.Authorize(r.Context(), action, resource, nil); err != nil {
			WriteError(w, err)
			return
		}
		next(w, r)
	}
}

// WriteError maps gate and lifecycle errors to JSON responses.
func WriteError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, gate.ErrUnauthorized):
		httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
	case errors.Is(err, ErrLinesLocked), errors.Is(err, ErrDetailsLocked),
		errors.Is(err, ErrAlreadyPaid), errors.Is(err, ErrAlreadyShipped):
		httpx.JSONError(w, http.StatusConflict, lifecycleCode(err), nil)
	default:
		httpx.JSONError(w, http.StatusForbidden, "forbidden", nil)
	}
}

func lifecycleCode(err error) string {
	for _, e := range []error{ErrLinesLocked, ErrDetailsLocked, ErrAlreadyPaid, ErrAlreadyShipped} {
		if errors.Is(err, e) {
			return e.Error()
		}
	}
	return "order_locked"
}
