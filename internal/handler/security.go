package handler

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/kart-wholesale/internal/domain/auth"
	"github.com/xenking/kart-wholesale/internal/domain/wholesale"
	"github.com/xenking/kart-wholesale/pkg/httpmiddleware"
)

type actorKey struct{}

// WithActor stores the requesting actor in ctx.
func WithActor(ctx context.Context, a wholesale.Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

// ActorFromContext returns the requesting actor, anonymous when none was set.
func ActorFromContext(ctx context.Context) wholesale.Actor {
	a, _ := ctx.Value(actorKey{}).(wholesale.Actor)
	return a
}

// APIKey returns the key sent in the api_key header or as a bearer token.
func APIKey(r *http.Request) string {
	if k := r.Header.Get("api_key"); k != "" {
		return k
	}
	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// Authenticator resolves API keys to actors.
type Authenticator struct {
	keys   auth.Repository
	pepper []byte
}

// NewAuthenticator creates an Authenticator with the given API key
// repository and HMAC pepper.
func NewAuthenticator(keys auth.Repository, pepper []byte) *Authenticator {
	return &Authenticator{keys: keys, pepper: pepper}
}

// Resolve maps an API key to an actor. An empty key is the anonymous actor.
func (a *Authenticator) Resolve(ctx context.Context, key string) (wholesale.Actor, error) {
	if key == "" {
		return wholesale.Anonymous(), nil
	}

	hash := auth.HashKey(key, a.pepper)
	info, err := a.keys.FindByHash(ctx, hash)
	if err != nil {
		return wholesale.Actor{}, err
	}
	if subtle.ConstantTimeCompare([]byte(hash), []byte(info.KeyHash)) != 1 {
		return wholesale.Actor{}, auth.ErrUnknownKey
	}

	actor := wholesale.Actor{ID: info.ActorID, Authenticated: true}
	for _, raw := range info.Roles {
		role, err := wholesale.ParseRole(raw)
		if err != nil || role.Disabled() {
			zctx.From(ctx).Warn("Skipping invalid role on api key",
				zap.String("key_id", info.ID),
				zap.String("role", raw),
			)
			continue
		}
		actor.Roles = append(actor.Roles, role)
	}
	return actor, nil
}

// Middleware attaches the actor to every request. Unknown keys get 401.
func (a *Authenticator) Middleware() httpmiddleware.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, err := a.Resolve(r.Context(), APIKey(r))
			switch {
			case errors.Is(err, auth.ErrUnknownKey):
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			case err != nil:
				writeInternal(w, r, errors.Wrap(err, "resolve api key"))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
		})
	}
}

// admin restricts next to actors holding the admin role.
func (h *Handler) admin(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor := ActorFromContext(r.Context())
		switch {
		case !actor.Authenticated:
			writeError(w, http.StatusUnauthorized, "unauthorized")
		case h.adminRole.Disabled() || !actor.HasRole(h.adminRole):
			writeError(w, http.StatusForbidden, "forbidden")
		default:
			next(w, r)
		}
	})
}
