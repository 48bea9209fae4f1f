package middleware

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"github.com/JonMunkholm/dataquality/internal/config"
)

type actorKey struct{}

// DefaultActor is attributed to keys configured without an "actor:" prefix.
const DefaultActor = "api"

// apiKey is one configured credential and the actor it authenticates.
type apiKey struct {
	actor string
	key   []byte
}

// parseAPIKeys splits "actor:key" entries. A bare key belongs to DefaultActor.
func parseAPIKeys(entries []string) []apiKey {
	keys := make([]apiKey, 0, len(entries))
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		actor, key, ok := strings.Cut(e, ":")
		if !ok || strings.TrimSpace(actor) == "" {
			actor, key = DefaultActor, e
		}
		keys = append(keys, apiKey{actor: strings.TrimSpace(actor), key: []byte(strings.TrimSpace(key))})
	}
	return keys
}

// APIKeyAuth returns middleware that validates the X-API-Key header against
// configured keys and stores the matching actor in the request context.
// If RequireAPIKey is false, requests without a key pass through anonymously
// but a valid key still identifies its actor.
func APIKeyAuth(cfg *config.SecurityConfig) func(http.Handler) http.Handler {
	keys := parseAPIKeys(cfg.APIKeys)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			presented := r.Header.Get("X-API-Key")
			if presented == "" {
				if !cfg.RequireAPIKey {
					next.ServeHTTP(w, r)
					return
				}
				slog.Warn("auth: missing API key",
					"path", r.URL.Path,
					"method", r.Method,
					"remote_addr", r.RemoteAddr,
				)
				writeAuthError(w, http.StatusUnauthorized, "missing API key", "AUTH_MISSING_KEY")
				return
			}

			actor, ok := matchAPIKey(presented, keys)
			if !ok {
				slog.Warn("auth: invalid API key",
					"path", r.URL.Path,
					"method", r.Method,
					"remote_addr", r.RemoteAddr,
				)
				writeAuthError(w, http.StatusForbidden, "invalid API key", "AUTH_INVALID_KEY")
				return
			}

			recordActor(r.Context(), actor)
			ctx := context.WithValue(r.Context(), actorKey{}, actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ActorFromContext returns the authenticated actor, or "" for anonymous requests.
func ActorFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(actorKey{}).(string); ok {
		return v
	}
	return ""
}

// matchAPIKey checks the presented key against every configured key using
// constant-time comparison, so timing does not depend on which key matched.
func matchAPIKey(presented string, keys []apiKey) (string, bool) {
	actor := ""
	for _, k := range keys {
		if subtle.ConstantTimeCompare([]byte(presented), k.key) == 1 && actor == "" {
			actor = k.actor
		}
	}
	return actor, actor != ""
}

func writeAuthError(w http.ResponseWriter, status int, msg, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(`{"error":"` + msg + `","code":"` + code + `"}`))
}
