package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dukerupert/pantry/internal/auth"
)

// RequireAuth authenticates each request with provider and populates
// AuthContext. Requests without a valid identity get a 401 JSON error.
func RequireAuth(provider auth.Provider, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, err := provider.Authenticate(r)
			if err != nil || actor == "" {
				logger.Debug("authentication failed", "path", r.URL.Path, "error", err)
				writeError(w, http.StatusUnauthorized, "authentication required", "unauthenticated")
				return
			}
			if info, ok := r.Context().Value(infoKey{}).(*requestInfo); ok {
				info.actor = actor
			}
			ctx := auth.WithAuth(r.Context(), auth.AuthContext{UserID: actor})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeError(w http.ResponseWriter, status int, msg, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg, "code": code})
}
