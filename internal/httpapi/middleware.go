package httpapi

import (
	"context"
	"log"
	"net/http"

	"github.com/possync/edgehub/internal/models"
	"gorm.io/gorm"
)

type contextKey string

const sessionContextKey contextKey = "session"

// recoverMiddleware converts a panicking handler into a 500 rather
// than crashing the listener, matching the teacher's http.HandlerFunc
// wrapping idiom (internal/middleware.AuthMiddleware).
func recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("⚠️ httpapi: panic in %s %s: %v", r.Method, r.URL.Path, rec)
				respondError(w, http.StatusInternalServerError, "internal error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// corsMiddleware allows any LAN origin to reach the hub — there is no
// teacher CORS file to adapt (the source app served its frontend from
// the same origin), so this is written fresh in the shape of the
// the other http.HandlerFunc-wrapping middleware here.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, x-session-id, x-terminal-id")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// sessionMiddleware requires a valid x-session-id header on every
// route it wraps, per spec.md §4.6: "public routes skip; all others
// require an x-session-id header referring to an active session,
// else 401."
func (s *Server) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID := r.Header.Get("x-session-id")
		if sessionID == "" {
			respondError(w, http.StatusUnauthorized, "missing x-session-id")
			return
		}

		sess, err := s.sessions.Validate(sessionID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				respondError(w, http.StatusUnauthorized, "invalid or expired session")
				return
			}
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}

		ctx := context.WithValue(r.Context(), sessionContextKey, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionFromContext(ctx context.Context) (*models.Session, bool) {
	sess, ok := ctx.Value(sessionContextKey).(*models.Session)
	return sess, ok
}
