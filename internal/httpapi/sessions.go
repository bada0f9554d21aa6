package httpapi

import (
	"net"
	"net/http"

	"github.com/possync/edgehub/internal/session"
)

type loginRequest struct {
	PIN        string `json:"pin"`
	TerminalID string `json:"terminalId"`
}

type logoutRequest struct {
	SessionID string `json:"sessionId"`
}

// login authenticates a PIN against the active user set and mints a
// session. The terminal's IP is used for per-IP rate limiting.
func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	clientIP := clientIP(r)
	sess, profile, err := s.sessions.Authenticate(req.PIN, req.TerminalID, clientIP)
	switch err {
	case nil:
		respondJSON(w, http.StatusOK, map[string]any{
			"sessionId": sess.SessionID,
			"profile":   profile,
		})
	case session.ErrInvalidPIN:
		respondError(w, http.StatusBadRequest, err.Error())
	case session.ErrRateLimited:
		respondError(w, http.StatusTooManyRequests, err.Error())
	case session.ErrNoMatch:
		respondError(w, http.StatusUnauthorized, "pin does not match an active user")
	default:
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}

// logout ends a session. It is idempotent: ending an already-ended
// session is not an error.
func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	var req logoutRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.SessionID == "" {
		req.SessionID = r.Header.Get("x-session-id")
	}
	if req.SessionID == "" {
		respondError(w, http.StatusBadRequest, "sessionId is required")
		return
	}

	if err := s.sessions.Logout(req.SessionID); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// clientIP prefers X-Forwarded-For (set by a LAN reverse proxy, if
// any) and falls back to RemoteAddr.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
