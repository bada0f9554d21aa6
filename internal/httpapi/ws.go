package httpapi

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/possync/edgehub/internal/models"
	"github.com/possync/edgehub/internal/realtime"
)

// serveWS upgrades to a WebSocket connection and registers the caller
// with the realtime hub. terminalId identifies the caller; its role
// is resolved server-side from the terminal registry, never trusted
// from the client.
func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	terminalID := r.URL.Query().Get("terminalId")
	if terminalID == "" {
		respondError(w, http.StatusBadRequest, "terminalId query parameter is required")
		return
	}

	clientID := uuid.NewString()
	realtime.Serve(s.hub, s.resolveTerminalRole, w, r, clientID, terminalID)
}

func (s *Server) resolveTerminalRole(terminalID string) (string, bool) {
	var terminal models.Terminal
	if err := s.db().Select("role").Where("id = ?", terminalID).First(&terminal).Error; err != nil {
		return "", false
	}
	return terminal.Role, true
}
