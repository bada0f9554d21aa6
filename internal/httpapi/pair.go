package httpapi

import (
	"crypto/rand"
	"encoding/base32"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/skip2/go-qrcode"
)

// pairingTTL bounds how long a generated pairing code may be claimed
// before the operator has to start over.
const pairingTTL = 10 * time.Minute

// pairingState tracks the single outstanding pairing attempt. The hub
// pairs with exactly one cloud tenant at a time, so there is never
// more than one in flight.
type pairingState struct {
	mu        sync.Mutex
	code      string
	token     string
	expiresAt time.Time
}

func newPairingState() *pairingState {
	return &pairingState{}
}

func (p *pairingState) set(code, token string, expiresAt time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.code, p.token, p.expiresAt = code, token, expiresAt
}

func (p *pairingState) snapshot() (code string, expiresAt time.Time, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.code == "" {
		return "", time.Time{}, false
	}
	return p.code, p.expiresAt, true
}

// pairInit mints a short-lived JWT pairing token and a QR code a cloud
// operator console scans to claim this hub for a tenant. Grounded on
// the teacher's generatePairingQR + GenerateInviteToken pair: a
// compact protocol string QR-encoded, backed by an HMAC JWT the cloud
// verifies out of band.
func (s *Server) pairInit(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.cfg()
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if cfg.CloudBaseURL == "" {
		respondError(w, http.StatusPreconditionFailed, "cloud base url must be configured before pairing")
		return
	}

	code, err := randomPairingCode()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to generate pairing code")
		return
	}

	expiresAt := time.Now().Add(pairingTTL)
	claims := jwt.MapClaims{
		"pairingCode": code,
		"iat":         time.Now().Unix(),
		"exp":         expiresAt.Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.HubSecret))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to sign pairing token")
		return
	}

	s.pairing.set(code, token, expiresAt)

	qrString := fmt.Sprintf("POSHUB$1$%s$%s", code, strings.ToUpper(cfg.CloudBaseURL))
	png, err := qrcode.Encode(qrString, qrcode.Medium, 256)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to generate qr code")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"pairingCode":  code,
		"pairingToken": token,
		"qrCodePng":    base64.StdEncoding.EncodeToString(png),
		"expiresAt":    expiresAt,
	})
}

// pairStatus reports whether the hub has a cloud identity yet. Actual
// credential assignment happens out of band (a provisioning tool or
// the cloud console writing the persisted config); this endpoint only
// observes the outcome.
func (s *Server) pairStatus(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.cfg()
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if cfg.IsConfigured() {
		respondJSON(w, http.StatusOK, map[string]any{
			"paired":     true,
			"tenantId":   cfg.TenantID,
			"locationId": cfg.LocationID,
		})
		return
	}

	code, expiresAt, hasPending := s.pairing.snapshot()
	resp := map[string]any{"paired": false}
	if hasPending {
		resp["pairingCode"] = code
		resp["expired"] = time.Now().After(expiresAt)
	}
	respondJSON(w, http.StatusOK, resp)
}

func randomPairingCode() (string, error) {
	buf := make([]byte, 5)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(buf), nil
}
