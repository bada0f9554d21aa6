// Package session authenticates terminal staff by PIN and tracks the
// resulting session for the x-session-id validation middleware.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/possync/edgehub/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// BcryptCost is deliberately higher than a typical web login (the
// teacher uses cost 10); PIN verification carries the same blast
// radius as a password and the hub has CPU to spare for it.
const BcryptCost = 12

var (
	// ErrInvalidPIN is returned for malformed PIN input (length outside 4-10).
	ErrInvalidPIN = errors.New("session: pin must be 4-10 characters")
	// ErrRateLimited is returned when the source IP has exceeded the attempt budget.
	ErrRateLimited = errors.New("session: too many attempts")
	// ErrNoMatch is returned when no active user's PIN matches.
	ErrNoMatch = errors.New("session: no matching user")
)

const (
	rateLimitAttempts = 10
	rateLimitWindow   = 5 * time.Minute
	mruMaxSize        = 5
)

// Service authenticates PINs against the active user set for one
// tenant and mints Session rows on success.
type Service struct {
	db       *gorm.DB
	tenantID string

	limiter *RateLimiter
	mru     *mruCache
}

// New builds a Service scoped to tenantID.
func New(db *gorm.DB, tenantID string) *Service {
	return &Service{
		db:       db,
		tenantID: tenantID,
		limiter:  NewRateLimiter(rateLimitAttempts, rateLimitWindow),
		mru:      newMRUCache(mruMaxSize),
	}
}

// Authenticate validates pin against the tenant's active users, rate
// limited per clientIP. On success it mints a Session bound to
// terminalID (if given), marks the terminal ONLINE, and returns the
// session plus the matched user's public profile.
func (s *Service) Authenticate(pin, terminalID, clientIP string) (*models.Session, *models.Profile, error) {
	if len(pin) < 4 || len(pin) > 10 {
		return nil, nil, ErrInvalidPIN
	}
	if !s.limiter.Allow(clientIP) {
		return nil, nil, ErrRateLimited
	}

	user, err := s.matchUser(pin)
	if err != nil {
		return nil, nil, err
	}

	sess := &models.Session{
		SessionID: uuid.NewString(),
		UserID:    user.ID,
		IsActive:  true,
		StartedAt: time.Now().UTC(),
	}
	if terminalID != "" {
		sess.TerminalID = &terminalID
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(sess).Error; err != nil {
			return fmt.Errorf("create session: %w", err)
		}
		if terminalID != "" {
			if err := tx.Model(&models.Terminal{}).
				Where("id = ?", terminalID).
				Updates(map[string]any{"status": "ONLINE", "last_seen_at": time.Now().UTC()}).Error; err != nil {
				return fmt.Errorf("mark terminal online: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.mru.Promote(user.ID, user.PasswordHash)

	return sess, toProfile(user), nil
}

// matchUser tries the MRU cache first (spec.md §4.6's stated
// optimization), falling back to a full scan of active users for the
// tenant. Either path compares with bcrypt, which dominates latency
// regardless of cache hit.
func (s *Service) matchUser(pin string) (*models.User, error) {
	for _, entry := range s.mru.Entries() {
		if bcrypt.CompareHashAndPassword([]byte(entry.passwordHash), []byte(pin)) == nil {
			var user models.User
			if err := s.db.Where("id = ? AND is_active = ?", entry.userID, true).First(&user).Error; err == nil && user.PasswordHash == entry.passwordHash {
				return &user, nil
			}
		}
	}

	var users []models.User
	if err := s.db.Where("tenant_id = ? AND is_active = ? AND password_hash != ''", s.tenantID, true).
		Find(&users).Error; err != nil {
		return nil, fmt.Errorf("load active users: %w", err)
	}

	for _, user := range users {
		if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(pin)) == nil {
			u := user
			return &u, nil
		}
	}

	return nil, ErrNoMatch
}

// Logout ends a session explicitly, the only way a session ends short
// of administrative action (spec.md §4.6: "no timeout in the core").
func (s *Service) Logout(sessionID string) error {
	now := time.Now().UTC()
	res := s.db.Model(&models.Session{}).
		Where("session_id = ? AND is_active = ?", sessionID, true).
		Updates(map[string]any{"is_active": false, "ended_at": &now})
	if res.Error != nil {
		return fmt.Errorf("session: logout failed: %w", res.Error)
	}
	return nil
}

// Validate looks up an active session by id, the check the session
// middleware applies to every protected route.
func (s *Service) Validate(sessionID string) (*models.Session, error) {
	var sess models.Session
	err := s.db.Where("session_id = ? AND is_active = ?", sessionID, true).First(&sess).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, gorm.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("session: validate failed: %w", err)
	}
	return &sess, nil
}

// InvalidateMRU clears the MRU cache. Call after any administrative
// write that may have changed a user's PIN.
func (s *Service) InvalidateMRU() {
	s.mru.Invalidate()
}

// HashPIN hashes a new PIN at the same cost PIN verification uses.
func HashPIN(pin string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), BcryptCost)
	if err != nil {
		return "", fmt.Errorf("session: hash pin failed: %w", err)
	}
	return string(hash), nil
}

func toProfile(user *models.User) *models.Profile {
	var perms []string
	_ = json.Unmarshal(user.Permissions, &perms)
	return &models.Profile{
		ID:          user.ID,
		Name:        user.Name,
		Role:        user.Role,
		Permissions: perms,
		MaxDiscount: user.MaxDiscount,
	}
}
