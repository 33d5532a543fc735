// Package session is the single source of truth for "who is logged in and
// as what". Both values live in the encrypted cookie session, so they
// survive a page reload and travel with every request from the same browser.
package session

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/alimponya/clinic-portal/internal/app/models"
)

// Fixed storage keys inside the cookie session. Token and role are always
// written and cleared together.
const (
	tokenKey = "token"
	roleKey  = "role"
)

// Store reads and writes the (token, role) pair for the current browser.
// Writes go through a single Save so a reader can never observe a token
// without its role or vice versa.
type Store struct {
	logger *zap.Logger
}

func NewStore(logger *zap.Logger) *Store {
	return &Store{logger: logger}
}

// Set stores both values as one logical unit. Storage failures are logged
// and swallowed: a browser that rejects the cookie simply stays logged out.
func (s *Store) Set(c *gin.Context, token string, role models.Role) {
	sess := sessions.Default(c)
	sess.Set(tokenKey, token)
	sess.Set(roleKey, string(role))
	if err := sess.Save(); err != nil {
		s.logger.Warn("Failed to persist session", zap.Error(err))
	}
}

// Clear removes both values and expires the cookie.
func (s *Store) Clear(c *gin.Context) {
	sess := sessions.Default(c)
	sess.Delete(tokenKey)
	sess.Delete(roleKey)
	sess.Options(sessions.Options{Path: "/", MaxAge: -1})
	if err := sess.Save(); err != nil {
		s.logger.Warn("Failed to clear session", zap.Error(err))
	}
}

// Flash stores a one-shot message for the next page render, used by the
// POST-redirect-GET mutation handlers.
func (s *Store) Flash(c *gin.Context, msg string) {
	sess := sessions.Default(c)
	sess.AddFlash(msg)
	if err := sess.Save(); err != nil {
		s.logger.Warn("Failed to save flash message", zap.Error(err))
	}
}

// TakeFlash returns and consumes the pending flash message, if any.
func (s *Store) TakeFlash(c *gin.Context) string {
	sess := sessions.Default(c)
	flashes := sess.Flashes()
	if len(flashes) == 0 {
		return ""
	}
	if err := sess.Save(); err != nil {
		s.logger.Warn("Failed to consume flash message", zap.Error(err))
	}
	msg, _ := flashes[0].(string)
	return msg
}

// Current returns the stored credentials. ok is false when there is no
// token; a role without a token is not a legal session and reads as none.
func (s *Store) Current(c *gin.Context) (string, models.Role, bool) {
	sess := sessions.Default(c)

	token, _ := sess.Get(tokenKey).(string)
	if token == "" {
		return "", "", false
	}

	roleStr, _ := sess.Get(roleKey).(string)
	role := models.Role(roleStr)
	if !role.Valid() {
		return "", "", false
	}

	return token, role, true
}
