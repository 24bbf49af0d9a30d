package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"brandbuzz/internal/auth"
	"brandbuzz/internal/automation"
	"brandbuzz/internal/calls"
	"brandbuzz/internal/campaigns"
	"brandbuzz/internal/contacts"
	"brandbuzz/internal/dispatch"
	"brandbuzz/internal/reporting"
	"brandbuzz/internal/smm"
	"brandbuzz/internal/users"
	"brandbuzz/internal/wallet"

	"github.com/gin-gonic/gin"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
type Handlers struct {
	Auth       *auth.Manager
	Users      *users.Service
	Contacts   *contacts.Service
	Campaigns  *campaigns.Service
	Wallet     *wallet.Service
	Dispatcher *dispatch.Dispatcher
	Calls      *calls.Service
	SMM        *smm.Service
	Automation *automation.Service
	Reports    *reporting.Service

	Now func() time.Time
}

func (h Handlers) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// --- Auth ---

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h Handlers) Signup(c *gin.Context) {
	var req users.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json")
		return
	}
	u, err := h.Users.Signup(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	pair, err := h.Auth.IssuePair(h.now(), u.ID.Hex(), u.Email, u.Role)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "Account created", "user": u, "tokens": pair})
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Refresh exchanges a refresh token for a new pair. The role comes from the
// stored user, not from the old token.
func (h Handlers) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
		badRequest(c, "refreshToken is required")
		return
	}
	claims, err := h.Auth.Verify(req.RefreshToken, auth.TokenTypeRefresh, h.now())
	if err != nil {
		writeError(c, err)
		return
	}
	u, err := h.Users.Get(c.Request.Context(), claims.UserID)
	if errors.Is(err, users.ErrNotFound) {
		writeError(c, fmt.Errorf("%w: unknown user", auth.ErrInvalidToken))
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}
	pair, err := h.Auth.IssuePair(h.now(), u.ID.Hex(), u.Email, u.Role)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "tokens": pair})
}

// Login issues a JWT token pair. A storage failure is reported as a server
// error, never as a fallback login.
func (h Handlers) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json")
		return
	}
	u, err := h.Users.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	pair, err := h.Auth.IssuePair(h.now(), u.ID.Hex(), u.Email, u.Role)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": u, "tokens": pair})
}

type voiceSettingsRequest struct {
	UserID string `json:"userId"`
	users.VoiceSettings
}

func (h Handlers) UpdateVoiceSettings(c *gin.Context) {
	var req voiceSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json")
		return
	}
	u, err := h.Users.UpdateVoiceSettings(c.Request.Context(), req.UserID, req.VoiceSettings)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "phoneNumbers": u.PhoneNumbers, "forwardNumbers": u.ForwardNumbers})
}
