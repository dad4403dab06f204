package api

import (
	"errors"
	"net/http"

	"github.com/colinh09/ps-ai-battler/internal/constants"
	"github.com/colinh09/ps-ai-battler/internal/session"
	"github.com/colinh09/ps-ai-battler/internal/version"

	"github.com/gin-gonic/gin"
)

// ChallengeRequest is the payload for opening a new battle.
type ChallengeRequest struct {
	Username string `json:"username"`
	Format   string `json:"format"`
}

// Healthz reports process liveness.
func Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{constants.JSONKeyStatus: "ok"})
}

// Version returns build and VCS metadata injected at build time.
func Version(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"version": version.Version,
		"commit":  version.Commit,
		"date":    version.Date,
		"dirty":   version.Dirty,
	})
}

// Status reports the simulator connection and battle lifecycle.
func (h *BattleHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.ctrl.Status())
}

// CreateChallenge sends a challenge to the named user. The battle
// itself shows up under /battles once the opponent accepts.
func (h *BattleHandler) CreateChallenge(c *gin.Context) {
	var req ChallengeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidRequest})
		return
	}
	if req.Username == "" {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrUsernameRequired})
		return
	}
	if err := h.ctrl.Challenge(req.Username, req.Format); err != nil {
		if errors.Is(err, session.ErrNotLoggedIn) {
			c.JSON(http.StatusConflict, gin.H{constants.JSONKeyError: constants.ErrNotLoggedIn})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrChallengeFailed})
		return
	}
	c.JSON(http.StatusOK, gin.H{constants.JSONKeyMessage: "Challenge sent."})
}

// ListSummaries returns the outcomes of finished battles, oldest
// first.
func (h *BattleHandler) ListSummaries(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"summaries": h.ctrl.Summaries()})
}
