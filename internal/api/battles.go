package api

import (
	"errors"
	"net/http"

	"github.com/colinh09/ps-ai-battler/internal/constants"
	"github.com/colinh09/ps-ai-battler/internal/session"

	"github.com/gin-gonic/gin"
)

// ListBattles returns snapshots of every running battle.
func (h *BattleHandler) ListBattles(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"battles": h.ctrl.Battles()})
}

// GetBattle returns one battle's snapshot together with its decision
// counters.
func (h *BattleHandler) GetBattle(c *gin.Context) {
	id := c.Param("battleID")
	snap, err := h.ctrl.Battle(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{constants.JSONKeyError: constants.ErrBattleNotFound})
		return
	}
	diag, _ := h.ctrl.BattleDiagnostics(id)
	c.JSON(http.StatusOK, gin.H{"battle": snap, "diagnostics": diag})
}

// ForfeitBattle concedes one running battle. The battle stays listed
// until the server confirms the result.
func (h *BattleHandler) ForfeitBattle(c *gin.Context) {
	err := h.ctrl.Forfeit(c.Param("battleID"))
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{constants.JSONKeyMessage: "Forfeit sent."})
	case errors.Is(err, session.ErrBattleNotFound):
		c.JSON(http.StatusNotFound, gin.H{constants.JSONKeyError: constants.ErrBattleNotFound})
	case errors.Is(err, session.ErrBattleEnded):
		c.JSON(http.StatusConflict, gin.H{constants.JSONKeyError: constants.ErrBattleAlreadyEnded})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: err.Error()})
	}
}
