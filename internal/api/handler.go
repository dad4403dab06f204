// Package api exposes the bot's control surface over HTTP: connection
// status, running battles, challenges, forfeits, and finished-battle
// summaries.
package api

import (
	"github.com/colinh09/ps-ai-battler/internal/battle"
	"github.com/colinh09/ps-ai-battler/internal/bridge"
	"github.com/colinh09/ps-ai-battler/internal/session"
)

// Controller is the battle-session surface the HTTP layer drives.
// *session.Manager implements it.
type Controller interface {
	Status() session.Status
	Battles() []battle.Snapshot
	Battle(id string) (battle.Snapshot, error)
	BattleDiagnostics(id string) (bridge.Diagnostics, error)
	Forfeit(id string) error
	Summaries() []battle.Summary
	Challenge(user, format string) error
}

// BattleHandler groups all bot control HTTP handlers.
type BattleHandler struct {
	ctrl Controller
}

// NewBattleHandler creates a new BattleHandler driving the given
// controller.
func NewBattleHandler(ctrl Controller) *BattleHandler {
	return &BattleHandler{ctrl: ctrl}
}
