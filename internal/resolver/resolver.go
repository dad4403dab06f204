// Package resolver turns the pending choice request into the set of
// legal actions with their protocol commands, annotated with type
// effectiveness against the current opponent so decision makers and
// fallbacks can rank them.
package resolver

import (
	"errors"
	"fmt"

	"github.com/colinh09/ps-ai-battler/internal/battle"
	"github.com/colinh09/ps-ai-battler/internal/dex"
	"github.com/colinh09/ps-ai-battler/internal/protocol"
	"github.com/colinh09/ps-ai-battler/internal/psid"
	"github.com/colinh09/ps-ai-battler/internal/typechart"
)

// ErrNoLegalAction means the request offered nothing playable. The
// session ends; other battles continue.
var ErrNoLegalAction = errors.New("resolver: no legal action available")

// ErrNoPendingRequest means resolution was asked for without an open
// choice request.
var ErrNoPendingRequest = errors.New("resolver: no pending request")

// MoveAction is one usable move. Slot is the 1-based position in the
// simulator's move list, which is what choice commands refer to, so
// it survives the exclusion of disabled and exhausted moves.
type MoveAction struct {
	Slot          int     `json:"slot"`
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Type          string  `json:"type,omitempty"`
	Category      string  `json:"category,omitempty"`
	BasePower     int     `json:"base_power"`
	PP            int     `json:"pp"`
	MaxPP         int     `json:"maxpp"`
	Effectiveness float64 `json:"effectiveness"`
	CanTera       bool    `json:"can_tera"`
}

// Command returns the choice command for the move.
func (m MoveAction) Command() string {
	return fmt.Sprintf("move %d", m.Slot)
}

// TeraCommand returns the choice command that also terastallizes.
func (m MoveAction) TeraCommand() string {
	return fmt.Sprintf("move %d tera", m.Slot)
}

// Damaging reports whether the move deals direct damage, judged from
// reference data when available.
func (m MoveAction) Damaging() bool {
	return m.Category != "Status" && m.BasePower > 0
}

// SwitchAction is one legal replacement. Slot is the 1-based position
// in the request's roster listing.
type SwitchAction struct {
	Slot          int     `json:"slot"`
	Key           string  `json:"key"`
	Species       string  `json:"species"`
	HPFraction    float64 `json:"hp_fraction"`
	Status        string  `json:"status,omitempty"`
	Effectiveness float64 `json:"effectiveness"`
}

// Command returns the choice command for the switch.
func (s SwitchAction) Command() string {
	return fmt.Sprintf("switch %d", s.Slot)
}

// ActionSet is everything we may legally do for the pending request.
type ActionSet struct {
	Moves       []MoveAction   `json:"moves"`
	Switches    []SwitchAction `json:"switches"`
	CanTera     bool           `json:"can_tera"`
	Forced      bool           `json:"forced"`
	ForceSwitch bool           `json:"force_switch"`
}

// Commands lists every legal choice command, tera variants included.
func (a *ActionSet) Commands() []string {
	var cmds []string
	for _, m := range a.Moves {
		cmds = append(cmds, m.Command())
		if m.CanTera {
			cmds = append(cmds, m.TeraCommand())
		}
	}
	for _, s := range a.Switches {
		cmds = append(cmds, s.Command())
	}
	return cmds
}

// IsLegal reports whether cmd is one of the offered commands.
func (a *ActionSet) IsLegal(cmd string) bool {
	for _, c := range a.Commands() {
		if c == cmd {
			return true
		}
	}
	return false
}

// Fallback returns the deterministic substitute action: the first
// damaging move, else the first legal switch, else the first listed
// move. Empty only when the set itself is empty.
func (a *ActionSet) Fallback() string {
	for _, m := range a.Moves {
		if m.Damaging() {
			return m.Command()
		}
	}
	// Without reference data no move is provably damaging; prefer the
	// first such move over a blind switch.
	for _, m := range a.Moves {
		if m.Category == "" {
			return m.Command()
		}
	}
	if len(a.Switches) > 0 {
		return a.Switches[0].Command()
	}
	if len(a.Moves) > 0 {
		return a.Moves[0].Command()
	}
	return ""
}

// Resolve builds the ActionSet for the snapshot's pending request.
// Reference data failures degrade annotations to neutral instead of
// blocking the choice.
func Resolve(snap battle.Snapshot, repo dex.Repository) (*ActionSet, error) {
	req := snap.Request
	if req == nil || req.Wait {
		return nil, ErrNoPendingRequest
	}

	var chart typechart.Chart
	if repo != nil {
		chart, _ = repo.TypeChart()
	}
	defTypes := opponentTypes(snap, repo)

	set := &ActionSet{ForceSwitch: req.NeedsSwitch()}

	if !set.ForceSwitch && len(req.Active) > 0 {
		active := req.Active[0]
		set.CanTera = active.CanTerastallize != "" && !snap.TeraUsed
		// A single-entry move list is the simulator forcing the move
		// (Struggle, recharge, locked choices); it carries no PP.
		forcedMove := len(active.Moves) == 1
		for i, opt := range active.Moves {
			if !forcedMove && (opt.Disabled || opt.PP <= 0) {
				continue
			}
			ma := MoveAction{
				Slot:          i + 1,
				ID:            opt.ID,
				Name:          opt.Name,
				PP:            opt.PP,
				MaxPP:         opt.MaxPP,
				Effectiveness: 1,
				CanTera:       set.CanTera,
			}
			if repo != nil {
				if mv, err := repo.MoveByKey(opt.ID); err == nil {
					ma.Type = mv.Type
					ma.Category = mv.Category
					ma.BasePower = mv.BasePower
					if mv.IsDamaging() {
						ma.Effectiveness = chart.Effectiveness(psid.ToID(mv.Type), defTypes...)
					}
				}
			}
			set.Moves = append(set.Moves, ma)
		}
		// Tera is only choosable through a move command.
		if len(set.Moves) == 0 {
			set.CanTera = false
		}
	}

	trapped := len(req.Active) > 0 && req.Active[0].Trapped
	if set.ForceSwitch || !trapped {
		for i, sp := range req.Side.Pokemon {
			if sp.Active {
				continue
			}
			cond := protocol.ParseHPStatus(sp.Condition)
			if cond.Fainted {
				continue
			}
			d := protocol.ParseDetails(sp.Details)
			sa := SwitchAction{
				Slot:          i + 1,
				Key:           psid.ToID(d.Species),
				Species:       d.Species,
				HPFraction:    cond.Fraction,
				Status:        cond.Status,
				Effectiveness: 1,
			}
			if repo != nil {
				if sw, err := repo.SpeciesByKey(sa.Key); err == nil {
					sa.Effectiveness = bestOffense(chart, sw.Types(), defTypes)
				}
			}
			set.Switches = append(set.Switches, sa)
		}
	}

	if len(set.Moves) == 0 && len(set.Switches) == 0 {
		return nil, ErrNoLegalAction
	}
	if len(set.Moves)+len(set.Switches) == 1 {
		set.Forced = true
	}
	return set, nil
}

// opponentTypes returns the defending type slots of the opponent's
// active Pokemon, honoring terastallization's single-type override.
func opponentTypes(snap battle.Snapshot, repo dex.Repository) []string {
	opp := snap.Opponent.Active()
	if opp == nil {
		return nil
	}
	if opp.Terastallized && opp.TeraType != "" {
		return []string{psid.ToID(opp.TeraType)}
	}
	if repo == nil {
		return nil
	}
	sp, err := repo.SpeciesByKey(opp.Key)
	if err != nil {
		return nil
	}
	types := sp.Types()
	ids := make([]string, 0, len(types))
	for _, t := range types {
		ids = append(ids, psid.ToID(t))
	}
	return ids
}

// bestOffense is the best single-type matchup the switch-in's own
// types offer into the defender. A genuine all-immune matchup stays
// at zero; only the absence of type data reports neutral.
func bestOffense(chart typechart.Chart, attacking, defending []string) float64 {
	if len(defending) == 0 {
		return 1
	}
	best := 0.0
	found := false
	for _, atk := range attacking {
		if atk == "" {
			continue
		}
		found = true
		if eff := chart.Effectiveness(psid.ToID(atk), defending...); eff > best {
			best = eff
		}
	}
	if !found {
		return 1
	}
	return best
}
