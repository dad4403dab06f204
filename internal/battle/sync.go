package battle

import (
	"github.com/colinh09/ps-ai-battler/internal/protocol"
	"github.com/colinh09/ps-ai-battler/internal/psid"
)

// applyRequest stores a choice request and synchronizes our roster
// from its side payload, which is authoritative for our own team: it
// carries exact HP, status, stats, moves and held items.
func (s *State) applyRequest(e protocol.Request) {
	if e.Payload == nil {
		return
	}
	s.request = e.Payload

	if s.ourPlayer == "" && e.Payload.Side.ID != "" {
		s.ourPlayer = e.Payload.Side.ID
	}
	side := s.sideFor(e.Payload.Side.ID)
	if side != nil {
		side.Ours = true
		if e.Payload.Side.Name != "" {
			side.Name = e.Payload.Side.Name
		}
		s.syncOurSide(side, e.Payload)
	}

	if e.Payload.Wait {
		s.phase = PhaseAwaitingOpponent
		return
	}
	s.phase = PhaseAwaitingAction
}

func (s *State) syncOurSide(side *Side, payload *protocol.RequestPayload) {
	activeMoves := []protocol.MoveOption(nil)
	if len(payload.Active) > 0 {
		activeMoves = payload.Active[0].Moves
	}

	for _, sp := range payload.Side.Pokemon {
		d := protocol.ParseDetails(sp.Details)
		p := s.ensureRosterEntry(side.Player, d)
		if p == nil {
			continue
		}
		cond := protocol.ParseHPStatus(sp.Condition)
		p.Fainted = cond.Fainted
		if cond.Fainted {
			p.HPFraction = 0
			p.Status = ""
		} else {
			p.HPFraction = clampFraction(cond.Fraction)
			p.Status = cond.Status
		}
		if sp.Stats != nil {
			p.Stats = sp.Stats
		}
		if ability := firstNonEmpty(sp.Ability, sp.BaseAbility); ability != "" {
			p.Ability = ability
			p.AbilityCandidates = nil
		}
		if sp.Item != "" {
			p.Item = sp.Item
			p.ItemCandidates = nil
		}
		if sp.TeraType != "" {
			p.TeraType = sp.TeraType
		}
		if sp.Terastallized != "" {
			p.Terastallized = true
			s.teraUsed = true
		}

		if sp.Active && len(activeMoves) > 0 {
			p.Moves = moveSlotsFromOptions(activeMoves)
		} else if len(sp.Moves) > 0 {
			p.Moves = moveSlotsFromIDs(sp.Moves, p.Moves)
		}

		if sp.Active {
			for i, rp := range side.Roster {
				if rp == p {
					side.ActiveIndex = i
					break
				}
			}
		}
	}
	if side.TeamSize < len(side.Roster) {
		side.TeamSize = len(side.Roster)
	}
}

func moveSlotsFromOptions(opts []protocol.MoveOption) []MoveSlot {
	slots := make([]MoveSlot, 0, len(opts))
	for _, m := range opts {
		slots = append(slots, MoveSlot{ID: m.ID, Name: m.Name, PP: m.PP, MaxPP: m.MaxPP})
	}
	return slots
}

// moveSlotsFromIDs rebuilds a move list from bare identifiers,
// keeping previously known PP values for matching slots.
func moveSlotsFromIDs(ids []string, prev []MoveSlot) []MoveSlot {
	slots := make([]MoveSlot, 0, len(ids))
	for _, id := range ids {
		key := psid.ToID(id)
		slot := MoveSlot{ID: key, Name: id}
		for _, old := range prev {
			if old.ID == key {
				slot = old
				break
			}
		}
		slots = append(slots, slot)
	}
	return slots
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
