// Package battle tracks the full state of one battle from the event
// stream: both rosters, HP, statuses, stages, field and side
// conditions, and the choice request currently on the table. A single
// writer applies events; concurrent readers work from snapshots.
package battle

// Lifecycle phases of a tracked battle.
const (
	PhaseInitializing     = "initializing"
	PhaseAwaitingAction   = "awaiting_action"
	PhaseActionSubmitted  = "action_submitted"
	PhaseAwaitingOpponent = "awaiting_opponent"
	PhaseEnded            = "ended"
)

// Outcome values once a battle reaches PhaseEnded.
const (
	OutcomeWin     = "win"
	OutcomeLoss    = "loss"
	OutcomeTie     = "tie"
	OutcomeForfeit = "forfeit"
	OutcomeAborted = "aborted"
)

// Condition is a field or side condition currently in effect.
// StartedTurn records when it began; Layers counts stacked hazards
// such as Spikes.
type Condition struct {
	Name        string `json:"name"`
	StartedTurn int    `json:"started_turn"`
	Layers      int    `json:"layers,omitempty"`
}

// MoveSlot is one known move. For our own Pokemon PP and MaxPP come
// from the simulator's choice requests and are exact; for opponents
// only Used observations accumulate and MaxPP stays zero.
type MoveSlot struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	PP    int    `json:"pp"`
	MaxPP int    `json:"maxpp"`
	Used  int    `json:"used,omitempty"`
}

// Pokemon is one roster entry. Opponent entries exist only once
// revealed, and their Ability/Item stay empty while the candidate
// lists from set data still apply. An empty Item with a non-nil empty
// ItemCandidates means the item is known to be gone.
type Pokemon struct {
	Species    string  `json:"species"`
	Key        string  `json:"key"`
	Level      int     `json:"level"`
	Gender     string  `json:"gender,omitempty"`
	HPFraction float64 `json:"hp_fraction"`

	Status      string `json:"status,omitempty"`
	StatusTurns int    `json:"status_turns,omitempty"`

	Stages    map[string]int  `json:"stages,omitempty"`
	Volatiles map[string]bool `json:"volatiles,omitempty"`

	Moves []MoveSlot     `json:"moves,omitempty"`
	Stats map[string]int `json:"stats,omitempty"`

	Ability           string   `json:"ability,omitempty"`
	Item              string   `json:"item,omitempty"`
	AbilityCandidates []string `json:"ability_candidates,omitempty"`
	ItemCandidates    []string `json:"item_candidates,omitempty"`
	MoveCandidates    []string `json:"move_candidates,omitempty"`

	TeraType       string   `json:"tera_type,omitempty"`
	TeraCandidates []string `json:"tera_candidates,omitempty"`
	Terastallized  bool     `json:"terastallized,omitempty"`

	Fainted  bool `json:"fainted,omitempty"`
	Revealed bool `json:"revealed,omitempty"`
}

// Side is one player's half of the battle.
type Side struct {
	Player      string                `json:"player"`
	Name        string                `json:"name"`
	Ours        bool                  `json:"ours"`
	TeamSize    int                   `json:"team_size"`
	ActiveIndex int                   `json:"active_index"`
	Roster      []*Pokemon            `json:"roster"`
	Conditions  map[string]*Condition `json:"conditions,omitempty"`
}

// Active returns the side's active Pokemon, or nil between switches.
func (s *Side) Active() *Pokemon {
	if s.ActiveIndex < 0 || s.ActiveIndex >= len(s.Roster) {
		return nil
	}
	return s.Roster[s.ActiveIndex]
}

// FaintCount counts the side's fainted roster entries.
func (s *Side) FaintCount() int {
	n := 0
	for _, p := range s.Roster {
		if p.Fainted {
			n++
		}
	}
	return n
}

func (s *Side) findByKey(key string) *Pokemon {
	for _, p := range s.Roster {
		if p.Key == key {
			return p
		}
	}
	return nil
}
