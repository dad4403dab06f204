package battle

import (
	"sync"
	"time"

	"github.com/colinh09/ps-ai-battler/internal/history"
	"github.com/colinh09/ps-ai-battler/internal/protocol"
)

// State is the single source of truth for one battle. All mutation
// goes through Apply and the Mark helpers; readers use Snapshot so
// they never hold the lock across a decision.
type State struct {
	mu sync.RWMutex

	id        string
	format    string
	ourName   string
	ourPlayer string

	turn    int
	phase   string
	outcome string
	winner  string

	sides   map[string]*Side
	weather *Condition
	field   map[string]*Condition

	log     *history.Tracker
	request *protocol.RequestPayload

	teraUsed  bool
	forfeited bool
	lastError string

	started time.Time
	ended   time.Time
}

// New starts tracking a battle room for the named account.
func New(id, format, ourName string, logLimit int) *State {
	return &State{
		id:      id,
		format:  format,
		ourName: ourName,
		phase:   PhaseInitializing,
		sides: map[string]*Side{
			"p1": {Player: "p1", ActiveIndex: -1, Conditions: map[string]*Condition{}},
			"p2": {Player: "p2", ActiveIndex: -1, Conditions: map[string]*Condition{}},
		},
		field:   map[string]*Condition{},
		log:     history.New(logLimit),
		started: time.Now(),
	}
}

// ID returns the battle room identifier.
func (s *State) ID() string { return s.id }

// Format returns the battle format.
func (s *State) Format() string { return s.format }

// Phase returns the current lifecycle phase.
func (s *State) Phase() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phase
}

// Turn returns the current turn number.
func (s *State) Turn() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.turn
}

// Outcome returns the final result, empty while the battle runs.
func (s *State) Outcome() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.outcome
}

// OurPlayer returns our side's player slot, empty until assigned.
func (s *State) OurPlayer() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ourPlayer
}

// Ended reports whether the battle reached a terminal phase.
func (s *State) Ended() bool {
	return s.Phase() == PhaseEnded
}

// CurrentRequest returns the pending choice request, nil when none.
func (s *State) CurrentRequest() *protocol.RequestPayload {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.request
}

// Log exposes the narration tracker.
func (s *State) Log() *history.Tracker { return s.log }

// MarkActionSubmitted records that a choice command went out for the
// pending request. Only a new request or battle end leaves this phase.
func (s *State) MarkActionSubmitted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == PhaseAwaitingAction {
		s.phase = PhaseActionSubmitted
	}
}

// MarkForfeited records that we initiated a forfeit, so the following
// loss is reported as such.
func (s *State) MarkForfeited() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forfeited = true
}

// Abort terminates tracking without a result from the simulator,
// typically on connection loss. Ended battles are left untouched.
func (s *State) Abort(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == PhaseEnded {
		return
	}
	s.phase = PhaseEnded
	s.outcome = OutcomeAborted
	s.lastError = reason
	s.ended = time.Now()
}

// SetOpponentCandidates attaches set-data candidates to a revealed
// opponent Pokemon. Candidates only ever narrow: once the real
// ability or item is observed the lists are ignored and cleared.
func (s *State) SetOpponentCandidates(key string, abilities, items, moves, teras []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	side := s.opponentSideLocked()
	if side == nil {
		return
	}
	p := side.findByKey(key)
	if p == nil {
		return
	}
	if p.Ability == "" {
		p.AbilityCandidates = abilities
	}
	if p.Item == "" && p.ItemCandidates == nil {
		p.ItemCandidates = items
	}
	p.MoveCandidates = moves
	if p.TeraType == "" {
		p.TeraCandidates = teras
	}
}

func (s *State) ourSideLocked() *Side {
	if s.ourPlayer == "" {
		return nil
	}
	return s.sides[s.ourPlayer]
}

func (s *State) opponentSideLocked() *Side {
	switch s.ourPlayer {
	case "p1":
		return s.sides["p2"]
	case "p2":
		return s.sides["p1"]
	}
	return nil
}

func (s *State) sideFor(player string) *Side {
	return s.sides[player]
}

func (s *State) isOurs(player string) bool {
	return player != "" && player == s.ourPlayer
}
