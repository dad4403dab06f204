package battle

import (
	"github.com/colinh09/ps-ai-battler/internal/protocol"
)

// SideView is a copied, lock-free view of one side.
type SideView struct {
	Player      string      `json:"player"`
	Name        string      `json:"name"`
	TeamSize    int         `json:"team_size"`
	ActiveIndex int         `json:"active_index"`
	Roster      []Pokemon   `json:"roster"`
	Conditions  []Condition `json:"conditions,omitempty"`
}

// Active returns the view's active Pokemon, or nil between switches.
func (v *SideView) Active() *Pokemon {
	if v.ActiveIndex < 0 || v.ActiveIndex >= len(v.Roster) {
		return nil
	}
	return &v.Roster[v.ActiveIndex]
}

// FaintCount counts the view's fainted roster entries.
func (v *SideView) FaintCount() int {
	n := 0
	for _, p := range v.Roster {
		if p.Fainted {
			n++
		}
	}
	return n
}

// Snapshot is a consistent copy of the battle taken under the read
// lock. Decision building and API rendering work from snapshots so
// the event pump never blocks on them. The request payload is shared
// by pointer and treated as immutable.
type Snapshot struct {
	ID        string `json:"id"`
	Format    string `json:"format"`
	OurPlayer string `json:"our_player"`
	Turn      int    `json:"turn"`
	Phase     string `json:"phase"`
	Outcome   string `json:"outcome,omitempty"`
	Winner    string `json:"winner,omitempty"`

	Ours     SideView `json:"ours"`
	Opponent SideView `json:"opponent"`

	Weather  *Condition  `json:"weather,omitempty"`
	Field    []Condition `json:"field,omitempty"`
	TeraUsed bool        `json:"tera_used"`

	LastError string   `json:"last_error,omitempty"`
	LogLines  []string `json:"log,omitempty"`

	Request *protocol.RequestPayload `json:"-"`
}

// Snapshot copies the current battle state for concurrent readers.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ourPlayer := s.ourPlayer
	if ourPlayer == "" {
		ourPlayer = "p1"
	}
	theirPlayer := "p2"
	if ourPlayer == "p2" {
		theirPlayer = "p1"
	}

	snap := Snapshot{
		ID:        s.id,
		Format:    s.format,
		OurPlayer: s.ourPlayer,
		Turn:      s.turn,
		Phase:     s.phase,
		Outcome:   s.outcome,
		Winner:    s.winner,
		Ours:      copySide(s.sides[ourPlayer]),
		Opponent:  copySide(s.sides[theirPlayer]),
		TeraUsed:  s.teraUsed,
		LastError: s.lastError,
		LogLines:  s.log.Lines(),
		Request:   s.request,
	}
	if s.weather != nil {
		w := *s.weather
		snap.Weather = &w
	}
	for _, c := range s.field {
		snap.Field = append(snap.Field, *c)
	}
	return snap
}

// Summary is the end-of-battle record handed to consumers.
type Summary struct {
	BattleID        string `json:"battle_id"`
	Format          string `json:"format"`
	Opponent        string `json:"opponent,omitempty"`
	Result          string `json:"result"`
	Winner          string `json:"winner,omitempty"`
	Turns           int    `json:"turns"`
	OurFaints       int    `json:"our_faints"`
	OpponentFaints  int    `json:"opponent_faints"`
	DurationSeconds int    `json:"duration_seconds"`
}

// Summary builds the outcome record for the battle.
func (s *State) Summary() Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sum := Summary{
		BattleID: s.id,
		Format:   s.format,
		Result:   s.outcome,
		Winner:   s.winner,
		Turns:    s.turn,
	}
	if !s.ended.IsZero() {
		sum.DurationSeconds = int(s.ended.Sub(s.started).Seconds())
	}
	if ours := s.ourSideLocked(); ours != nil {
		sum.OurFaints = ours.FaintCount()
	}
	if opp := s.opponentSideLocked(); opp != nil {
		sum.OpponentFaints = opp.FaintCount()
		sum.Opponent = opp.Name
	}
	return sum
}

func copySide(side *Side) SideView {
	if side == nil {
		return SideView{ActiveIndex: -1}
	}
	view := SideView{
		Player:      side.Player,
		Name:        side.Name,
		TeamSize:    side.TeamSize,
		ActiveIndex: side.ActiveIndex,
		Roster:      make([]Pokemon, 0, len(side.Roster)),
	}
	for _, p := range side.Roster {
		view.Roster = append(view.Roster, copyPokemon(p))
	}
	for _, c := range side.Conditions {
		view.Conditions = append(view.Conditions, *c)
	}
	return view
}

func copyPokemon(p *Pokemon) Pokemon {
	cp := *p
	if p.Stages != nil {
		cp.Stages = make(map[string]int, len(p.Stages))
		for k, v := range p.Stages {
			cp.Stages[k] = v
		}
	}
	if p.Volatiles != nil {
		cp.Volatiles = make(map[string]bool, len(p.Volatiles))
		for k, v := range p.Volatiles {
			cp.Volatiles[k] = v
		}
	}
	if p.Stats != nil {
		cp.Stats = make(map[string]int, len(p.Stats))
		for k, v := range p.Stats {
			cp.Stats[k] = v
		}
	}
	cp.Moves = append([]MoveSlot(nil), p.Moves...)
	cp.AbilityCandidates = copyStrings(p.AbilityCandidates)
	cp.ItemCandidates = copyStrings(p.ItemCandidates)
	cp.MoveCandidates = copyStrings(p.MoveCandidates)
	cp.TeraCandidates = copyStrings(p.TeraCandidates)
	return cp
}

// copyStrings clones a slice, keeping the nil / empty distinction:
// a non-nil empty candidate list means "known to have none".
func copyStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
