package battle

import (
	"testing"

	"github.com/colinh09/ps-ai-battler/internal/protocol"
)

// feed parses raw protocol lines and applies the resulting events,
// failing the test on any parse error.
func feed(t *testing.T, s *State, lines ...string) {
	t.Helper()
	for _, line := range lines {
		ev, err := protocol.ParseLine(line)
		if err != nil {
			t.Fatalf("parse %q: %v", line, err)
		}
		if ev != nil {
			s.Apply(ev)
		}
	}
}

func newTestState(t *testing.T) *State {
	t.Helper()
	s := New("battle-gen9randombattle-1", "gen9randombattle", "colinh09", 50)
	feed(t, s,
		"|player|p1|colinh09|225|",
		"|player|p2|rival|101|",
		"|teamsize|p1|6",
		"|teamsize|p2|6",
	)
	return s
}

func TestPlayerAssignment(t *testing.T) {
	s := newTestState(t)
	snap := s.Snapshot()
	if snap.OurPlayer != "p1" {
		t.Fatalf("our player = %q, want p1", snap.OurPlayer)
	}
	if snap.Opponent.Name != "rival" {
		t.Errorf("opponent name = %q", snap.Opponent.Name)
	}
}

func TestTurnMonotonic(t *testing.T) {
	s := newTestState(t)
	feed(t, s, "|turn|1", "|turn|2", "|turn|5")
	if got := s.Turn(); got != 5 {
		t.Fatalf("turn = %d, want 5", got)
	}
	feed(t, s, "|turn|3")
	if got := s.Turn(); got != 5 {
		t.Errorf("turn went backwards to %d", got)
	}
}

func TestHPFractionBounds(t *testing.T) {
	s := newTestState(t)
	feed(t, s,
		"|switch|p2a: Kingambit|Kingambit, L76, M|100/100",
		"|-damage|p2a: Kingambit|65/100",
		"|-damage|p2a: Kingambit|5/100",
		"|-heal|p2a: Kingambit|55/100",
	)
	snap := s.Snapshot()
	p := snap.Opponent.Active()
	if p == nil {
		t.Fatal("no opponent active")
	}
	if p.HPFraction != 0.55 {
		t.Errorf("hp fraction = %v, want 0.55", p.HPFraction)
	}

	feed(t, s, "|-damage|p2a: Kingambit|0 fnt", "|faint|p2a: Kingambit")
	snap = s.Snapshot()
	p = snap.Opponent.Active()
	if p.HPFraction != 0 || !p.Fainted {
		t.Errorf("fainted entry has hp %v fainted %v", p.HPFraction, p.Fainted)
	}
}

func TestFaintIdempotent(t *testing.T) {
	s := newTestState(t)
	feed(t, s,
		"|switch|p2a: Kingambit|Kingambit, L76, M|100/100",
		"|faint|p2a: Kingambit",
	)
	before := s.Log().Len()
	feed(t, s, "|faint|p2a: Kingambit")
	snap := s.Snapshot()
	if snap.Opponent.Roster[0].HPFraction != 0 {
		t.Error("duplicate faint changed hp")
	}
	if got := s.Log().Len(); got != before {
		t.Errorf("duplicate faint narrated again (%d -> %d lines)", before, got)
	}
	if snap.Opponent.FaintCount() != 1 {
		t.Errorf("faint count = %d, want 1", snap.Opponent.FaintCount())
	}
}

func TestOpponentRevealGrowsRoster(t *testing.T) {
	s := newTestState(t)
	feed(t, s, "|switch|p2a: Donphan|Donphan, L86, F|100/100")
	snap := s.Snapshot()
	if len(snap.Opponent.Roster) != 1 {
		t.Fatalf("roster size %d, want 1", len(snap.Opponent.Roster))
	}
	don := snap.Opponent.Roster[0]
	if don.Key != "donphan" || don.Level != 86 || !don.Revealed {
		t.Errorf("unexpected entry %+v", don)
	}

	// A repeat switch-in must not duplicate the entry.
	feed(t, s,
		"|switch|p2a: Slowking|Slowking, L85|100/100",
		"|switch|p2a: Donphan|Donphan, L86, F|72/100",
	)
	snap = s.Snapshot()
	if len(snap.Opponent.Roster) != 2 {
		t.Fatalf("roster size %d, want 2", len(snap.Opponent.Roster))
	}
	if snap.Opponent.Active().Key != "donphan" {
		t.Errorf("active = %q", snap.Opponent.Active().Key)
	}
}

func TestCandidatesShrinkOnReveal(t *testing.T) {
	s := newTestState(t)
	feed(t, s, "|switch|p2a: Donphan|Donphan, L86, F|100/100")
	s.SetOpponentCandidates("donphan",
		[]string{"Sturdy", "Sand Veil"},
		[]string{"Leftovers", "Assault Vest"},
		[]string{"earthquake", "knockoff", "rapidspin", "iceshard", "stealthrock"},
		[]string{"Ground", "Ice"},
	)
	feed(t, s, "|-ability|p2a: Donphan|Sturdy")
	snap := s.Snapshot()
	don := snap.Opponent.Active()
	if don.Ability != "Sturdy" {
		t.Errorf("ability = %q", don.Ability)
	}
	if don.AbilityCandidates != nil {
		t.Errorf("ability candidates not cleared: %v", don.AbilityCandidates)
	}
	if len(don.ItemCandidates) != 2 {
		t.Errorf("item candidates lost: %v", don.ItemCandidates)
	}

	feed(t, s, "|-enditem|p2a: Donphan|Leftovers")
	snap = s.Snapshot()
	don = snap.Opponent.Active()
	if don.Item != "" || don.ItemCandidates == nil || len(don.ItemCandidates) != 0 {
		t.Errorf("consumed item should leave known-empty candidates, got %q %v", don.Item, don.ItemCandidates)
	}
}

func TestObservedMovesAccumulate(t *testing.T) {
	s := newTestState(t)
	feed(t, s,
		"|switch|p2a: Dragapult|Dragapult, L78|100/100",
		"|move|p2a: Dragapult|Dragon Darts|p1a: Garchomp",
		"|move|p2a: Dragapult|U-turn|p1a: Garchomp",
		"|move|p2a: Dragapult|Dragon Darts|p1a: Garchomp",
	)
	snap := s.Snapshot()
	p := snap.Opponent.Active()
	if len(p.Moves) != 2 {
		t.Fatalf("known moves %v, want 2 entries", p.Moves)
	}
	if p.Moves[0].ID != "dragondarts" || p.Moves[0].Used != 2 {
		t.Errorf("unexpected move record %+v", p.Moves[0])
	}
}

func TestSwitchResetsStagesAndVolatiles(t *testing.T) {
	s := newTestState(t)
	feed(t, s,
		"|switch|p2a: Kingambit|Kingambit, L76|100/100",
		"|-boost|p2a: Kingambit|atk|2",
		"|-start|p2a: Kingambit|confusion",
		"|-status|p2a: Kingambit|brn",
	)
	snap := s.Snapshot()
	p := snap.Opponent.Active()
	if p.Stages["atk"] != 2 || !p.Volatiles["confusion"] {
		t.Fatalf("setup failed: %+v", p)
	}

	feed(t, s,
		"|switch|p2a: Slowking|Slowking, L85|100/100",
		"|switch|p2a: Kingambit|Kingambit, L76|100/100 brn",
	)
	snap = s.Snapshot()
	p = snap.Opponent.Active()
	if len(p.Stages) != 0 || len(p.Volatiles) != 0 {
		t.Errorf("stages/volatiles survived the switch: %+v", p)
	}
	if p.Status != "brn" {
		t.Errorf("burn should persist through switch, got %q", p.Status)
	}
}

func TestStageClamping(t *testing.T) {
	s := newTestState(t)
	feed(t, s, "|switch|p1a: Kingambit|Kingambit, L76|100/100")
	for i := 0; i < 5; i++ {
		feed(t, s, "|-boost|p1a: Kingambit|atk|2")
	}
	snap := s.Snapshot()
	p := snap.Ours.Active()
	if p.Stages["atk"] != 6 {
		t.Errorf("atk stage = %d, want clamp at 6", p.Stages["atk"])
	}
}

func TestFieldAndSideConditions(t *testing.T) {
	s := newTestState(t)
	feed(t, s,
		"|turn|1",
		"|-weather|Sandstorm",
		"|-fieldstart|move: Electric Terrain",
		"|-sidestart|p1: colinh09|move: Stealth Rock",
		"|-sidestart|p1: colinh09|Spikes",
		"|-sidestart|p1: colinh09|Spikes",
	)
	snap := s.Snapshot()
	if snap.Weather == nil || snap.Weather.Name != "Sandstorm" {
		t.Errorf("weather = %+v", snap.Weather)
	}
	if len(snap.Field) != 1 || snap.Field[0].Name != "Electric Terrain" {
		t.Errorf("field = %+v", snap.Field)
	}
	spikes := findCondition(snap.Ours.Conditions, "Spikes")
	if spikes == nil || spikes.Layers != 2 {
		t.Errorf("spikes = %+v", spikes)
	}

	feed(t, s, "|-sideend|p1: colinh09|Spikes", "|-weather|none")
	snap = s.Snapshot()
	if findCondition(snap.Ours.Conditions, "Spikes") != nil {
		t.Error("spikes not removed")
	}
	if snap.Weather != nil {
		t.Errorf("weather not cleared: %+v", snap.Weather)
	}
}

func TestTerastallizeMarksSideUse(t *testing.T) {
	s := newTestState(t)
	feed(t, s,
		"|switch|p1a: Garchomp|Garchomp, L78, M|100/100",
		"|-terastallize|p1a: Garchomp|Ground",
	)
	snap := s.Snapshot()
	if !snap.TeraUsed {
		t.Error("tera use not recorded")
	}
	if p := snap.Ours.Active(); !p.Terastallized || p.TeraType != "Ground" {
		t.Errorf("unexpected active %+v", p)
	}
}

func TestWinOutcomes(t *testing.T) {
	s := newTestState(t)
	feed(t, s, "|win|colinh09")
	if s.Outcome() != OutcomeWin || s.Phase() != PhaseEnded {
		t.Errorf("outcome %q phase %q", s.Outcome(), s.Phase())
	}

	s = newTestState(t)
	feed(t, s, "|win|rival")
	if s.Outcome() != OutcomeLoss {
		t.Errorf("outcome %q, want loss", s.Outcome())
	}

	s = newTestState(t)
	s.MarkForfeited()
	feed(t, s, "|win|rival")
	if s.Outcome() != OutcomeForfeit {
		t.Errorf("outcome %q, want forfeit", s.Outcome())
	}

	s = newTestState(t)
	feed(t, s, "|tie")
	if s.Outcome() != OutcomeTie {
		t.Errorf("outcome %q, want tie", s.Outcome())
	}
}

func TestAbort(t *testing.T) {
	s := newTestState(t)
	s.Abort("connection lost")
	if s.Outcome() != OutcomeAborted || s.Phase() != PhaseEnded {
		t.Errorf("outcome %q phase %q", s.Outcome(), s.Phase())
	}

	// Abort after a result must not overwrite it.
	s = newTestState(t)
	feed(t, s, "|win|colinh09")
	s.Abort("late disconnect")
	if s.Outcome() != OutcomeWin {
		t.Errorf("abort overwrote outcome: %q", s.Outcome())
	}
}

func findCondition(conds []Condition, name string) *Condition {
	for i := range conds {
		if conds[i].Name == name {
			return &conds[i]
		}
	}
	return nil
}
