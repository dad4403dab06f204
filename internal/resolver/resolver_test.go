package resolver

import (
	"errors"
	"fmt"
	"testing"

	"github.com/colinh09/ps-ai-battler/internal/battle"
	"github.com/colinh09/ps-ai-battler/internal/dex"
	"github.com/colinh09/ps-ai-battler/internal/protocol"
	"github.com/colinh09/ps-ai-battler/internal/typechart"
)

type fakeRepo struct {
	species map[string]*dex.Species
	moves   map[string]*dex.Move
	chart   typechart.Chart
}

func (f *fakeRepo) SpeciesByKey(key string) (*dex.Species, error) {
	if s, ok := f.species[key]; ok {
		return s, nil
	}
	return nil, fmt.Errorf("%w: species %q", dex.ErrNotFound, key)
}

func (f *fakeRepo) MoveByKey(key string) (*dex.Move, error) {
	if m, ok := f.moves[key]; ok {
		return m, nil
	}
	return nil, fmt.Errorf("%w: move %q", dex.ErrNotFound, key)
}

func (f *fakeRepo) AbilityByKey(key string) (*dex.Ability, error) {
	return nil, fmt.Errorf("%w: ability %q", dex.ErrNotFound, key)
}

func (f *fakeRepo) ItemByKey(key string) (*dex.Item, error) {
	return nil, fmt.Errorf("%w: item %q", dex.ErrNotFound, key)
}

func (f *fakeRepo) TypeChart() (typechart.Chart, error) {
	return f.chart, nil
}

func (f *fakeRepo) MergedSetFor(key string) (*dex.MergedSet, error) {
	return nil, fmt.Errorf("%w: random sets for %q", dex.ErrNotFound, key)
}

func testRepo() *fakeRepo {
	return &fakeRepo{
		species: map[string]*dex.Species{
			"garchomp":  {Key: "garchomp", Name: "Garchomp", Type1: "Dragon", Type2: "Ground"},
			"slowking":  {Key: "slowking", Name: "Slowking", Type1: "Water", Type2: "Psychic"},
			"heatran":   {Key: "heatran", Name: "Heatran", Type1: "Fire", Type2: "Steel"},
			"greattusk": {Key: "greattusk", Name: "Great Tusk", Type1: "Ground", Type2: "Fighting"},
		},
		moves: map[string]*dex.Move{
			"earthquake":  {Key: "earthquake", Name: "Earthquake", Type: "Ground", Category: "Physical", BasePower: 100, PP: 10},
			"dragonclaw":  {Key: "dragonclaw", Name: "Dragon Claw", Type: "Dragon", Category: "Physical", BasePower: 80, PP: 15},
			"swordsdance": {Key: "swordsdance", Name: "Swords Dance", Type: "Normal", Category: "Status", BasePower: 0, PP: 20},
			"firefang":    {Key: "firefang", Name: "Fire Fang", Type: "Fire", Category: "Physical", BasePower: 65, PP: 15},
		},
		chart: typechart.Chart{
			"ground": {"fire": 2, "steel": 2, "grass": 0.5},
			"dragon": {"steel": 0.5},
			"water":  {"fire": 2, "steel": 1},
			"fire":   {"fire": 0.5, "steel": 2, "grass": 2},
		},
	}
}

const resolverRequest = `{
  "active": [{
    "moves": [
      {"move": "Earthquake", "id": "earthquake", "pp": 16, "maxpp": 16, "target": "normal", "disabled": false},
      {"move": "Dragon Claw", "id": "dragonclaw", "pp": 0, "maxpp": 24, "target": "normal", "disabled": false},
      {"move": "Swords Dance", "id": "swordsdance", "pp": 32, "maxpp": 32, "target": "self", "disabled": false},
      {"move": "Fire Fang", "id": "firefang", "pp": 24, "maxpp": 24, "target": "normal", "disabled": true}
    ],
    "canTerastallize": "Ground"
  }],
  "side": {
    "name": "colinh09", "id": "p1",
    "pokemon": [
      {"ident": "p1: Garchomp", "details": "Garchomp, L78, M", "condition": "180/211", "active": true,
       "moves": ["earthquake", "dragonclaw", "swordsdance", "firefang"]},
      {"ident": "p1: Slowking", "details": "Slowking, L85, F", "condition": "230/230", "active": false,
       "moves": ["scald"]},
      {"ident": "p1: Great Tusk", "details": "Great Tusk, L77", "condition": "0 fnt", "active": false,
       "moves": ["headlongrush"]}
    ]
  },
  "rqid": 10
}`

func stateWithRequest(t *testing.T, raw string, extra ...string) *battle.State {
	t.Helper()
	s := battle.New("battle-gen9randombattle-9", "gen9randombattle", "colinh09", 50)
	lines := append([]string{
		"|player|p1|colinh09|225|",
		"|player|p2|rival|101|",
		"|switch|p2a: Heatran|Heatran, L79|100/100",
	}, extra...)
	for _, line := range lines {
		ev, err := protocol.ParseLine(line)
		if err != nil {
			t.Fatalf("parse %q: %v", line, err)
		}
		if ev != nil {
			s.Apply(ev)
		}
	}
	if raw != "" {
		payload, err := protocol.ParseRequest(raw)
		if err != nil {
			t.Fatalf("parse request: %v", err)
		}
		s.Apply(protocol.Request{Payload: payload, Raw: raw})
	}
	return s
}

func TestResolveMovesAndSwitches(t *testing.T) {
	s := stateWithRequest(t, resolverRequest)
	set, err := Resolve(s.Snapshot(), testRepo())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	// Dragon Claw is out of PP and Fire Fang is disabled.
	if len(set.Moves) != 2 {
		t.Fatalf("moves = %+v, want 2 options", set.Moves)
	}
	eq := set.Moves[0]
	if eq.Slot != 1 || eq.ID != "earthquake" {
		t.Errorf("first move %+v", eq)
	}
	if eq.Effectiveness != 4 {
		t.Errorf("earthquake effectiveness vs Heatran = %v, want 4", eq.Effectiveness)
	}
	if !eq.Damaging() {
		t.Error("earthquake should count as damaging")
	}
	sd := set.Moves[1]
	if sd.Slot != 3 || sd.Damaging() || sd.Effectiveness != 1 {
		t.Errorf("swords dance option %+v", sd)
	}

	// Great Tusk is fainted, Garchomp is active.
	if len(set.Switches) != 1 {
		t.Fatalf("switches = %+v, want 1 option", set.Switches)
	}
	sw := set.Switches[0]
	if sw.Slot != 2 || sw.Key != "slowking" {
		t.Errorf("switch option %+v", sw)
	}
	if sw.Effectiveness != 2 {
		t.Errorf("slowking offense vs Heatran = %v, want 2 (Water)", sw.Effectiveness)
	}

	if !set.CanTera {
		t.Error("tera should be offered")
	}
	if set.Forced || set.ForceSwitch {
		t.Errorf("unexpected forced flags %+v", set)
	}
	wantCmds := []string{"move 1", "move 1 tera", "move 3", "move 3 tera", "switch 2"}
	cmds := set.Commands()
	if len(cmds) != len(wantCmds) {
		t.Fatalf("commands = %v", cmds)
	}
	for i, want := range wantCmds {
		if cmds[i] != want {
			t.Errorf("commands[%d] = %q, want %q", i, cmds[i], want)
		}
	}
	if !set.IsLegal("move 1 tera") || set.IsLegal("move 2") {
		t.Error("legality check wrong")
	}
	if set.Fallback() != "move 1" {
		t.Errorf("fallback = %q, want move 1", set.Fallback())
	}
}

func TestResolveTeraSpentSuppressesOffer(t *testing.T) {
	s := stateWithRequest(t, resolverRequest,
		"|switch|p1a: Garchomp|Garchomp, L78, M|211/211",
		"|-terastallize|p1a: Garchomp|Ground",
	)
	set, err := Resolve(s.Snapshot(), testRepo())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if set.CanTera {
		t.Error("tera offered after it was already used")
	}
	for _, cmd := range set.Commands() {
		if cmd == "move 1 tera" {
			t.Error("tera command offered after use")
		}
	}
}

func TestResolveOpponentTeraOverridesTypes(t *testing.T) {
	s := stateWithRequest(t, resolverRequest, "|-terastallize|p2a: Heatran|Grass")
	set, err := Resolve(s.Snapshot(), testRepo())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got := set.Moves[0].Effectiveness; got != 0.5 {
		t.Errorf("earthquake vs tera-Grass Heatran = %v, want 0.5", got)
	}
}

func TestResolveForceSwitch(t *testing.T) {
	raw := `{
	  "forceSwitch": [true],
	  "side": {"name": "colinh09", "id": "p1", "pokemon": [
	    {"ident": "p1: Garchomp", "details": "Garchomp, L78, M", "condition": "0 fnt", "active": true, "moves": ["earthquake"]},
	    {"ident": "p1: Slowking", "details": "Slowking, L85, F", "condition": "230/230", "active": false, "moves": ["scald"]}
	  ]},
	  "rqid": 11, "noCancel": true
	}`
	s := stateWithRequest(t, raw)
	set, err := Resolve(s.Snapshot(), testRepo())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !set.ForceSwitch || len(set.Moves) != 0 {
		t.Errorf("force switch should offer no moves: %+v", set)
	}
	if len(set.Switches) != 1 || !set.Forced {
		t.Errorf("single bench option should be forced: %+v", set)
	}
	if set.Fallback() != "switch 2" {
		t.Errorf("fallback = %q, want switch 2", set.Fallback())
	}
}

func TestResolveStruggle(t *testing.T) {
	raw := `{
	  "active": [{"moves": [{"move": "Struggle", "id": "struggle"}]}],
	  "side": {"name": "colinh09", "id": "p1", "pokemon": [
	    {"ident": "p1: Garchomp", "details": "Garchomp, L78, M", "condition": "50/211", "active": true, "moves": ["earthquake"]}
	  ]},
	  "rqid": 12
	}`
	s := stateWithRequest(t, raw)
	set, err := Resolve(s.Snapshot(), testRepo())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(set.Moves) != 1 || set.Moves[0].ID != "struggle" {
		t.Fatalf("struggle not offered: %+v", set.Moves)
	}
	if !set.Forced {
		t.Error("lone struggle should be forced")
	}
}

func TestResolveTrappedBlocksSwitches(t *testing.T) {
	raw := `{
	  "active": [{
	    "moves": [{"move": "Earthquake", "id": "earthquake", "pp": 16, "maxpp": 16}],
	    "trapped": true
	  }],
	  "side": {"name": "colinh09", "id": "p1", "pokemon": [
	    {"ident": "p1: Garchomp", "details": "Garchomp, L78, M", "condition": "180/211", "active": true, "moves": ["earthquake"]},
	    {"ident": "p1: Slowking", "details": "Slowking, L85, F", "condition": "230/230", "active": false, "moves": ["scald"]}
	  ]},
	  "rqid": 13
	}`
	s := stateWithRequest(t, raw)
	set, err := Resolve(s.Snapshot(), testRepo())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(set.Switches) != 0 {
		t.Errorf("trapped active still offered switches: %+v", set.Switches)
	}
}

func TestResolveNoLegalAction(t *testing.T) {
	raw := `{
	  "forceSwitch": [true],
	  "side": {"name": "colinh09", "id": "p1", "pokemon": [
	    {"ident": "p1: Garchomp", "details": "Garchomp, L78, M", "condition": "0 fnt", "active": true, "moves": ["earthquake"]},
	    {"ident": "p1: Slowking", "details": "Slowking, L85, F", "condition": "0 fnt", "active": false, "moves": ["scald"]}
	  ]},
	  "rqid": 14
	}`
	s := stateWithRequest(t, raw)
	_, err := Resolve(s.Snapshot(), testRepo())
	if !errors.Is(err, ErrNoLegalAction) {
		t.Errorf("error = %v, want ErrNoLegalAction", err)
	}
}

func TestResolveWithoutRequest(t *testing.T) {
	s := stateWithRequest(t, "")
	_, err := Resolve(s.Snapshot(), testRepo())
	if !errors.Is(err, ErrNoPendingRequest) {
		t.Errorf("error = %v, want ErrNoPendingRequest", err)
	}
}

func TestResolveMissingDexDegradesToNeutral(t *testing.T) {
	s := stateWithRequest(t, resolverRequest)
	set, err := Resolve(s.Snapshot(), &fakeRepo{chart: typechart.Chart{}})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	for _, m := range set.Moves {
		if m.Effectiveness != 1 {
			t.Errorf("unknown move %q effectiveness = %v, want neutral", m.ID, m.Effectiveness)
		}
	}
	for _, sw := range set.Switches {
		if sw.Effectiveness != 1 {
			t.Errorf("unknown switch %q effectiveness = %v, want neutral", sw.Key, sw.Effectiveness)
		}
	}
}
