package protocol

import (
	"errors"
	"testing"
)

func mustParse(t *testing.T, line string) Event {
	t.Helper()
	ev, err := ParseLine(line)
	if err != nil {
		t.Fatalf("ParseLine(%q) failed: %v", line, err)
	}
	if ev == nil {
		t.Fatalf("ParseLine(%q) produced no event", line)
	}
	return ev
}

func TestSplitMessage(t *testing.T) {
	room, lines := SplitMessage(">battle-gen9randombattle-123456\n|turn|3\n|upkeep\n")
	if room != "battle-gen9randombattle-123456" {
		t.Errorf("room = %q", room)
	}
	if len(lines) != 2 || lines[0] != "|turn|3" {
		t.Errorf("lines = %v", lines)
	}

	room, lines = SplitMessage("|challstr|4|abc")
	if room != "" || len(lines) != 1 {
		t.Errorf("lobby frame: room=%q lines=%v", room, lines)
	}
}

func TestParseLineSwitch(t *testing.T) {
	ev := mustParse(t, "|switch|p1a: Garchomp|Garchomp, L78, M|211/211")
	sw, ok := ev.(Switch)
	if !ok {
		t.Fatalf("got %T", ev)
	}
	if sw.Ident.Player != "p1" || sw.Details.Species != "Garchomp" || sw.Details.Level != 78 {
		t.Errorf("unexpected switch %+v", sw)
	}
	if sw.HP.Fraction != 1 || sw.Dragged {
		t.Errorf("unexpected switch %+v", sw)
	}

	ev = mustParse(t, "|drag|p2a: Corviknight|Corviknight, L80|64/100")
	if sw := ev.(Switch); !sw.Dragged || sw.HP.Fraction != 0.64 {
		t.Errorf("unexpected drag %+v", sw)
	}
}

func TestParseLineDamageHeal(t *testing.T) {
	ev := mustParse(t, "|-damage|p2a: Kingambit|65/100|[from] item: Rocky Helmet")
	dmg := ev.(Damage)
	if dmg.HP.Fraction != 0.65 || dmg.From != "item: Rocky Helmet" {
		t.Errorf("unexpected damage %+v", dmg)
	}

	ev = mustParse(t, "|-heal|p1a: Gliscor|100/100|[from] item: Toxic Orb")
	heal := ev.(Heal)
	if heal.HP.Fraction != 1 || heal.From != "item: Toxic Orb" {
		t.Errorf("unexpected heal %+v", heal)
	}
}

func TestParseLineBoosts(t *testing.T) {
	if b := mustParse(t, "|-boost|p1a: Kingambit|atk|2").(Boost); b.Stat != "atk" || b.Amount != 2 {
		t.Errorf("unexpected boost %+v", b)
	}
	if u := mustParse(t, "|-unboost|p2a: Ting-Lu|spd|1").(Unboost); u.Stat != "spd" || u.Amount != 1 {
		t.Errorf("unexpected unboost %+v", u)
	}
	if s := mustParse(t, "|-setboost|p1a: Azumarill|atk|6").(SetBoost); s.Amount != 6 {
		t.Errorf("unexpected setboost %+v", s)
	}
	if _, ok := mustParse(t, "|-clearallboost").(ClearAllBoost); !ok {
		t.Error("clearallboost not recognized")
	}
}

func TestParseLineFieldAndSide(t *testing.T) {
	w := mustParse(t, "|-weather|RainDance").(Weather)
	if w.Weather != "RainDance" || w.Upkeep {
		t.Errorf("unexpected weather %+v", w)
	}
	w = mustParse(t, "|-weather|SunnyDay|[upkeep]").(Weather)
	if !w.Upkeep {
		t.Errorf("upkeep flag lost: %+v", w)
	}

	fs := mustParse(t, "|-fieldstart|move: Electric Terrain").(FieldStart)
	if EffectName(fs.Effect) != "Electric Terrain" {
		t.Errorf("unexpected field effect %q", fs.Effect)
	}

	ss := mustParse(t, "|-sidestart|p2: rival|move: Stealth Rock").(SideStart)
	if ss.Player != "p2" || EffectName(ss.Condition) != "Stealth Rock" {
		t.Errorf("unexpected sidestart %+v", ss)
	}

	se := mustParse(t, "|-sideend|p1: colinh09|Reflect").(SideEnd)
	if se.Player != "p1" || se.Condition != "Reflect" {
		t.Errorf("unexpected sideend %+v", se)
	}
}

func TestParseLineStatusAndFaint(t *testing.T) {
	st := mustParse(t, "|-status|p1a: Dragonite|par").(Status)
	if st.Status != "par" {
		t.Errorf("unexpected status %+v", st)
	}
	cs := mustParse(t, "|-curestatus|p1a: Dragonite|par").(CureStatus)
	if cs.Status != "par" {
		t.Errorf("unexpected curestatus %+v", cs)
	}
	f := mustParse(t, "|faint|p2a: Iron Valiant").(Faint)
	if f.Ident.Name != "Iron Valiant" {
		t.Errorf("unexpected faint %+v", f)
	}
}

func TestParseLineReveals(t *testing.T) {
	ab := mustParse(t, "|-ability|p2a: Staraptor|Intimidate|boost").(AbilityReveal)
	if ab.Ability != "Intimidate" {
		t.Errorf("unexpected ability %+v", ab)
	}
	it := mustParse(t, "|-item|p2a: Slowking|Leftovers|[from] ability: Frisk").(ItemReveal)
	if it.Item != "Leftovers" || it.From != "ability: Frisk" {
		t.Errorf("unexpected item %+v", it)
	}
	ie := mustParse(t, "|-enditem|p2a: Heatran|Air Balloon").(ItemEnd)
	if ie.Item != "Air Balloon" {
		t.Errorf("unexpected enditem %+v", ie)
	}
	tr := mustParse(t, "|-terastallize|p1a: Garchomp|Ground").(Terastallize)
	if tr.TeraType != "Ground" {
		t.Errorf("unexpected terastallize %+v", tr)
	}
}

func TestParseLineControl(t *testing.T) {
	if tn := mustParse(t, "|turn|12").(Turn); tn.Number != 12 {
		t.Errorf("unexpected turn %+v", tn)
	}
	if w := mustParse(t, "|win|colinh09").(Win); w.Name != "colinh09" {
		t.Errorf("unexpected win %+v", w)
	}
	if _, ok := mustParse(t, "|tie").(Tie); !ok {
		t.Error("tie not recognized")
	}
	ce := mustParse(t, "|error|[Invalid choice] Can't move: Gliscor is trapped").(ChoiceError)
	if ce.Message == "" {
		t.Error("choice error message lost")
	}
	cant := mustParse(t, "|cant|p1a: Dondozo|slp").(Cant)
	if cant.Reason != "slp" {
		t.Errorf("unexpected cant %+v", cant)
	}
}

func TestParseLineLobby(t *testing.T) {
	ch := mustParse(t, "|challstr|4|abc|def").(ChallStr)
	if ch.Value != "4|abc|def" {
		t.Errorf("challstr = %q", ch.Value)
	}
	uu := mustParse(t, "|updateuser| colinh09|1|225|{}").(UpdateUser)
	if uu.Username != "colinh09" || !uu.Named {
		t.Errorf("unexpected updateuser %+v", uu)
	}
	pm := mustParse(t, "|pm| rival| colinh09|/challenge gen9randombattle").(PM)
	if pm.From != "rival" || pm.Message != "/challenge gen9randombattle" {
		t.Errorf("unexpected pm %+v", pm)
	}
	uc := mustParse(t, `|updatechallenges|{"challengesFrom":{"rival":"gen9randombattle"},"challengeTo":null}`).(UpdateChallenges)
	if uc.From["rival"] != "gen9randombattle" {
		t.Errorf("unexpected updatechallenges %+v", uc)
	}
	if ev := mustParse(t, "|deinit"); ev != Event(Deinit{}) {
		t.Errorf("deinit = %v", ev)
	}
}

func TestParseLineSkipsUntracked(t *testing.T) {
	for _, line := range []string{
		"",
		"raw chat text",
		"|",
		"|j|someuser",
		"|c|+someuser|hello",
		"|t:|1714088412",
		"|gametype|singles",
		"|-supereffective|p2a: Kingambit",
		"|-anim|p1a: Garchomp|Earthquake",
	} {
		ev, err := ParseLine(line)
		if ev != nil || err != nil {
			t.Errorf("ParseLine(%q) = %v, %v; want nil, nil", line, ev, err)
		}
	}
}

func TestParseLineMalformed(t *testing.T) {
	for _, line := range []string{
		"|turn|abc",
		"|switch|garbage|Garchomp, L78|100/100",
		"|-boost|p1a: X|atk|two",
		"|teamsize|p1|six",
		"|request|{not json",
		"|updatechallenges|{not json",
	} {
		ev, err := ParseLine(line)
		if ev != nil {
			t.Errorf("ParseLine(%q) produced event %v", line, ev)
		}
		var pe *ParseError
		if !errors.As(err, &pe) {
			t.Errorf("ParseLine(%q) error = %v, want *ParseError", line, err)
		}
	}
}

func TestEffectName(t *testing.T) {
	if got := EffectName("move: Stealth Rock"); got != "Stealth Rock" {
		t.Errorf("EffectName = %q", got)
	}
	if got := EffectName("Spikes"); got != "Spikes" {
		t.Errorf("EffectName = %q", got)
	}
}
