// Package history keeps a bounded, human-readable narration of a
// battle. The text feeds decision prompts and operator inspection; it
// is never consulted for state correctness.
package history

import (
	"fmt"
	"strings"
	"sync"
)

// DefaultLimit is the narration line cap when none is configured.
const DefaultLimit = 120

var statNames = map[string]string{
	"atk":      "Attack",
	"def":      "Defense",
	"spa":      "Sp. Atk",
	"spd":      "Sp. Def",
	"spe":      "Speed",
	"accuracy": "accuracy",
	"evasion":  "evasiveness",
}

var statusApplied = map[string]string{
	"brn": "was burned",
	"par": "was paralyzed",
	"slp": "fell asleep",
	"frz": "was frozen solid",
	"psn": "was poisoned",
	"tox": "was badly poisoned",
}

var statusCured = map[string]string{
	"brn": "was cured of its burn",
	"par": "was cured of paralysis",
	"slp": "woke up",
	"frz": "thawed out",
	"psn": "was cured of poison",
	"tox": "was cured of poison",
}

var weatherNames = map[string]string{
	"RainDance":     "Rain",
	"Sandstorm":     "Sandstorm",
	"SunnyDay":      "Harsh sunlight",
	"Snow":          "Snow",
	"Hail":          "Hail",
	"Snowscape":     "Snow",
	"DesolateLand":  "Extremely harsh sunlight",
	"PrimordialSea": "Heavy rain",
}

var cantReasons = map[string]string{
	"slp":      "is fast asleep",
	"par":      "is paralyzed and can't move",
	"frz":      "is frozen solid",
	"flinch":   "flinched and couldn't move",
	"recharge": "must recharge",
}

// Tracker accumulates narration lines up to a fixed cap, dropping the
// oldest once full.
type Tracker struct {
	mu    sync.Mutex
	limit int
	lines []string
}

// New returns a tracker holding at most limit lines.
func New(limit int) *Tracker {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Tracker{limit: limit}
}

// Append records a raw narration line.
func (t *Tracker) Append(line string) {
	if line == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lines = append(t.lines, line)
	if len(t.lines) > t.limit {
		trimmed := make([]string, t.limit)
		copy(trimmed, t.lines[len(t.lines)-t.limit:])
		t.lines = trimmed
	}
}

// Lines returns a copy of the retained narration.
func (t *Tracker) Lines() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, len(t.lines))
	copy(out, t.lines)
	return out
}

// Render joins the retained narration for prompt building.
func (t *Tracker) Render() string {
	return strings.Join(t.Lines(), "\n")
}

// Len reports the number of retained lines.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.lines)
}

func subject(name string, ours bool) string {
	if ours {
		return name
	}
	return "The opposing " + name
}

// Turn writes a turn separator.
func (t *Tracker) Turn(n int) {
	t.Append(fmt.Sprintf("=== Turn %d ===", n))
}

// SentOut narrates a switch-in.
func (t *Tracker) SentOut(name string, ours bool) {
	if ours {
		t.Append(fmt.Sprintf("Go! %s!", name))
		return
	}
	t.Append(fmt.Sprintf("The opposing %s was sent out!", name))
}

// Moved narrates a move use.
func (t *Tracker) Moved(name, move string, ours bool) {
	t.Append(fmt.Sprintf("%s used %s!", subject(name, ours), move))
}

// Damaged narrates an HP loss in whole percents of max HP.
func (t *Tracker) Damaged(name string, lostPct, remainingPct int, ours bool) {
	t.Append(fmt.Sprintf("%s lost %d%% of its health! (%d%% remaining)",
		subject(name, ours), lostPct, remainingPct))
}

// Healed narrates an HP gain in whole percents of max HP.
func (t *Tracker) Healed(name string, gainedPct, remainingPct int, ours bool) {
	t.Append(fmt.Sprintf("%s restored %d%% of its health! (%d%% remaining)",
		subject(name, ours), gainedPct, remainingPct))
}

// Statused narrates a major status condition being applied.
func (t *Tracker) Statused(name, status string, ours bool) {
	phrase, ok := statusApplied[status]
	if !ok {
		return
	}
	t.Append(fmt.Sprintf("%s %s!", subject(name, ours), phrase))
}

// CuredStatus narrates a major status condition being removed.
func (t *Tracker) CuredStatus(name, status string, ours bool) {
	phrase, ok := statusCured[status]
	if !ok {
		phrase = "recovered"
	}
	t.Append(fmt.Sprintf("%s %s!", subject(name, ours), phrase))
}

// StageChanged narrates a stat stage move of the given signed amount.
func (t *Tracker) StageChanged(name, stat string, amount int, ours bool) {
	statName, ok := statNames[stat]
	if !ok || amount == 0 {
		return
	}
	var verb string
	switch {
	case amount >= 3:
		verb = "rose drastically"
	case amount == 2:
		verb = "rose sharply"
	case amount == 1:
		verb = "rose"
	case amount == -1:
		verb = "fell"
	case amount == -2:
		verb = "harshly fell"
	default:
		verb = "severely fell"
	}
	t.Append(fmt.Sprintf("%s's %s %s!", subject(name, ours), statName, verb))
}

// WeatherChanged narrates the weather starting or clearing.
func (t *Tracker) WeatherChanged(weather string) {
	if weather == "" || weather == "none" {
		t.Append("The weather cleared up!")
		return
	}
	name, ok := weatherNames[weather]
	if !ok {
		name = weather
	}
	t.Append(fmt.Sprintf("%s started!", name))
}

// FieldChanged narrates a whole-field effect starting or ending.
func (t *Tracker) FieldChanged(effect string, started bool) {
	if started {
		t.Append(fmt.Sprintf("%s took effect!", effect))
		return
	}
	t.Append(fmt.Sprintf("%s wore off!", effect))
}

// SideChanged narrates a one-side condition starting or ending.
func (t *Tracker) SideChanged(condition string, started, ours bool) {
	side := "your team"
	if !ours {
		side = "the opposing team"
	}
	if started {
		t.Append(fmt.Sprintf("%s took effect on %s's side!", condition, side))
		return
	}
	t.Append(fmt.Sprintf("%s wore off on %s's side!", condition, side))
}

// Fainted narrates a faint.
func (t *Tracker) Fainted(name string, ours bool) {
	t.Append(fmt.Sprintf("%s fainted!", subject(name, ours)))
}

// Terastallized narrates a tera activation.
func (t *Tracker) Terastallized(name, teraType string, ours bool) {
	t.Append(fmt.Sprintf("%s terastallized into the %s type!", subject(name, ours), teraType))
}

// Prevented narrates an action lost to sleep, paralysis and similar.
func (t *Tracker) Prevented(name, reason string, ours bool) {
	phrase, ok := cantReasons[reason]
	if !ok {
		phrase = "couldn't move"
	}
	t.Append(fmt.Sprintf("%s %s!", subject(name, ours), phrase))
}

// Ended narrates the battle result.
func (t *Tracker) Ended(winner string) {
	if winner == "" {
		t.Append("The battle ended in a tie!")
		return
	}
	t.Append(fmt.Sprintf("%s won the battle!", winner))
}
