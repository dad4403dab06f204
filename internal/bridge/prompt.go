package bridge

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/colinh09/ps-ai-battler/internal/battle"
	"github.com/colinh09/ps-ai-battler/internal/resolver"
)

// ChosenPrefix is the reply contract: the decision maker must answer
// with a single line of the form "CHOSEN MOVE: <command>".
const ChosenPrefix = "CHOSEN MOVE:"

// historyTail bounds how many narration lines the prompt replays.
const historyTail = 14

// BuildRequest renders the snapshot and offered actions into the
// request handed to the decision maker.
func BuildRequest(snap battle.Snapshot, set *resolver.ActionSet) DecisionRequest {
	return DecisionRequest{
		BattleID: snap.ID,
		Format:   snap.Format,
		Turn:     snap.Turn,
		Prompt:   renderPrompt(snap, set),
		Commands: set.Commands(),
		Actions:  set,
	}
}

func renderPrompt(snap battle.Snapshot, set *resolver.ActionSet) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are playing a %s battle. It is turn %d.\n\n", snap.Format, snap.Turn)

	if p := snap.Ours.Active(); p != nil {
		fmt.Fprintf(&b, "Your active Pokemon: %s\n", describeActive(p))
	}
	if p := snap.Opponent.Active(); p != nil {
		fmt.Fprintf(&b, "Opponent's active Pokemon: %s\n", describeActive(p))
		writeKnowledge(&b, p)
	}

	b.WriteString("\nYour team:\n")
	writeRoster(&b, snap.Ours)
	revealed := len(snap.Opponent.Roster)
	total := snap.Opponent.TeamSize
	if total < revealed {
		total = revealed
	}
	fmt.Fprintf(&b, "Opponent's team (%d of %d revealed):\n", revealed, total)
	writeRoster(&b, snap.Opponent)

	writeField(&b, snap)

	if tail := tailLines(snap.LogLines, historyTail); len(tail) > 0 {
		b.WriteString("\nRecent events:\n")
		for _, line := range tail {
			fmt.Fprintf(&b, "  %s\n", line)
		}
	}

	b.WriteString("\nYour options:\n")
	for _, m := range set.Moves {
		fmt.Fprintf(&b, "  %s - %s\n", m.Command(), describeMove(m))
	}
	for _, s := range set.Switches {
		fmt.Fprintf(&b, "  %s - %s\n", s.Command(), describeSwitch(s))
	}
	if set.CanTera {
		teraType := ""
		if snap.Request != nil && len(snap.Request.Active) > 0 {
			teraType = snap.Request.Active[0].CanTerastallize
		}
		if teraType != "" {
			fmt.Fprintf(&b, "  You may terastallize to %s this turn: append \" tera\" to a move command, e.g. \"%s tera\".\n",
				teraType, set.Moves[0].Command())
		} else {
			fmt.Fprintf(&b, "  You may terastallize this turn: append \" tera\" to a move command.\n")
		}
	}

	fmt.Fprintf(&b, "\nReply with exactly one line:\n%s <command>\nwhere <command> is one of the options above.\n", ChosenPrefix)
	return b.String()
}

func describeActive(p *battle.Pokemon) string {
	parts := []string{fmt.Sprintf("%s, %d%% HP", p.Species, hpPercent(p.HPFraction))}
	if p.Status != "" {
		parts = append(parts, p.Status)
	}
	if p.Terastallized && p.TeraType != "" {
		parts = append(parts, "terastallized "+p.TeraType)
	}
	if boosts := describeStages(p.Stages); boosts != "" {
		parts = append(parts, boosts)
	}
	for _, v := range sortedKeys(p.Volatiles) {
		parts = append(parts, v)
	}
	return strings.Join(parts, ", ")
}

// writeKnowledge prints what we know, or still suspect, about an
// opponent's ability, item and moves.
func writeKnowledge(b *strings.Builder, p *battle.Pokemon) {
	if p.Ability != "" {
		fmt.Fprintf(b, "  Ability: %s\n", p.Ability)
	} else if len(p.AbilityCandidates) > 0 {
		fmt.Fprintf(b, "  Possible abilities: %s\n", strings.Join(p.AbilityCandidates, ", "))
	}
	if p.Item != "" {
		fmt.Fprintf(b, "  Item: %s\n", p.Item)
	} else if p.ItemCandidates != nil && len(p.ItemCandidates) == 0 {
		b.WriteString("  Item: none (used or lost)\n")
	} else if len(p.ItemCandidates) > 0 {
		fmt.Fprintf(b, "  Possible items: %s\n", strings.Join(p.ItemCandidates, ", "))
	}
	if len(p.Moves) > 0 {
		names := make([]string, 0, len(p.Moves))
		for _, m := range p.Moves {
			names = append(names, m.Name)
		}
		fmt.Fprintf(b, "  Moves seen: %s\n", strings.Join(names, ", "))
	}
	if len(p.MoveCandidates) > 0 {
		fmt.Fprintf(b, "  Other possible moves: %s\n", strings.Join(p.MoveCandidates, ", "))
	}
	if !p.Terastallized && len(p.TeraCandidates) > 0 {
		fmt.Fprintf(b, "  Possible tera types: %s\n", strings.Join(p.TeraCandidates, ", "))
	}
}

func writeRoster(b *strings.Builder, side battle.SideView) {
	for i := range side.Roster {
		p := &side.Roster[i]
		switch {
		case p.Fainted:
			fmt.Fprintf(b, "  - %s, fainted\n", p.Species)
		case i == side.ActiveIndex:
			fmt.Fprintf(b, "  - %s, %d%% HP (active)\n", p.Species, hpPercent(p.HPFraction))
		default:
			line := fmt.Sprintf("  - %s, %d%% HP", p.Species, hpPercent(p.HPFraction))
			if p.Status != "" {
				line += ", " + p.Status
			}
			fmt.Fprintf(b, "%s\n", line)
		}
	}
}

func writeField(b *strings.Builder, snap battle.Snapshot) {
	var parts []string
	if snap.Weather != nil {
		parts = append(parts, "Weather: "+snap.Weather.Name)
	}
	for _, c := range snap.Field {
		parts = append(parts, c.Name)
	}
	if len(parts) > 0 {
		fmt.Fprintf(b, "\nField: %s\n", strings.Join(parts, "; "))
	}
	if line := describeConditions(snap.Ours.Conditions); line != "" {
		fmt.Fprintf(b, "Your side: %s\n", line)
	}
	if line := describeConditions(snap.Opponent.Conditions); line != "" {
		fmt.Fprintf(b, "Opponent's side: %s\n", line)
	}
}

func describeConditions(conds []battle.Condition) string {
	if len(conds) == 0 {
		return ""
	}
	parts := make([]string, 0, len(conds))
	for _, c := range conds {
		if c.Layers > 1 {
			parts = append(parts, fmt.Sprintf("%s (%d layers)", c.Name, c.Layers))
		} else {
			parts = append(parts, c.Name)
		}
	}
	sort.Strings(parts)
	return strings.Join(parts, ", ")
}

func describeMove(m resolver.MoveAction) string {
	desc := m.Name
	if m.Type != "" {
		if m.Damaging() {
			desc += fmt.Sprintf(" (%s, %d BP, PP %d/%d)", m.Type, m.BasePower, m.PP, m.MaxPP)
		} else {
			desc += fmt.Sprintf(" (%s, status, PP %d/%d)", m.Type, m.PP, m.MaxPP)
		}
	} else if m.MaxPP > 0 {
		desc += fmt.Sprintf(" (PP %d/%d)", m.PP, m.MaxPP)
	}
	if m.Damaging() {
		desc += ", " + effectivenessText(m.Effectiveness)
	}
	return desc
}

func describeSwitch(s resolver.SwitchAction) string {
	desc := fmt.Sprintf("switch to %s (%d%% HP", s.Species, hpPercent(s.HPFraction))
	if s.Status != "" {
		desc += ", " + s.Status
	}
	desc += ")"
	if s.Effectiveness != 1 {
		desc += ", best offense " + effectivenessText(s.Effectiveness)
	}
	return desc
}

func effectivenessText(e float64) string {
	if e == 0 {
		return "no effect on the target"
	}
	return strconv.FormatFloat(e, 'g', -1, 64) + "x effective"
}

func hpPercent(f float64) int {
	return int(f*100 + 0.5)
}

func describeStages(stages map[string]int) string {
	if len(stages) == 0 {
		return ""
	}
	parts := make([]string, 0, len(stages))
	for _, k := range sortedIntKeys(stages) {
		if v := stages[k]; v != 0 {
			parts = append(parts, fmt.Sprintf("%s %+d", k, v))
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return "boosts: " + strings.Join(parts, " ")
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedIntKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func tailLines(lines []string, n int) []string {
	if len(lines) <= n {
		return lines
	}
	return lines[len(lines)-n:]
}

// ParseChosenCommand extracts the command from a decision maker's
// reply. The last "CHOSEN MOVE:" line wins; a bare command reply is
// accepted as well. Returns "" when no command can be found.
func ParseChosenCommand(reply string) string {
	chosen := ""
	for _, line := range strings.Split(reply, "\n") {
		upper := strings.ToUpper(line)
		if idx := strings.Index(upper, ChosenPrefix); idx >= 0 {
			if cmd := normalizeCommand(line[idx+len(ChosenPrefix):]); cmd != "" {
				chosen = cmd
			}
		}
	}
	if chosen != "" {
		return chosen
	}
	if cmd := normalizeCommand(reply); strings.HasPrefix(cmd, "move ") || strings.HasPrefix(cmd, "switch ") {
		return cmd
	}
	return ""
}

func normalizeCommand(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "\"'`*.")
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
