package bridge

import (
	"context"
	"errors"
	"fmt"
)

// ScriptedDecider picks an action without any external call: the
// damaging move with the highest effectiveness-weighted base power,
// else the switch with the best offensive matchup, else the first
// listed option. It backs offline mode and tests, and stands in for
// the LLM whenever no decision maker is configured.
type ScriptedDecider struct{}

func (ScriptedDecider) Decide(_ context.Context, req DecisionRequest) (DecisionResponse, error) {
	set := req.Actions
	if set == nil {
		return DecisionResponse{}, errors.New("bridge: scripted decider needs structured actions")
	}

	bestScore := 0.0
	bestIdx := -1
	for i, m := range set.Moves {
		if !m.Damaging() {
			continue
		}
		score := m.Effectiveness * float64(m.BasePower)
		if score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}
	if bestIdx >= 0 {
		m := set.Moves[bestIdx]
		return DecisionResponse{
			Command:   m.Command(),
			Reasoning: fmt.Sprintf("%s is the strongest damaging option (%gx %d BP)", m.Name, m.Effectiveness, m.BasePower),
		}, nil
	}

	if len(set.Switches) > 0 {
		best := set.Switches[0]
		for _, s := range set.Switches[1:] {
			if s.Effectiveness > best.Effectiveness {
				best = s
			}
		}
		return DecisionResponse{
			Command:   best.Command(),
			Reasoning: fmt.Sprintf("no damaging moves; %s has the best matchup", best.Species),
		}, nil
	}

	return DecisionResponse{Command: set.Fallback(), Reasoning: "no ranked option"}, nil
}
