// Package bridge hands a pending choice to an external decision maker
// and guarantees the turn still resolves when that call misbehaves:
// invalid replies, errors and timeouts all collapse to the same
// deterministic fallback action.
package bridge

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/colinh09/ps-ai-battler/internal/battle"
	"github.com/colinh09/ps-ai-battler/internal/constants"
	"github.com/colinh09/ps-ai-battler/internal/logging"
	"github.com/colinh09/ps-ai-battler/internal/resolver"
)

// ErrDecisionTimeout means the external call did not answer within the
// configured window.
var ErrDecisionTimeout = errors.New("bridge: decision timed out")

// ErrInvalidChoice means the external call answered with a command that
// was not among the offered options.
var ErrInvalidChoice = errors.New("bridge: chosen command not offered")

// ErrDecisionPending means a decision for this bridge is already in
// flight. Only one outstanding decision per battle session is allowed.
var ErrDecisionPending = errors.New("bridge: decision already in flight")

// DecisionRequest is what the external decision maker receives: the
// battle rendered as text plus the commands it may pick from. Actions
// carries the structured options for rule-based deciders.
type DecisionRequest struct {
	BattleID string              `json:"battle_id"`
	Format   string              `json:"format"`
	Turn     int                 `json:"turn"`
	Prompt   string              `json:"prompt"`
	Commands []string            `json:"commands"`
	Actions  *resolver.ActionSet `json:"-"`
}

// DecisionResponse carries the chosen command and, when the decision
// maker offers one, its reasoning.
type DecisionResponse struct {
	Command   string `json:"command"`
	Reasoning string `json:"reasoning,omitempty"`
}

// Decider is the narrow contract every decision maker implements, so
// the LLM client and the scripted ranker are interchangeable.
type Decider interface {
	Decide(ctx context.Context, req DecisionRequest) (DecisionResponse, error)
}

// Diagnostics counts decision outcomes for one bridge. Fallback
// classes increment at most once per turn.
type Diagnostics struct {
	Decisions        int `json:"decisions"`
	Accepted         int `json:"accepted"`
	Forced           int `json:"forced"`
	InvalidFallbacks int `json:"invalid_fallbacks"`
	Timeouts         int `json:"timeouts"`
	DeciderErrors    int `json:"decider_errors"`
}

// Bridge owns the decision round trip for one battle session.
type Bridge struct {
	decider Decider
	timeout time.Duration

	mu               sync.Mutex
	inFlight         bool
	lastFallbackTurn int
	diag             Diagnostics
}

// DefaultTimeout bounds the external call when no timeout is
// configured.
const DefaultTimeout = 30 * time.Second

// New builds a bridge around a decider. A zero timeout selects
// DefaultTimeout.
func New(decider Decider, timeout time.Duration) *Bridge {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Bridge{decider: decider, timeout: timeout, lastFallbackTurn: -1}
}

// Diagnostics returns a copy of the bridge's counters.
func (b *Bridge) Diagnostics() Diagnostics {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.diag
}

type decideResult struct {
	resp DecisionResponse
	err  error
}

// Choose resolves the pending request to a protocol command. The
// decider's answer is validated against the offered set; on an invalid
// answer, an error or a timeout the deterministic fallback is used
// instead, so a non-empty set always yields a command.
func (b *Bridge) Choose(ctx context.Context, snap battle.Snapshot, set *resolver.ActionSet) (DecisionResponse, error) {
	if set == nil || (len(set.Moves) == 0 && len(set.Switches) == 0) {
		return DecisionResponse{}, resolver.ErrNoLegalAction
	}

	b.mu.Lock()
	if b.inFlight {
		b.mu.Unlock()
		return DecisionResponse{}, ErrDecisionPending
	}
	b.inFlight = true
	b.diag.Decisions++
	b.mu.Unlock()
	defer func() {
		b.mu.Lock()
		b.inFlight = false
		b.mu.Unlock()
	}()

	if set.Forced {
		b.mu.Lock()
		b.diag.Forced++
		b.mu.Unlock()
		return DecisionResponse{Command: set.Fallback(), Reasoning: "only legal action"}, nil
	}

	req := BuildRequest(snap, set)

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	ch := make(chan decideResult, 1)
	go func() {
		resp, err := b.decider.Decide(ctx, req)
		ch <- decideResult{resp: resp, err: err}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			if errors.Is(r.err, context.DeadlineExceeded) {
				return b.fallback(snap, set, ErrDecisionTimeout, "")
			}
			return b.fallback(snap, set, r.err, "")
		}
		cmd := strings.ToLower(strings.TrimSpace(r.resp.Command))
		if !set.IsLegal(cmd) {
			return b.fallback(snap, set, ErrInvalidChoice, r.resp.Command)
		}
		b.mu.Lock()
		b.diag.Accepted++
		b.mu.Unlock()
		return DecisionResponse{Command: cmd, Reasoning: r.resp.Reasoning}, nil
	case <-ctx.Done():
		return b.fallback(snap, set, ErrDecisionTimeout, "")
	}
}

// fallback substitutes the deterministic default and records the
// diagnostic, at most once for the current turn.
func (b *Bridge) fallback(snap battle.Snapshot, set *resolver.ActionSet, cause error, rejected string) (DecisionResponse, error) {
	cmd := set.Fallback()

	b.mu.Lock()
	first := b.lastFallbackTurn != snap.Turn
	if first {
		b.lastFallbackTurn = snap.Turn
		switch {
		case errors.Is(cause, ErrDecisionTimeout):
			b.diag.Timeouts++
		case errors.Is(cause, ErrInvalidChoice):
			b.diag.InvalidFallbacks++
		default:
			b.diag.DeciderErrors++
		}
	}
	b.mu.Unlock()

	if first {
		fields := logging.Fields{
			constants.LogFieldBattleID: snap.ID,
			constants.LogFieldTurn:     snap.Turn,
			"fallback":                 cmd,
		}
		if rejected != "" {
			fields["rejected"] = rejected
		}
		logging.Error("decision fallback", cause, fields)
	}
	return DecisionResponse{Command: cmd, Reasoning: "fallback: " + cause.Error()}, nil
}
