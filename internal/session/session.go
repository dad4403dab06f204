package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/colinh09/ps-ai-battler/internal/battle"
	"github.com/colinh09/ps-ai-battler/internal/bridge"
	"github.com/colinh09/ps-ai-battler/internal/constants"
	"github.com/colinh09/ps-ai-battler/internal/dex"
	"github.com/colinh09/ps-ai-battler/internal/logging"
	"github.com/colinh09/ps-ai-battler/internal/protocol"
	"github.com/colinh09/ps-ai-battler/internal/psid"
	"github.com/colinh09/ps-ai-battler/internal/resolver"
)

// ErrBattleEnded means an operation arrived after the battle reached
// a terminal phase.
var ErrBattleEnded = errors.New("session: battle already ended")

const noRQID = -1

// Session runs one battle: a single pump goroutine applies every
// protocol line to the battle state, while decisions execute in a
// separate goroutine so the pump keeps draining events during a slow
// external call. Late decisions for a superseded request are
// discarded by request id.
type Session struct {
	room string

	state *battle.State
	brdg  *bridge.Bridge
	repo  dex.Repository
	conn  Conn

	turnDeadline time.Duration

	lines  chan string
	cancel context.CancelFunc

	mu            sync.Mutex
	decidingRQID  int
	submittedRQID int
	finished      bool

	onEnd func(room string, sum battle.Summary)
}

func newSession(ctx context.Context, room string, opts Options, onEnd func(string, battle.Summary)) *Session {
	sctx, cancel := context.WithCancel(ctx)
	s := &Session{
		room:          room,
		state:         battle.New(room, formatFromRoom(room), opts.Conn.Username(), opts.LogLimit),
		brdg:          bridge.New(opts.Decider, opts.DecisionTimeout),
		repo:          opts.Dex,
		conn:          opts.Conn,
		turnDeadline:  opts.TurnDeadline,
		lines:         make(chan string, 512),
		cancel:        cancel,
		decidingRQID:  noRQID,
		submittedRQID: noRQID,
		onEnd:         onEnd,
	}
	go s.pump(sctx)
	return s
}

// Room returns the battle room identifier.
func (s *Session) Room() string { return s.room }

// Snapshot returns a copy of the battle state.
func (s *Session) Snapshot() battle.Snapshot { return s.state.Snapshot() }

// Diagnostics returns the decision counters for this battle.
func (s *Session) Diagnostics() bridge.Diagnostics { return s.brdg.Diagnostics() }

// Forfeit concedes the battle. The server's win message then closes
// the session with a forfeit outcome.
func (s *Session) Forfeit() error {
	if s.state.Ended() {
		return ErrBattleEnded
	}
	s.state.MarkForfeited()
	return s.conn.Forfeit(s.room)
}

// Abort ends the session without sending any command, marking the
// outcome aborted unless the battle already finished.
func (s *Session) Abort(reason string) {
	s.state.Abort(reason)
	s.finish()
}

// enqueue hands a protocol line to the pump without ever blocking the
// reader.
func (s *Session) enqueue(line string) {
	select {
	case s.lines <- line:
	default:
		logging.Warn("session inbox full, dropping line", logging.Fields{
			constants.LogFieldBattleID: s.room,
		})
	}
}

func (s *Session) pump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			s.Abort("shutdown")
			return
		case line := <-s.lines:
			s.handleLine(ctx, line)
			if s.state.Ended() {
				s.finish()
				return
			}
		}
	}
}

func (s *Session) handleLine(ctx context.Context, line string) {
	ev, err := protocol.ParseLine(line)
	if err != nil {
		logging.Warn("skipping unparsed line", logging.Fields{
			constants.LogFieldBattleID: s.room,
			constants.LogFieldTurn:     s.state.Turn(),
			constants.LogFieldReason:   err.Error(),
		})
		return
	}
	if ev == nil {
		return
	}

	s.state.Apply(ev)

	switch e := ev.(type) {
	case protocol.Request:
		s.maybeDecide(ctx)
	case protocol.ChoiceError:
		// The server rejected our choice and reopened the turn.
		s.mu.Lock()
		s.submittedRQID = noRQID
		s.mu.Unlock()
		s.maybeDecide(ctx)
	case protocol.Switch:
		s.noteReveal(e.Ident.Player, e.Details)
	case protocol.FormeChange:
		s.noteReveal(e.Ident.Player, e.Details)
	case protocol.Deinit:
		if !s.state.Ended() {
			s.state.Abort("room closed")
		}
	}
}

// noteReveal attaches random-set candidates to a newly revealed
// opponent Pokemon.
func (s *Session) noteReveal(player string, d protocol.Details) {
	if s.repo == nil {
		return
	}
	our := s.state.OurPlayer()
	if our == "" || player == our {
		return
	}
	key := psid.ToID(d.Species)
	ms, err := s.repo.MergedSetFor(key)
	if err != nil {
		return
	}
	s.state.SetOpponentCandidates(key, ms.Abilities, ms.Items, ms.Moves, ms.TeraTypes)
}

// maybeDecide starts a decision for the pending request unless one is
// already running or this request was answered.
func (s *Session) maybeDecide(ctx context.Context) {
	snap := s.state.Snapshot()
	if snap.Phase != battle.PhaseAwaitingAction || snap.Request == nil {
		return
	}
	rqid := snap.Request.RQID

	s.mu.Lock()
	if s.finished || s.decidingRQID != noRQID || s.submittedRQID == rqid {
		s.mu.Unlock()
		return
	}
	s.decidingRQID = rqid
	s.mu.Unlock()

	go s.decide(ctx, snap, rqid)
}

func (s *Session) decide(ctx context.Context, snap battle.Snapshot, rqid int) {
	defer func() {
		s.mu.Lock()
		if s.decidingRQID == rqid {
			s.decidingRQID = noRQID
		}
		s.mu.Unlock()
		// A newer request may have arrived while we were busy.
		s.maybeDecide(ctx)
	}()

	set, err := resolver.Resolve(snap, s.repo)
	switch {
	case errors.Is(err, resolver.ErrNoPendingRequest):
		return
	case errors.Is(err, resolver.ErrNoLegalAction):
		logging.Error("no legal action, ending session", err, logging.Fields{
			constants.LogFieldBattleID: s.room,
			constants.LogFieldTurn:     snap.Turn,
		})
		s.state.Abort("no legal action")
		s.finish()
		return
	case err != nil:
		logging.Error("action resolution failed", err, logging.Fields{
			constants.LogFieldBattleID: s.room,
			constants.LogFieldTurn:     snap.Turn,
		})
		return
	}

	type chooseResult struct {
		resp bridge.DecisionResponse
		err  error
	}
	ch := make(chan chooseResult, 1)
	go func() {
		resp, err := s.brdg.Choose(ctx, snap, set)
		ch <- chooseResult{resp: resp, err: err}
	}()

	deadline := time.NewTimer(s.turnDeadline)
	defer deadline.Stop()

	select {
	case r := <-ch:
		if r.err != nil {
			if errors.Is(r.err, bridge.ErrDecisionPending) {
				// The previous decision is still draining its
				// timeout, retry shortly.
				time.AfterFunc(time.Second, func() { s.maybeDecide(ctx) })
				return
			}
			logging.Error("decision failed", r.err, logging.Fields{
				constants.LogFieldBattleID: s.room,
				constants.LogFieldTurn:     snap.Turn,
			})
			s.submit(snap, rqid, set.Fallback())
			return
		}
		s.submit(snap, rqid, r.resp.Command)
	case <-deadline.C:
		logging.Warn("turn deadline reached, submitting fallback", logging.Fields{
			constants.LogFieldBattleID: s.room,
			constants.LogFieldTurn:     snap.Turn,
		})
		s.submit(snap, rqid, set.Fallback())
	case <-ctx.Done():
	}
}

// submit sends the choice unless the request was superseded or
// already answered.
func (s *Session) submit(snap battle.Snapshot, rqid int, cmd string) {
	if cmd == "" {
		return
	}

	s.mu.Lock()
	if s.finished || s.submittedRQID == rqid {
		s.mu.Unlock()
		return
	}
	cur := s.state.CurrentRequest()
	if cur == nil || cur.RQID != rqid || s.state.Phase() != battle.PhaseAwaitingAction {
		s.mu.Unlock()
		logging.Info("discarding stale decision", logging.Fields{
			constants.LogFieldBattleID: s.room,
			"rqid":                     rqid,
		})
		return
	}
	s.submittedRQID = rqid
	s.mu.Unlock()

	if err := s.conn.Choose(s.room, cmd, rqid); err != nil {
		logging.Error("failed to send choice", err, logging.Fields{
			constants.LogFieldBattleID: s.room,
			constants.LogFieldCommand:  cmd,
		})
		s.state.Abort("transport failure")
		s.finish()
		return
	}
	s.state.MarkActionSubmitted()
	logging.Info("action submitted", logging.Fields{
		constants.LogFieldBattleID: s.room,
		constants.LogFieldTurn:     snap.Turn,
		constants.LogFieldCommand:  cmd,
		"rqid":                     rqid,
	})
}

// finish emits the end-of-battle summary exactly once and releases
// the pump.
func (s *Session) finish() {
	s.mu.Lock()
	if s.finished {
		s.mu.Unlock()
		return
	}
	s.finished = true
	s.mu.Unlock()

	sum := s.state.Summary()
	logging.Info("battle ended", logging.Fields{
		constants.LogFieldBattleID: s.room,
		"result":                   sum.Result,
		"turns":                    sum.Turns,
	})

	// An aborted session sends nothing, its connection may be gone.
	if sum.Result != battle.OutcomeAborted {
		if err := s.conn.LeaveRoom(s.room); err != nil {
			logging.Warn("failed to leave room", logging.Fields{
				constants.LogFieldBattleID: s.room,
			})
		}
	}

	if s.onEnd != nil {
		s.onEnd(s.room, sum)
	}
	s.cancel()
}

func formatFromRoom(room string) string {
	parts := strings.Split(room, "-")
	if len(parts) >= 2 {
		return parts[1]
	}
	return room
}
