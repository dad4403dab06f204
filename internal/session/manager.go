// Package session drives battles end to end. A single Manager owns
// the simulator connection: it answers the login challenge, routes
// incoming frames to per-battle sessions, issues and accepts
// challenges, and exposes the running battles to the control API.
package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
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
)

var (
	// ErrConnectionLost means the simulator stream ended.
	ErrConnectionLost = errors.New("session: simulator connection lost")
	// ErrNotLoggedIn means the operation needs an authenticated session.
	ErrNotLoggedIn = errors.New("session: not logged in")
	// ErrBattleNotFound means no running battle has the given id.
	ErrBattleNotFound = errors.New("session: battle not found")
)

// DefaultTurnDeadline bounds how long a single turn may wait on a
// decision before the fallback action is sent.
const DefaultTurnDeadline = 2 * time.Minute

// Finished battles kept for the summaries endpoint.
const maxSummaries = 50

// Manager lifecycle states reported by Status.
const (
	StateStopped    = "stopped"
	StateConnecting = "connecting"
	StateIdle       = "idle"
	StateInBattle   = "in_battle"
)

// Conn is the simulator transport the manager drives.
// *showdown.Client satisfies it.
type Conn interface {
	ReadMessage() (string, error)
	Login(ctx context.Context, challstr string) error
	Challenge(user, format string) error
	AcceptChallenge(user string) error
	Choose(room, choice string, rqid int) error
	Forfeit(room string) error
	StartTimer(room string) error
	LeaveRoom(room string) error
	Username() string
	Close() error
}

// Options configures a Manager.
type Options struct {
	Conn    Conn
	Decider bridge.Decider
	Dex     dex.Repository

	// DecisionTimeout bounds one decider call, TurnDeadline bounds the
	// whole turn including resolution and retries.
	DecisionTimeout time.Duration
	TurnDeadline    time.Duration

	// LogLimit caps the per-battle event log kept for prompts.
	LogLimit int

	// OpponentUsername, when set, is challenged once after login and,
	// with AutoRechallenge, again after every finished battle.
	OpponentUsername string
	ChallengeFormat  string
	AutoRechallenge  bool

	// AutoAcceptChallenges accepts incoming challenges that match
	// ChallengeFormat.
	AutoAcceptChallenges bool

	// OnSummary runs after each battle ends, outside the manager lock.
	OnSummary func(battle.Summary)
}

// Status reports the manager's current lifecycle.
type Status struct {
	Username        string `json:"username"`
	State           string `json:"state"`
	LoggedIn        bool   `json:"logged_in"`
	Format          string `json:"format"`
	Opponent        string `json:"opponent,omitempty"`
	ActiveBattles   int    `json:"active_battles"`
	FinishedBattles int    `json:"finished_battles"`
}

// Manager multiplexes one simulator connection across battle sessions.
type Manager struct {
	opts Options

	mu         sync.Mutex
	sessions   map[string]*Session
	summaries  []battle.Summary
	loggedIn   bool
	challenged bool
	running    bool
}

// NewManager validates opts and fills defaults. The connection must
// already be established; Run only reads from it.
func NewManager(opts Options) (*Manager, error) {
	if opts.Conn == nil {
		return nil, errors.New("session: conn is required")
	}
	if opts.Decider == nil {
		opts.Decider = bridge.ScriptedDecider{}
	}
	if opts.DecisionTimeout <= 0 {
		opts.DecisionTimeout = bridge.DefaultTimeout
	}
	if opts.TurnDeadline <= 0 {
		opts.TurnDeadline = DefaultTurnDeadline
	}
	if opts.ChallengeFormat == "" {
		opts.ChallengeFormat = constants.DefaultFormat
	}
	return &Manager{
		opts:     opts,
		sessions: make(map[string]*Session),
	}, nil
}

// Run reads the simulator stream until the context is canceled or the
// connection drops. All sessions still open when it returns are
// aborted.
func (m *Manager) Run(ctx context.Context) error {
	m.mu.Lock()
	m.running = true
	m.mu.Unlock()

	// Closing the connection is the only way to unblock a read.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			m.opts.Conn.Close()
		case <-done:
		}
	}()

	defer func() {
		m.mu.Lock()
		m.running = false
		m.mu.Unlock()
		m.abortAll("connection closed")
	}()

	for {
		msg, err := m.opts.Conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logging.Error("simulator stream closed", err, nil)
			return fmt.Errorf("%w: %v", ErrConnectionLost, err)
		}
		m.dispatch(ctx, msg)
	}
}

func (m *Manager) dispatch(ctx context.Context, raw string) {
	room, lines := protocol.SplitMessage(raw)
	if !strings.HasPrefix(room, "battle-") {
		for _, line := range lines {
			m.handleLobbyLine(ctx, line)
		}
		return
	}

	sess := m.sessionFor(ctx, room, lines)
	if sess == nil {
		return
	}
	for _, line := range lines {
		sess.enqueue(line)
	}
}

// sessionFor returns the session for room, creating one when the frame
// opens a new battle. Frames for rooms we never saw initialized are
// dropped.
func (m *Manager) sessionFor(ctx context.Context, room string, lines []string) *Session {
	m.mu.Lock()
	if s, ok := m.sessions[room]; ok {
		m.mu.Unlock()
		return s
	}
	if !hasInit(lines) {
		m.mu.Unlock()
		logging.Warn("frame for unknown battle", logging.Fields{
			constants.LogFieldRoom: room,
		})
		return nil
	}
	s := newSession(ctx, room, m.opts, m.removeSession)
	m.sessions[room] = s
	m.mu.Unlock()

	logging.Info("battle session opened", logging.Fields{
		constants.LogFieldBattleID: room,
	})
	// The battle timer keeps a stalled opponent from hanging us.
	if err := m.opts.Conn.StartTimer(room); err != nil {
		logging.Warn("failed to start battle timer", logging.Fields{
			constants.LogFieldBattleID: room,
		})
	}
	return s
}

func hasInit(lines []string) bool {
	for _, line := range lines {
		if strings.HasPrefix(line, "|init|") {
			return true
		}
	}
	return false
}

func (m *Manager) handleLobbyLine(ctx context.Context, line string) {
	ev, err := protocol.ParseLine(line)
	if err != nil || ev == nil {
		return
	}

	switch e := ev.(type) {
	case protocol.ChallStr:
		go m.login(ctx, e.Value)
	case protocol.UpdateUser:
		if !e.Named || !psid.Equal(e.Username, m.opts.Conn.Username()) {
			return
		}
		m.mu.Lock()
		first := !m.loggedIn
		m.loggedIn = true
		m.mu.Unlock()
		if first {
			logging.Info("simulator session ready", logging.Fields{
				constants.LogFieldUser: e.Username,
			})
			m.maybeChallenge()
		}
	case protocol.UpdateChallenges:
		m.acceptChallenges(e.From)
	case protocol.PM:
		logging.Info("private message", logging.Fields{
			constants.LogFieldUser: e.From,
			"message":              e.Message,
		})
	}
}

// login answers the challenge token. Failures are not fatal: the
// server issues a fresh challstr on reconnect.
func (m *Manager) login(ctx context.Context, challstr string) {
	if err := m.opts.Conn.Login(ctx, challstr); err != nil {
		logging.Error("login failed", err, logging.Fields{
			constants.LogFieldUser: m.opts.Conn.Username(),
		})
	}
}

// maybeChallenge issues the configured opening challenge once.
func (m *Manager) maybeChallenge() {
	m.mu.Lock()
	if m.challenged || m.opts.OpponentUsername == "" {
		m.mu.Unlock()
		return
	}
	m.challenged = true
	m.mu.Unlock()
	m.challengeOpponent()
}

func (m *Manager) challengeOpponent() {
	user := m.opts.OpponentUsername
	if user == "" {
		return
	}
	if err := m.opts.Conn.Challenge(user, m.opts.ChallengeFormat); err != nil {
		logging.Error("challenge failed", err, logging.Fields{
			constants.LogFieldUser:   user,
			constants.LogFieldFormat: m.opts.ChallengeFormat,
		})
		return
	}
	logging.Info("challenge sent", logging.Fields{
		constants.LogFieldUser:   user,
		constants.LogFieldFormat: m.opts.ChallengeFormat,
	})
}

func (m *Manager) acceptChallenges(from map[string]string) {
	if !m.opts.AutoAcceptChallenges {
		return
	}
	want := psid.ToID(m.opts.ChallengeFormat)
	for user, format := range from {
		if psid.ToID(format) != want {
			logging.Info("ignoring challenge in other format", logging.Fields{
				constants.LogFieldUser:   user,
				constants.LogFieldFormat: format,
			})
			continue
		}
		if err := m.opts.Conn.AcceptChallenge(user); err != nil {
			logging.Error("failed to accept challenge", err, logging.Fields{
				constants.LogFieldUser: user,
			})
		}
	}
}

// removeSession is each session's onEnd hook.
func (m *Manager) removeSession(room string, sum battle.Summary) {
	m.mu.Lock()
	delete(m.sessions, room)
	m.summaries = append(m.summaries, sum)
	if len(m.summaries) > maxSummaries {
		m.summaries = m.summaries[len(m.summaries)-maxSummaries:]
	}
	rechallenge := m.opts.AutoRechallenge && m.loggedIn &&
		m.opts.OpponentUsername != "" && sum.Result != battle.OutcomeAborted
	m.mu.Unlock()

	if m.opts.OnSummary != nil {
		m.opts.OnSummary(sum)
	}
	if rechallenge {
		m.challengeOpponent()
	}
}

// abortAll closes every open session without sending commands.
func (m *Manager) abortAll(reason string) {
	m.mu.Lock()
	open := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		open = append(open, s)
	}
	m.mu.Unlock()

	for _, s := range open {
		s.Abort(reason)
	}
}

// Status reports the manager lifecycle for the control API.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := Status{
		Username:        m.opts.Conn.Username(),
		LoggedIn:        m.loggedIn,
		Format:          m.opts.ChallengeFormat,
		Opponent:        m.opts.OpponentUsername,
		ActiveBattles:   len(m.sessions),
		FinishedBattles: len(m.summaries),
	}
	switch {
	case !m.running:
		st.State = StateStopped
	case !m.loggedIn:
		st.State = StateConnecting
	case len(m.sessions) > 0:
		st.State = StateInBattle
	default:
		st.State = StateIdle
	}
	return st
}

// Battles lists snapshots of every running battle, ordered by id.
func (m *Manager) Battles() []battle.Snapshot {
	m.mu.Lock()
	open := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		open = append(open, s)
	}
	m.mu.Unlock()

	sort.Slice(open, func(i, j int) bool { return open[i].room < open[j].room })
	snaps := make([]battle.Snapshot, 0, len(open))
	for _, s := range open {
		snaps = append(snaps, s.Snapshot())
	}
	return snaps
}

// Battle returns the snapshot of one running battle.
func (m *Manager) Battle(id string) (battle.Snapshot, error) {
	s, err := m.session(id)
	if err != nil {
		return battle.Snapshot{}, err
	}
	return s.Snapshot(), nil
}

// BattleDiagnostics returns the decision counters of one running
// battle.
func (m *Manager) BattleDiagnostics(id string) (bridge.Diagnostics, error) {
	s, err := m.session(id)
	if err != nil {
		return bridge.Diagnostics{}, err
	}
	return s.Diagnostics(), nil
}

// Forfeit concedes one running battle.
func (m *Manager) Forfeit(id string) error {
	s, err := m.session(id)
	if err != nil {
		return err
	}
	return s.Forfeit()
}

// Summaries returns the recorded outcomes, oldest first.
func (m *Manager) Summaries() []battle.Summary {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]battle.Summary, len(m.summaries))
	copy(out, m.summaries)
	return out
}

// Challenge sends a manual challenge. An empty format uses the
// configured one.
func (m *Manager) Challenge(user, format string) error {
	if user == "" {
		return errors.New("session: username is required")
	}
	m.mu.Lock()
	ok := m.loggedIn
	m.mu.Unlock()
	if !ok {
		return ErrNotLoggedIn
	}
	if format == "" {
		format = m.opts.ChallengeFormat
	}
	return m.opts.Conn.Challenge(user, format)
}

func (m *Manager) session(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		return s, nil
	}
	return nil, ErrBattleNotFound
}
