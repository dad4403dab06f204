// Package showdown is the transport to a Pokemon Showdown simulator:
// one websocket connection for the protocol stream plus the HTTPS
// login handshake against the action endpoint.
package showdown

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/colinh09/ps-ai-battler/internal/constants"
	"github.com/colinh09/ps-ai-battler/internal/logging"
)

// ErrNotConnected means an operation needs the websocket but Connect
// has not succeeded, or the connection was closed.
var ErrNotConnected = errors.New("showdown: not connected")

// Options configure a simulator client. Zero values fall back to the
// official server endpoints.
type Options struct {
	WebSocketURL string
	ActionURL    string
	Username     string
	Password     string
	Avatar       string
	HTTPTimeout  time.Duration
}

// Client owns the simulator connection. Reads must come from a single
// goroutine; writes are serialized internally.
type Client struct {
	opts Options
	http *http.Client

	mu   sync.Mutex
	conn *websocket.Conn
}

// New builds a client. Connect must be called before any traffic.
func New(opts Options) *Client {
	if opts.WebSocketURL == "" {
		opts.WebSocketURL = constants.ShowdownWebSocketURL
	}
	if opts.ActionURL == "" {
		opts.ActionURL = constants.ShowdownActionURL
	}
	if opts.Avatar == "" {
		opts.Avatar = constants.DefaultAvatar
	}
	if opts.HTTPTimeout <= 0 {
		opts.HTTPTimeout = 30 * time.Second
	}
	return &Client{
		opts: opts,
		http: &http.Client{Timeout: opts.HTTPTimeout},
	}
}

// Username returns the configured account name.
func (c *Client) Username() string {
	return c.opts.Username
}

// Connect dials the simulator websocket.
func (c *Client) Connect(ctx context.Context) error {
	u, err := url.Parse(c.opts.WebSocketURL)
	if err != nil {
		return fmt.Errorf("invalid websocket url: %w", err)
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to connect to simulator: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	logging.Info("connected to simulator", logging.Fields{constants.LogFieldAddr: u.String()})
	return nil
}

// ReadMessage blocks for the next raw frame. One frame can carry many
// protocol lines; splitting is the caller's concern.
func (c *Client) ReadMessage() (string, error) {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return "", ErrNotConnected
	}

	_, data, err := conn.ReadMessage()
	if err != nil {
		return "", fmt.Errorf("simulator read failed: %w", err)
	}
	return string(data), nil
}

// Send writes one raw message, "ROOMID|TEXT" with an empty room id
// for global commands.
func (c *Client) Send(message string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return ErrNotConnected
	}
	return c.conn.WriteMessage(websocket.TextMessage, []byte(message))
}

// Close tears down the websocket. Safe to call more than once.
func (c *Client) Close() error {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()
	if conn == nil {
		return nil
	}
	return conn.Close()
}

// Login answers a challstr: it posts the credentials to the action
// endpoint, then claims the name with the returned assertion and sets
// the avatar.
func (c *Client) Login(ctx context.Context, challstr string) error {
	form := url.Values{
		"act":      {"login"},
		"name":     {c.opts.Username},
		"pass":     {c.opts.Password},
		"challstr": {challstr},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.ActionURL, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set(constants.HeaderContentType, constants.ContentTypeForm)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("login request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("login request failed: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read login response: %w", err)
	}

	// The action endpoint prefixes its JSON with "]".
	text := strings.TrimSpace(string(body))
	text = strings.TrimPrefix(text, "]")

	var out struct {
		ActionSuccess bool   `json:"actionsuccess"`
		Assertion     string `json:"assertion"`
	}
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return fmt.Errorf("failed to decode login response: %w", err)
	}
	if !out.ActionSuccess || out.Assertion == "" || strings.HasPrefix(out.Assertion, ";;") {
		return fmt.Errorf("login rejected: %s", strings.TrimPrefix(out.Assertion, ";;"))
	}

	if err := c.Send(fmt.Sprintf(constants.CmdTrainerFmt, c.opts.Username, out.Assertion)); err != nil {
		return err
	}
	if c.opts.Avatar != "" {
		if err := c.Send(fmt.Sprintf(constants.CmdAvatarFmt, c.opts.Avatar)); err != nil {
			return err
		}
	}

	logging.Info("logged in", logging.Fields{constants.LogFieldUser: c.opts.Username})
	return nil
}

// JoinRoom enters a room, typically a battle room we were pulled
// into.
func (c *Client) JoinRoom(room string) error {
	return c.Send(fmt.Sprintf(constants.CmdJoinFmt, room))
}

// Challenge offers a battle to a user. An empty format selects the
// default.
func (c *Client) Challenge(user, format string) error {
	if format == "" {
		format = constants.DefaultFormat
	}
	logging.Info("sending challenge", logging.Fields{
		constants.LogFieldUser:   user,
		constants.LogFieldFormat: format,
	})
	return c.Send(fmt.Sprintf(constants.CmdChallengeFmt, user, format))
}

// AcceptChallenge accepts a pending challenge from a user.
func (c *Client) AcceptChallenge(user string) error {
	return c.Send(fmt.Sprintf(constants.CmdAcceptFmt, user))
}

// Choose submits a choice command for a battle room, bound to the
// request id it answers. The short "tera" suffix is expanded to the
// keyword the simulator expects.
func (c *Client) Choose(room, choice string, rqid int) error {
	if strings.HasSuffix(choice, " tera") {
		choice = strings.TrimSuffix(choice, " tera") + " terastallize"
	}
	return c.Send(fmt.Sprintf(constants.CmdChooseFmt, room, choice, rqid))
}

// Forfeit concedes a battle.
func (c *Client) Forfeit(room string) error {
	return c.Send(fmt.Sprintf(constants.CmdForfeitFmt, room))
}

// StartTimer turns the battle timer on so stalled opponents cannot
// hold a battle open forever.
func (c *Client) StartTimer(room string) error {
	return c.Send(fmt.Sprintf(constants.CmdTimerFmt, room))
}

// LeaveRoom exits a room once a battle is over.
func (c *Client) LeaveRoom(room string) error {
	return c.Send(fmt.Sprintf(constants.CmdLeaveFmt, room))
}
