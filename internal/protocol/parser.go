package protocol

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ParseError describes a simulator line that could not be decoded.
// Parse errors are contained: callers log the line and move on.
type ParseError struct {
	Line   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse %q: %s", e.Line, e.Reason)
}

func parseErr(line, format string, args ...interface{}) error {
	return &ParseError{Line: line, Reason: fmt.Sprintf(format, args...)}
}

// SplitMessage splits a websocket frame into its room identifier and
// protocol lines. Battle frames open with ">battle-..." on its own
// line; lobby frames carry no header and report an empty room.
func SplitMessage(raw string) (roomID string, lines []string) {
	lines = strings.Split(strings.TrimRight(raw, "\n"), "\n")
	if len(lines) > 0 && strings.HasPrefix(lines[0], ">") {
		roomID = strings.TrimPrefix(lines[0], ">")
		lines = lines[1:]
	}
	return roomID, lines
}

// ParseLine decodes one protocol line into a typed event. Lines of
// unrecognized or untracked types yield (nil, nil); malformed lines of
// tracked types yield a *ParseError. Neither outcome is fatal.
func ParseLine(line string) (Event, error) {
	if line == "" || !strings.HasPrefix(line, "|") {
		return nil, nil
	}
	parts := strings.Split(line, "|")
	if len(parts) < 2 || parts[1] == "" {
		return nil, nil
	}

	arg := func(i int) string {
		if i < len(parts) {
			return parts[i]
		}
		return ""
	}
	subject := func() (Ident, error) {
		id := ParseIdent(arg(2))
		if id.IsZero() {
			return id, parseErr(line, "bad identifier %q", arg(2))
		}
		return id, nil
	}
	// Annotations like "[from] item: Leftovers" trail the positional
	// fields on many message types.
	tag := func(name string) string {
		prefix := "[" + name + "]"
		for _, p := range parts[2:] {
			if p == prefix {
				return name
			}
			if strings.HasPrefix(p, prefix+" ") {
				return strings.TrimPrefix(p, prefix+" ")
			}
		}
		return ""
	}

	switch parts[1] {
	case "init":
		if arg(2) != "battle" {
			return nil, nil
		}
		return BattleInit{}, nil

	case "player":
		if arg(2) == "" || arg(3) == "" {
			// Spectator count updates arrive as bare |player|pN|.
			return nil, nil
		}
		ev := PlayerIntro{Player: arg(2), Name: arg(3)}
		if r, err := strconv.Atoi(arg(5)); err == nil {
			ev.Rating = r
		}
		return ev, nil

	case "teamsize":
		n, err := strconv.Atoi(arg(3))
		if err != nil {
			return nil, parseErr(line, "bad team size %q", arg(3))
		}
		return TeamSize{Player: arg(2), Size: n}, nil

	case "poke":
		if arg(2) == "" || arg(3) == "" {
			return nil, parseErr(line, "missing player or details")
		}
		return TeamPreviewPokemon{
			Player:  arg(2),
			Details: ParseDetails(arg(3)),
			HasItem: arg(4) == "item",
		}, nil

	case "clearpoke":
		return ClearPoke{}, nil

	case "teampreview":
		return TeamPreview{}, nil

	case "start":
		return BattleStart{}, nil

	case "switch", "drag":
		id, err := subject()
		if err != nil {
			return nil, err
		}
		if arg(3) == "" {
			return nil, parseErr(line, "missing details")
		}
		return Switch{
			Ident:   id,
			Details: ParseDetails(arg(3)),
			HP:      ParseHPStatus(arg(4)),
			Dragged: parts[1] == "drag",
		}, nil

	case "detailschange", "-formechange", "replace":
		id, err := subject()
		if err != nil {
			return nil, err
		}
		return FormeChange{Ident: id, Details: ParseDetails(arg(3))}, nil

	case "move":
		id, err := subject()
		if err != nil {
			return nil, err
		}
		if arg(3) == "" {
			return nil, parseErr(line, "missing move name")
		}
		ev := Move{Ident: id, Move: arg(3), Missed: tag("miss") != ""}
		if t := ParseIdent(arg(4)); !t.IsZero() {
			ev.Target = t
		}
		return ev, nil

	case "-damage", "-heal":
		id, err := subject()
		if err != nil {
			return nil, err
		}
		hp := ParseHPStatus(arg(3))
		if parts[1] == "-heal" {
			return Heal{Ident: id, HP: hp, From: tag("from")}, nil
		}
		return Damage{Ident: id, HP: hp, From: tag("from")}, nil

	case "-sethp":
		id, err := subject()
		if err != nil {
			return nil, err
		}
		return SetHP{Ident: id, HP: ParseHPStatus(arg(3))}, nil

	case "-status":
		id, err := subject()
		if err != nil {
			return nil, err
		}
		if arg(3) == "" {
			return nil, parseErr(line, "missing status")
		}
		return Status{Ident: id, Status: arg(3)}, nil

	case "-curestatus":
		id := ParseIdent(arg(2))
		if id.IsZero() {
			return nil, parseErr(line, "bad identifier %q", arg(2))
		}
		return CureStatus{Ident: id, Status: arg(3)}, nil

	case "-boost", "-unboost", "-setboost":
		id, err := subject()
		if err != nil {
			return nil, err
		}
		n, err := strconv.Atoi(arg(4))
		if err != nil {
			return nil, parseErr(line, "bad stage amount %q", arg(4))
		}
		switch parts[1] {
		case "-boost":
			return Boost{Ident: id, Stat: arg(3), Amount: n}, nil
		case "-unboost":
			return Unboost{Ident: id, Stat: arg(3), Amount: n}, nil
		default:
			return SetBoost{Ident: id, Stat: arg(3), Amount: n}, nil
		}

	case "-clearboost", "-clearnegativeboost":
		id, err := subject()
		if err != nil {
			return nil, err
		}
		return ClearBoost{Ident: id}, nil

	case "-clearallboost":
		return ClearAllBoost{}, nil

	case "-weather":
		if arg(2) == "" {
			return nil, parseErr(line, "missing weather")
		}
		return Weather{Weather: arg(2), Upkeep: tag("upkeep") != ""}, nil

	case "-fieldstart":
		return FieldStart{Effect: arg(2)}, nil

	case "-fieldend":
		return FieldEnd{Effect: arg(2)}, nil

	case "-sidestart", "-sideend":
		side := ParseIdent(arg(2))
		if side.Player == "" {
			return nil, parseErr(line, "bad side %q", arg(2))
		}
		if parts[1] == "-sidestart" {
			return SideStart{Player: side.Player, Condition: arg(3)}, nil
		}
		return SideEnd{Player: side.Player, Condition: arg(3)}, nil

	case "-start", "-end":
		id, err := subject()
		if err != nil {
			return nil, err
		}
		if parts[1] == "-start" {
			return VolatileStart{Ident: id, Effect: arg(3)}, nil
		}
		return VolatileEnd{Ident: id, Effect: arg(3)}, nil

	case "-ability":
		id, err := subject()
		if err != nil {
			return nil, err
		}
		return AbilityReveal{Ident: id, Ability: arg(3)}, nil

	case "-item":
		id, err := subject()
		if err != nil {
			return nil, err
		}
		return ItemReveal{Ident: id, Item: arg(3), From: tag("from")}, nil

	case "-enditem":
		id, err := subject()
		if err != nil {
			return nil, err
		}
		return ItemEnd{Ident: id, Item: arg(3)}, nil

	case "-terastallize":
		id, err := subject()
		if err != nil {
			return nil, err
		}
		if arg(3) == "" {
			return nil, parseErr(line, "missing tera type")
		}
		return Terastallize{Ident: id, TeraType: arg(3)}, nil

	case "faint":
		id, err := subject()
		if err != nil {
			return nil, err
		}
		return Faint{Ident: id}, nil

	case "cant":
		id, err := subject()
		if err != nil {
			return nil, err
		}
		return Cant{Ident: id, Reason: arg(3), Move: arg(4)}, nil

	case "turn":
		n, err := strconv.Atoi(arg(2))
		if err != nil {
			return nil, parseErr(line, "bad turn number %q", arg(2))
		}
		return Turn{Number: n}, nil

	case "upkeep":
		return Upkeep{}, nil

	case "request":
		raw := strings.Join(parts[2:], "|")
		payload, err := ParseRequest(raw)
		if err != nil {
			return nil, err
		}
		return Request{Payload: payload, Raw: raw}, nil

	case "win":
		return Win{Name: arg(2)}, nil

	case "tie":
		return Tie{}, nil

	case "error":
		return ChoiceError{Message: strings.Join(parts[2:], "|")}, nil

	case "challstr":
		return ChallStr{Value: strings.Join(parts[2:], "|")}, nil

	case "updateuser":
		return UpdateUser{
			Username: strings.TrimSpace(arg(2)),
			Named:    arg(3) == "1",
			Avatar:   arg(4),
		}, nil

	case "pm":
		return PM{
			From:    strings.TrimSpace(arg(2)),
			To:      strings.TrimSpace(arg(3)),
			Message: strings.Join(parts[4:], "|"),
		}, nil

	case "updatechallenges":
		raw := strings.Join(parts[2:], "|")
		var body struct {
			From map[string]string `json:"challengesFrom"`
		}
		if err := json.Unmarshal([]byte(raw), &body); err != nil {
			return nil, parseErr(line, "bad challenges payload: %v", err)
		}
		return UpdateChallenges{From: body.From}, nil

	case "deinit":
		return Deinit{}, nil
	}

	// The simulator emits far more message types than state tracking
	// needs (chat, timestamps, animation hints). Skip them.
	return nil, nil
}

// EffectName strips the "move:", "ability:" and "item:" prefixes the
// simulator attaches to effect references.
func EffectName(s string) string {
	for _, prefix := range []string{"move: ", "ability: ", "item: "} {
		if strings.HasPrefix(s, prefix) {
			return strings.TrimPrefix(s, prefix)
		}
	}
	return s
}
