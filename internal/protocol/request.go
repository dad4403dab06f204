package protocol

import "encoding/json"

// RequestPayload is the JSON body of a |request| message: the
// simulator's statement of what our side may legally do next.
type RequestPayload struct {
	Active      []ActiveOptions `json:"active"`
	Side        SideInfo        `json:"side"`
	ForceSwitch []bool          `json:"forceSwitch"`
	Wait        bool            `json:"wait"`
	NoCancel    bool            `json:"noCancel"`
	RQID        int             `json:"rqid"`
}

// NeedsSwitch reports whether any active slot must be replaced.
func (r *RequestPayload) NeedsSwitch() bool {
	for _, f := range r.ForceSwitch {
		if f {
			return true
		}
	}
	return false
}

// ActiveOptions lists the move choices for one active slot.
type ActiveOptions struct {
	Moves           []MoveOption `json:"moves"`
	CanTerastallize string       `json:"canTerastallize"`
	Trapped         bool         `json:"trapped"`
	MaybeTrapped    bool         `json:"maybeTrapped"`
}

// MoveOption is one selectable move with its remaining PP.
type MoveOption struct {
	Name     string `json:"move"`
	ID       string `json:"id"`
	PP       int    `json:"pp"`
	MaxPP    int    `json:"maxpp"`
	Target   string `json:"target"`
	Disabled bool   `json:"disabled"`
}

// SideInfo describes our full roster as the simulator sees it.
type SideInfo struct {
	Name    string        `json:"name"`
	ID      string        `json:"id"`
	Pokemon []SidePokemon `json:"pokemon"`
}

// SidePokemon is one roster entry. Condition uses the same encoding
// as protocol HP strings ("211/211", "0 fnt", "165/211 tox").
type SidePokemon struct {
	Ident         string         `json:"ident"`
	Details       string         `json:"details"`
	Condition     string         `json:"condition"`
	Active        bool           `json:"active"`
	Stats         map[string]int `json:"stats"`
	Moves         []string       `json:"moves"`
	BaseAbility   string         `json:"baseAbility"`
	Item          string         `json:"item"`
	Ability       string         `json:"ability"`
	TeraType      string         `json:"teraType"`
	Terastallized string         `json:"terastallized"`
}

// ParseRequest decodes a |request| JSON body. An empty body is the
// simulator's keep-alive and yields (nil, nil).
func ParseRequest(raw string) (*RequestPayload, error) {
	if raw == "" {
		return nil, nil
	}
	var payload RequestPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, &ParseError{Line: "|request|" + raw, Reason: err.Error()}
	}
	return &payload, nil
}
