// Package protocol decodes the simulator's pipe-delimited message
// protocol into typed events. Parsing is side-effect free: every line
// yields at most one event, and state tracking happens elsewhere.
package protocol

// Event is implemented by every decoded simulator message.
type Event interface {
	event()
}

// BattleInit announces a new battle room. The room identifier comes
// from the frame header, not the line itself.
type BattleInit struct{}

// PlayerIntro assigns a username to a player slot.
type PlayerIntro struct {
	Player string
	Name   string
	Rating int
}

// TeamSize declares the roster size for one side.
type TeamSize struct {
	Player string
	Size   int
}

// TeamPreviewPokemon reveals one team member during preview.
type TeamPreviewPokemon struct {
	Player  string
	Details Details
	HasItem bool
}

// ClearPoke opens team preview.
type ClearPoke struct{}

// TeamPreview closes team preview listing.
type TeamPreview struct{}

// BattleStart marks the end of preview and the first turn setup.
type BattleStart struct{}

// Switch brings a Pokemon into an active slot. Dragged is set for
// forced switches (|drag|), which behave identically for tracking.
type Switch struct {
	Ident   Ident
	Details Details
	HP      HPStatus
	Dragged bool
}

// Move reports a used move.
type Move struct {
	Ident  Ident
	Move   string
	Target Ident
	Missed bool
}

// Damage reports an HP drop with the remaining HP.
type Damage struct {
	Ident Ident
	HP    HPStatus
	From  string
}

// Heal reports an HP gain with the resulting HP.
type Heal struct {
	Ident Ident
	HP    HPStatus
	From  string
}

// SetHP pins HP to an exact value (Pain Split and similar).
type SetHP struct {
	Ident Ident
	HP    HPStatus
}

// Status inflicts a major status condition.
type Status struct {
	Ident  Ident
	Status string
}

// CureStatus removes a major status condition.
type CureStatus struct {
	Ident  Ident
	Status string
}

// Boost raises a stat stage by Amount.
type Boost struct {
	Ident  Ident
	Stat   string
	Amount int
}

// Unboost lowers a stat stage by Amount.
type Unboost struct {
	Ident  Ident
	Stat   string
	Amount int
}

// SetBoost pins a stat stage to an absolute value.
type SetBoost struct {
	Ident  Ident
	Stat   string
	Amount int
}

// ClearBoost resets every stage of one Pokemon.
type ClearBoost struct {
	Ident Ident
}

// ClearAllBoost resets every stage on both sides (Haze).
type ClearAllBoost struct{}

// Weather sets or clears ("none") the active weather.
type Weather struct {
	Weather string
	Upkeep  bool
}

// FieldStart begins a whole-field effect such as a terrain.
type FieldStart struct {
	Effect string
}

// FieldEnd removes a whole-field effect.
type FieldEnd struct {
	Effect string
}

// SideStart begins a one-side condition such as an entry hazard.
type SideStart struct {
	Player    string
	Condition string
}

// SideEnd removes a one-side condition.
type SideEnd struct {
	Player    string
	Condition string
}

// VolatileStart begins a volatile condition on one Pokemon.
type VolatileStart struct {
	Ident  Ident
	Effect string
}

// VolatileEnd removes a volatile condition.
type VolatileEnd struct {
	Ident  Ident
	Effect string
}

// AbilityReveal discloses an ability.
type AbilityReveal struct {
	Ident   Ident
	Ability string
}

// ItemReveal discloses a held item.
type ItemReveal struct {
	Ident Ident
	Item  string
	From  string
}

// ItemEnd reports a consumed or removed item.
type ItemEnd struct {
	Ident Ident
	Item  string
}

// Terastallize reports a Pokemon changing into its tera type.
type Terastallize struct {
	Ident    Ident
	TeraType string
}

// FormeChange updates a Pokemon's species in place (detailschange,
// forme changes, illusion reveals).
type FormeChange struct {
	Ident   Ident
	Details Details
}

// Faint removes a Pokemon from play.
type Faint struct {
	Ident Ident
}

// Cant reports a prevented action (sleep, paralysis, taunt, ...).
type Cant struct {
	Ident  Ident
	Reason string
	Move   string
}

// Turn advances the turn counter.
type Turn struct {
	Number int
}

// Upkeep separates end-of-turn residual effects.
type Upkeep struct{}

// Request carries the simulator's choice request for our side.
// Payload is nil for the empty keep-alive request.
type Request struct {
	Payload *RequestPayload
	Raw     string
}

// Win ends the battle with a victor.
type Win struct {
	Name string
}

// Tie ends the battle without a victor.
type Tie struct{}

// ChoiceError reports a rejected choice command.
type ChoiceError struct {
	Message string
}

// ChallStr carries the login challenge token.
type ChallStr struct {
	Value string
}

// UpdateUser confirms the connection's current username.
type UpdateUser struct {
	Username string
	Named    bool
	Avatar   string
}

// PM is a direct message between users.
type PM struct {
	From    string
	To      string
	Message string
}

// UpdateChallenges lists pending challenges from other users, keyed
// by username with the offered format as value.
type UpdateChallenges struct {
	From map[string]string
}

// Deinit means the server closed the room this frame came from.
type Deinit struct{}

func (BattleInit) event()         {}
func (PlayerIntro) event()        {}
func (TeamSize) event()           {}
func (TeamPreviewPokemon) event() {}
func (ClearPoke) event()          {}
func (TeamPreview) event()        {}
func (BattleStart) event()        {}
func (Switch) event()             {}
func (Move) event()               {}
func (Damage) event()             {}
func (Heal) event()               {}
func (SetHP) event()              {}
func (Status) event()             {}
func (CureStatus) event()         {}
func (Boost) event()              {}
func (Unboost) event()            {}
func (SetBoost) event()           {}
func (ClearBoost) event()         {}
func (ClearAllBoost) event()      {}
func (Weather) event()            {}
func (FieldStart) event()         {}
func (FieldEnd) event()           {}
func (SideStart) event()          {}
func (SideEnd) event()            {}
func (VolatileStart) event()      {}
func (VolatileEnd) event()        {}
func (AbilityReveal) event()      {}
func (ItemReveal) event()         {}
func (ItemEnd) event()            {}
func (Terastallize) event()       {}
func (FormeChange) event()        {}
func (Faint) event()              {}
func (Cant) event()               {}
func (Turn) event()               {}
func (Upkeep) event()             {}
func (Request) event()            {}
func (Win) event()                {}
func (Tie) event()                {}
func (ChoiceError) event()        {}
func (ChallStr) event()           {}
func (UpdateUser) event()         {}
func (PM) event()                 {}
func (UpdateChallenges) event()   {}
func (Deinit) event()             {}
