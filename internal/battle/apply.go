package battle

import (
	"time"

	"github.com/colinh09/ps-ai-battler/internal/protocol"
	"github.com/colinh09/ps-ai-battler/internal/psid"
	"github.com/colinh09/ps-ai-battler/internal/typechart"
)

var hazardLayers = map[string]bool{
	"Spikes":       true,
	"Toxic Spikes": true,
}

// Apply folds one decoded event into the state. It is the only
// mutation path for battle progress and must be called from a single
// goroutine per battle. Unknown or irrelevant events are ignored.
func (s *State) Apply(ev protocol.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch e := ev.(type) {
	case protocol.PlayerIntro:
		s.applyPlayer(e)
	case protocol.TeamSize:
		if side := s.sideFor(e.Player); side != nil {
			side.TeamSize = e.Size
		}
	case protocol.TeamPreviewPokemon:
		s.ensureRosterEntry(e.Player, e.Details)
	case protocol.Switch:
		s.applySwitch(e)
	case protocol.FormeChange:
		s.applyFormeChange(e)
	case protocol.Move:
		s.applyMove(e)
	case protocol.Damage:
		s.applyHPChange(e.Ident, e.HP, false)
	case protocol.Heal:
		s.applyHPChange(e.Ident, e.HP, true)
	case protocol.SetHP:
		if p := s.pokemonFor(e.Ident); p != nil {
			p.HPFraction = clampFraction(e.HP.Fraction)
		}
	case protocol.Status:
		s.applyStatus(e)
	case protocol.CureStatus:
		s.applyCureStatus(e)
	case protocol.Boost:
		s.applyStageDelta(e.Ident, e.Stat, e.Amount)
	case protocol.Unboost:
		s.applyStageDelta(e.Ident, e.Stat, -e.Amount)
	case protocol.SetBoost:
		if p := s.pokemonFor(e.Ident); p != nil {
			ensureStages(p)[e.Stat] = typechart.ClampStage(e.Amount)
		}
	case protocol.ClearBoost:
		if p := s.pokemonFor(e.Ident); p != nil {
			p.Stages = nil
		}
	case protocol.ClearAllBoost:
		for _, side := range s.sides {
			if p := side.Active(); p != nil {
				p.Stages = nil
			}
		}
	case protocol.Weather:
		s.applyWeather(e)
	case protocol.FieldStart:
		name := protocol.EffectName(e.Effect)
		s.field[name] = &Condition{Name: name, StartedTurn: s.turn}
		s.log.FieldChanged(name, true)
	case protocol.FieldEnd:
		name := protocol.EffectName(e.Effect)
		delete(s.field, name)
		s.log.FieldChanged(name, false)
	case protocol.SideStart:
		s.applySideStart(e)
	case protocol.SideEnd:
		s.applySideEnd(e)
	case protocol.VolatileStart:
		if p := s.pokemonFor(e.Ident); p != nil {
			if p.Volatiles == nil {
				p.Volatiles = map[string]bool{}
			}
			p.Volatiles[protocol.EffectName(e.Effect)] = true
		}
	case protocol.VolatileEnd:
		if p := s.pokemonFor(e.Ident); p != nil {
			delete(p.Volatiles, protocol.EffectName(e.Effect))
		}
	case protocol.AbilityReveal:
		if p := s.pokemonFor(e.Ident); p != nil {
			p.Ability = e.Ability
			p.AbilityCandidates = nil
		}
	case protocol.ItemReveal:
		if p := s.pokemonFor(e.Ident); p != nil {
			p.Item = e.Item
			p.ItemCandidates = nil
		}
	case protocol.ItemEnd:
		if p := s.pokemonFor(e.Ident); p != nil {
			p.Item = ""
			p.ItemCandidates = []string{}
		}
	case protocol.Terastallize:
		s.applyTerastallize(e)
	case protocol.Faint:
		s.applyFaint(e)
	case protocol.Cant:
		s.applyCant(e)
	case protocol.Turn:
		s.applyTurn(e)
	case protocol.Request:
		s.applyRequest(e)
	case protocol.Win:
		s.applyWin(e)
	case protocol.Tie:
		s.applyTie()
	case protocol.ChoiceError:
		s.applyChoiceError(e)
	}
}

func (s *State) applyPlayer(e protocol.PlayerIntro) {
	side := s.sideFor(e.Player)
	if side == nil {
		return
	}
	side.Name = e.Name
	if psid.Equal(e.Name, s.ourName) {
		s.ourPlayer = e.Player
		side.Ours = true
	}
}

// ensureRosterEntry finds a roster slot by species, creating it on
// first sight. Opponent rosters grow only through observation.
func (s *State) ensureRosterEntry(player string, d protocol.Details) *Pokemon {
	side := s.sideFor(player)
	if side == nil {
		return nil
	}
	key := psid.ToID(d.Species)
	if p := side.findByKey(key); p != nil {
		return p
	}
	p := &Pokemon{
		Species:    d.Species,
		Key:        key,
		Level:      d.Level,
		Gender:     d.Gender,
		HPFraction: 1,
		Revealed:   true,
	}
	side.Roster = append(side.Roster, p)
	return p
}

func (s *State) applySwitch(e protocol.Switch) {
	side := s.sideFor(e.Ident.Player)
	if side == nil {
		return
	}
	// Boosts and volatiles do not follow a Pokemon out of battle.
	if prev := side.Active(); prev != nil {
		prev.Stages = nil
		prev.Volatiles = nil
	}
	p := s.ensureRosterEntry(e.Ident.Player, e.Details)
	if p == nil {
		return
	}
	p.HPFraction = clampFraction(e.HP.Fraction)
	if p.HPFraction > 0 {
		p.Fainted = false
	}
	if st := e.HP.Status; st != "fnt" {
		p.Status = st
	}
	if e.Details.TeraType != "" {
		p.TeraType = e.Details.TeraType
		p.Terastallized = true
	}
	for i, rp := range side.Roster {
		if rp == p {
			side.ActiveIndex = i
			break
		}
	}
	s.log.SentOut(p.Species, s.isOurs(e.Ident.Player))
}

func (s *State) applyFormeChange(e protocol.FormeChange) {
	p := s.pokemonFor(e.Ident)
	if p == nil || e.Details.Species == "" {
		return
	}
	p.Species = e.Details.Species
	p.Key = psid.ToID(e.Details.Species)
}

func (s *State) applyMove(e protocol.Move) {
	p := s.pokemonFor(e.Ident)
	if p == nil {
		return
	}
	ours := s.isOurs(e.Ident.Player)
	if !ours {
		s.recordObservedMove(p, e.Move)
	}
	s.log.Moved(p.Species, e.Move, ours)
}

// recordObservedMove grows an opponent's known move list, capped at
// the four slots a set can hold.
func (s *State) recordObservedMove(p *Pokemon, move string) {
	id := psid.ToID(move)
	for i := range p.Moves {
		if p.Moves[i].ID == id {
			p.Moves[i].Used++
			return
		}
	}
	if len(p.Moves) >= 4 {
		return
	}
	p.Moves = append(p.Moves, MoveSlot{ID: id, Name: move, Used: 1})
}

func (s *State) applyHPChange(id protocol.Ident, hp protocol.HPStatus, heal bool) {
	p := s.pokemonFor(id)
	if p == nil {
		return
	}
	prev := p.HPFraction
	if hp.Fainted {
		p.HPFraction = 0
	} else {
		p.HPFraction = clampFraction(hp.Fraction)
	}
	ours := s.isOurs(id.Player)
	deltaPct := int((prev - p.HPFraction) * 100)
	remainingPct := int(p.HPFraction * 100)
	if heal {
		s.log.Healed(p.Species, -deltaPct, remainingPct, ours)
	} else if deltaPct > 0 {
		s.log.Damaged(p.Species, deltaPct, remainingPct, ours)
	}
}

func (s *State) applyStatus(e protocol.Status) {
	p := s.pokemonFor(e.Ident)
	if p == nil {
		return
	}
	p.Status = e.Status
	p.StatusTurns = 0
	s.log.Statused(p.Species, e.Status, s.isOurs(e.Ident.Player))
}

func (s *State) applyCureStatus(e protocol.CureStatus) {
	p := s.pokemonFor(e.Ident)
	if p == nil {
		// Team-wide cures reference the side, not a position.
		if side := s.sideFor(e.Ident.Player); side != nil {
			if m := side.findByKey(psid.ToID(e.Ident.Name)); m != nil {
				p = m
			}
		}
	}
	if p == nil {
		return
	}
	cured := p.Status
	p.Status = ""
	p.StatusTurns = 0
	s.log.CuredStatus(p.Species, cured, s.isOurs(e.Ident.Player))
}

func (s *State) applyStageDelta(id protocol.Ident, stat string, delta int) {
	p := s.pokemonFor(id)
	if p == nil {
		return
	}
	stages := ensureStages(p)
	stages[stat] = typechart.ClampStage(stages[stat] + delta)
	s.log.StageChanged(p.Species, stat, delta, s.isOurs(id.Player))
}

func (s *State) applyWeather(e protocol.Weather) {
	if e.Weather == "" || e.Weather == "none" {
		if s.weather != nil {
			s.weather = nil
			s.log.WeatherChanged("none")
		}
		return
	}
	if s.weather != nil && s.weather.Name == e.Weather {
		return
	}
	s.weather = &Condition{Name: e.Weather, StartedTurn: s.turn}
	if !e.Upkeep {
		s.log.WeatherChanged(e.Weather)
	}
}

func (s *State) applySideStart(e protocol.SideStart) {
	side := s.sideFor(e.Player)
	if side == nil {
		return
	}
	name := protocol.EffectName(e.Condition)
	c, ok := side.Conditions[name]
	if !ok {
		c = &Condition{Name: name, StartedTurn: s.turn}
		side.Conditions[name] = c
	}
	if hazardLayers[name] {
		c.Layers++
	}
	s.log.SideChanged(name, true, s.isOurs(e.Player))
}

func (s *State) applySideEnd(e protocol.SideEnd) {
	side := s.sideFor(e.Player)
	if side == nil {
		return
	}
	name := protocol.EffectName(e.Condition)
	delete(side.Conditions, name)
	s.log.SideChanged(name, false, s.isOurs(e.Player))
}

func (s *State) applyTerastallize(e protocol.Terastallize) {
	p := s.pokemonFor(e.Ident)
	if p == nil {
		return
	}
	p.TeraType = e.TeraType
	p.Terastallized = true
	p.TeraCandidates = nil
	if s.isOurs(e.Ident.Player) {
		s.teraUsed = true
	}
	s.log.Terastallized(p.Species, e.TeraType, s.isOurs(e.Ident.Player))
}

func (s *State) applyFaint(e protocol.Faint) {
	p := s.pokemonFor(e.Ident)
	if p == nil || p.Fainted {
		return
	}
	p.Fainted = true
	p.HPFraction = 0
	p.Status = ""
	p.Stages = nil
	p.Volatiles = nil
	s.log.Fainted(p.Species, s.isOurs(e.Ident.Player))
}

func (s *State) applyCant(e protocol.Cant) {
	p := s.pokemonFor(e.Ident)
	if p == nil {
		return
	}
	reason := protocol.EffectName(e.Reason)
	if reason == "slp" && p.Status == "slp" {
		p.StatusTurns++
	}
	s.log.Prevented(p.Species, reason, s.isOurs(e.Ident.Player))
}

func (s *State) applyTurn(e protocol.Turn) {
	if e.Number <= s.turn {
		return
	}
	s.turn = e.Number
	s.log.Turn(e.Number)
}

func (s *State) applyWin(e protocol.Win) {
	s.phase = PhaseEnded
	s.winner = e.Name
	s.ended = time.Now()
	switch {
	case psid.Equal(e.Name, s.ourName):
		s.outcome = OutcomeWin
	case s.forfeited:
		s.outcome = OutcomeForfeit
	default:
		s.outcome = OutcomeLoss
	}
	s.log.Ended(e.Name)
}

func (s *State) applyTie() {
	s.phase = PhaseEnded
	s.outcome = OutcomeTie
	s.ended = time.Now()
	s.log.Ended("")
}

// applyChoiceError reopens the pending request after the simulator
// rejects a choice, so a corrected command can be submitted.
func (s *State) applyChoiceError(e protocol.ChoiceError) {
	s.lastError = e.Message
	if s.phase == PhaseActionSubmitted && s.request != nil {
		s.phase = PhaseAwaitingAction
	}
}

// pokemonFor resolves a position identifier to the side's active
// Pokemon, falling back to a roster name match.
func (s *State) pokemonFor(id protocol.Ident) *Pokemon {
	side := s.sideFor(id.Player)
	if side == nil {
		return nil
	}
	if id.Position == "" {
		return nil
	}
	if p := side.Active(); p != nil && psid.Equal(p.Species, id.Name) {
		return p
	}
	return side.findByKey(psid.ToID(id.Name))
}

func ensureStages(p *Pokemon) map[string]int {
	if p.Stages == nil {
		p.Stages = map[string]int{}
	}
	return p.Stages
}

func clampFraction(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
