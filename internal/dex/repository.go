package dex

import (
	"errors"

	"github.com/colinh09/ps-ai-battler/internal/typechart"
)

// ErrNotFound marks lookups for entries absent from the store.
// Callers that can proceed without reference data (an unknown species
// still battles) test for it with errors.Is.
var ErrNotFound = errors.New("dex: entry not found")

// Repository is the read-only lookup surface consumed by the action
// resolver and the decision prompt builder. Keys are canonical
// simulator identifiers.
type Repository interface {
	SpeciesByKey(key string) (*Species, error)
	MoveByKey(key string) (*Move, error)
	AbilityByKey(key string) (*Ability, error)
	ItemByKey(key string) (*Item, error)
	// TypeChart rebuilds the full matchup table from the store. It is
	// queried per decision rather than cached across battles.
	TypeChart() (typechart.Chart, error)
	// MergedSetFor returns the union of all random-battle sets for a
	// species, the candidate superset before any reveals narrow it.
	MergedSetFor(speciesKey string) (*MergedSet, error)
}

// MergedSet is the union of a species' random-battle roles.
type MergedSet struct {
	SpeciesKey string   `json:"species_key"`
	Roles      []string `json:"roles"`
	Level      int      `json:"level"`
	Abilities  []string `json:"abilities"`
	Items      []string `json:"items"`
	Moves      []string `json:"moves"`
	TeraTypes  []string `json:"tera_types"`
}

// mergeSets unions set lists in first-seen order. Duplicate entries
// across roles collapse; the level comes from the first role.
func mergeSets(speciesKey string, sets []RandomSet) *MergedSet {
	merged := &MergedSet{SpeciesKey: speciesKey}
	seen := map[string]map[string]bool{
		"role": {}, "ability": {}, "item": {}, "move": {}, "tera": {},
	}
	add := func(kind string, dst *[]string, values ...string) {
		for _, v := range values {
			if v == "" || seen[kind][v] {
				continue
			}
			seen[kind][v] = true
			*dst = append(*dst, v)
		}
	}
	for _, set := range sets {
		if merged.Level == 0 {
			merged.Level = set.Level
		}
		add("role", &merged.Roles, set.Role)
		add("ability", &merged.Abilities, set.Abilities...)
		add("item", &merged.Items, set.Items...)
		add("move", &merged.Moves, set.Moves...)
		add("tera", &merged.TeraTypes, set.TeraTypes...)
	}
	return merged
}
