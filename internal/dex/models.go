// Package dex is the read-only reference store: species, moves,
// abilities, items, the type chart and random-battle set data, all
// persisted in SQLite and seeded from JSON files at startup.
package dex

// Species is one Pokedex entry. Types and base stats drive the
// effectiveness annotations on offered actions.
type Species struct {
	ID        uint     `gorm:"primarykey" json:"-"`
	Key       string   `gorm:"uniqueIndex" json:"key"`
	Name      string   `json:"name"`
	Num       int      `json:"num"`
	Type1     string   `json:"type1"`
	Type2     string   `json:"type2,omitempty"`
	HP        int      `json:"hp"`
	Attack    int      `json:"atk"`
	Defense   int      `json:"def"`
	SpAttack  int      `json:"spa"`
	SpDefense int      `json:"spd"`
	Speed     int      `json:"spe"`
	Abilities []string `gorm:"serializer:json" json:"abilities,omitempty"`
}

func (Species) TableName() string { return "dex_species" }

// Types returns the non-empty type slots.
func (s *Species) Types() []string {
	if s.Type2 == "" {
		return []string{s.Type1}
	}
	return []string{s.Type1, s.Type2}
}

// Move is one move entry. Accuracy is in percent, 0 meaning the move
// bypasses accuracy checks.
type Move struct {
	ID        uint   `gorm:"primarykey" json:"-"`
	Key       string `gorm:"uniqueIndex" json:"key"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	Category  string `json:"category"`
	BasePower int    `json:"base_power"`
	Accuracy  int    `json:"accuracy"`
	PP        int    `json:"pp"`
	Priority  int    `json:"priority"`
	ShortDesc string `json:"short_desc,omitempty"`
}

func (Move) TableName() string { return "dex_moves" }

// IsDamaging reports whether the move deals direct damage.
func (m *Move) IsDamaging() bool {
	return m.Category != "Status" && m.BasePower > 0
}

// Ability is one ability entry.
type Ability struct {
	ID        uint   `gorm:"primarykey" json:"-"`
	Key       string `gorm:"uniqueIndex" json:"key"`
	Name      string `json:"name"`
	ShortDesc string `json:"short_desc,omitempty"`
}

func (Ability) TableName() string { return "dex_abilities" }

// Item is one held item entry.
type Item struct {
	ID        uint   `gorm:"primarykey" json:"-"`
	Key       string `gorm:"uniqueIndex" json:"key"`
	Name      string `json:"name"`
	ShortDesc string `json:"short_desc,omitempty"`
}

func (Item) TableName() string { return "dex_items" }

// TypeMatchup is one cell of the type chart.
type TypeMatchup struct {
	ID         uint    `gorm:"primarykey" json:"-"`
	Attacking  string  `gorm:"index:idx_dex_type_matchups,unique" json:"attacking"`
	Defending  string  `gorm:"index:idx_dex_type_matchups,unique" json:"defending"`
	Multiplier float64 `json:"multiplier"`
}

func (TypeMatchup) TableName() string { return "dex_type_matchups" }

// RandomSet is one random-battle role for a species. A species
// usually has several; candidate prediction merges them.
type RandomSet struct {
	ID         uint     `gorm:"primarykey" json:"-"`
	SpeciesKey string   `gorm:"index" json:"species_key"`
	Role       string   `json:"role"`
	Level      int      `json:"level"`
	Abilities  []string `gorm:"serializer:json" json:"abilities,omitempty"`
	Items      []string `gorm:"serializer:json" json:"items,omitempty"`
	Moves      []string `gorm:"serializer:json" json:"moves,omitempty"`
	TeraTypes  []string `gorm:"serializer:json" json:"tera_types,omitempty"`
}

func (RandomSet) TableName() string { return "dex_random_sets" }
