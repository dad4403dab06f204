package dex

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/colinh09/ps-ai-battler/internal/logging"
	"github.com/colinh09/ps-ai-battler/internal/psid"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// OpenAndMigrate opens the reference database, keeps its schema
// current and seeds empty tables from the JSON files under dataDir.
// Missing seed files are logged and skipped so the agent can run with
// partial reference data; malformed files abort startup.
func OpenAndMigrate(dataSourceName, dataDir string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dataSourceName), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	err = db.AutoMigrate(&Species{}, &Move{}, &Ability{}, &Item{}, &TypeMatchup{}, &RandomSet{})
	if err != nil {
		return nil, err
	}
	if err := Seed(db, dataDir); err != nil {
		return nil, err
	}
	return db, nil
}

// Seed loads each empty table from its JSON file. Tables that already
// hold rows are left untouched, so reseeding requires removing the DB.
func Seed(db *gorm.DB, dataDir string) error {
	seeders := []struct {
		file string
		fn   func(*gorm.DB, string) error
	}{
		{"pokedex.json", seedSpecies},
		{"moves.json", seedMoves},
		{"abilities.json", seedAbilities},
		{"items.json", seedItems},
		{"typechart.json", seedTypeChart},
		{"randomsets.json", seedRandomSets},
	}
	for _, s := range seeders {
		path := filepath.Join(dataDir, s.file)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			logging.Warn("dex seed file missing, skipping", logging.Fields{"file": path})
			continue
		}
		if err := s.fn(db, path); err != nil {
			return fmt.Errorf("seed %s: %w", s.file, err)
		}
	}
	return nil
}

func tableEmpty(db *gorm.DB, model interface{}) bool {
	var count int64
	db.Model(model).Count(&count)
	return count == 0
}

func readSeedFile(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

type speciesSeed struct {
	Name      string         `json:"name"`
	Num       int            `json:"num"`
	Types     []string       `json:"types"`
	BaseStats map[string]int `json:"baseStats"`
	Abilities []string       `json:"abilities"`
}

func seedSpecies(db *gorm.DB, path string) error {
	if !tableEmpty(db, &Species{}) {
		return nil
	}
	var entries map[string]speciesSeed
	if err := readSeedFile(path, &entries); err != nil {
		return err
	}
	rows := make([]Species, 0, len(entries))
	for key, e := range entries {
		row := Species{
			Key:       key,
			Name:      e.Name,
			Num:       e.Num,
			HP:        e.BaseStats["hp"],
			Attack:    e.BaseStats["atk"],
			Defense:   e.BaseStats["def"],
			SpAttack:  e.BaseStats["spa"],
			SpDefense: e.BaseStats["spd"],
			Speed:     e.BaseStats["spe"],
			Abilities: e.Abilities,
		}
		if len(e.Types) > 0 {
			row.Type1 = e.Types[0]
		}
		if len(e.Types) > 1 {
			row.Type2 = e.Types[1]
		}
		rows = append(rows, row)
	}
	return createInBatches(db, rows)
}

type moveSeed struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	Category  string `json:"category"`
	BasePower int    `json:"basePower"`
	Accuracy  int    `json:"accuracy"`
	PP        int    `json:"pp"`
	Priority  int    `json:"priority"`
	ShortDesc string `json:"shortDesc"`
}

func seedMoves(db *gorm.DB, path string) error {
	if !tableEmpty(db, &Move{}) {
		return nil
	}
	var entries map[string]moveSeed
	if err := readSeedFile(path, &entries); err != nil {
		return err
	}
	rows := make([]Move, 0, len(entries))
	for key, e := range entries {
		rows = append(rows, Move{
			Key:       key,
			Name:      e.Name,
			Type:      e.Type,
			Category:  e.Category,
			BasePower: e.BasePower,
			Accuracy:  e.Accuracy,
			PP:        e.PP,
			Priority:  e.Priority,
			ShortDesc: e.ShortDesc,
		})
	}
	return createInBatches(db, rows)
}

type namedSeed struct {
	Name      string `json:"name"`
	ShortDesc string `json:"shortDesc"`
}

func seedAbilities(db *gorm.DB, path string) error {
	if !tableEmpty(db, &Ability{}) {
		return nil
	}
	var entries map[string]namedSeed
	if err := readSeedFile(path, &entries); err != nil {
		return err
	}
	rows := make([]Ability, 0, len(entries))
	for key, e := range entries {
		rows = append(rows, Ability{Key: key, Name: e.Name, ShortDesc: e.ShortDesc})
	}
	return createInBatches(db, rows)
}

func seedItems(db *gorm.DB, path string) error {
	if !tableEmpty(db, &Item{}) {
		return nil
	}
	var entries map[string]namedSeed
	if err := readSeedFile(path, &entries); err != nil {
		return err
	}
	rows := make([]Item, 0, len(entries))
	for key, e := range entries {
		rows = append(rows, Item{Key: key, Name: e.Name, ShortDesc: e.ShortDesc})
	}
	return createInBatches(db, rows)
}

func seedTypeChart(db *gorm.DB, path string) error {
	if !tableEmpty(db, &TypeMatchup{}) {
		return nil
	}
	var entries map[string]map[string]float64
	if err := readSeedFile(path, &entries); err != nil {
		return err
	}
	var rows []TypeMatchup
	for attacking, row := range entries {
		for defending, mult := range row {
			rows = append(rows, TypeMatchup{
				Attacking:  psid.ToID(attacking),
				Defending:  psid.ToID(defending),
				Multiplier: mult,
			})
		}
	}
	return createInBatches(db, rows)
}

type randomSetSeed struct {
	Level int `json:"level"`
	Sets  []struct {
		Role      string   `json:"role"`
		Abilities []string `json:"abilities"`
		Items     []string `json:"items"`
		Moves     []string `json:"moves"`
		TeraTypes []string `json:"teraTypes"`
	} `json:"sets"`
}

func seedRandomSets(db *gorm.DB, path string) error {
	if !tableEmpty(db, &RandomSet{}) {
		return nil
	}
	var entries map[string]randomSetSeed
	if err := readSeedFile(path, &entries); err != nil {
		return err
	}
	var rows []RandomSet
	for key, e := range entries {
		for _, set := range e.Sets {
			rows = append(rows, RandomSet{
				SpeciesKey: key,
				Role:       set.Role,
				Level:      e.Level,
				Abilities:  set.Abilities,
				Items:      set.Items,
				Moves:      set.Moves,
				TeraTypes:  set.TeraTypes,
			})
		}
	}
	return createInBatches(db, rows)
}

func createInBatches[T any](db *gorm.DB, rows []T) error {
	if len(rows) == 0 {
		return nil
	}
	return db.CreateInBatches(rows, 200).Error
}
