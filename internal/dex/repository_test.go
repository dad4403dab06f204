package dex

import (
	"errors"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open in-memory db: %v", err)
	}
	if err := db.AutoMigrate(&Species{}, &Move{}, &Ability{}, &Item{}, &TypeMatchup{}, &RandomSet{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestLookupsRoundTrip(t *testing.T) {
	db := openTestDB(t)
	db.Create(&Species{
		Key: "garchomp", Name: "Garchomp", Num: 445,
		Type1: "Dragon", Type2: "Ground",
		HP: 108, Attack: 130, Defense: 95, SpAttack: 80, SpDefense: 85, Speed: 102,
		Abilities: []string{"Sand Veil", "Rough Skin"},
	})
	db.Create(&Move{
		Key: "earthquake", Name: "Earthquake", Type: "Ground",
		Category: "Physical", BasePower: 100, Accuracy: 100, PP: 10,
	})

	repo := NewSQLiteRepository(db)

	sp, err := repo.SpeciesByKey("garchomp")
	if err != nil {
		t.Fatalf("SpeciesByKey: %v", err)
	}
	if sp.Name != "Garchomp" || len(sp.Types()) != 2 {
		t.Errorf("unexpected species %+v", sp)
	}
	if len(sp.Abilities) != 2 || sp.Abilities[1] != "Rough Skin" {
		t.Errorf("abilities not round-tripped: %v", sp.Abilities)
	}

	mv, err := repo.MoveByKey("earthquake")
	if err != nil {
		t.Fatalf("MoveByKey: %v", err)
	}
	if !mv.IsDamaging() || mv.Type != "Ground" {
		t.Errorf("unexpected move %+v", mv)
	}

	_, err = repo.SpeciesByKey("missingno")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("missing species error = %v, want ErrNotFound", err)
	}
}

func TestTypeChartFromRows(t *testing.T) {
	db := openTestDB(t)
	db.Create(&[]TypeMatchup{
		{Attacking: "water", Defending: "fire", Multiplier: 2},
		{Attacking: "water", Defending: "rock", Multiplier: 2},
		{Attacking: "water", Defending: "grass", Multiplier: 0.5},
	})
	repo := NewSQLiteRepository(db)

	chart, err := repo.TypeChart()
	if err != nil {
		t.Fatalf("TypeChart: %v", err)
	}
	if got := chart.Effectiveness("water", "fire", "rock"); got != 4 {
		t.Errorf("effectiveness = %v, want 4", got)
	}
}

func TestMergedSetFor(t *testing.T) {
	db := openTestDB(t)
	db.Create(&[]RandomSet{
		{
			SpeciesKey: "donphan", Role: "Bulky Attacker", Level: 86,
			Abilities: []string{"Sturdy"},
			Items:     []string{"Leftovers"},
			Moves:     []string{"earthquake", "knockoff", "stealthrock"},
			TeraTypes: []string{"Ground"},
		},
		{
			SpeciesKey: "donphan", Role: "Spinner", Level: 86,
			Abilities: []string{"Sturdy", "Sand Veil"},
			Items:     []string{"Assault Vest"},
			Moves:     []string{"earthquake", "rapidspin", "iceshard"},
			TeraTypes: []string{"Ground", "Ice"},
		},
	})
	repo := NewSQLiteRepository(db)

	merged, err := repo.MergedSetFor("donphan")
	if err != nil {
		t.Fatalf("MergedSetFor: %v", err)
	}
	if len(merged.Roles) != 2 || merged.Level != 86 {
		t.Errorf("unexpected merge %+v", merged)
	}
	if len(merged.Abilities) != 2 {
		t.Errorf("abilities = %v", merged.Abilities)
	}
	if len(merged.Moves) != 5 {
		t.Errorf("moves should union without duplicates: %v", merged.Moves)
	}
	if merged.Moves[0] != "earthquake" {
		t.Errorf("first-seen order lost: %v", merged.Moves)
	}

	_, err = repo.MergedSetFor("missingno")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("missing sets error = %v, want ErrNotFound", err)
	}
}

func TestMergeSetsEmpty(t *testing.T) {
	merged := mergeSets("x", nil)
	if merged.Level != 0 || len(merged.Moves) != 0 {
		t.Errorf("unexpected empty merge %+v", merged)
	}
}
