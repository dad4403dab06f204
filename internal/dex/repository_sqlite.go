package dex

import (
	"errors"
	"fmt"

	"github.com/colinh09/ps-ai-battler/internal/dedupe"
	"github.com/colinh09/ps-ai-battler/internal/typechart"

	"gorm.io/gorm"
)

type sqliteRepository struct {
	db *gorm.DB
}

// NewSQLiteRepository wraps an opened reference database. Lookups are
// collapsed through the shared singleflight group since sessions run
// in parallel and mostly ask for the same hot entries.
func NewSQLiteRepository(db *gorm.DB) Repository {
	return &sqliteRepository{db: db}
}

func (r *sqliteRepository) SpeciesByKey(key string) (*Species, error) {
	v, err, _ := dedupe.DexGroup.Do("species:"+key, func() (interface{}, error) {
		var row Species
		if err := r.db.Where("key = ?", key).First(&row).Error; err != nil {
			return nil, wrapLookupErr(err, "species", key)
		}
		return &row, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Species), nil
}

func (r *sqliteRepository) MoveByKey(key string) (*Move, error) {
	v, err, _ := dedupe.DexGroup.Do("move:"+key, func() (interface{}, error) {
		var row Move
		if err := r.db.Where("key = ?", key).First(&row).Error; err != nil {
			return nil, wrapLookupErr(err, "move", key)
		}
		return &row, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Move), nil
}

func (r *sqliteRepository) AbilityByKey(key string) (*Ability, error) {
	v, err, _ := dedupe.DexGroup.Do("ability:"+key, func() (interface{}, error) {
		var row Ability
		if err := r.db.Where("key = ?", key).First(&row).Error; err != nil {
			return nil, wrapLookupErr(err, "ability", key)
		}
		return &row, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Ability), nil
}

func (r *sqliteRepository) ItemByKey(key string) (*Item, error) {
	v, err, _ := dedupe.DexGroup.Do("item:"+key, func() (interface{}, error) {
		var row Item
		if err := r.db.Where("key = ?", key).First(&row).Error; err != nil {
			return nil, wrapLookupErr(err, "item", key)
		}
		return &row, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Item), nil
}

func (r *sqliteRepository) TypeChart() (typechart.Chart, error) {
	v, err, _ := dedupe.DexGroup.Do("chart", func() (interface{}, error) {
		var rows []TypeMatchup
		if err := r.db.Find(&rows).Error; err != nil {
			return nil, err
		}
		chart := typechart.Chart{}
		for _, row := range rows {
			inner, ok := chart[row.Attacking]
			if !ok {
				inner = map[string]float64{}
				chart[row.Attacking] = inner
			}
			inner[row.Defending] = row.Multiplier
		}
		return chart, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(typechart.Chart), nil
}

func (r *sqliteRepository) MergedSetFor(speciesKey string) (*MergedSet, error) {
	v, err, _ := dedupe.DexGroup.Do("sets:"+speciesKey, func() (interface{}, error) {
		var rows []RandomSet
		if err := r.db.Where("species_key = ?", speciesKey).Find(&rows).Error; err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			return nil, fmt.Errorf("%w: random sets for %q", ErrNotFound, speciesKey)
		}
		return mergeSets(speciesKey, rows), nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*MergedSet), nil
}

func wrapLookupErr(err error, kind, key string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s %q", ErrNotFound, kind, key)
	}
	return err
}
