// Package typechart implements the type effectiveness and stat stage
// arithmetic used when ranking actions. All functions are pure; the
// matchup table itself comes from the reference store.
package typechart

// Chart maps attacking type -> defending type -> damage multiplier.
// Types are canonical lowercase identifiers. Pairings absent from the
// chart count as neutral.
type Chart map[string]map[string]float64

// Multiplier returns the single-type matchup factor, 1 when unknown.
func (c Chart) Multiplier(attacking, defending string) float64 {
	row, ok := c[attacking]
	if !ok {
		return 1
	}
	m, ok := row[defending]
	if !ok {
		return 1
	}
	return m
}

// Effectiveness returns the combined multiplier of an attacking type
// against a defender with one or two types: the product of the
// per-type factors. Empty defender types are skipped.
func (c Chart) Effectiveness(attacking string, defending ...string) float64 {
	total := 1.0
	for _, d := range defending {
		if d == "" {
			continue
		}
		total *= c.Multiplier(attacking, d)
	}
	return total
}

// ClampStage bounds a stat stage to the legal [-6, 6] range.
func ClampStage(stage int) int {
	if stage > 6 {
		return 6
	}
	if stage < -6 {
		return -6
	}
	return stage
}

// StageMultiplier converts a combat stat stage into its multiplier:
// +s -> (2+s)/2, -s -> 2/(2-s). Stage 0 is 1.0, +2 is 2.0, -2 is 0.5.
func StageMultiplier(stage int) float64 {
	stage = ClampStage(stage)
	if stage >= 0 {
		return float64(2+stage) / 2
	}
	return 2 / float64(2-stage)
}

// AccuracyStageMultiplier is the accuracy/evasion variant of
// StageMultiplier, which moves in thirds instead of halves.
func AccuracyStageMultiplier(stage int) float64 {
	stage = ClampStage(stage)
	if stage >= 0 {
		return float64(3+stage) / 3
	}
	return 3 / float64(3-stage)
}

// ModifiedStat applies a stage multiplier to a base stat value,
// truncating toward zero as the games do.
func ModifiedStat(base, stage int) int {
	return int(float64(base) * StageMultiplier(stage))
}
