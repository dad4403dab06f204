package typechart

import "testing"

func testChart() Chart {
	return Chart{
		"water": {"fire": 2, "rock": 2, "water": 0.5, "grass": 0.5, "dragon": 0.5},
		"fire":  {"grass": 2, "water": 0.5, "rock": 0.5, "fire": 0.5},
		"electric": {
			"water": 2, "flying": 2, "ground": 0, "electric": 0.5, "grass": 0.5,
		},
		"ghost":  {"normal": 0, "ghost": 2, "dark": 0.5},
		"dragon": {"dragon": 2, "steel": 0.5, "fairy": 0},
	}
}

func TestEffectivenessProduct(t *testing.T) {
	c := testChart()
	cases := []struct {
		attacking string
		defending []string
		want      float64
	}{
		{"water", []string{"fire", "rock"}, 4},
		{"water", []string{"fire"}, 2},
		{"water", []string{"grass", "dragon"}, 0.25},
		{"electric", []string{"water", "flying"}, 4},
		{"electric", []string{"ground"}, 0},
		{"electric", []string{"water", "ground"}, 0},
		{"ghost", []string{"normal", "ghost"}, 0},
		{"fire", []string{"fire", "water"}, 0.25},
	}
	for _, c2 := range cases {
		if got := c.Effectiveness(c2.attacking, c2.defending...); got != c2.want {
			t.Errorf("Effectiveness(%s vs %v) = %v, want %v", c2.attacking, c2.defending, got, c2.want)
		}
	}
}

func TestEffectivenessUnknownIsNeutral(t *testing.T) {
	c := testChart()
	if got := c.Effectiveness("water", "cosmic"); got != 1 {
		t.Errorf("unknown defender should be neutral, got %v", got)
	}
	if got := c.Effectiveness("cosmic", "fire", "rock"); got != 1 {
		t.Errorf("unknown attacker should be neutral, got %v", got)
	}
	if got := c.Effectiveness("water", "", "fire"); got != 2 {
		t.Errorf("empty defender slot should be skipped, got %v", got)
	}
}

func TestStageMultiplier(t *testing.T) {
	cases := []struct {
		stage int
		want  float64
	}{
		{0, 1}, {2, 2}, {-2, 0.5}, {1, 1.5}, {-1, 2.0 / 3.0},
		{6, 4}, {-6, 0.25}, {9, 4}, {-9, 0.25},
	}
	for _, c := range cases {
		if got := StageMultiplier(c.stage); got != c.want {
			t.Errorf("StageMultiplier(%d) = %v, want %v", c.stage, got, c.want)
		}
	}
}

func TestAccuracyStageMultiplier(t *testing.T) {
	if got := AccuracyStageMultiplier(3); got != 2 {
		t.Errorf("accuracy +3 = %v, want 2", got)
	}
	if got := AccuracyStageMultiplier(-3); got != 0.5 {
		t.Errorf("accuracy -3 = %v, want 0.5", got)
	}
	if got := AccuracyStageMultiplier(0); got != 1 {
		t.Errorf("accuracy 0 = %v, want 1", got)
	}
}

func TestModifiedStat(t *testing.T) {
	if got := ModifiedStat(200, 2); got != 400 {
		t.Errorf("ModifiedStat(200, +2) = %d, want 400", got)
	}
	if got := ModifiedStat(200, -2); got != 100 {
		t.Errorf("ModifiedStat(200, -2) = %d, want 100", got)
	}
	if got := ModifiedStat(155, 1); got != 232 {
		t.Errorf("ModifiedStat(155, +1) = %d, want 232", got)
	}
}
