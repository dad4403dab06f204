package psid

import "testing"

func TestToID(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Pikachu", "pikachu"},
		{"Flabébé", "flabebe"},
		{"King's Rock", "kingsrock"},
		{"Landorus-Therian", "landorustherian"},
		{"Mr. Mime", "mrmime"},
		{"Farfetch’d", "farfetchd"},
		{"Tapu Koko", "tapukoko"},
		{"  Iron Valiant  ", "ironvaliant"},
		{"", ""},
	}
	for _, c := range cases {
		if got := ToID(c.in); got != c.want {
			t.Errorf("ToID(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestEqual(t *testing.T) {
	if !Equal("flabebe", "Flabébé") {
		t.Error("expected folded names to match")
	}
	if Equal("Garchomp", "Gholdengo") {
		t.Error("expected distinct species to differ")
	}
}
