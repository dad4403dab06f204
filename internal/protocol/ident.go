package protocol

import (
	"strconv"
	"strings"
)

// Ident identifies a Pokemon ("p1a: Garchomp") or a side ("p1: user").
// Position is empty for side identifiers.
type Ident struct {
	Player   string
	Position string
	Name     string
}

// IsZero reports whether the identifier was absent from the message.
func (i Ident) IsZero() bool {
	return i.Player == "" && i.Name == ""
}

// ParseIdent decodes a position or side identifier. Unparseable input
// yields a zero Ident; callers treat that as "no subject".
func ParseIdent(s string) Ident {
	s = strings.TrimSpace(s)
	head, name, found := strings.Cut(s, ":")
	if !found {
		return Ident{}
	}
	head = strings.TrimSpace(head)
	if len(head) < 2 || head[0] != 'p' {
		return Ident{}
	}
	id := Ident{Player: head[:2], Name: strings.TrimSpace(name)}
	if len(head) > 2 {
		id.Position = head[2:]
	}
	return id
}

// Details carries the species summary string attached to switch and
// preview messages: "Garchomp, L78, M" with optional shiny and
// "tera:Type" markers. Level defaults to 100 when omitted.
type Details struct {
	Species  string
	Level    int
	Gender   string
	Shiny    bool
	TeraType string
}

// ParseDetails decodes a details string.
func ParseDetails(s string) Details {
	d := Details{Level: 100}
	for i, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if i == 0 {
			d.Species = part
			continue
		}
		switch {
		case part == "M" || part == "F":
			d.Gender = part
		case part == "shiny":
			d.Shiny = true
		case strings.HasPrefix(part, "L"):
			if lvl, err := strconv.Atoi(part[1:]); err == nil {
				d.Level = lvl
			}
		case strings.HasPrefix(part, "tera:"):
			d.TeraType = strings.TrimSpace(strings.TrimPrefix(part, "tera:"))
		}
	}
	return d
}

// HPStatus is the decoded form of a condition string such as
// "72/100 par", "100/100" or "0 fnt". Fraction is Current/Max in
// [0, 1]; the simulator reports opponent HP on a /100 scale, so the
// fraction is the only comparable quantity across sides.
type HPStatus struct {
	Current  int
	Max      int
	Fraction float64
	Status   string
	Fainted  bool
}

// ParseHPStatus decodes a condition string.
func ParseHPStatus(s string) HPStatus {
	var hp HPStatus
	s = strings.TrimSpace(s)
	if s == "" {
		return hp
	}
	hpPart, rest, _ := strings.Cut(s, " ")
	if rest == "fnt" || hpPart == "0" {
		hp.Fainted = true
		hp.Status = "fnt"
		return hp
	}
	cur, max, found := strings.Cut(hpPart, "/")
	if c, err := strconv.Atoi(cur); err == nil {
		hp.Current = c
	}
	if found {
		if m, err := strconv.Atoi(max); err == nil {
			hp.Max = m
		}
	}
	if hp.Max > 0 {
		hp.Fraction = float64(hp.Current) / float64(hp.Max)
		if hp.Fraction > 1 {
			hp.Fraction = 1
		}
	}
	if rest != "" {
		hp.Status = rest
	}
	return hp
}
