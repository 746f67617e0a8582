// Package player models a franchise's on-field roster and the daily
// progression/aging/retirement arithmetic C7 applies to it.
package player

import "fmt"

const (
	MinAttribute = 1
	MaxAttribute = 40

	MinPotentialStars = 0.5
	MaxPotentialStars = 5.0
)

// Attributes bounds every on-field skill to [MinAttribute,MaxAttribute].
type Attributes struct {
	Speed      int
	Power      int
	Throwing   int
	Catching   int
	Kicking    int
	Stamina    int
	Leadership int
	Agility    int
}

// Each returns the eight attribute values paired with a stable name, for
// generic iteration during progression.
func (a Attributes) Each() []struct {
	Name  string
	Value int
} {
	return []struct {
		Name  string
		Value int
	}{
		{"speed", a.Speed},
		{"power", a.Power},
		{"throwing", a.Throwing},
		{"catching", a.Catching},
		{"kicking", a.Kicking},
		{"stamina", a.Stamina},
		{"leadership", a.Leadership},
		{"agility", a.Agility},
	}
}

// WithIncrement returns a copy of a with the named attribute incremented
// by one, capped at MaxAttribute. Unknown names are a no-op.
func (a Attributes) WithIncrement(name string) Attributes {
	inc := func(v int) int {
		if v >= MaxAttribute {
			return MaxAttribute
		}
		return v + 1
	}
	switch name {
	case "speed":
		a.Speed = inc(a.Speed)
	case "power":
		a.Power = inc(a.Power)
	case "throwing":
		a.Throwing = inc(a.Throwing)
	case "catching":
		a.Catching = inc(a.Catching)
	case "kicking":
		a.Kicking = inc(a.Kicking)
	case "stamina":
		a.Stamina = inc(a.Stamina)
	case "leadership":
		a.Leadership = inc(a.Leadership)
	case "agility":
		a.Agility = inc(a.Agility)
	}
	return a
}

// Player is one roster member.
type Player struct {
	ID             string
	TeamID         string
	Age            int
	Attributes     Attributes
	PotentialStars float64
	IsRetired      bool
	Version        int64 // CAS token
}

func (p Player) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("player id is required")
	}
	if p.TeamID == "" {
		return fmt.Errorf("player team id is required")
	}
	if p.PotentialStars < MinPotentialStars || p.PotentialStars > MaxPotentialStars {
		return fmt.Errorf("player potentialStars must be within [%.1f,%.1f]", MinPotentialStars, MaxPotentialStars)
	}
	for _, attr := range p.Attributes.Each() {
		if attr.Value < MinAttribute || attr.Value > MaxAttribute {
			return fmt.Errorf("player attribute %s out of range [%d,%d]: %d", attr.Name, MinAttribute, MaxAttribute, attr.Value)
		}
	}
	return nil
}

// CanParticipate reports whether the player may appear in a live match.
func (p Player) CanParticipate() bool {
	return !p.IsRetired
}
