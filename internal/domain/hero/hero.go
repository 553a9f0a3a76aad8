package hero

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound    = errors.New("hero not found")
	ErrInvalidHero = errors.New("invalid hero")
)

type PowerStats struct {
	Strength     int `json:"strength"`
	Agility      int `json:"agility"`
	Dexterity    int `json:"dexterity"`
	Intelligence int `json:"intelligence"`
}

type Hero struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Race       Race       `json:"race"`
	PowerStats PowerStats `json:"powerStats"`
	Active     bool       `json:"active"`
}

// Validate reports the first rule the hero breaks, wrapped in ErrInvalidHero.
func (h Hero) Validate() error {
	if strings.TrimSpace(h.Name) == "" {
		return fmt.Errorf("%w: name required", ErrInvalidHero)
	}
	if !h.Race.Valid() {
		return fmt.Errorf("%w: unknown race %q", ErrInvalidHero, string(h.Race))
	}
	stats := []struct {
		name  string
		value int
	}{
		{"strength", h.PowerStats.Strength},
		{"agility", h.PowerStats.Agility},
		{"dexterity", h.PowerStats.Dexterity},
		{"intelligence", h.PowerStats.Intelligence},
	}
	for _, s := range stats {
		if s.value < 0 {
			return fmt.Errorf("%w: %s must be >= 0", ErrInvalidHero, s.name)
		}
	}
	return nil
}
