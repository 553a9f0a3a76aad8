package hero

import "hero-server/internal/domain/hero"

type Request struct {
	Name       string          `json:"name"`
	Race       hero.Race       `json:"race"`
	PowerStats hero.PowerStats `json:"powerStats"`
}

type Response struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Race       hero.Race       `json:"race"`
	PowerStats hero.PowerStats `json:"powerStats"`
}

// ToHero builds a new, active hero with no id.
func ToHero(req Request) hero.Hero {
	return hero.Hero{
		Name:       req.Name,
		Race:       req.Race,
		PowerStats: req.PowerStats,
		Active:     true,
	}
}

func ToResponse(h hero.Hero) Response {
	return Response{
		ID:         h.ID,
		Name:       h.Name,
		Race:       h.Race,
		PowerStats: h.PowerStats,
	}
}

func ToResponses(heroes []hero.Hero) []Response {
	out := make([]Response, 0, len(heroes))
	for _, h := range heroes {
		out = append(out, ToResponse(h))
	}
	return out
}
