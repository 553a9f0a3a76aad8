package hero

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidRace = errors.New("invalid race")

type Race string

const (
	RaceHuman  Race = "HUMAN"
	RaceAlien  Race = "ALIEN"
	RaceDivine Race = "DIVINE"
	RaceCyborg Race = "CYBORG"
)

var races = []Race{RaceHuman, RaceAlien, RaceDivine, RaceCyborg}

func Races() []Race {
	return append([]Race(nil), races...)
}

func ParseRace(s string) (Race, error) {
	label := strings.ToUpper(strings.TrimSpace(s))
	for _, r := range races {
		if string(r) == label {
			return r, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidRace, s)
}

func (r Race) Valid() bool {
	for _, known := range races {
		if r == known {
			return true
		}
	}
	return false
}

func (r Race) String() string {
	return string(r)
}

func (r Race) MarshalJSON() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRace, string(r))
	}
	return json.Marshal(string(r))
}

func (r *Race) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRace, err)
	}
	parsed, err := ParseRace(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
