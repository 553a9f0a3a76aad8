// Package surreal stores heroes as SurrealDB records in the "hero" table.
package surreal

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/surrealdb/surrealdb.go"
	"github.com/surrealdb/surrealdb.go/pkg/models"

	"hero-server/internal/domain/hero"
)

const table = "hero"

type powerStatsRecord struct {
	Strength     int `json:"strength"`
	Agility      int `json:"agility"`
	Dexterity    int `json:"dexterity"`
	Intelligence int `json:"intelligence"`
}

type heroRecord struct {
	ID         *models.RecordID `json:"id,omitempty"`
	Name       string           `json:"name"`
	Race       string           `json:"race"`
	PowerStats powerStatsRecord `json:"power_stats"`
	Active     bool             `json:"active"`
}

type Store struct {
	db *surrealdb.DB
}

func New(db *surrealdb.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Ping(ctx context.Context) error {
	_, err := s.db.Version(ctx)
	return err
}

func (s *Store) FindAll(ctx context.Context) ([]hero.Hero, error) {
	return s.query(ctx, `SELECT * FROM type::table($tb) ORDER BY created_at ASC`, map[string]any{"tb": table})
}

func (s *Store) FindByID(ctx context.Context, id string) (hero.Hero, error) {
	heroes, err := s.query(ctx, `SELECT * FROM $id`, map[string]any{"id": models.NewRecordID(table, id)})
	if err != nil {
		return hero.Hero{}, err
	}
	if len(heroes) == 0 {
		return hero.Hero{}, hero.ErrNotFound
	}
	return heroes[0], nil
}

func (s *Store) FindByNameContaining(ctx context.Context, name string) ([]hero.Hero, error) {
	return s.query(ctx, `
SELECT * FROM type::table($tb)
WHERE string::contains(string::lowercase(name), string::lowercase($name))
ORDER BY created_at ASC`, map[string]any{"tb": table, "name": name})
}

// Save upserts by record id. created_at is set once, on first write, so
// listing order stays stable across overwrites.
func (s *Store) Save(ctx context.Context, h hero.Hero) (hero.Hero, error) {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	vars := map[string]any{
		"id":   models.NewRecordID(table, h.ID),
		"name": h.Name,
		"race": string(h.Race),
		"power_stats": powerStatsRecord{
			Strength:     h.PowerStats.Strength,
			Agility:      h.PowerStats.Agility,
			Dexterity:    h.PowerStats.Dexterity,
			Intelligence: h.PowerStats.Intelligence,
		},
		"active": h.Active,
	}
	_, err := s.query(ctx, `
UPSERT $id SET
    name = $name,
    race = $race,
    power_stats = $power_stats,
    active = $active,
    created_at = created_at OR time::now(),
    updated_at = time::now()`, vars)
	if err != nil {
		return hero.Hero{}, fmt.Errorf("upsert hero %s: %w", h.ID, err)
	}
	return h, nil
}

func (s *Store) query(ctx context.Context, sql string, vars map[string]any) ([]hero.Hero, error) {
	results, err := surrealdb.Query[[]heroRecord](ctx, s.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("surrealdb query: %w", err)
	}
	heroes := make([]hero.Hero, 0)
	if results == nil {
		return heroes, nil
	}
	for _, r := range *results {
		if r.Status != "OK" {
			if r.Error != nil {
				return nil, fmt.Errorf("surrealdb query: %s", r.Error.Message)
			}
			return nil, fmt.Errorf("surrealdb query: status %s", r.Status)
		}
		for _, rec := range r.Result {
			heroes = append(heroes, fromRecord(rec))
		}
	}
	return heroes, nil
}

func fromRecord(r heroRecord) hero.Hero {
	h := hero.Hero{
		Name: r.Name,
		Race: hero.Race(r.Race),
		PowerStats: hero.PowerStats{
			Strength:     r.PowerStats.Strength,
			Agility:      r.PowerStats.Agility,
			Dexterity:    r.PowerStats.Dexterity,
			Intelligence: r.PowerStats.Intelligence,
		},
		Active: r.Active,
	}
	if r.ID != nil {
		h.ID = fmt.Sprint(r.ID.ID)
	}
	return h
}
