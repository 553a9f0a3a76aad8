package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"hero-server/internal/domain/hero"
	"hero-server/internal/platform/migrate"
	"hero-server/internal/storage/postgres/migrations"
)

const heroColumns = `id, name, race, strength, agility, dexterity, intelligence, active`

type Store struct {
	db *pgxpool.Pool
}

// New applies pending migrations before returning the store. The pool stays
// owned by the caller.
func New(ctx context.Context, db *pgxpool.Pool) (*Store, error) {
	if err := migrate.Up(ctx, db, migrations.FS); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func (s *Store) FindAll(ctx context.Context) ([]hero.Hero, error) {
	rows, err := s.db.Query(ctx, `SELECT `+heroColumns+` FROM heroes ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("query heroes: %w", err)
	}
	return collect(rows)
}

func (s *Store) FindByID(ctx context.Context, id string) (hero.Hero, error) {
	rows, err := s.db.Query(ctx, `SELECT `+heroColumns+` FROM heroes WHERE id = $1`, id)
	if err != nil {
		return hero.Hero{}, fmt.Errorf("query hero: %w", err)
	}
	h, err := pgx.CollectExactlyOneRow(rows, scanHero)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return hero.Hero{}, hero.ErrNotFound
		}
		return hero.Hero{}, fmt.Errorf("scan hero: %w", err)
	}
	return h, nil
}

// FindByNameContaining matches against name_folded, which Save writes with
// strings.ToLower.
func (s *Store) FindByNameContaining(ctx context.Context, name string) ([]hero.Hero, error) {
	rows, err := s.db.Query(ctx, `
SELECT `+heroColumns+` FROM heroes
WHERE name_folded LIKE '%' || $1 || '%' ESCAPE '\'
ORDER BY seq ASC
`, escapeLike(strings.ToLower(name)))
	if err != nil {
		return nil, fmt.Errorf("search heroes: %w", err)
	}
	return collect(rows)
}

func (s *Store) Save(ctx context.Context, h hero.Hero) (hero.Hero, error) {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	var saved hero.Hero
	var race string
	err := s.db.QueryRow(ctx, `
INSERT INTO heroes (id, name, race, strength, agility, dexterity, intelligence, active, name_folded)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (id) DO UPDATE SET
    name = EXCLUDED.name,
    name_folded = EXCLUDED.name_folded,
    race = EXCLUDED.race,
    strength = EXCLUDED.strength,
    agility = EXCLUDED.agility,
    dexterity = EXCLUDED.dexterity,
    intelligence = EXCLUDED.intelligence,
    active = EXCLUDED.active,
    updated_at = NOW()
RETURNING `+heroColumns,
		h.ID, h.Name, string(h.Race),
		h.PowerStats.Strength, h.PowerStats.Agility, h.PowerStats.Dexterity, h.PowerStats.Intelligence,
		h.Active, strings.ToLower(h.Name),
	).Scan(&saved.ID, &saved.Name, &race,
		&saved.PowerStats.Strength, &saved.PowerStats.Agility, &saved.PowerStats.Dexterity, &saved.PowerStats.Intelligence,
		&saved.Active)
	if err != nil {
		return hero.Hero{}, fmt.Errorf("upsert hero: %w", err)
	}
	saved.Race = hero.Race(race)
	return saved, nil
}

func scanHero(row pgx.CollectableRow) (hero.Hero, error) {
	var h hero.Hero
	var race string
	err := row.Scan(&h.ID, &h.Name, &race,
		&h.PowerStats.Strength, &h.PowerStats.Agility, &h.PowerStats.Dexterity, &h.PowerStats.Intelligence,
		&h.Active)
	h.Race = hero.Race(race)
	return h, err
}

func collect(rows pgx.Rows) ([]hero.Hero, error) {
	heroes, err := pgx.CollectRows(rows, scanHero)
	if err != nil {
		return nil, fmt.Errorf("scan heroes: %w", err)
	}
	if heroes == nil {
		heroes = make([]hero.Hero, 0)
	}
	return heroes, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
