// Package sqlite provides a SQLite-backed hero repository.
package sqlite

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	sqlitedriver "modernc.org/sqlite"

	"hero-server/internal/domain/hero"
	"hero-server/internal/platform/migrate"
	"hero-server/internal/storage/sqlite/migrations"
)

const heroColumns = `id, name, race, strength, agility, dexterity, intelligence, active`

// foldFunc lowercases with Go's Unicode tables. SQLite's built-in LOWER only
// folds ASCII.
const foldFunc = "hero_fold"

func init() {
	sqlitedriver.MustRegisterDeterministicScalarFunction(foldFunc, 1, fold)
}

func fold(_ *sqlitedriver.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case nil:
		return nil, nil
	case string:
		return strings.ToLower(v), nil
	case []byte:
		return strings.ToLower(string(v)), nil
	default:
		return nil, fmt.Errorf("%s: unsupported argument %T", foldFunc, v)
	}
}

type Store struct {
	sqlDB *sql.DB
}

// Open opens (creating if needed) the database at path and applies embedded
// migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	if dir := filepath.Dir(cleanPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}
	dsn := cleanPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := migrate.UpSQL(ctx, sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.sqlDB.PingContext(ctx)
}

func (s *Store) FindAll(ctx context.Context) ([]hero.Hero, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT `+heroColumns+` FROM heroes ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("query heroes: %w", err)
	}
	return scanHeroes(rows)
}

func (s *Store) FindByID(ctx context.Context, id string) (hero.Hero, error) {
	row := s.sqlDB.QueryRowContext(ctx, `SELECT `+heroColumns+` FROM heroes WHERE id = ?`, id)
	h, err := scanHero(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return hero.Hero{}, hero.ErrNotFound
		}
		return hero.Hero{}, fmt.Errorf("query hero: %w", err)
	}
	return h, nil
}

func (s *Store) FindByNameContaining(ctx context.Context, name string) ([]hero.Hero, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT `+heroColumns+` FROM heroes
WHERE `+foldFunc+`(name) LIKE '%' || ? || '%' ESCAPE '\'
ORDER BY seq ASC`, escapeLike(strings.ToLower(name)))
	if err != nil {
		return nil, fmt.Errorf("search heroes: %w", err)
	}
	return scanHeroes(rows)
}

func (s *Store) Save(ctx context.Context, h hero.Hero) (hero.Hero, error) {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	now := time.Now().UTC().UnixMilli()
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO heroes (id, name, race, strength, agility, dexterity, intelligence, active, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    name = excluded.name,
    race = excluded.race,
    strength = excluded.strength,
    agility = excluded.agility,
    dexterity = excluded.dexterity,
    intelligence = excluded.intelligence,
    active = excluded.active,
    updated_at = excluded.updated_at`,
		h.ID, h.Name, string(h.Race),
		h.PowerStats.Strength, h.PowerStats.Agility, h.PowerStats.Dexterity, h.PowerStats.Intelligence,
		h.Active, now, now,
	)
	if err != nil {
		return hero.Hero{}, fmt.Errorf("upsert hero: %w", err)
	}
	return h, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanHero(row scanner) (hero.Hero, error) {
	var h hero.Hero
	var race string
	err := row.Scan(&h.ID, &h.Name, &race,
		&h.PowerStats.Strength, &h.PowerStats.Agility, &h.PowerStats.Dexterity, &h.PowerStats.Intelligence,
		&h.Active)
	if err != nil {
		return hero.Hero{}, err
	}
	h.Race = hero.Race(race)
	return h, nil
}

func scanHeroes(rows *sql.Rows) ([]hero.Hero, error) {
	defer rows.Close()
	heroes := make([]hero.Hero, 0)
	for rows.Next() {
		h, err := scanHero(rows)
		if err != nil {
			return nil, fmt.Errorf("scan hero: %w", err)
		}
		heroes = append(heroes, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate heroes: %w", err)
	}
	return heroes, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
