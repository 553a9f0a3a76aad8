// Package memory keeps heroes in a go-memdb database. Contents are lost on
// restart; it backs local runs and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/hashicorp/go-memdb"

	"hero-server/internal/domain/hero"
)

const (
	tableHeroes = "heroes"
	indexID     = "id"
)

type record struct {
	ID   string
	Seq  uint64
	Hero hero.Hero
}

func schema() *memdb.DBSchema {
	return &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			tableHeroes: {
				Name: tableHeroes,
				Indexes: map[string]*memdb.IndexSchema{
					indexID: {
						Name:    indexID,
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "ID"},
					},
				},
			},
		},
	}
}

type Store struct {
	db  *memdb.MemDB
	seq atomic.Uint64
}

func New() (*Store, error) {
	db, err := memdb.NewMemDB(schema())
	if err != nil {
		return nil, fmt.Errorf("create memdb: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

func (s *Store) FindAll(ctx context.Context) ([]hero.Hero, error) {
	return s.scan(ctx, func(hero.Hero) bool { return true })
}

func (s *Store) FindByID(ctx context.Context, id string) (hero.Hero, error) {
	if err := ctx.Err(); err != nil {
		return hero.Hero{}, err
	}
	txn := s.db.Txn(false)
	defer txn.Abort()
	raw, err := txn.First(tableHeroes, indexID, id)
	if err != nil {
		return hero.Hero{}, fmt.Errorf("lookup hero %s: %w", id, err)
	}
	if raw == nil {
		return hero.Hero{}, hero.ErrNotFound
	}
	return raw.(*record).Hero, nil
}

func (s *Store) FindByNameContaining(ctx context.Context, name string) ([]hero.Hero, error) {
	needle := strings.ToLower(name)
	return s.scan(ctx, func(h hero.Hero) bool {
		return strings.Contains(strings.ToLower(h.Name), needle)
	})
}

func (s *Store) Save(ctx context.Context, h hero.Hero) (hero.Hero, error) {
	if err := ctx.Err(); err != nil {
		return hero.Hero{}, err
	}
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	txn := s.db.Txn(true)
	defer txn.Abort()

	rec := &record{ID: h.ID, Hero: h}
	existing, err := txn.First(tableHeroes, indexID, h.ID)
	if err != nil {
		return hero.Hero{}, fmt.Errorf("lookup hero %s: %w", h.ID, err)
	}
	if existing != nil {
		rec.Seq = existing.(*record).Seq
	} else {
		rec.Seq = s.seq.Add(1)
	}
	if err := txn.Insert(tableHeroes, rec); err != nil {
		return hero.Hero{}, fmt.Errorf("insert hero %s: %w", h.ID, err)
	}
	txn.Commit()
	return h, nil
}

func (s *Store) scan(ctx context.Context, keep func(hero.Hero) bool) ([]hero.Hero, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	txn := s.db.Txn(false)
	defer txn.Abort()
	it, err := txn.Get(tableHeroes, indexID)
	if err != nil {
		return nil, fmt.Errorf("scan heroes: %w", err)
	}
	var recs []*record
	for raw := it.Next(); raw != nil; raw = it.Next() {
		rec := raw.(*record)
		if keep(rec.Hero) {
			recs = append(recs, rec)
		}
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].Seq < recs[j].Seq })

	out := make([]hero.Hero, 0, len(recs))
	for _, rec := range recs {
		out = append(out, rec.Hero)
	}
	return out, nil
}
