// Package storagetest is the behaviour every hero repository backend must share.
package storagetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	herosvc "hero-server/internal/app/hero"
	"hero-server/internal/domain/hero"
)

// Factory returns an empty repository for each subtest.
type Factory func(t *testing.T) herosvc.Repository

func Superman() hero.Hero {
	return hero.Hero{Name: "Superman", Race: hero.RaceAlien, PowerStats: hero.PowerStats{Strength: 100, Agility: 100, Dexterity: 50, Intelligence: 50}, Active: true}
}

func Batman() hero.Hero {
	return hero.Hero{Name: "Batman", Race: hero.RaceHuman, PowerStats: hero.PowerStats{Strength: 50, Agility: 50, Dexterity: 100, Intelligence: 100}, Active: true}
}

func Run(t *testing.T, newRepo Factory) {
	t.Helper()
	ctx := context.Background()

	t.Run("empty store lists nothing", func(t *testing.T) {
		repo := newRepo(t)
		heroes, err := repo.FindAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, heroes)
	})

	t.Run("save assigns id and round trips", func(t *testing.T) {
		repo := newRepo(t)
		saved, err := repo.Save(ctx, Superman())
		require.NoError(t, err)
		require.NotEmpty(t, saved.ID)

		got, err := repo.FindByID(ctx, saved.ID)
		require.NoError(t, err)
		want := Superman()
		want.ID = saved.ID
		assert.Equal(t, want, got)
	})

	t.Run("missing id is not found", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.Save(ctx, Superman())
		require.NoError(t, err)

		_, err = repo.FindByID(ctx, "does-not-exist")
		assert.ErrorIs(t, err, hero.ErrNotFound)
	})

	t.Run("save with id overwrites in place", func(t *testing.T) {
		repo := newRepo(t)
		first, err := repo.Save(ctx, Superman())
		require.NoError(t, err)
		_, err = repo.Save(ctx, Batman())
		require.NoError(t, err)

		updated := first
		updated.Name = "Clark Kent"
		updated.Race = hero.RaceHuman
		updated.PowerStats.Strength = 10
		updated.Active = false
		saved, err := repo.Save(ctx, updated)
		require.NoError(t, err)
		assert.Equal(t, first.ID, saved.ID)

		got, err := repo.FindByID(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, updated, got)

		all, err := repo.FindAll(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, "Clark Kent", all[0].Name)
		assert.Equal(t, "Batman", all[1].Name)
	})

	t.Run("list keeps insertion order", func(t *testing.T) {
		repo := newRepo(t)
		names := []string{"Wonder Woman", "Aquaman", "Zatanna", "Batman"}
		for _, name := range names {
			h := Batman()
			h.Name = name
			_, err := repo.Save(ctx, h)
			require.NoError(t, err)
		}
		all, err := repo.FindAll(ctx)
		require.NoError(t, err)
		got := make([]string, 0, len(all))
		for _, h := range all {
			got = append(got, h.Name)
			assert.NotEmpty(t, h.ID)
		}
		assert.Equal(t, names, got)
	})

	t.Run("name search ignores case", func(t *testing.T) {
		repo := newRepo(t)
		for _, name := range []string{"Superman", "Supergirl", "Batman"} {
			h := Superman()
			h.Name = name
			_, err := repo.Save(ctx, h)
			require.NoError(t, err)
		}

		super, err := repo.FindByNameContaining(ctx, "SUPER")
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"Superman", "Supergirl"}, names(super))

		man, err := repo.FindByNameContaining(ctx, "man")
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"Superman", "Batman"}, names(man))

		none, err := repo.FindByNameContaining(ctx, "Flash")
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("name search folds non-ASCII case", func(t *testing.T) {
		repo := newRepo(t)
		for _, name := range []string{"Élodie", "Ångström", "Batman"} {
			h := Batman()
			h.Name = name
			_, err := repo.Save(ctx, h)
			require.NoError(t, err)
		}

		upper, err := repo.FindByNameContaining(ctx, "éLODIE")
		require.NoError(t, err)
		assert.Equal(t, []string{"Élodie"}, names(upper))

		lower, err := repo.FindByNameContaining(ctx, "ångs")
		require.NoError(t, err)
		assert.Equal(t, []string{"Ångström"}, names(lower))
	})

	t.Run("name search treats pattern characters literally", func(t *testing.T) {
		repo := newRepo(t)
		for _, name := range []string{"100% Hero", "1000 Hero", "Mr_Fantastic", "Mr.Freeze"} {
			h := Batman()
			h.Name = name
			_, err := repo.Save(ctx, h)
			require.NoError(t, err)
		}

		pct, err := repo.FindByNameContaining(ctx, "0%")
		require.NoError(t, err)
		assert.Equal(t, []string{"100% Hero"}, names(pct))

		under, err := repo.FindByNameContaining(ctx, "r_f")
		require.NoError(t, err)
		assert.Equal(t, []string{"Mr_Fantastic"}, names(under))

		dot, err := repo.FindByNameContaining(ctx, "r.f")
		require.NoError(t, err)
		assert.Equal(t, []string{"Mr.Freeze"}, names(dot))
	})
}

func names(heroes []hero.Hero) []string {
	out := make([]string, 0, len(heroes))
	for _, h := range heroes {
		out = append(out, h.Name)
	}
	return out
}
