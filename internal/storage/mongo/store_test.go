package mongo

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	herosvc "hero-server/internal/app/hero"
	"hero-server/internal/domain/hero"
	"hero-server/internal/platform/docstore"
	"hero-server/internal/storage/storagetest"
)

func TestDocumentMapping(t *testing.T) {
	h := storagetest.Superman()
	doc := toDocument(h)
	assert.True(t, doc.ID.IsZero())
	assert.Equal(t, "ALIEN", doc.Race)
	assert.Equal(t, 100, doc.PowerStats.Strength)

	back := fromDocument(doc)
	back.ID = ""
	assert.Equal(t, h, back)
}

// Set MONGO_TEST_URI to run against a live server. Each subtest uses its own
// collection.
func TestStoreConformance(t *testing.T) {
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}
	ctx := context.Background()
	client, err := docstore.ConnectMongo(ctx, uri)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(ctx) })

	storagetest.Run(t, func(t *testing.T) herosvc.Repository {
		name := "heroes_" + uuid.NewString()[:8]
		s := New(client, "hero_server_test", name)
		t.Cleanup(func() { _ = s.coll.Drop(ctx) })
		return s
	})

	t.Run("non object id on save is rejected", func(t *testing.T) {
		s := New(client, "hero_server_test", "heroes_"+uuid.NewString()[:8])
		defer func() { _ = s.coll.Drop(ctx) }()
		h := storagetest.Batman()
		h.ID = "not-hex"
		_, err := s.Save(ctx, h)
		assert.ErrorIs(t, err, hero.ErrInvalidHero)
	})
}
