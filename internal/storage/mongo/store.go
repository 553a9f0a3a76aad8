// Package mongo stores heroes as documents in a MongoDB collection. Ids are
// ObjectID hex strings generated on first insert.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"hero-server/internal/domain/hero"
)

const DefaultCollection = "heroes"

type powerStatsDocument struct {
	Strength     int `bson:"strength"`
	Agility      int `bson:"agility"`
	Dexterity    int `bson:"dexterity"`
	Intelligence int `bson:"intelligence"`
}

type heroDocument struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	Name       string             `bson:"name"`
	Race       string             `bson:"race"`
	PowerStats powerStatsDocument `bson:"powerStats"`
	Active     bool               `bson:"active"`
}

type Store struct {
	client *mongo.Client
	coll   *mongo.Collection
}

func New(client *mongo.Client, database, collection string) *Store {
	if collection == "" {
		collection = DefaultCollection
	}
	return &Store{client: client, coll: client.Database(database).Collection(collection)}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *Store) FindAll(ctx context.Context) ([]hero.Hero, error) {
	return s.find(ctx, bson.D{})
}

func (s *Store) FindByID(ctx context.Context, id string) (hero.Hero, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return hero.Hero{}, hero.ErrNotFound
	}
	var doc heroDocument
	if err := s.coll.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return hero.Hero{}, hero.ErrNotFound
		}
		return hero.Hero{}, fmt.Errorf("find hero %s: %w", id, err)
	}
	return fromDocument(doc), nil
}

func (s *Store) FindByNameContaining(ctx context.Context, name string) ([]hero.Hero, error) {
	filter := bson.D{{Key: "name", Value: primitive.Regex{Pattern: regexp.QuoteMeta(name), Options: "i"}}}
	return s.find(ctx, filter)
}

func (s *Store) Save(ctx context.Context, h hero.Hero) (hero.Hero, error) {
	doc := toDocument(h)
	if h.ID == "" {
		res, err := s.coll.InsertOne(ctx, doc)
		if err != nil {
			return hero.Hero{}, fmt.Errorf("insert hero: %w", err)
		}
		oid, ok := res.InsertedID.(primitive.ObjectID)
		if !ok {
			return hero.Hero{}, fmt.Errorf("insert hero: unexpected id type %T", res.InsertedID)
		}
		h.ID = oid.Hex()
		return h, nil
	}

	oid, err := primitive.ObjectIDFromHex(h.ID)
	if err != nil {
		return hero.Hero{}, fmt.Errorf("%w: id %q is not an object id", hero.ErrInvalidHero, h.ID)
	}
	doc.ID = oid
	_, err = s.coll.ReplaceOne(ctx, bson.D{{Key: "_id", Value: oid}}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return hero.Hero{}, fmt.Errorf("replace hero %s: %w", h.ID, err)
	}
	return h, nil
}

func (s *Store) find(ctx context.Context, filter bson.D) ([]hero.Hero, error) {
	cur, err := s.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find heroes: %w", err)
	}
	var docs []heroDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode heroes: %w", err)
	}
	heroes := make([]hero.Hero, 0, len(docs))
	for _, d := range docs {
		heroes = append(heroes, fromDocument(d))
	}
	return heroes, nil
}

func toDocument(h hero.Hero) heroDocument {
	return heroDocument{
		Name: h.Name,
		Race: string(h.Race),
		PowerStats: powerStatsDocument{
			Strength:     h.PowerStats.Strength,
			Agility:      h.PowerStats.Agility,
			Dexterity:    h.PowerStats.Dexterity,
			Intelligence: h.PowerStats.Intelligence,
		},
		Active: h.Active,
	}
}

func fromDocument(d heroDocument) hero.Hero {
	return hero.Hero{
		ID:   d.ID.Hex(),
		Name: d.Name,
		Race: hero.Race(d.Race),
		PowerStats: hero.PowerStats{
			Strength:     d.PowerStats.Strength,
			Agility:      d.PowerStats.Agility,
			Dexterity:    d.PowerStats.Dexterity,
			Intelligence: d.PowerStats.Intelligence,
		},
		Active: d.Active,
	}
}
