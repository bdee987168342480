// Package mongo provides a MongoDB-backed guild store.
//
// Each guild persists as a single document; every mutation is a field-level
// atomic update scoped by guild id so concurrent commands never overwrite
// each other's unrelated fields.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/louisbranch/tribunal/internal/storage"
)

const guildCollection = "guilds"

const defaultConnectTimeout = 10 * time.Second

// Store persists guild aggregates in MongoDB.
type Store struct {
	client *mongo.Client
	guilds *mongo.Collection
}

// Open connects to MongoDB and prepares the guild collection.
func Open(ctx context.Context, uri, database string) (*Store, error) {
	if uri == "" {
		return nil, fmt.Errorf("mongo uri is required")
	}
	if database == "" {
		return nil, fmt.Errorf("mongo database is required")
	}

	connectCtx, cancel := context.WithTimeout(ctx, defaultConnectTimeout)
	defer cancel()
	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	guilds := client.Database(database).Collection(guildCollection)
	// The unique index makes the find-or-insert upsert race-free: concurrent
	// upserts for the same guild id cannot create two documents.
	_, err = guilds.Indexes().CreateOne(connectCtx, mongo.IndexModel{
		Keys:    bson.D{{Key: "guild_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ensure guild index: %w", err)
	}

	return &Store{client: client, guilds: guilds}, nil
}

// Close disconnects from MongoDB.
func (s *Store) Close(ctx context.Context) error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}

func guildFilter(guildID string) bson.M {
	return bson.M{"guild_id": guildID}
}

// FindOrInsertGuild returns the aggregate, atomically inserting a
// default-empty one when absent.
func (s *Store) FindOrInsertGuild(ctx context.Context, guildID string) (storage.GuildState, error) {
	update := bson.M{"$setOnInsert": bson.M{
		"guild_id":       guildID,
		"lawsuits":       bson.A{},
		"court_rooms":    bson.A{},
		"prison_entries": bson.A{},
	}}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var state storage.GuildState
	err := s.guilds.FindOneAndUpdate(ctx, guildFilter(guildID), update, opts).Decode(&state)
	if err != nil {
		return storage.GuildState{}, fmt.Errorf("find or insert guild %s: %w", guildID, err)
	}
	return state, nil
}

func (s *Store) setField(ctx context.Context, guildID, field, value string) error {
	update := bson.M{
		"$set":         bson.M{field: value},
		"$setOnInsert": bson.M{"guild_id": guildID},
	}
	opts := options.Update().SetUpsert(true)
	if _, err := s.guilds.UpdateOne(ctx, guildFilter(guildID), update, opts); err != nil {
		return fmt.Errorf("set %s for guild %s: %w", field, guildID, err)
	}
	return nil
}

// SetPrisonRole updates the configured prison role.
func (s *Store) SetPrisonRole(ctx context.Context, guildID, roleID string) error {
	return s.setField(ctx, guildID, "prison_role_id", roleID)
}

// SetCourtCategory updates the configured court category.
func (s *Store) SetCourtCategory(ctx context.Context, guildID, categoryID string) error {
	return s.setField(ctx, guildID, "court_category_id", categoryID)
}

// AddLawsuit appends a lawsuit to the guild ledger.
func (s *Store) AddLawsuit(ctx context.Context, guildID string, lawsuit storage.Lawsuit) error {
	update := bson.M{
		"$push":        bson.M{"lawsuits": lawsuit},
		"$setOnInsert": bson.M{"guild_id": guildID},
	}
	opts := options.Update().SetUpsert(true)
	if _, err := s.guilds.UpdateOne(ctx, guildFilter(guildID), update, opts); err != nil {
		return fmt.Errorf("add lawsuit to guild %s: %w", guildID, err)
	}
	return nil
}

// SetVerdict records the verdict for an active lawsuit. The filter matches
// only a verdict-less array element, so an already-adjudicated case reports
// ErrNotFound and the first verdict stands.
func (s *Store) SetVerdict(ctx context.Context, guildID, lawsuitID, verdict string) error {
	filter := bson.M{
		"guild_id": guildID,
		"lawsuits": bson.M{"$elemMatch": bson.M{
			"id":      lawsuitID,
			"verdict": bson.M{"$in": bson.A{nil, ""}},
		}},
	}
	update := bson.M{"$set": bson.M{"lawsuits.$.verdict": verdict}}
	result, err := s.guilds.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("set verdict for lawsuit %s: %w", lawsuitID, err)
	}
	if result.MatchedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// AddCourtRoom appends a court room to the guild aggregate.
func (s *Store) AddCourtRoom(ctx context.Context, guildID string, room storage.CourtRoom) error {
	update := bson.M{
		"$push":        bson.M{"court_rooms": room},
		"$setOnInsert": bson.M{"guild_id": guildID},
	}
	opts := options.Update().SetUpsert(true)
	if _, err := s.guilds.UpdateOne(ctx, guildFilter(guildID), update, opts); err != nil {
		return fmt.Errorf("add court room to guild %s: %w", guildID, err)
	}
	return nil
}

// AddPrisonEntry records a member as imprisoned. $addToSet keeps the
// operation idempotent.
func (s *Store) AddPrisonEntry(ctx context.Context, guildID, memberID string) error {
	update := bson.M{
		"$addToSet":    bson.M{"prison_entries": memberID},
		"$setOnInsert": bson.M{"guild_id": guildID},
	}
	opts := options.Update().SetUpsert(true)
	if _, err := s.guilds.UpdateOne(ctx, guildFilter(guildID), update, opts); err != nil {
		return fmt.Errorf("add prison entry for member %s: %w", memberID, err)
	}
	return nil
}

// RemovePrisonEntry removes a member's prison entry.
func (s *Store) RemovePrisonEntry(ctx context.Context, guildID, memberID string) error {
	update := bson.M{"$pull": bson.M{"prison_entries": memberID}}
	if _, err := s.guilds.UpdateOne(ctx, guildFilter(guildID), update); err != nil {
		return fmt.Errorf("remove prison entry for member %s: %w", memberID, err)
	}
	return nil
}

// HasPrisonEntry reports whether the member is recorded as imprisoned.
func (s *Store) HasPrisonEntry(ctx context.Context, guildID, memberID string) (bool, error) {
	filter := bson.M{
		"guild_id":       guildID,
		"prison_entries": memberID,
	}
	err := s.guilds.FindOne(ctx, filter, options.FindOne().SetProjection(bson.M{"_id": 1})).Err()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, nil
		}
		return false, fmt.Errorf("find prison entry for member %s: %w", memberID, err)
	}
	return true, nil
}

// DeleteGuild hard-clears the entire aggregate.
func (s *Store) DeleteGuild(ctx context.Context, guildID string) error {
	if _, err := s.guilds.DeleteOne(ctx, guildFilter(guildID)); err != nil {
		return fmt.Errorf("delete guild %s: %w", guildID, err)
	}
	return nil
}
