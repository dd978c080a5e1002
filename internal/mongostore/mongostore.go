// Package mongostore is a MongoDB-backed repository for the REST server.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"rehabinv-cli/internal/inventory"
	"rehabinv-cli/internal/model"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const collectionName = "items"

type itemDoc struct {
	ID        string    `bson:"_id"`
	Name      string    `bson:"name"`
	NameFold  string    `bson:"name_fold"`
	Type      string    `bson:"type"`
	Value     int       `bson:"value"`
	Notes     string    `bson:"notes,omitempty"`
	UpdatedAt time.Time `bson:"updated_at"`
	Position  int64     `bson:"position"`
}

func toDoc(it model.Item, position int64) itemDoc {
	return itemDoc{
		ID:        it.ID,
		Name:      it.Name,
		NameFold:  inventory.Fold(strings.TrimSpace(it.Name)),
		Type:      string(it.Type),
		Value:     it.Value,
		Notes:     it.Notes,
		UpdatedAt: it.UpdatedAt.UTC(),
		Position:  position,
	}
}

func (d itemDoc) item() model.Item {
	return model.Item{
		ID:        d.ID,
		Name:      d.Name,
		Type:      model.ItemType(d.Type),
		Value:     d.Value,
		Notes:     d.Notes,
		UpdatedAt: d.UpdatedAt,
	}
}

type Store struct {
	client *mongo.Client
	coll   *mongo.Collection
	log    *zap.Logger
}

// Connect dials uri, pings it and ensures the collection indexes.
func Connect(ctx context.Context, uri, dbName string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	clientOptions := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(10 * time.Second)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}
	s := New(client.Database(dbName), logger)
	s.client = client
	if err := s.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	logger.Info("mongodb connected", zap.String("db", dbName))
	return s, nil
}

// New wraps an existing database handle. Close is a no-op for stores built this way.
func New(db *mongo.Database, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{coll: db.Collection(collectionName), log: logger}
}

func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "name_fold", Value: 1}}, Options: options.Index().SetName("idx_items_name_fold")},
		{Keys: bson.D{{Key: "position", Value: 1}}, Options: options.Index().SetName("idx_items_position")},
	})
	if err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}
	return nil
}

func (s *Store) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}

func (s *Store) Describe() string { return "mongo " + s.coll.Database().Name() }

func (s *Store) GetAll(ctx context.Context) ([]model.Item, error) {
	opts := options.Find().SetSort(bson.D{{Key: "position", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find items: %w", err)
	}
	var docs []itemDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode items: %w", err)
	}
	out := make([]model.Item, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.item())
	}
	return out, nil
}

func (s *Store) nextPosition(ctx context.Context) (int64, error) {
	var last itemDoc
	opts := options.FindOne().SetSort(bson.D{{Key: "position", Value: -1}}).SetProjection(bson.D{{Key: "position", Value: 1}})
	err := s.coll.FindOne(ctx, bson.D{}, opts).Decode(&last)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return last.Position + 1, nil
}

func (s *Store) AddItem(ctx context.Context, draft model.ItemDraft) (model.Item, error) {
	if err := inventory.ValidateValue(draft.Value, draft.Type); err != nil {
		return model.Item{}, err
	}
	name := strings.TrimSpace(draft.Name)
	if name == "" {
		return model.Item{}, &inventory.ValidationError{Field: "name", Err: inventory.ErrNameRequired}
	}
	n, err := s.coll.CountDocuments(ctx, bson.D{{Key: "name_fold", Value: inventory.Fold(name)}})
	if err != nil {
		return model.Item{}, err
	}
	if n > 0 {
		return model.Item{}, &inventory.ValidationError{Field: "name", Err: inventory.ErrDuplicateName}
	}
	pos, err := s.nextPosition(ctx)
	if err != nil {
		return model.Item{}, err
	}
	updated := draft.UpdatedAt
	if updated.IsZero() {
		updated = time.Now()
	}
	it := model.Item{
		ID:        uuid.NewString(),
		Name:      name,
		Type:      draft.Type,
		Value:     draft.Value,
		Notes:     strings.TrimSpace(draft.Notes),
		UpdatedAt: updated.UTC().Truncate(time.Millisecond),
	}
	if _, err := s.coll.InsertOne(ctx, toDoc(it, pos)); err != nil {
		return model.Item{}, fmt.Errorf("insert item: %w", err)
	}
	return it, nil
}

func (s *Store) UpdateItem(ctx context.Context, id string, patch model.ItemPatch) (model.Item, error) {
	var cur itemDoc
	if err := s.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&cur); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return model.Item{}, fmt.Errorf("%w: %s", model.ErrNotFound, id)
		}
		return model.Item{}, err
	}
	next := patch.Apply(cur.item())
	next.Value = inventory.Clamp(next.Value, next.Type)
	next.UpdatedAt = next.UpdatedAt.UTC().Truncate(time.Millisecond)

	set := bson.D{
		{Key: "value", Value: next.Value},
		{Key: "notes", Value: next.Notes},
		{Key: "updated_at", Value: next.UpdatedAt},
	}
	res, err := s.coll.UpdateOne(ctx, bson.D{{Key: "_id", Value: id}}, bson.D{{Key: "$set", Value: set}})
	if err != nil {
		return model.Item{}, fmt.Errorf("update item: %w", err)
	}
	if res.MatchedCount == 0 {
		return model.Item{}, fmt.Errorf("%w: %s", model.ErrNotFound, id)
	}
	return next, nil
}

func (s *Store) DeleteItem(ctx context.Context, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%w: %s", model.ErrNotFound, id)
	}
	return nil
}

// UpsertAll replaces documents by id (keeping their position) and appends new ones.
func (s *Store) UpsertAll(ctx context.Context, items []model.Item) ([]model.Item, error) {
	next, err := s.nextPosition(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.Item, 0, len(items))
	for _, it := range items {
		if !it.Type.Valid() {
			return nil, inventory.ValidateValue(it.Value, it.Type)
		}
		it.Name = strings.TrimSpace(it.Name)
		it.Value = inventory.Clamp(it.Value, it.Type)
		if it.UpdatedAt.IsZero() {
			it.UpdatedAt = time.Now()
		}
		it.UpdatedAt = it.UpdatedAt.UTC().Truncate(time.Millisecond)

		pos := next
		if it.ID == "" {
			it.ID = uuid.NewString()
			next++
		} else {
			var cur itemDoc
			err := s.coll.FindOne(ctx, bson.D{{Key: "_id", Value: it.ID}}).Decode(&cur)
			switch {
			case err == nil:
				pos = cur.Position
			case errors.Is(err, mongo.ErrNoDocuments):
				next++
			default:
				return nil, err
			}
		}
		opts := options.Replace().SetUpsert(true)
		if _, err := s.coll.ReplaceOne(ctx, bson.D{{Key: "_id", Value: it.ID}}, toDoc(it, pos), opts); err != nil {
			return nil, fmt.Errorf("upsert item %s: %w", it.ID, err)
		}
		out = append(out, it)
	}
	s.log.Debug("upserted items", zap.Int("count", len(out)))
	return out, nil
}

func (s *Store) Clear(ctx context.Context) error {
	_, err := s.coll.DeleteMany(ctx, bson.D{})
	return err
}
