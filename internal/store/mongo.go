package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"cyberguard/pkg/models"
)

// MongoConfig configures the MongoDB backend.
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
	Timeout    time.Duration
}

// Mongo is a MongoDB-backed durable store.
type Mongo struct {
	client *mongo.Client
	coll   *mongo.Collection
}

type mongoRecord struct {
	models.Threat `bson:",inline"`
	CreatedAt     time.Time `bson:"created_at"`
}

// NewMongo connects to MongoDB and verifies the connection with a ping.
func NewMongo(ctx context.Context, cfg MongoConfig) (*Mongo, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("mongo URI is required")
	}
	if cfg.Database == "" {
		cfg.Database = "cyberguard"
	}
	if cfg.Collection == "" {
		cfg.Collection = "threats"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}

	cctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	client, err := mongo.Connect(cctx, options.Client().ApplyURI(cfg.URI).SetServerSelectionTimeout(cfg.Timeout))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(cctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	return &Mongo{
		client: client,
		coll:   client.Database(cfg.Database).Collection(cfg.Collection),
	}, nil
}

// Insert writes one threat record and returns the document id.
func (m *Mongo) Insert(ctx context.Context, t *models.Threat) (string, error) {
	rec := mongoRecord{Threat: *t, CreatedAt: time.Now().UTC()}
	res, err := m.coll.InsertOne(ctx, rec)
	if err != nil {
		return "", fmt.Errorf("mongo insert: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		return oid.Hex(), nil
	}
	return fmt.Sprintf("%v", res.InsertedID), nil
}

// Recent returns up to limit threats sorted by occurrence time descending.
func (m *Mongo) Recent(ctx context.Context, limit int) ([]*models.Threat, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "occurred_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := m.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo find: %w", err)
	}

	var threats []*models.Threat
	if err := cursor.All(ctx, &threats); err != nil {
		return nil, fmt.Errorf("mongo decode: %w", err)
	}
	return threats, nil
}

// Get returns the threat with the given event id.
func (m *Mongo) Get(ctx context.Context, id string) (*models.Threat, error) {
	var t models.Threat
	err := m.coll.FindOne(ctx, bson.D{{Key: "id", Value: id}}).Decode(&t)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mongo find one: %w", err)
	}
	return &t, nil
}

// Stats counts all threats and CRITICAL threats. Counts are taken live.
func (m *Mongo) Stats(ctx context.Context) (models.Stats, error) {
	total, err := m.coll.CountDocuments(ctx, bson.D{})
	if err != nil {
		return models.Stats{}, fmt.Errorf("mongo count: %w", err)
	}
	critical, err := m.coll.CountDocuments(ctx, bson.D{{Key: "severity", Value: models.SeverityCritical}})
	if err != nil {
		return models.Stats{}, fmt.Errorf("mongo count critical: %w", err)
	}
	return models.Stats{Total: total, Critical: critical}, nil
}

// Ping checks backend reachability.
func (m *Mongo) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, nil)
}

// Close disconnects the client.
func (m *Mongo) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}
