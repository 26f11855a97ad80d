package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/comitanigiacomo/habitflow-sync-engine/internal/core/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const documentsCollection = "habit_documents"

var _ domain.SnapshotRepository = (*MongoSnapshotRepository)(nil)

// MongoSnapshotRepository keeps one document per user in habit_documents,
// keyed by user id.
type MongoSnapshotRepository struct {
	c       *mongo.Collection
	timeout time.Duration
}

type mongoDocument struct {
	UserID          string `bson:"_id"`
	domain.Snapshot `bson:",inline"`
}

func NewMongoSnapshotRepository(db *mongo.Database) *MongoSnapshotRepository {
	return &MongoSnapshotRepository{
		c:       db.Collection(documentsCollection),
		timeout: 5 * time.Second,
	}
}

// ConnectMongo opens a client and checks it with a ping.
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	opts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}
	return client, nil
}

// EnsureIndexes creates the secondary indexes used for maintenance queries.
func (r *MongoSnapshotRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	_, err := r.c.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "updatedAt", Value: -1}},
		Options: options.Index().SetName("idx_documents_updated_at"),
	})
	if err != nil {
		return fmt.Errorf("repository: create mongo index: %w", err)
	}
	return nil
}

func (r *MongoSnapshotRepository) Load(ctx context.Context, userID string) (*domain.Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var doc mongoDocument
	err := r.c.FindOne(ctx, bson.M{"_id": userID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("repository: load mongo document failed: %w", err)
	}

	snap := doc.Snapshot
	if snap.Habits == nil {
		snap.Habits = make(map[string]domain.Habit)
	}
	if snap.HabitCompletion == nil {
		snap.HabitCompletion = make(map[string][]string)
	}
	if snap.ActivityLog == nil {
		snap.ActivityLog = make(map[string]bool)
	}
	return &snap, nil
}

func (r *MongoSnapshotRepository) Save(ctx context.Context, userID string, snap *domain.Snapshot) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	doc := mongoDocument{UserID: userID, Snapshot: *snap}
	if doc.UpdatedAt.IsZero() {
		doc.UpdatedAt = time.Now().UTC()
	}

	opts := options.Replace().SetUpsert(true)
	if _, err := r.c.ReplaceOne(ctx, bson.M{"_id": userID}, doc, opts); err != nil {
		return fmt.Errorf("repository: save mongo document failed: %w", err)
	}
	return nil
}

func (r *MongoSnapshotRepository) Delete(ctx context.Context, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if _, err := r.c.DeleteOne(ctx, bson.M{"_id": userID}); err != nil {
		return fmt.Errorf("repository: delete mongo document failed: %w", err)
	}
	return nil
}
