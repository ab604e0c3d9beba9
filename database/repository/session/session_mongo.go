package sessionRepo

import (
	"context"
	"fmt"
	"time"

	"babyspa/database"
	"babyspa/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoSessionRepo struct {
	coll *mongo.Collection
}

func NewMongoSessionRepo() *MongoSessionRepo {
	return &MongoSessionRepo{coll: database.Collection("sessions")}
}

func (r *MongoSessionRepo) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return database.WithTransaction(ctx, fn)
}

func (r *MongoSessionRepo) Create(ctx context.Context, s *models.Session) error {
	now := time.Now()
	s.CreatedAt = now
	s.UpdatedAt = now

	_, err := r.coll.InsertOne(ctx, s)
	if mongo.IsDuplicateKeyError(err) {
		return ErrSessionExists
	}
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (r *MongoSessionRepo) GetByID(ctx context.Context, id string) (*models.Session, error) {
	var s models.Session
	err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&s)
	if err == mongo.ErrNoDocuments {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch session %s: %w", id, err)
	}
	return &s, nil
}

func (r *MongoSessionRepo) GetByAppointmentID(ctx context.Context, appointmentID string) (*models.Session, error) {
	var s models.Session
	err := r.coll.FindOne(ctx, bson.M{"appointment_id": appointmentID}).Decode(&s)
	if err == mongo.ErrNoDocuments {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch session for appointment %s: %w", appointmentID, err)
	}
	return &s, nil
}

func (r *MongoSessionRepo) AddProduct(ctx context.Context, sessionID string, p models.ProductUsage) error {
	filter := bson.M{"id": sessionID, "status": models.SessionPending}
	update := bson.M{
		"$push": bson.M{"products": p},
		"$set":  bson.M{"updated_at": time.Now()},
	}
	result, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to add product to session %s: %w", sessionID, err)
	}
	if result.MatchedCount == 0 {
		return ErrNotPending
	}
	return nil
}

func (r *MongoSessionRepo) LinkPurchase(ctx context.Context, sessionID, purchaseID string) error {
	result, err := r.coll.UpdateOne(ctx,
		bson.M{"id": sessionID},
		bson.M{"$set": bson.M{"package_purchase_id": purchaseID, "updated_at": time.Now()}},
	)
	if err != nil {
		return fmt.Errorf("failed to link purchase to session %s: %w", sessionID, err)
	}
	if result.MatchedCount == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (r *MongoSessionRepo) CompleteCAS(ctx context.Context, sessionID, purchaseID string, at time.Time) (*models.Session, error) {
	// The status filter is the optimistic re-check: a racing completion that
	// already landed makes this match nothing.
	filter := bson.M{"id": sessionID, "status": models.SessionPending}
	set := bson.M{
		"status":       models.SessionCompleted,
		"completed_at": at,
		"updated_at":   at,
	}
	if purchaseID != "" {
		set["package_purchase_id"] = purchaseID
	}

	var s models.Session
	err := r.coll.FindOneAndUpdate(ctx, filter, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&s)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotPending
	}
	if err != nil {
		return nil, fmt.Errorf("failed to complete session %s: %w", sessionID, err)
	}
	return &s, nil
}

func (r *MongoSessionRepo) Evaluate(ctx context.Context, sessionID, notes string) error {
	filter := bson.M{"id": sessionID, "status": models.SessionCompleted}
	update := bson.M{"$set": bson.M{
		"status":           models.SessionEvaluated,
		"evaluation_notes": notes,
		"updated_at":       time.Now(),
	}}
	result, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to evaluate session %s: %w", sessionID, err)
	}
	if result.MatchedCount == 0 {
		return ErrNotCompleted
	}
	return nil
}

// EnsureIndexes creates the session indexes. The unique appointment_id index
// enforces the one-session-per-appointment rule at the storage layer.
func (r *MongoSessionRepo) EnsureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "appointment_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create session indexes: %w", err)
	}
	return nil
}
