package ledgerRepo

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

type MongoLedgerRepo struct {
	coll *mongo.Collection
}

func NewMongoLedgerRepo() *MongoLedgerRepo {
	return &MongoLedgerRepo{coll: database.Collection("transactions")}
}

func (r *MongoLedgerRepo) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return database.WithTransaction(ctx, fn)
}

func (r *MongoLedgerRepo) Insert(ctx context.Context, t *models.Transaction) error {
	t.CreatedAt = time.Now()
	if _, err := r.coll.InsertOne(ctx, t); err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

func (r *MongoLedgerRepo) GetByID(ctx context.Context, id string) (*models.Transaction, error) {
	var t models.Transaction
	err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&t)
	if err == mongo.ErrNoDocuments {
		return nil, ErrTransactionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch transaction %s: %w", id, err)
	}
	return &t, nil
}

func (r *MongoLedgerRepo) ListForAppointment(ctx context.Context, appointmentID string) ([]models.Transaction, error) {
	cursor, err := r.coll.Find(ctx, bson.M{"appointment_id": appointmentID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions for appointment %s: %w", appointmentID, err)
	}
	defer cursor.Close(ctx)

	var txns []models.Transaction
	if err := cursor.All(ctx, &txns); err != nil {
		return nil, fmt.Errorf("failed to decode transactions for appointment %s: %w", appointmentID, err)
	}
	return txns, nil
}

func (r *MongoLedgerRepo) SumAdvances(ctx context.Context, appointmentID string) (float64, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{
			"appointment_id": appointmentID,
			"category":       models.CategoryAppointmentAdvance,
			"voided":         false,
			"reversal_of":    bson.M{"$in": bson.A{nil, ""}},
		}}},
		bson.D{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"total": bson.M{"$sum": "$total"},
		}}},
	}

	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, fmt.Errorf("failed to sum advances for appointment %s: %w", appointmentID, err)
	}
	defer cursor.Close(ctx)

	var results []struct {
		Total float64 `bson:"total"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		return 0, fmt.Errorf("failed to decode advance sum for appointment %s: %w", appointmentID, err)
	}
	if len(results) == 0 {
		return 0, nil
	}
	return results[0].Total, nil
}

func (r *MongoLedgerRepo) MarkVoided(ctx context.Context, id string) error {
	result, err := r.coll.UpdateOne(ctx,
		bson.M{"id": id, "voided": false},
		bson.M{"$set": bson.M{"voided": true}},
	)
	if err != nil {
		return fmt.Errorf("failed to void transaction %s: %w", id, err)
	}
	if result.MatchedCount == 0 {
		// Distinguish missing from already voided.
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return getErr
		}
		return ErrAlreadyVoided
	}
	return nil
}

func (r *MongoLedgerRepo) EnsureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "appointment_id", Value: 1}, {Key: "category", Value: 1}},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create transaction indexes: %w", err)
	}
	return nil
}
