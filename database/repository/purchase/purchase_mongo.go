package purchaseRepo

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

type MongoPurchaseRepo struct {
	coll *mongo.Collection
}

func NewMongoPurchaseRepo() *MongoPurchaseRepo {
	return &MongoPurchaseRepo{coll: database.Collection("package_purchases")}
}

func (r *MongoPurchaseRepo) Create(ctx context.Context, p *models.PackagePurchase) error {
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now

	if _, err := r.coll.InsertOne(ctx, p); err != nil {
		return fmt.Errorf("failed to create package purchase: %w", err)
	}
	return nil
}

func (r *MongoPurchaseRepo) GetByID(ctx context.Context, id string) (*models.PackagePurchase, error) {
	var p models.PackagePurchase
	err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return nil, ErrPurchaseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch purchase %s: %w", id, err)
	}
	return &p, nil
}

func (r *MongoPurchaseRepo) OpenForClient(ctx context.Context, client models.ClientRef) (*models.PackagePurchase, error) {
	filter := bson.M{
		"client.kind":        client.Kind,
		"client.id":          client.ID,
		"remaining_sessions": bson.M{"$gt": 0},
	}
	var p models.PackagePurchase
	err := r.coll.FindOne(ctx, filter,
		options.FindOne().SetSort(bson.D{{Key: "created_at", Value: 1}})).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return nil, ErrPurchaseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find open purchase for client %s: %w", client.ID, err)
	}
	return &p, nil
}

func (r *MongoPurchaseRepo) ListForClient(ctx context.Context, client models.ClientRef) ([]models.PackagePurchase, error) {
	cursor, err := r.coll.Find(ctx,
		bson.M{"client.kind": client.Kind, "client.id": client.ID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list purchases for client %s: %w", client.ID, err)
	}
	defer cursor.Close(ctx)

	var purchases []models.PackagePurchase
	if err := cursor.All(ctx, &purchases); err != nil {
		return nil, fmt.Errorf("failed to decode purchases for client %s: %w", client.ID, err)
	}
	return purchases, nil
}

func (r *MongoPurchaseRepo) ConsumeSession(ctx context.Context, id string) (*models.PackagePurchase, error) {
	// remaining > 0 in the filter makes the deduction race-safe: two
	// concurrent settlements against the last session cannot both match.
	filter := bson.M{"id": id, "remaining_sessions": bson.M{"$gt": 0}}
	update := bson.M{
		"$inc": bson.M{"used_sessions": 1, "remaining_sessions": -1},
		"$set": bson.M{"updated_at": time.Now()},
	}

	var p models.PackagePurchase
	err := r.coll.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNoRemainingSessions
	}
	if err != nil {
		return nil, fmt.Errorf("failed to consume session on purchase %s: %w", id, err)
	}
	return &p, nil
}

func (r *MongoPurchaseRepo) AddPayment(ctx context.Context, id string, amount float64) (*models.PackagePurchase, error) {
	update := bson.M{
		"$inc": bson.M{"paid_amount": amount},
		"$set": bson.M{"updated_at": time.Now()},
	}
	var p models.PackagePurchase
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"id": id}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return nil, ErrPurchaseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to add payment to purchase %s: %w", id, err)
	}
	return &p, nil
}

func (r *MongoPurchaseRepo) EnsureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "client.id", Value: 1}, {Key: "remaining_sessions", Value: 1}},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create purchase indexes: %w", err)
	}
	return nil
}
