package loyaltyRepo

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

type MongoLoyaltyRepo struct {
	coll *mongo.Collection
}

func NewMongoLoyaltyRepo() *MongoLoyaltyRepo {
	return &MongoLoyaltyRepo{coll: database.Collection("baby_cards")}
}

func (r *MongoLoyaltyRepo) GetCard(ctx context.Context, clientID string) (*models.BabyCard, error) {
	var card models.BabyCard
	err := r.coll.FindOne(ctx, bson.M{"client_id": clientID}).Decode(&card)
	if err == mongo.ErrNoDocuments {
		return nil, ErrCardNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch baby card for client %s: %w", clientID, err)
	}
	return &card, nil
}

func (r *MongoLoyaltyRepo) SpecialPrice(ctx context.Context, clientID, packageID string) (float64, bool, error) {
	card, err := r.GetCard(ctx, clientID)
	if err == ErrCardNotFound {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	price, ok := card.SpecialPrices[packageID]
	return price, ok, nil
}

func (r *MongoLoyaltyRepo) FirstSessionDiscount(ctx context.Context, clientID string) (float64, error) {
	card, err := r.GetCard(ctx, clientID)
	if err == ErrCardNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if card.FirstSessionDiscountUsed {
		return 0, nil
	}
	return card.FirstSessionDiscount, nil
}

func (r *MongoLoyaltyRepo) ConsumeFirstSessionDiscount(ctx context.Context, clientID string) error {
	result, err := r.coll.UpdateOne(ctx,
		bson.M{"client_id": clientID, "first_session_discount_used": false},
		bson.M{"$set": bson.M{"first_session_discount_used": true, "updated_at": time.Now()}},
	)
	if err != nil {
		return fmt.Errorf("failed to consume first session discount for client %s: %w", clientID, err)
	}
	if result.MatchedCount == 0 {
		return ErrCardNotFound
	}
	return nil
}

func (r *MongoLoyaltyRepo) IncrementProgress(ctx context.Context, clientID string, count int) error {
	now := time.Now()
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"client_id": clientID},
		bson.M{
			"$inc":         bson.M{"progress": count},
			"$set":         bson.M{"updated_at": now},
			"$setOnInsert": bson.M{"created_at": now},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to increment progress for client %s: %w", clientID, err)
	}
	return nil
}
