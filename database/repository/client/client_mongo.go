package clientRepo

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

type MongoClientRepo struct {
	babyColl   *mongo.Collection
	parentColl *mongo.Collection
}

func NewMongoClientRepo() *MongoClientRepo {
	return &MongoClientRepo{
		babyColl:   database.Collection("babies"),
		parentColl: database.Collection("parents"),
	}
}

func (r *MongoClientRepo) CreateBaby(ctx context.Context, b *models.Baby) error {
	now := time.Now()
	b.CreatedAt = now
	b.UpdatedAt = now
	if _, err := r.babyColl.InsertOne(ctx, b); err != nil {
		return fmt.Errorf("failed to create baby: %w", err)
	}
	return nil
}

func (r *MongoClientRepo) CreateParent(ctx context.Context, p *models.Parent) error {
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	if _, err := r.parentColl.InsertOne(ctx, p); err != nil {
		return fmt.Errorf("failed to create parent: %w", err)
	}
	return nil
}

func (r *MongoClientRepo) GetBaby(ctx context.Context, id string) (*models.Baby, error) {
	var b models.Baby
	err := r.babyColl.FindOne(ctx, bson.M{"id": id}).Decode(&b)
	if err == mongo.ErrNoDocuments {
		return nil, ErrBabyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch baby %s: %w", id, err)
	}
	return &b, nil
}

func (r *MongoClientRepo) GetParent(ctx context.Context, id string) (*models.Parent, error) {
	var p models.Parent
	err := r.parentColl.FindOne(ctx, bson.M{"id": id}).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return nil, ErrParentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch parent %s: %w", id, err)
	}
	return &p, nil
}

func (r *MongoClientRepo) ResolveParent(ctx context.Context, ref models.ClientRef) (*models.Parent, error) {
	switch ref.Kind {
	case models.ClientBaby:
		baby, err := r.GetBaby(ctx, ref.ID)
		if err != nil {
			return nil, err
		}
		return r.GetParent(ctx, baby.ParentID)
	case models.ClientParent:
		return r.GetParent(ctx, ref.ID)
	default:
		return nil, fmt.Errorf("unknown client kind %q", ref.Kind)
	}
}

func (r *MongoClientRepo) IncrementNoShow(ctx context.Context, parentID string) (*models.Parent, error) {
	// Aggregation-pipeline update: counter bump and threshold flag in one
	// atomic write, so two racing no-shows cannot skip the flip.
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$set", Value: bson.M{
			"no_show_count": bson.M{"$add": bson.A{"$no_show_count", 1}},
			"requires_prepayment": bson.M{"$or": bson.A{
				"$requires_prepayment",
				bson.M{"$gte": bson.A{
					bson.M{"$add": bson.A{"$no_show_count", 1}},
					PrepaymentThreshold,
				}},
			}},
			"updated_at": time.Now(),
		}}},
	}

	var p models.Parent
	err := r.parentColl.FindOneAndUpdate(ctx, bson.M{"id": parentID}, pipeline,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return nil, ErrParentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to increment no-show for parent %s: %w", parentID, err)
	}
	return &p, nil
}

func (r *MongoClientRepo) ResetNoShow(ctx context.Context, parentID string) error {
	result, err := r.parentColl.UpdateOne(ctx,
		bson.M{"id": parentID},
		bson.M{"$set": bson.M{"no_show_count": 0, "updated_at": time.Now()}},
	)
	if err != nil {
		return fmt.Errorf("failed to reset no-show for parent %s: %w", parentID, err)
	}
	if result.MatchedCount == 0 {
		return ErrParentNotFound
	}
	return nil
}
