package catalogRepo

import (
	"context"
	"fmt"
	"time"

	"babyspa/database"
	"babyspa/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type MongoCatalogRepo struct {
	packageColl *mongo.Collection
	productColl *mongo.Collection
}

func NewMongoCatalogRepo() *MongoCatalogRepo {
	return &MongoCatalogRepo{
		packageColl: database.Collection("packages"),
		productColl: database.Collection("products"),
	}
}

func (r *MongoCatalogRepo) GetPackage(ctx context.Context, id string) (*models.Package, error) {
	var p models.Package
	err := r.packageColl.FindOne(ctx, bson.M{"id": id}).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return nil, ErrPackageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch package %s: %w", id, err)
	}
	return &p, nil
}

func (r *MongoCatalogRepo) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	var p models.Product
	err := r.productColl.FindOne(ctx, bson.M{"id": id}).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch product %s: %w", id, err)
	}
	return &p, nil
}

func (r *MongoCatalogRepo) ListActivePackages(ctx context.Context) ([]models.Package, error) {
	cursor, err := r.packageColl.Find(ctx, bson.M{"active": true})
	if err != nil {
		return nil, fmt.Errorf("failed to list packages: %w", err)
	}
	defer cursor.Close(ctx)

	var packages []models.Package
	if err := cursor.All(ctx, &packages); err != nil {
		return nil, fmt.Errorf("failed to decode packages: %w", err)
	}
	return packages, nil
}

func (r *MongoCatalogRepo) DeductStock(ctx context.Context, productID string, qty int) error {
	// stock >= qty in the filter makes the deduction race-safe.
	filter := bson.M{"id": productID, "stock": bson.M{"$gte": qty}}
	update := bson.M{
		"$inc": bson.M{"stock": -qty},
		"$set": bson.M{"updated_at": time.Now()},
	}

	result, err := r.productColl.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to deduct stock for product %s: %w", productID, err)
	}
	if result.MatchedCount == 0 {
		if _, getErr := r.GetProduct(ctx, productID); getErr != nil {
			return getErr
		}
		return ErrInsufficientStock
	}
	return nil
}
