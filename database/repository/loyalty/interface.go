package loyaltyRepo

import (
	"context"
	"errors"

	"babyspa/models"
)

var ErrCardNotFound = errors.New("baby card not found")

// Repository is the narrow Baby Card contract this core consumes. Reward
// unlock rules live outside; only increment/query operations appear here.
type Repository interface {
	GetCard(ctx context.Context, clientID string) (*models.BabyCard, error)

	// SpecialPrice returns a package price override for the client, if any.
	SpecialPrice(ctx context.Context, clientID, packageID string) (float64, bool, error)

	// FirstSessionDiscount returns the unused one-time discount, or 0.
	FirstSessionDiscount(ctx context.Context, clientID string) (float64, error)

	// ConsumeFirstSessionDiscount burns the one-time discount.
	ConsumeFirstSessionDiscount(ctx context.Context, clientID string) error

	IncrementProgress(ctx context.Context, clientID string, count int) error
}
