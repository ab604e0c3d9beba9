package purchaseRepo

import (
	"context"
	"errors"

	"babyspa/models"
)

var (
	ErrPurchaseNotFound = errors.New("package purchase not found")
	// ErrNoRemainingSessions: the conditional deduction matched nothing.
	ErrNoRemainingSessions = errors.New("package purchase has no remaining sessions")
)

// Repository persists package purchases. Session consumption is one
// conditional update on the purchase row; the used/remaining counters are
// never recomputed from an application-memory read.
type Repository interface {
	Create(ctx context.Context, p *models.PackagePurchase) error
	GetByID(ctx context.Context, id string) (*models.PackagePurchase, error)

	// OpenForClient returns the client's oldest purchase with remaining
	// sessions, or ErrPurchaseNotFound.
	OpenForClient(ctx context.Context, client models.ClientRef) (*models.PackagePurchase, error)
	ListForClient(ctx context.Context, client models.ClientRef) ([]models.PackagePurchase, error)

	// ConsumeSession atomically moves one session from remaining to used,
	// only while remaining > 0, and returns the updated purchase.
	ConsumeSession(ctx context.Context, id string) (*models.PackagePurchase, error)

	// AddPayment adds an installment amount to paid_amount.
	AddPayment(ctx context.Context, id string, amount float64) (*models.PackagePurchase, error)
}
