package clientRepo

import (
	"context"
	"errors"

	"babyspa/models"
)

var (
	ErrBabyNotFound   = errors.New("baby not found")
	ErrParentNotFound = errors.New("parent not found")
)

// PrepaymentThreshold is the consecutive no-show count at which the sticky
// requires-prepayment flag flips on.
const PrepaymentThreshold = 3

// Repository persists babies and parents. The no-show counter moves only
// through atomic updates on the parent row.
type Repository interface {
	CreateBaby(ctx context.Context, b *models.Baby) error
	CreateParent(ctx context.Context, p *models.Parent) error
	GetBaby(ctx context.Context, id string) (*models.Baby, error)
	GetParent(ctx context.Context, id string) (*models.Parent, error)

	// ResolveParent returns the parent responsible for a client reference:
	// the baby's parent, or the parent themselves.
	ResolveParent(ctx context.Context, ref models.ClientRef) (*models.Parent, error)

	// IncrementNoShow bumps the consecutive no-show counter and, at the
	// threshold, flips requires_prepayment in the same atomic update.
	IncrementNoShow(ctx context.Context, parentID string) (*models.Parent, error)

	// ResetNoShow zeroes the counter after a completed session.
	ResetNoShow(ctx context.Context, parentID string) error
}
