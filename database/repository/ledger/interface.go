package ledgerRepo

import (
	"context"
	"errors"

	"babyspa/models"
)

var (
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrAlreadyVoided       = errors.New("transaction already voided")
)

// Repository persists the immutable financial ledger. Entries are inserted
// and never updated; voiding flips one flag and inserts a paired reversal.
type Repository interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	Insert(ctx context.Context, t *models.Transaction) error
	GetByID(ctx context.Context, id string) (*models.Transaction, error)
	ListForAppointment(ctx context.Context, appointmentID string) ([]models.Transaction, error)

	// SumAdvances totals non-voided, non-reversal APPOINTMENT_ADVANCE entries
	// for an appointment.
	SumAdvances(ctx context.Context, appointmentID string) (float64, error)

	// MarkVoided sets the voided flag; ErrAlreadyVoided if it was set.
	MarkVoided(ctx context.Context, id string) error
}
