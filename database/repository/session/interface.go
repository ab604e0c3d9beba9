package sessionRepo

import (
	"context"
	"errors"
	"time"

	"babyspa/models"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionExists: the appointment already has its one session.
	ErrSessionExists = errors.New("session already exists for appointment")
	// ErrNotPending: a completion CAS found the session no longer PENDING.
	ErrNotPending = errors.New("session is not pending")
	// ErrNotCompleted: evaluation requires a COMPLETED session.
	ErrNotCompleted = errors.New("session is not completed")
)

// Repository persists sessions. Status moves only through guarded
// compare-and-swap updates so two racing completions cannot both land.
type Repository interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Create inserts the session; fails with ErrSessionExists when the
	// appointment already has one (unique index on appointment_id).
	Create(ctx context.Context, s *models.Session) error
	GetByID(ctx context.Context, id string) (*models.Session, error)
	GetByAppointmentID(ctx context.Context, appointmentID string) (*models.Session, error)

	AddProduct(ctx context.Context, sessionID string, p models.ProductUsage) error
	LinkPurchase(ctx context.Context, sessionID, purchaseID string) error

	// CompleteCAS marks the session COMPLETED only if it is still PENDING,
	// returning the updated document. ErrNotPending signals a lost race.
	CompleteCAS(ctx context.Context, sessionID, purchaseID string, at time.Time) (*models.Session, error)

	// Evaluate moves COMPLETED -> EVALUATED, attaching therapist notes.
	Evaluate(ctx context.Context, sessionID, notes string) error
}
