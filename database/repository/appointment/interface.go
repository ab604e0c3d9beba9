package appointmentRepo

import (
	"context"
	"errors"
	"time"

	"babyspa/models"
)

var ErrAppointmentNotFound = errors.New("appointment not found")

// Repository persists appointments, their append-only history trail, and the
// per-day occupancy guard used to serialize same-day booking transactions.
type Repository interface {
	// WithTransaction runs fn inside one atomic transaction; repository calls
	// made with the context handed to fn join it.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	Create(ctx context.Context, apt *models.Appointment) error
	GetByID(ctx context.Context, id string) (*models.Appointment, error)
	Update(ctx context.Context, apt *models.Appointment) error

	// ListActiveByDate returns every non-cancelled appointment on a calendar
	// day, the input to the capacity check.
	ListActiveByDate(ctx context.Context, date string) ([]models.Appointment, error)

	// ListPendingPaymentBefore returns PENDING_PAYMENT appointments created
	// before the cutoff, the input to advance-payment expiry.
	ListPendingPaymentBefore(ctx context.Context, cutoff time.Time) ([]models.Appointment, error)

	AppendHistory(ctx context.Context, h *models.AppointmentHistory) error
	HistoryFor(ctx context.Context, appointmentID string) ([]models.AppointmentHistory, error)

	// TouchDay bumps a revision on the day's occupancy guard document.
	// Two transactions booking the same day both write it, so one of them
	// aborts with a write conflict instead of committing on a stale capacity
	// read.
	TouchDay(ctx context.Context, date string) error
}
