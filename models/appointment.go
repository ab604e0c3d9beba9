package models

import "time"

// AppointmentStatus is the appointment lifecycle state.
type AppointmentStatus string

const (
	AppointmentPendingPayment AppointmentStatus = "PENDING_PAYMENT"
	AppointmentScheduled      AppointmentStatus = "SCHEDULED"
	AppointmentInProgress     AppointmentStatus = "IN_PROGRESS"
	AppointmentCompleted      AppointmentStatus = "COMPLETED"
	AppointmentCancelled      AppointmentStatus = "CANCELLED"
	AppointmentNoShow         AppointmentStatus = "NO_SHOW"
)

// Terminal reports whether no further transition is allowed from s.
func (s AppointmentStatus) Terminal() bool {
	return s == AppointmentCompleted || s == AppointmentCancelled || s == AppointmentNoShow
}

// Appointment is a scheduled occupation of therapist capacity for one client.
// Dates are calendar days ("2006-01-02", timezone-naive), times are "HH:mm".
// Appointments are never hard-deleted; cancellation is a status change.
type Appointment struct {
	ID                string            `bson:"id" json:"id"`
	Client            ClientRef         `bson:"client" json:"client"`
	Date              string            `bson:"date" json:"date"`
	StartTime         string            `bson:"start_time" json:"start_time"`
	EndTime           string            `bson:"end_time" json:"end_time"`
	Status            AppointmentStatus `bson:"status" json:"status"`
	TherapistID       string            `bson:"therapist_id,omitempty" json:"therapist_id,omitempty"`
	PackagePurchaseID string            `bson:"package_purchase_id,omitempty" json:"package_purchase_id,omitempty"`
	Notes             string            `bson:"notes,omitempty" json:"notes,omitempty"`
	CancelReason      string            `bson:"cancel_reason,omitempty" json:"cancel_reason,omitempty"`
	CreatedAt         time.Time         `bson:"created_at" json:"created_at"`
	UpdatedAt         time.Time         `bson:"updated_at" json:"updated_at"`
}

// AppointmentHistory is one append-only audit row per state transition or
// reschedule, written inside the same transaction as the mutation itself.
type AppointmentHistory struct {
	ID            string            `bson:"id" json:"id"`
	AppointmentID string            `bson:"appointment_id" json:"appointment_id"`
	Action        string            `bson:"action" json:"action"` // "CREATE", "RESCHEDULE", "CANCEL", "NO_SHOW", "START", "COMPLETE"
	OldStatus     AppointmentStatus `bson:"old_status,omitempty" json:"old_status,omitempty"`
	NewStatus     AppointmentStatus `bson:"new_status,omitempty" json:"new_status,omitempty"`
	OldDate       string            `bson:"old_date,omitempty" json:"old_date,omitempty"`
	NewDate       string            `bson:"new_date,omitempty" json:"new_date,omitempty"`
	OldStart      string            `bson:"old_start,omitempty" json:"old_start,omitempty"`
	NewStart      string            `bson:"new_start,omitempty" json:"new_start,omitempty"`
	Actor         string            `bson:"actor,omitempty" json:"actor,omitempty"`
	Reason        string            `bson:"reason,omitempty" json:"reason,omitempty"`
	CreatedAt     time.Time         `bson:"created_at" json:"created_at"`
}
