package models

import "time"

// SessionStatus is the lifecycle of the worked session record.
type SessionStatus string

const (
	SessionPending   SessionStatus = "PENDING"
	SessionCompleted SessionStatus = "COMPLETED"
	SessionEvaluated SessionStatus = "EVALUATED"
)

// ProductUsage is one product line attached to a session. Non-chargeable
// lines still consume stock but never appear on the invoice.
type ProductUsage struct {
	ProductID  string  `bson:"product_id" json:"product_id"`
	Name       string  `bson:"name" json:"name"`
	UnitPrice  float64 `bson:"unit_price" json:"unit_price"`
	Quantity   int     `bson:"quantity" json:"quantity"`
	Chargeable bool    `bson:"chargeable" json:"chargeable"`
}

// Session is the operational record of an appointment being worked.
// Exactly one session exists per appointment.
type Session struct {
	ID                string         `bson:"id" json:"id"`
	AppointmentID     string         `bson:"appointment_id" json:"appointment_id"`
	Client            ClientRef      `bson:"client" json:"client"`
	TherapistID       string         `bson:"therapist_id" json:"therapist_id"`
	Status            SessionStatus  `bson:"status" json:"status"`
	PackagePurchaseID string         `bson:"package_purchase_id,omitempty" json:"package_purchase_id,omitempty"`
	Products          []ProductUsage `bson:"products,omitempty" json:"products,omitempty"`
	EvaluationNotes   string         `bson:"evaluation_notes,omitempty" json:"evaluation_notes,omitempty"`
	CompletedAt       *time.Time     `bson:"completed_at,omitempty" json:"completed_at,omitempty"`
	CreatedAt         time.Time      `bson:"created_at" json:"created_at"`
	UpdatedAt         time.Time      `bson:"updated_at" json:"updated_at"`
}

// ChargeableSubtotal sums unitPrice*quantity over chargeable lines.
func (s *Session) ChargeableSubtotal() float64 {
	var total float64
	for _, p := range s.Products {
		if p.Chargeable {
			total += p.UnitPrice * float64(p.Quantity)
		}
	}
	return total
}
