package models

import "time"

// PaymentPlan is how a package purchase is paid off.
type PaymentPlan string

const (
	PlanSingle       PaymentPlan = "SINGLE"
	PlanInstallments PaymentPlan = "INSTALLMENTS"
)

// PackagePurchase is a client's purchased bundle of sessions.
// Invariant: UsedSessions + RemainingSessions == TotalSessions, before and
// after every consumption. Consumption is a single conditional update on the
// purchase row, never a read-modify-write in application memory.
type PackagePurchase struct {
	ID                string    `bson:"id" json:"id"`
	Client            ClientRef `bson:"client" json:"client"`
	PackageID         string    `bson:"package_id" json:"package_id"`
	PackageName       string    `bson:"package_name" json:"package_name"`
	TotalSessions     int       `bson:"total_sessions" json:"total_sessions"`
	UsedSessions      int       `bson:"used_sessions" json:"used_sessions"`
	RemainingSessions int       `bson:"remaining_sessions" json:"remaining_sessions"`

	BasePrice  float64 `bson:"base_price" json:"base_price"`
	Discount   float64 `bson:"discount" json:"discount"`
	FinalPrice float64 `bson:"final_price" json:"final_price"`

	PaymentPlan  PaymentPlan `bson:"payment_plan" json:"payment_plan"`
	Installments int         `bson:"installments,omitempty" json:"installments,omitempty"`
	PaidAmount   float64     `bson:"paid_amount" json:"paid_amount"`
	TotalPrice   float64     `bson:"total_price" json:"total_price"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
