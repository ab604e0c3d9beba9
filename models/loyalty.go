package models

import "time"

// BabyCard is the loyalty ledger record for one client: reward progress,
// the one-time first-session discount, and per-package special prices.
// Reward unlock rules live outside this core; only the increment/query
// contract is consumed here.
type BabyCard struct {
	ID                       string             `bson:"id" json:"id"`
	ClientID                 string             `bson:"client_id" json:"client_id"`
	Progress                 int                `bson:"progress" json:"progress"`
	FirstSessionDiscount     float64            `bson:"first_session_discount,omitempty" json:"first_session_discount,omitempty"`
	FirstSessionDiscountUsed bool               `bson:"first_session_discount_used" json:"first_session_discount_used"`
	SpecialPrices            map[string]float64 `bson:"special_prices,omitempty" json:"special_prices,omitempty"` // packageID -> price
	CreatedAt                time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt                time.Time          `bson:"updated_at" json:"updated_at"`
}
