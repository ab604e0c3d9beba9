package models

// SettlementInput is what the checkout caller supplies when closing a
// session.
type SettlementInput struct {
	// PackagePurchaseID deducts from an existing purchase.
	PackagePurchaseID string `json:"package_purchase_id,omitempty"`
	// PackageID sells a new catalog package in this same checkout.
	PackageID string `json:"package_id,omitempty"`

	PaymentDetails []PaymentDetail `json:"payment_details,omitempty"`

	DiscountAmount float64 `json:"discount_amount,omitempty"`
	DiscountReason string  `json:"discount_reason,omitempty"`
	// UseFirstSessionDiscount burns the one-time Baby Card discount.
	UseFirstSessionDiscount bool `json:"use_first_session_discount,omitempty"`

	Actor string `json:"-"`
}

// LoyaltyInfo reports what the loyalty ledger contributed to a settlement.
type LoyaltyInfo struct {
	ProgressAdded        int     `json:"progress_added"`
	FirstSessionDiscount float64 `json:"first_session_discount,omitempty"`
	SpecialPriceApplied  bool    `json:"special_price_applied,omitempty"`
}

// SettlementResult is returned by CompleteSession.
type SettlementResult struct {
	Session         *Session         `json:"session"`
	PackagePurchase *PackagePurchase `json:"package_purchase,omitempty"`
	// TotalAmount is the amount due now, after discounts and advance netting.
	TotalAmount float64 `json:"total_amount"`
	// AdvancePaid is the sum of prior advance payments netted out.
	AdvancePaid float64     `json:"advance_paid"`
	Loyalty     LoyaltyInfo `json:"loyalty"`
}

// AuditEvent is one activity-log entry, written best-effort after commits.
type AuditEvent struct {
	ID        string         `bson:"id" json:"id"`
	Kind      string         `bson:"kind" json:"kind"`
	EntityID  string         `bson:"entity_id" json:"entity_id"`
	Actor     string         `bson:"actor,omitempty" json:"actor,omitempty"`
	Detail    map[string]any `bson:"detail,omitempty" json:"detail,omitempty"`
	CreatedAt int64          `bson:"created_at" json:"created_at"`
}
