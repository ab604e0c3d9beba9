package models

import "time"

type TransactionType string

const TransactionIncome TransactionType = "INCOME"

type TransactionCategory string

const (
	CategorySession            TransactionCategory = "SESSION"
	CategoryPackageSale        TransactionCategory = "PACKAGE_SALE"
	CategoryPackageInstallment TransactionCategory = "PACKAGE_INSTALLMENT"
	CategoryAppointmentAdvance TransactionCategory = "APPOINTMENT_ADVANCE"
	CategoryEventRegistration  TransactionCategory = "EVENT_REGISTRATION"
)

// TransactionItem is one invoice line. A negative UnitPrice marks the
// synthetic advance-netting line so the recorded total matches the amount
// actually collected at checkout.
type TransactionItem struct {
	Description string  `bson:"description" json:"description"`
	UnitPrice   float64 `bson:"unit_price" json:"unit_price"`
	Quantity    int     `bson:"quantity" json:"quantity"`
	Discount    float64 `bson:"discount,omitempty" json:"discount,omitempty"`
}

// Net is the line contribution to the transaction total.
func (i TransactionItem) Net() float64 {
	return i.UnitPrice*float64(i.Quantity) - i.Discount
}

// PaymentDetail is one payment-method/amount pair.
type PaymentDetail struct {
	Method string  `bson:"method" json:"method"` // "cash", "card", "transfer"
	Amount float64 `bson:"amount" json:"amount"`
}

// Transaction is an immutable financial ledger entry. It is created, never
// mutated; voiding creates a paired reversal entry instead of editing
// history.
type Transaction struct {
	ID            string              `bson:"id" json:"id"`
	Type          TransactionType     `bson:"type" json:"type"`
	Category      TransactionCategory `bson:"category" json:"category"`
	Client        ClientRef           `bson:"client,omitempty" json:"client,omitempty"`
	AppointmentID string              `bson:"appointment_id,omitempty" json:"appointment_id,omitempty"`
	SessionID     string              `bson:"session_id,omitempty" json:"session_id,omitempty"`
	PurchaseID    string              `bson:"purchase_id,omitempty" json:"purchase_id,omitempty"`
	Items         []TransactionItem   `bson:"items" json:"items"`
	Payments      []PaymentDetail     `bson:"payments" json:"payments"`
	Total         float64             `bson:"total" json:"total"`
	Voided        bool                `bson:"voided" json:"voided"`
	ReversalOf    string              `bson:"reversal_of,omitempty" json:"reversal_of,omitempty"`
	CreatedBy     string              `bson:"created_by,omitempty" json:"created_by,omitempty"`
	CreatedAt     time.Time           `bson:"created_at" json:"created_at"`
}

// ItemTotal sums line nets.
func (t *Transaction) ItemTotal() float64 {
	var total float64
	for _, it := range t.Items {
		total += it.Net()
	}
	return total
}

// PaymentTotal sums payment pairs.
func (t *Transaction) PaymentTotal() float64 {
	var total float64
	for _, p := range t.Payments {
		total += p.Amount
	}
	return total
}
