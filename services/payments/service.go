package payments

import (
	"context"
	"math"
	"time"

	ledgerRepo "babyspa/database/repository/ledger"
	purchaseRepo "babyspa/database/repository/purchase"
	"babyspa/models"
	"babyspa/utils"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
	"go.uber.org/zap"
)

// Recorder writes financial ledger entries.
type Recorder interface {
	Record(ctx context.Context, txn *models.Transaction) error
	CollectAdvance(ctx context.Context, apt *models.Appointment, amount float64, method, actor string) (*models.Transaction, error)
	RecordInstallment(ctx context.Context, purchaseID string, amount float64, method, actor string) (*models.PackagePurchase, *models.Transaction, error)
	Void(ctx context.Context, transactionID, actor string) (*models.Transaction, error)
}

// Service is the payment ledger front. Card advances optionally go through
// a Stripe PaymentIntent; cash and transfer are recorded directly.
type Service struct {
	Ledger    ledgerRepo.Repository
	Purchases purchaseRepo.Repository

	// ChargeCards gates the Stripe call; tests and cash-only deployments
	// leave it off.
	ChargeCards bool
}

// Record validates and inserts a ledger entry.
func (s *Service) Record(ctx context.Context, txn *models.Transaction) error {
	if txn.Total <= 0 && txn.ReversalOf == "" {
		return NewError(CodeInvalidAmount, "transaction total must be positive")
	}
	if txn.ID == "" {
		txn.ID = uuid.New().String()
	}
	if txn.CreatedAt.IsZero() {
		txn.CreatedAt = time.Now()
	}
	return s.Ledger.Insert(ctx, txn)
}

// CollectAdvance records an advance payment against a future settlement.
func (s *Service) CollectAdvance(ctx context.Context, apt *models.Appointment, amount float64, method, actor string) (*models.Transaction, error) {
	if amount <= 0 {
		return nil, NewError(CodeInvalidAmount, "advance amount must be positive")
	}
	if method == "card" && s.ChargeCards {
		if err := s.chargeCard(amount, apt.ID); err != nil {
			return nil, err
		}
	}
	txn := &models.Transaction{
		ID:            uuid.New().String(),
		Type:          models.TransactionIncome,
		Category:      models.CategoryAppointmentAdvance,
		Client:        apt.Client,
		AppointmentID: apt.ID,
		Items: []models.TransactionItem{{
			Description: "Advance payment",
			UnitPrice:   amount,
			Quantity:    1,
		}},
		Payments:  []models.PaymentDetail{{Method: method, Amount: amount}},
		Total:     amount,
		CreatedBy: actor,
		CreatedAt: time.Now(),
	}
	if err := s.Ledger.Insert(ctx, txn); err != nil {
		return nil, err
	}
	utils.GetLogger().Info("advance recorded",
		zap.String("appointment_id", apt.ID),
		zap.Float64("amount", amount),
		zap.String("method", method))
	return txn, nil
}

// RecordInstallment pays down a package purchase bought on installments.
func (s *Service) RecordInstallment(ctx context.Context, purchaseID string, amount float64, method, actor string) (*models.PackagePurchase, *models.Transaction, error) {
	if amount <= 0 {
		return nil, nil, NewError(CodeInvalidAmount, "installment amount must be positive")
	}
	purchase, err := s.Purchases.AddPayment(ctx, purchaseID, amount)
	if err == purchaseRepo.ErrPurchaseNotFound {
		return nil, nil, NewError(CodePurchaseNotFound, "package purchase %s not found", purchaseID)
	}
	if err != nil {
		return nil, nil, err
	}
	txn := &models.Transaction{
		ID:         uuid.New().String(),
		Type:       models.TransactionIncome,
		Category:   models.CategoryPackageInstallment,
		Client:     purchase.Client,
		PurchaseID: purchase.ID,
		Items: []models.TransactionItem{{
			Description: "Installment: " + purchase.PackageName,
			UnitPrice:   amount,
			Quantity:    1,
		}},
		Payments:  []models.PaymentDetail{{Method: method, Amount: amount}},
		Total:     amount,
		CreatedBy: actor,
		CreatedAt: time.Now(),
	}
	if err := s.Ledger.Insert(ctx, txn); err != nil {
		return nil, nil, err
	}
	return purchase, txn, nil
}

// Void flips the voided flag on an entry and inserts a paired reversal, both
// inside one transaction. Ledger history is never edited in place.
func (s *Service) Void(ctx context.Context, transactionID, actor string) (*models.Transaction, error) {
	var reversal *models.Transaction
	err := s.Ledger.WithTransaction(ctx, func(ctx context.Context) error {
		original, err := s.Ledger.GetByID(ctx, transactionID)
		if err == ledgerRepo.ErrTransactionNotFound {
			return NewError(CodeTransactionNotFound, "transaction %s not found", transactionID)
		}
		if err != nil {
			return err
		}
		if err := s.Ledger.MarkVoided(ctx, transactionID); err == ledgerRepo.ErrAlreadyVoided {
			return NewError(CodeAlreadyVoided, "transaction %s is already voided", transactionID)
		} else if err != nil {
			return err
		}
		reversal = &models.Transaction{
			ID:            uuid.New().String(),
			Type:          original.Type,
			Category:      original.Category,
			Client:        original.Client,
			AppointmentID: original.AppointmentID,
			SessionID:     original.SessionID,
			PurchaseID:    original.PurchaseID,
			Items: []models.TransactionItem{{
				Description: "Reversal of " + original.ID,
				UnitPrice:   -original.Total,
				Quantity:    1,
			}},
			Total:      -original.Total,
			ReversalOf: original.ID,
			CreatedBy:  actor,
			CreatedAt:  time.Now(),
		}
		return s.Ledger.Insert(ctx, reversal)
	})
	if err != nil {
		return nil, err
	}
	return reversal, nil
}

func (s *Service) chargeCard(amount float64, appointmentID string) error {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(int64(math.Round(amount * 100))),
		Currency: stripe.String(string(stripe.CurrencyUSD)),
		PaymentMethodTypes: []*string{
			stripe.String("card"),
		},
	}
	params.AddMetadata("appointment_id", appointmentID)
	if _, err := paymentintent.New(params); err != nil {
		return NewError(CodeChargeFailed, "card charge failed: %v", err)
	}
	return nil
}

var _ Recorder = (*Service)(nil)
