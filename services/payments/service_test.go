package payments

import (
	"context"
	"testing"

	ledgerRepo "babyspa/database/repository/ledger"
	purchaseRepo "babyspa/database/repository/purchase"
	"babyspa/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memLedger struct {
	entries []*models.Transaction
}

func (r *memLedger) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
func (r *memLedger) Insert(ctx context.Context, t *models.Transaction) error {
	cp := *t
	r.entries = append(r.entries, &cp)
	return nil
}
func (r *memLedger) GetByID(ctx context.Context, id string) (*models.Transaction, error) {
	for _, t := range r.entries {
		if t.ID == id {
			cp := *t
			return &cp, nil
		}
	}
	return nil, ledgerRepo.ErrTransactionNotFound
}
func (r *memLedger) ListForAppointment(ctx context.Context, appointmentID string) ([]models.Transaction, error) {
	return nil, nil
}
func (r *memLedger) SumAdvances(ctx context.Context, appointmentID string) (float64, error) {
	var sum float64
	for _, t := range r.entries {
		if t.AppointmentID == appointmentID && t.Category == models.CategoryAppointmentAdvance &&
			!t.Voided && t.ReversalOf == "" {
			sum += t.Total
		}
	}
	return sum, nil
}
func (r *memLedger) MarkVoided(ctx context.Context, id string) error {
	for _, t := range r.entries {
		if t.ID == id {
			if t.Voided {
				return ledgerRepo.ErrAlreadyVoided
			}
			t.Voided = true
			return nil
		}
	}
	return ledgerRepo.ErrTransactionNotFound
}

type memPurchases struct {
	purchases map[string]*models.PackagePurchase
}

func (r *memPurchases) Create(ctx context.Context, p *models.PackagePurchase) error { return nil }
func (r *memPurchases) GetByID(ctx context.Context, id string) (*models.PackagePurchase, error) {
	p, ok := r.purchases[id]
	if !ok {
		return nil, purchaseRepo.ErrPurchaseNotFound
	}
	cp := *p
	return &cp, nil
}
func (r *memPurchases) OpenForClient(ctx context.Context, client models.ClientRef) (*models.PackagePurchase, error) {
	return nil, purchaseRepo.ErrPurchaseNotFound
}
func (r *memPurchases) ListForClient(ctx context.Context, client models.ClientRef) ([]models.PackagePurchase, error) {
	return nil, nil
}
func (r *memPurchases) ConsumeSession(ctx context.Context, id string) (*models.PackagePurchase, error) {
	return nil, purchaseRepo.ErrPurchaseNotFound
}
func (r *memPurchases) AddPayment(ctx context.Context, id string, amount float64) (*models.PackagePurchase, error) {
	p, ok := r.purchases[id]
	if !ok {
		return nil, purchaseRepo.ErrPurchaseNotFound
	}
	p.PaidAmount += amount
	cp := *p
	return &cp, nil
}

func newService() (*Service, *memLedger, *memPurchases) {
	ledger := &memLedger{}
	purchases := &memPurchases{purchases: map[string]*models.PackagePurchase{}}
	return &Service{Ledger: ledger, Purchases: purchases}, ledger, purchases
}

func TestCollectAdvance(t *testing.T) {
	svc, ledger, _ := newService()
	apt := &models.Appointment{ID: "apt-1", Client: models.BabyRef("baby-1")}

	txn, err := svc.CollectAdvance(context.Background(), apt, 100, "cash", "reception")
	require.NoError(t, err)
	assert.Equal(t, models.CategoryAppointmentAdvance, txn.Category)
	assert.Equal(t, 100.0, txn.Total)
	assert.Equal(t, "apt-1", txn.AppointmentID)

	sum, err := ledger.SumAdvances(context.Background(), "apt-1")
	require.NoError(t, err)
	assert.Equal(t, 100.0, sum)

	_, err = svc.CollectAdvance(context.Background(), apt, -5, "cash", "reception")
	assert.Equal(t, CodeInvalidAmount, CodeOf(err))
}

func TestRecordInstallment(t *testing.T) {
	svc, ledger, purchases := newService()
	purchases.purchases["pp-1"] = &models.PackagePurchase{
		ID:          "pp-1",
		Client:      models.ParentRef("parent-1"),
		PackageName: "Six Pack",
		PaymentPlan: models.PlanInstallments,
		TotalPrice:  600,
		PaidAmount:  200,
	}

	purchase, txn, err := svc.RecordInstallment(context.Background(), "pp-1", 200, "card", "reception")
	require.NoError(t, err)
	assert.Equal(t, 400.0, purchase.PaidAmount)
	assert.Equal(t, models.CategoryPackageInstallment, txn.Category)
	assert.Equal(t, 200.0, txn.Total)
	require.Len(t, ledger.entries, 1)

	_, _, err = svc.RecordInstallment(context.Background(), "missing", 50, "cash", "reception")
	assert.Equal(t, CodePurchaseNotFound, CodeOf(err))
}

func TestVoidCreatesReversal(t *testing.T) {
	svc, ledger, _ := newService()
	apt := &models.Appointment{ID: "apt-1", Client: models.BabyRef("baby-1")}
	original, err := svc.CollectAdvance(context.Background(), apt, 100, "cash", "reception")
	require.NoError(t, err)

	reversal, err := svc.Void(context.Background(), original.ID, "manager")
	require.NoError(t, err)
	assert.Equal(t, original.ID, reversal.ReversalOf)
	assert.Equal(t, -100.0, reversal.Total)

	// The voided advance no longer counts toward netting.
	sum, err := ledger.SumAdvances(context.Background(), "apt-1")
	require.NoError(t, err)
	assert.Equal(t, 0.0, sum)

	_, err = svc.Void(context.Background(), original.ID, "manager")
	assert.Equal(t, CodeAlreadyVoided, CodeOf(err))

	_, err = svc.Void(context.Background(), "missing", "manager")
	assert.Equal(t, CodeTransactionNotFound, CodeOf(err))
}
