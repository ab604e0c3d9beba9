package checkout

import (
	"context"
	"testing"
	"time"

	appointmentRepo "babyspa/database/repository/appointment"
	catalogRepo "babyspa/database/repository/catalog"
	clientRepo "babyspa/database/repository/client"
	ledgerRepo "babyspa/database/repository/ledger"
	loyaltyRepo "babyspa/database/repository/loyalty"
	purchaseRepo "babyspa/database/repository/purchase"
	sessionRepo "babyspa/database/repository/session"
	"babyspa/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// In-memory fakes covering the repositories the settlement engine touches.

type memAppointments struct {
	appts   map[string]*models.Appointment
	history []models.AppointmentHistory
}

func (r *memAppointments) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
func (r *memAppointments) Create(ctx context.Context, apt *models.Appointment) error {
	cp := *apt
	r.appts[apt.ID] = &cp
	return nil
}
func (r *memAppointments) GetByID(ctx context.Context, id string) (*models.Appointment, error) {
	apt, ok := r.appts[id]
	if !ok {
		return nil, appointmentRepo.ErrAppointmentNotFound
	}
	cp := *apt
	return &cp, nil
}
func (r *memAppointments) Update(ctx context.Context, apt *models.Appointment) error {
	cp := *apt
	r.appts[apt.ID] = &cp
	return nil
}
func (r *memAppointments) ListActiveByDate(ctx context.Context, date string) ([]models.Appointment, error) {
	return nil, nil
}
func (r *memAppointments) ListPendingPaymentBefore(ctx context.Context, cutoff time.Time) ([]models.Appointment, error) {
	return nil, nil
}
func (r *memAppointments) AppendHistory(ctx context.Context, h *models.AppointmentHistory) error {
	r.history = append(r.history, *h)
	return nil
}
func (r *memAppointments) HistoryFor(ctx context.Context, appointmentID string) ([]models.AppointmentHistory, error) {
	return r.history, nil
}
func (r *memAppointments) TouchDay(ctx context.Context, date string) error { return nil }

type memSessions struct {
	sessions map[string]*models.Session
}

func (r *memSessions) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
func (r *memSessions) Create(ctx context.Context, s *models.Session) error {
	cp := *s
	r.sessions[s.ID] = &cp
	return nil
}
func (r *memSessions) GetByID(ctx context.Context, id string) (*models.Session, error) {
	s, ok := r.sessions[id]
	if !ok {
		return nil, sessionRepo.ErrSessionNotFound
	}
	cp := *s
	return &cp, nil
}
func (r *memSessions) GetByAppointmentID(ctx context.Context, appointmentID string) (*models.Session, error) {
	for _, s := range r.sessions {
		if s.AppointmentID == appointmentID {
			cp := *s
			return &cp, nil
		}
	}
	return nil, sessionRepo.ErrSessionNotFound
}
func (r *memSessions) AddProduct(ctx context.Context, sessionID string, p models.ProductUsage) error {
	s, ok := r.sessions[sessionID]
	if !ok {
		return sessionRepo.ErrSessionNotFound
	}
	s.Products = append(s.Products, p)
	return nil
}
func (r *memSessions) LinkPurchase(ctx context.Context, sessionID, purchaseID string) error {
	s, ok := r.sessions[sessionID]
	if !ok {
		return sessionRepo.ErrSessionNotFound
	}
	s.PackagePurchaseID = purchaseID
	return nil
}
func (r *memSessions) CompleteCAS(ctx context.Context, sessionID, purchaseID string, at time.Time) (*models.Session, error) {
	s, ok := r.sessions[sessionID]
	if !ok {
		return nil, sessionRepo.ErrSessionNotFound
	}
	if s.Status != models.SessionPending {
		return nil, sessionRepo.ErrNotPending
	}
	s.Status = models.SessionCompleted
	s.PackagePurchaseID = purchaseID
	s.CompletedAt = &at
	cp := *s
	return &cp, nil
}
func (r *memSessions) Evaluate(ctx context.Context, sessionID, notes string) error {
	s, ok := r.sessions[sessionID]
	if !ok {
		return sessionRepo.ErrSessionNotFound
	}
	if s.Status != models.SessionCompleted {
		return sessionRepo.ErrNotCompleted
	}
	s.Status = models.SessionEvaluated
	s.EvaluationNotes = notes
	return nil
}

type memPurchases struct {
	purchases map[string]*models.PackagePurchase
}

func (r *memPurchases) Create(ctx context.Context, p *models.PackagePurchase) error {
	cp := *p
	r.purchases[p.ID] = &cp
	return nil
}
func (r *memPurchases) GetByID(ctx context.Context, id string) (*models.PackagePurchase, error) {
	p, ok := r.purchases[id]
	if !ok {
		return nil, purchaseRepo.ErrPurchaseNotFound
	}
	cp := *p
	return &cp, nil
}
func (r *memPurchases) OpenForClient(ctx context.Context, client models.ClientRef) (*models.PackagePurchase, error) {
	for _, p := range r.purchases {
		if p.Client == client && p.RemainingSessions > 0 {
			cp := *p
			return &cp, nil
		}
	}
	return nil, purchaseRepo.ErrPurchaseNotFound
}
func (r *memPurchases) ListForClient(ctx context.Context, client models.ClientRef) ([]models.PackagePurchase, error) {
	return nil, nil
}
func (r *memPurchases) ConsumeSession(ctx context.Context, id string) (*models.PackagePurchase, error) {
	p, ok := r.purchases[id]
	if !ok {
		return nil, purchaseRepo.ErrPurchaseNotFound
	}
	if p.RemainingSessions <= 0 {
		return nil, purchaseRepo.ErrNoRemainingSessions
	}
	p.UsedSessions++
	p.RemainingSessions--
	cp := *p
	return &cp, nil
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

type memCatalog struct {
	packages map[string]*models.Package
	products map[string]*models.Product
}

func (r *memCatalog) GetPackage(ctx context.Context, id string) (*models.Package, error) {
	p, ok := r.packages[id]
	if !ok {
		return nil, catalogRepo.ErrPackageNotFound
	}
	cp := *p
	return &cp, nil
}
func (r *memCatalog) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, catalogRepo.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}
func (r *memCatalog) ListActivePackages(ctx context.Context) ([]models.Package, error) {
	return nil, nil
}
func (r *memCatalog) DeductStock(ctx context.Context, productID string, qty int) error {
	p, ok := r.products[productID]
	if !ok {
		return catalogRepo.ErrProductNotFound
	}
	if p.Stock < qty {
		return catalogRepo.ErrInsufficientStock
	}
	p.Stock -= qty
	return nil
}

type memLedger struct {
	entries  []*models.Transaction
	advances map[string]float64 // appointment id -> prior advance sum
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
	return r.advances[appointmentID], nil
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

type memLoyalty struct {
	specialPrices  map[string]float64 // clientID+packageID
	firstDiscounts map[string]float64
	consumed       []string
	progress       map[string]int
}

func (r *memLoyalty) GetCard(ctx context.Context, clientID string) (*models.BabyCard, error) {
	return nil, loyaltyRepo.ErrCardNotFound
}
func (r *memLoyalty) SpecialPrice(ctx context.Context, clientID, packageID string) (float64, bool, error) {
	p, ok := r.specialPrices[clientID+"/"+packageID]
	return p, ok, nil
}
func (r *memLoyalty) FirstSessionDiscount(ctx context.Context, clientID string) (float64, error) {
	return r.firstDiscounts[clientID], nil
}
func (r *memLoyalty) ConsumeFirstSessionDiscount(ctx context.Context, clientID string) error {
	r.consumed = append(r.consumed, clientID)
	delete(r.firstDiscounts, clientID)
	return nil
}
func (r *memLoyalty) IncrementProgress(ctx context.Context, clientID string, count int) error {
	r.progress[clientID] += count
	return nil
}

type memClients struct {
	parents map[string]*models.Parent
}

func (r *memClients) CreateBaby(ctx context.Context, b *models.Baby) error { return nil }
func (r *memClients) CreateParent(ctx context.Context, p *models.Parent) error {
	cp := *p
	r.parents[p.ID] = &cp
	return nil
}
func (r *memClients) GetBaby(ctx context.Context, id string) (*models.Baby, error) {
	return nil, clientRepo.ErrBabyNotFound
}
func (r *memClients) GetParent(ctx context.Context, id string) (*models.Parent, error) {
	p, ok := r.parents[id]
	if !ok {
		return nil, clientRepo.ErrParentNotFound
	}
	cp := *p
	return &cp, nil
}
func (r *memClients) ResolveParent(ctx context.Context, ref models.ClientRef) (*models.Parent, error) {
	// Settlement fixtures book parents as clients directly.
	return r.GetParent(ctx, ref.ID)
}
func (r *memClients) IncrementNoShow(ctx context.Context, parentID string) (*models.Parent, error) {
	return r.GetParent(ctx, parentID)
}
func (r *memClients) ResetNoShow(ctx context.Context, parentID string) error {
	p, ok := r.parents[parentID]
	if !ok {
		return clientRepo.ErrParentNotFound
	}
	p.NoShowCount = 0
	return nil
}

type memAudit struct {
	events []models.AuditEvent
}

func (r *memAudit) Record(ctx context.Context, event models.AuditEvent) error {
	r.events = append(r.events, event)
	return nil
}

type settlementFixture struct {
	svc       *SettlementService
	appts     *memAppointments
	sessions  *memSessions
	purchases *memPurchases
	catalog   *memCatalog
	ledger    *memLedger
	loyalty   *memLoyalty
	clients   *memClients
	audit     *memAudit
}

func newSettlementFixture(t *testing.T) *settlementFixture {
	t.Helper()
	f := &settlementFixture{
		appts:     &memAppointments{appts: map[string]*models.Appointment{}},
		sessions:  &memSessions{sessions: map[string]*models.Session{}},
		purchases: &memPurchases{purchases: map[string]*models.PackagePurchase{}},
		catalog:   &memCatalog{packages: map[string]*models.Package{}, products: map[string]*models.Product{}},
		ledger:    &memLedger{advances: map[string]float64{}},
		loyalty:   &memLoyalty{specialPrices: map[string]float64{}, firstDiscounts: map[string]float64{}, progress: map[string]int{}},
		clients:   &memClients{parents: map[string]*models.Parent{}},
		audit:     &memAudit{},
	}
	f.svc = &SettlementService{
		Sessions:     f.sessions,
		Appointments: f.appts,
		Purchases:    f.purchases,
		Catalog:      f.catalog,
		Ledger:       f.ledger,
		Loyalty:      f.loyalty,
		Clients:      f.clients,
		Audit:        f.audit,
	}

	f.clients.parents["parent-1"] = &models.Parent{ID: "parent-1", Name: "Dana", NoShowCount: 1}
	f.appts.appts["apt-1"] = &models.Appointment{
		ID:     "apt-1",
		Client: models.ParentRef("parent-1"),
		Date:   "2026-09-07",
		Status: models.AppointmentInProgress,
	}
	f.sessions.sessions["sess-1"] = &models.Session{
		ID:            "sess-1",
		AppointmentID: "apt-1",
		Client:        models.ParentRef("parent-1"),
		TherapistID:   "therapist-1",
		Status:        models.SessionPending,
	}
	return f
}

func (f *settlementFixture) addProduct(name string, price float64, qty int, chargeable bool) {
	s := f.sessions.sessions["sess-1"]
	id := "prod-" + name
	f.catalog.products[id] = &models.Product{ID: id, Name: name, Price: price, Stock: 100}
	s.Products = append(s.Products, models.ProductUsage{
		ProductID:  id,
		Name:       name,
		UnitPrice:  price,
		Quantity:   qty,
		Chargeable: chargeable,
	})
}

func pay(amount float64) []models.PaymentDetail {
	return []models.PaymentDetail{{Method: "cash", Amount: amount}}
}

func TestCompleteSessionNewPackageSale(t *testing.T) {
	f := newSettlementFixture(t)
	f.catalog.packages["pkg-6"] = &models.Package{ID: "pkg-6", Name: "Six Pack", SessionCount: 6, Price: 600, Active: true}

	result, err := f.svc.CompleteSession(context.Background(), "sess-1", models.SettlementInput{
		PackageID:      "pkg-6",
		PaymentDetails: pay(600),
		Actor:          "reception",
	})
	require.NoError(t, err)

	assert.Equal(t, 600.0, result.TotalAmount)
	require.NotNil(t, result.PackagePurchase)
	assert.Equal(t, 1, result.PackagePurchase.UsedSessions)
	assert.Equal(t, 5, result.PackagePurchase.RemainingSessions)
	assert.Equal(t, 6, result.PackagePurchase.TotalSessions)
	assert.Equal(t, models.SessionCompleted, result.Session.Status)

	// Appointment closed, no-show streak reset.
	apt, _ := f.appts.GetByID(context.Background(), "apt-1")
	assert.Equal(t, models.AppointmentCompleted, apt.Status)
	parent, _ := f.clients.GetParent(context.Background(), "parent-1")
	assert.Equal(t, 0, parent.NoShowCount)

	// Ledger entry for the sale, loyalty progress for the full bundle.
	require.Len(t, f.ledger.entries, 1)
	txn := f.ledger.entries[0]
	assert.Equal(t, models.CategoryPackageSale, txn.Category)
	assert.Equal(t, 600.0, txn.Total)
	assert.InDelta(t, 600.0, txn.ItemTotal(), 0.001)
	assert.Equal(t, 6, f.loyalty.progress["parent-1"])
	require.Len(t, f.audit.events, 1)
	assert.Equal(t, "SESSION_SETTLED", f.audit.events[0].Kind)
}

func TestCompleteSessionExistingPurchase(t *testing.T) {
	f := newSettlementFixture(t)
	f.purchases.purchases["pp-1"] = &models.PackagePurchase{
		ID:                "pp-1",
		Client:            models.ParentRef("parent-1"),
		TotalSessions:     6,
		UsedSessions:      2,
		RemainingSessions: 4,
	}

	result, err := f.svc.CompleteSession(context.Background(), "sess-1", models.SettlementInput{})
	require.NoError(t, err)

	// Sessionless checkout: nothing due, no ledger entry, one deduction.
	assert.Equal(t, 0.0, result.TotalAmount)
	assert.Equal(t, 3, result.PackagePurchase.UsedSessions)
	assert.Equal(t, 3, result.PackagePurchase.RemainingSessions)
	assert.Equal(t, result.PackagePurchase.TotalSessions,
		result.PackagePurchase.UsedSessions+result.PackagePurchase.RemainingSessions)
	assert.Empty(t, f.ledger.entries)
	assert.Equal(t, 1, f.loyalty.progress["parent-1"])
}

func TestCompleteSessionExhaustedPurchase(t *testing.T) {
	f := newSettlementFixture(t)
	f.purchases.purchases["pp-1"] = &models.PackagePurchase{
		ID:                "pp-1",
		Client:            models.ParentRef("parent-1"),
		TotalSessions:     6,
		UsedSessions:      6,
		RemainingSessions: 0,
	}

	_, err := f.svc.CompleteSession(context.Background(), "sess-1", models.SettlementInput{
		PackagePurchaseID: "pp-1",
	})
	assert.Equal(t, CodeNoRemainingSessions, CodeOf(err))

	// Nothing moved.
	s, _ := f.sessions.GetByID(context.Background(), "sess-1")
	assert.Equal(t, models.SessionPending, s.Status)
	apt, _ := f.appts.GetByID(context.Background(), "apt-1")
	assert.Equal(t, models.AppointmentInProgress, apt.Status)
}

func TestCompleteSessionProportionalDiscount(t *testing.T) {
	f := newSettlementFixture(t)
	f.catalog.packages["pkg-1"] = &models.Package{ID: "pkg-1", Name: "Bundle", SessionCount: 5, Price: 150, Active: true}
	f.addProduct("oil", 50, 1, true)

	result, err := f.svc.CompleteSession(context.Background(), "sess-1", models.SettlementInput{
		PackageID:      "pkg-1",
		DiscountAmount: 20,
		PaymentDetails: pay(180),
		Actor:          "reception",
	})
	require.NoError(t, err)
	assert.Equal(t, 180.0, result.TotalAmount)

	require.Len(t, f.ledger.entries, 1)
	txn := f.ledger.entries[0]
	require.Len(t, txn.Items, 2)

	// Package 150/200 of the discount, product 50/200.
	assert.Equal(t, 150.0, txn.Items[0].UnitPrice)
	assert.InDelta(t, 15.0, txn.Items[0].Discount, 0.001)
	assert.Equal(t, 50.0, txn.Items[1].UnitPrice)
	assert.InDelta(t, 5.0, txn.Items[1].Discount, 0.001)
	assert.InDelta(t, txn.Total, txn.ItemTotal(), 0.001)
}

func TestCompleteSessionAdvanceNetting(t *testing.T) {
	f := newSettlementFixture(t)
	f.addProduct("membership kit", 250, 1, true)
	f.ledger.advances["apt-1"] = 100

	result, err := f.svc.CompleteSession(context.Background(), "sess-1", models.SettlementInput{
		PaymentDetails: pay(150),
		Actor:          "reception",
	})
	require.NoError(t, err)
	assert.Equal(t, 150.0, result.TotalAmount)
	assert.Equal(t, 100.0, result.AdvancePaid)

	require.Len(t, f.ledger.entries, 1)
	txn := f.ledger.entries[0]
	assert.Equal(t, 150.0, txn.Total)

	// The synthetic advance line squares the item sum with the amount
	// actually collected.
	last := txn.Items[len(txn.Items)-1]
	assert.Equal(t, -100.0, last.UnitPrice)
	assert.InDelta(t, 150.0, txn.ItemTotal(), 0.001)
}

func TestCompleteSessionAdvanceCoversEverything(t *testing.T) {
	f := newSettlementFixture(t)
	f.addProduct("lotion", 80, 1, true)
	f.ledger.advances["apt-1"] = 200

	result, err := f.svc.CompleteSession(context.Background(), "sess-1", models.SettlementInput{})
	require.NoError(t, err)
	assert.Equal(t, 0.0, result.TotalAmount)
	assert.Equal(t, 80.0, result.AdvancePaid)
	assert.Empty(t, f.ledger.entries)
}

func TestCompleteSessionFirstSessionDiscount(t *testing.T) {
	f := newSettlementFixture(t)
	f.addProduct("oil", 50, 1, true)
	f.loyalty.firstDiscounts["parent-1"] = 30

	result, err := f.svc.CompleteSession(context.Background(), "sess-1", models.SettlementInput{
		UseFirstSessionDiscount: true,
		PaymentDetails:          pay(20),
	})
	require.NoError(t, err)
	assert.Equal(t, 20.0, result.TotalAmount)
	assert.Equal(t, 30.0, result.Loyalty.FirstSessionDiscount)
	assert.Equal(t, []string{"parent-1"}, f.loyalty.consumed)
}

func TestCompleteSessionSpecialPrice(t *testing.T) {
	f := newSettlementFixture(t)
	f.catalog.packages["pkg-1"] = &models.Package{ID: "pkg-1", Name: "Bundle", SessionCount: 4, Price: 400, Active: true}
	f.loyalty.specialPrices["parent-1/pkg-1"] = 320

	result, err := f.svc.CompleteSession(context.Background(), "sess-1", models.SettlementInput{
		PackageID:      "pkg-1",
		PaymentDetails: pay(320),
	})
	require.NoError(t, err)
	assert.Equal(t, 320.0, result.TotalAmount)
	assert.True(t, result.Loyalty.SpecialPriceApplied)
}

func TestCompleteSessionPaymentValidation(t *testing.T) {
	f := newSettlementFixture(t)
	f.addProduct("oil", 50, 1, true)

	_, err := f.svc.CompleteSession(context.Background(), "sess-1", models.SettlementInput{})
	assert.Equal(t, CodeInvalidPaymentTotal, CodeOf(err))

	_, err = f.svc.CompleteSession(context.Background(), "sess-1", models.SettlementInput{
		PaymentDetails: pay(40),
	})
	assert.Equal(t, CodeInvalidPaymentTotal, CodeOf(err))

	// Split payments that sum correctly pass.
	result, err := f.svc.CompleteSession(context.Background(), "sess-1", models.SettlementInput{
		PaymentDetails: []models.PaymentDetail{
			{Method: "cash", Amount: 20},
			{Method: "card", Amount: 30},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 50.0, result.TotalAmount)
}

func TestCompleteSessionInsufficientStock(t *testing.T) {
	f := newSettlementFixture(t)
	f.addProduct("oil", 50, 1, true)
	f.catalog.products["prod-oil"].Stock = 0

	_, err := f.svc.CompleteSession(context.Background(), "sess-1", models.SettlementInput{
		PaymentDetails: pay(50),
	})
	assert.Equal(t, CodeInsufficientStock, CodeOf(err))

	s, _ := f.sessions.GetByID(context.Background(), "sess-1")
	assert.Equal(t, models.SessionPending, s.Status)
}

func TestCompleteSessionNonChargeableProduct(t *testing.T) {
	f := newSettlementFixture(t)
	f.addProduct("oil", 50, 1, true)
	f.addProduct("towel", 15, 2, false)

	result, err := f.svc.CompleteSession(context.Background(), "sess-1", models.SettlementInput{
		PaymentDetails: pay(50),
	})
	require.NoError(t, err)
	assert.Equal(t, 50.0, result.TotalAmount)

	// Non-chargeable lines still consume stock.
	assert.Equal(t, 98, f.catalog.products["prod-towel"].Stock)
	// But never appear on the invoice.
	require.Len(t, f.ledger.entries, 1)
	require.Len(t, f.ledger.entries[0].Items, 1)
	assert.Equal(t, "oil", f.ledger.entries[0].Items[0].Description)
}

func TestCompleteSessionIdempotent(t *testing.T) {
	f := newSettlementFixture(t)
	f.purchases.purchases["pp-1"] = &models.PackagePurchase{
		ID:                "pp-1",
		Client:            models.ParentRef("parent-1"),
		TotalSessions:     6,
		UsedSessions:      0,
		RemainingSessions: 6,
	}

	_, err := f.svc.CompleteSession(context.Background(), "sess-1", models.SettlementInput{})
	require.NoError(t, err)

	_, err = f.svc.CompleteSession(context.Background(), "sess-1", models.SettlementInput{})
	assert.Equal(t, CodeSessionAlreadyComplete, CodeOf(err))

	// Exactly one deduction landed.
	p, _ := f.purchases.GetByID(context.Background(), "pp-1")
	assert.Equal(t, 1, p.UsedSessions)
	assert.Equal(t, 5, p.RemainingSessions)
}

func TestCompleteSessionWrongStates(t *testing.T) {
	f := newSettlementFixture(t)

	_, err := f.svc.CompleteSession(context.Background(), "missing", models.SettlementInput{})
	assert.Equal(t, CodeSessionNotFound, CodeOf(err))

	f.appts.appts["apt-1"].Status = models.AppointmentScheduled
	_, err = f.svc.CompleteSession(context.Background(), "sess-1", models.SettlementInput{})
	assert.Equal(t, CodeSessionNotInProgress, CodeOf(err))
}

func TestAllocateDiscountReconciles(t *testing.T) {
	items := []models.TransactionItem{
		{Description: "a", UnitPrice: 33.33, Quantity: 1},
		{Description: "b", UnitPrice: 19.99, Quantity: 3},
		{Description: "c", UnitPrice: 7.77, Quantity: 2},
		{Description: "d", UnitPrice: 120.0, Quantity: 1},
	}
	allocateDiscount(items, 25)

	var sum float64
	for _, it := range items {
		sum += it.Discount
	}
	assert.InDelta(t, 25.0, sum, 0.0001)

	var net float64
	for _, it := range items {
		net += it.Net()
	}
	var gross float64
	for _, it := range items {
		gross += it.UnitPrice * float64(it.Quantity)
	}
	assert.InDelta(t, gross-25, net, 0.0001)
}

func TestAllocateDiscountEdges(t *testing.T) {
	// No lines, no discount: nothing to do, nothing panics.
	allocateDiscount(nil, 10)

	items := []models.TransactionItem{{Description: "a", UnitPrice: 30, Quantity: 1}}
	allocateDiscount(items, 0)
	assert.Equal(t, 0.0, items[0].Discount)

	// Discount larger than the subtotal is clamped.
	allocateDiscount(items, 100)
	assert.Equal(t, 30.0, items[0].Discount)
}

func TestEvaluateSession(t *testing.T) {
	f := newSettlementFixture(t)
	f.purchases.purchases["pp-1"] = &models.PackagePurchase{
		ID:                "pp-1",
		Client:            models.ParentRef("parent-1"),
		TotalSessions:     6,
		RemainingSessions: 6,
	}

	err := f.svc.EvaluateSession(context.Background(), "sess-1", "slept through it")
	assert.Equal(t, CodeSessionNotCompleted, CodeOf(err))

	_, err = f.svc.CompleteSession(context.Background(), "sess-1", models.SettlementInput{})
	require.NoError(t, err)

	require.NoError(t, f.svc.EvaluateSession(context.Background(), "sess-1", "slept through it"))
	s, _ := f.sessions.GetByID(context.Background(), "sess-1")
	assert.Equal(t, models.SessionEvaluated, s.Status)
	assert.Equal(t, "slept through it", s.EvaluationNotes)
}

func TestAddProduct(t *testing.T) {
	f := newSettlementFixture(t)
	f.catalog.products["prod-1"] = &models.Product{ID: "prod-1", Name: "oil", Price: 25, Stock: 10}

	session, err := f.svc.AddProduct(context.Background(), "sess-1", "prod-1", 2, true)
	require.NoError(t, err)
	require.Len(t, session.Products, 1)
	assert.Equal(t, 25.0, session.Products[0].UnitPrice)
	assert.Equal(t, 2, session.Products[0].Quantity)

	// Stock untouched until settlement.
	assert.Equal(t, 10, f.catalog.products["prod-1"].Stock)

	_, err = f.svc.AddProduct(context.Background(), "sess-1", "prod-1", 0, true)
	assert.Equal(t, CodeInvalidQuantity, CodeOf(err))

	_, err = f.svc.AddProduct(context.Background(), "sess-1", "missing", 1, true)
	assert.Equal(t, CodeProductNotFound, CodeOf(err))
}
