package checkout

import (
	"context"
	"fmt"
	"math"
	"time"

	appointmentRepo "babyspa/database/repository/appointment"
	auditRepo "babyspa/database/repository/audit"
	catalogRepo "babyspa/database/repository/catalog"
	clientRepo "babyspa/database/repository/client"
	ledgerRepo "babyspa/database/repository/ledger"
	loyaltyRepo "babyspa/database/repository/loyalty"
	purchaseRepo "babyspa/database/repository/purchase"
	sessionRepo "babyspa/database/repository/session"
	"babyspa/models"
	"babyspa/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// paymentTolerance absorbs float drift when comparing payment sums.
const paymentTolerance = 0.005

// Settler closes sessions and settles their finances.
type Settler interface {
	CompleteSession(ctx context.Context, sessionID string, in models.SettlementInput) (*models.SettlementResult, error)
	AddProduct(ctx context.Context, sessionID, productID string, qty int, chargeable bool) (*models.Session, error)
	EvaluateSession(ctx context.Context, sessionID, notes string) error
}

// SettlementService is the checkout settlement engine. One call takes a
// worked session through package deduction, pricing, discounting, advance
// netting and the ledger write.
type SettlementService struct {
	Sessions     sessionRepo.Repository
	Appointments appointmentRepo.Repository
	Purchases    purchaseRepo.Repository
	Catalog      catalogRepo.Repository
	Ledger       ledgerRepo.Repository
	Loyalty      loyaltyRepo.Repository
	Clients      clientRepo.Repository
	Audit        auditRepo.Repository
}

func (s *SettlementService) CompleteSession(ctx context.Context, sessionID string, in models.SettlementInput) (*models.SettlementResult, error) {
	logger := utils.GetLogger()

	session, err := s.Sessions.GetByID(ctx, sessionID)
	if err == sessionRepo.ErrSessionNotFound {
		return nil, NewError(CodeSessionNotFound, "session %s not found", sessionID)
	}
	if err != nil {
		return nil, err
	}
	if session.Status != models.SessionPending {
		return nil, NewError(CodeSessionAlreadyComplete, "session %s is already %s", sessionID, session.Status)
	}
	apt, err := s.Appointments.GetByID(ctx, session.AppointmentID)
	if err != nil {
		return nil, err
	}
	if apt.Status != models.AppointmentInProgress {
		return nil, NewError(CodeSessionNotInProgress, "appointment %s is %s, not IN_PROGRESS", apt.ID, apt.Status)
	}

	purchase, pkg, newSale, err := s.resolvePackage(ctx, session, in)
	if err != nil {
		return nil, err
	}

	// Pricing. The package price only enters the invoice on a new sale;
	// deducting from an existing purchase was paid for at purchase time.
	productSubtotal := round2(session.ChargeableSubtotal())
	var packagePrice float64
	specialApplied := false
	if newSale {
		packagePrice = pkg.Price
		if sp, ok, err := s.Loyalty.SpecialPrice(ctx, session.Client.ID, pkg.ID); err == nil && ok {
			packagePrice = sp
			specialApplied = true
		} else if err != nil {
			logger.Warn("special price lookup failed", zap.Error(err))
		}
	}
	subtotal := round2(productSubtotal + packagePrice)

	manualDiscount := in.DiscountAmount
	if manualDiscount < 0 {
		manualDiscount = 0
	}
	var firstSessionDiscount float64
	if in.UseFirstSessionDiscount {
		fsd, err := s.Loyalty.FirstSessionDiscount(ctx, session.Client.ID)
		if err != nil {
			return nil, err
		}
		firstSessionDiscount = math.Min(fsd, subtotal)
	}
	discounted := round2(subtotal - manualDiscount - firstSessionDiscount)
	if discounted < 0 {
		discounted = 0
	}

	advancePaid, err := s.Ledger.SumAdvances(ctx, apt.ID)
	if err != nil {
		return nil, err
	}
	advanceApplied := math.Min(advancePaid, discounted)
	due := round2(discounted - advanceApplied)

	if due > 0 {
		var paid float64
		for _, p := range in.PaymentDetails {
			paid += p.Amount
		}
		if len(in.PaymentDetails) == 0 || math.Abs(paid-due) > paymentTolerance {
			return nil, NewError(CodeInvalidPaymentTotal,
				"payments sum to %.2f, amount due is %.2f", paid, due)
		}
	}

	// Stock comes off before the settlement transaction opens; a shortage
	// aborts the completion with nothing written.
	for _, line := range session.Products {
		if err := s.Catalog.DeductStock(ctx, line.ProductID, line.Quantity); err != nil {
			switch err {
			case catalogRepo.ErrInsufficientStock:
				return nil, NewError(CodeInsufficientStock, "not enough stock of %s", line.Name)
			case catalogRepo.ErrProductNotFound:
				return nil, NewError(CodeProductNotFound, "product %s not found", line.ProductID)
			default:
				return nil, err
			}
		}
	}

	now := time.Now()
	var settled *models.Session
	err = s.Sessions.WithTransaction(ctx, func(ctx context.Context) error {
		current, err := s.Appointments.GetByID(ctx, apt.ID)
		if err != nil {
			return err
		}
		if current.Status != models.AppointmentInProgress {
			return NewError(CodeSessionNotInProgress, "appointment %s is %s, not IN_PROGRESS", apt.ID, current.Status)
		}

		if newSale {
			purchase = s.newPurchase(session.Client, pkg, packagePrice, manualDiscount+firstSessionDiscount, in, now)
			if err := s.Purchases.Create(ctx, purchase); err != nil {
				return err
			}
		} else if purchase != nil {
			updated, err := s.Purchases.ConsumeSession(ctx, purchase.ID)
			if err == purchaseRepo.ErrNoRemainingSessions {
				return NewError(CodeNoRemainingSessions, "purchase %s has no remaining sessions", purchase.ID)
			}
			if err != nil {
				return err
			}
			purchase = updated
		}

		purchaseID := ""
		if purchase != nil {
			purchaseID = purchase.ID
		}
		settled, err = s.Sessions.CompleteCAS(ctx, session.ID, purchaseID, now)
		if err == sessionRepo.ErrNotPending {
			return NewError(CodeSessionAlreadyComplete, "session %s was completed concurrently", session.ID)
		}
		if err != nil {
			return err
		}

		apt.Status = models.AppointmentCompleted
		if err := s.Appointments.Update(ctx, apt); err != nil {
			return err
		}
		if err := s.Appointments.AppendHistory(ctx, &models.AppointmentHistory{
			ID:            uuid.New().String(),
			AppointmentID: apt.ID,
			Action:        "COMPLETE",
			OldStatus:     models.AppointmentInProgress,
			NewStatus:     models.AppointmentCompleted,
			Actor:         in.Actor,
		}); err != nil {
			return err
		}

		parent, err := s.Clients.ResolveParent(ctx, session.Client)
		if err != nil {
			return err
		}
		return s.Clients.ResetNoShow(ctx, parent.ID)
	})
	if err != nil {
		return nil, err
	}

	result := &models.SettlementResult{
		Session:         settled,
		PackagePurchase: purchase,
		TotalAmount:     due,
		AdvancePaid:     advanceApplied,
		Loyalty: models.LoyaltyInfo{
			FirstSessionDiscount: firstSessionDiscount,
			SpecialPriceApplied:  specialApplied,
		},
	}

	progress := 1
	if newSale && pkg.SessionCount > 1 {
		progress = pkg.SessionCount
	}
	result.Loyalty.ProgressAdded = progress

	s.runEffects(ctx, session.ID, s.postCommitEffects(
		settled, apt, purchase, pkg, in, due, advanceApplied,
		productSubtotal, packagePrice, manualDiscount, firstSessionDiscount,
		newSale, progress,
	))

	utils.SettlementsCompleted.Inc()
	utils.SettlementAmount.Observe(due)
	logger.Info("session settled",
		zap.String("session_id", session.ID),
		zap.String("appointment_id", apt.ID),
		zap.Float64("total", due),
		zap.Float64("advance_applied", advanceApplied))
	return result, nil
}

// resolvePackage picks the purchase that pays for this session, in priority
// order: caller-supplied purchase, the purchase already linked to the
// session, any open purchase of the client. A catalog package id instead
// turns the checkout into a new sale. No match at all means pay-per-session
// with no package involvement.
func (s *SettlementService) resolvePackage(ctx context.Context, session *models.Session, in models.SettlementInput) (*models.PackagePurchase, *models.Package, bool, error) {
	lookup := func(id string) (*models.PackagePurchase, error) {
		p, err := s.Purchases.GetByID(ctx, id)
		if err == purchaseRepo.ErrPurchaseNotFound {
			return nil, NewError(CodePackageNotFound, "package purchase %s not found", id)
		}
		return p, err
	}

	if in.PackagePurchaseID != "" {
		p, err := lookup(in.PackagePurchaseID)
		return p, nil, false, err
	}
	if session.PackagePurchaseID != "" {
		p, err := lookup(session.PackagePurchaseID)
		return p, nil, false, err
	}
	if p, err := s.Purchases.OpenForClient(ctx, session.Client); err == nil {
		return p, nil, false, nil
	} else if err != purchaseRepo.ErrPurchaseNotFound {
		return nil, nil, false, err
	}
	if in.PackageID != "" {
		pkg, err := s.Catalog.GetPackage(ctx, in.PackageID)
		if err == catalogRepo.ErrPackageNotFound {
			return nil, nil, false, NewError(CodePackageNotFound, "package %s not found", in.PackageID)
		}
		if err != nil {
			return nil, nil, false, err
		}
		return nil, pkg, true, nil
	}
	return nil, nil, false, nil
}

// newPurchase builds the purchase row for a package sold at checkout. The
// session being settled is pre-consumed at creation.
func (s *SettlementService) newPurchase(client models.ClientRef, pkg *models.Package, price, discount float64, in models.SettlementInput, now time.Time) *models.PackagePurchase {
	final := round2(price - discount)
	if final < 0 {
		final = 0
	}
	plan := models.PlanSingle
	if len(in.PaymentDetails) > 0 {
		var paid float64
		for _, p := range in.PaymentDetails {
			paid += p.Amount
		}
		if paid+paymentTolerance < final {
			plan = models.PlanInstallments
		}
	}
	return &models.PackagePurchase{
		ID:                uuid.New().String(),
		Client:            client,
		PackageID:         pkg.ID,
		PackageName:       pkg.Name,
		TotalSessions:     pkg.SessionCount,
		UsedSessions:      1,
		RemainingSessions: pkg.SessionCount - 1,
		BasePrice:         price,
		Discount:          discount,
		FinalPrice:        final,
		PaymentPlan:       plan,
		TotalPrice:        final,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// buildInvoiceLines assembles the transaction line items: the package line
// on a new sale, every chargeable product line, the combined discount
// spread proportionally across them, and a synthetic negative advance line
// so the recorded total matches the amount collected now.
func buildInvoiceLines(session *models.Session, pkg *models.Package, packagePrice, discount, advanceApplied float64, newSale bool) []models.TransactionItem {
	var items []models.TransactionItem
	if newSale {
		items = append(items, models.TransactionItem{
			Description: fmt.Sprintf("Package: %s", pkg.Name),
			UnitPrice:   packagePrice,
			Quantity:    1,
		})
	}
	for _, p := range session.Products {
		if !p.Chargeable {
			continue
		}
		items = append(items, models.TransactionItem{
			Description: p.Name,
			UnitPrice:   p.UnitPrice,
			Quantity:    p.Quantity,
		})
	}
	allocateDiscount(items, discount)
	if advanceApplied > 0 {
		items = append(items, models.TransactionItem{
			Description: "Advance payment applied",
			UnitPrice:   -advanceApplied,
			Quantity:    1,
		})
	}
	return items
}

// allocateDiscount spreads a discount across lines by each line's share of
// the pre-discount subtotal. The last line absorbs the rounding remainder
// so the line nets reconcile with the aggregate to the cent.
func allocateDiscount(items []models.TransactionItem, discount float64) {
	if discount <= 0 || len(items) == 0 {
		return
	}
	var subtotal float64
	for _, it := range items {
		subtotal += it.UnitPrice * float64(it.Quantity)
	}
	if subtotal <= 0 {
		return
	}
	if discount > subtotal {
		discount = subtotal
	}
	var allocated float64
	for i := range items {
		if i == len(items)-1 {
			items[i].Discount = round2(discount - allocated)
			break
		}
		share := round2(discount * (items[i].UnitPrice * float64(items[i].Quantity)) / subtotal)
		items[i].Discount = share
		allocated += share
	}
}

// AddProduct attaches a product line to a pending session, snapshotting the
// catalog name and price. Stock is deducted at settlement, not here.
func (s *SettlementService) AddProduct(ctx context.Context, sessionID, productID string, qty int, chargeable bool) (*models.Session, error) {
	if qty <= 0 {
		return nil, NewError(CodeInvalidQuantity, "quantity must be positive")
	}
	session, err := s.Sessions.GetByID(ctx, sessionID)
	if err == sessionRepo.ErrSessionNotFound {
		return nil, NewError(CodeSessionNotFound, "session %s not found", sessionID)
	}
	if err != nil {
		return nil, err
	}
	if session.Status != models.SessionPending {
		return nil, NewError(CodeSessionAlreadyComplete, "session %s is already %s", sessionID, session.Status)
	}
	product, err := s.Catalog.GetProduct(ctx, productID)
	if err == catalogRepo.ErrProductNotFound {
		return nil, NewError(CodeProductNotFound, "product %s not found", productID)
	}
	if err != nil {
		return nil, err
	}
	line := models.ProductUsage{
		ProductID:  product.ID,
		Name:       product.Name,
		UnitPrice:  product.Price,
		Quantity:   qty,
		Chargeable: chargeable,
	}
	if err := s.Sessions.AddProduct(ctx, sessionID, line); err != nil {
		return nil, err
	}
	session.Products = append(session.Products, line)
	return session, nil
}

// EvaluateSession attaches the therapist's notes to a completed session.
func (s *SettlementService) EvaluateSession(ctx context.Context, sessionID, notes string) error {
	err := s.Sessions.Evaluate(ctx, sessionID, notes)
	switch err {
	case sessionRepo.ErrSessionNotFound:
		return NewError(CodeSessionNotFound, "session %s not found", sessionID)
	case sessionRepo.ErrNotCompleted:
		return NewError(CodeSessionNotCompleted, "session %s is not completed", sessionID)
	}
	return err
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

var _ Settler = (*SettlementService)(nil)
