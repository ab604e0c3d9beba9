package checkout

import (
	"context"
	"time"

	"babyspa/models"
	"babyspa/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// effect is one post-commit action. Effects run after the settlement
// transaction commits; a failure is logged and counted, never propagated,
// so collateral writes can never roll back a settled session.
type effect struct {
	name string
	run  func(ctx context.Context) error
}

func (s *SettlementService) runEffects(ctx context.Context, sessionID string, effects []effect) {
	logger := utils.GetLogger()
	for _, e := range effects {
		if err := e.run(ctx); err != nil {
			utils.PostCommitEffectFailures.WithLabelValues(e.name).Inc()
			logger.Error("post-commit effect failed",
				zap.String("effect", e.name),
				zap.String("session_id", sessionID),
				zap.Error(err))
		}
	}
}

func (s *SettlementService) postCommitEffects(
	session *models.Session,
	apt *models.Appointment,
	purchase *models.PackagePurchase,
	pkg *models.Package,
	in models.SettlementInput,
	due, advanceApplied float64,
	productSubtotal, packagePrice, manualDiscount, firstSessionDiscount float64,
	newSale bool,
	progress int,
) []effect {
	var effects []effect

	if due > 0 {
		category := models.CategorySession
		if newSale {
			category = models.CategoryPackageSale
		}
		purchaseID := ""
		if purchase != nil {
			purchaseID = purchase.ID
		}
		txn := &models.Transaction{
			ID:            uuid.New().String(),
			Type:          models.TransactionIncome,
			Category:      category,
			Client:        session.Client,
			AppointmentID: apt.ID,
			SessionID:     session.ID,
			PurchaseID:    purchaseID,
			Items:         buildInvoiceLines(session, pkg, packagePrice, manualDiscount+firstSessionDiscount, advanceApplied, newSale),
			Payments:      in.PaymentDetails,
			Total:         due,
			CreatedBy:     in.Actor,
			CreatedAt:     time.Now(),
		}
		effects = append(effects, effect{"ledger_transaction", func(ctx context.Context) error {
			return s.Ledger.Insert(ctx, txn)
		}})
	}

	if in.UseFirstSessionDiscount && firstSessionDiscount > 0 {
		effects = append(effects, effect{"first_session_discount", func(ctx context.Context) error {
			return s.Loyalty.ConsumeFirstSessionDiscount(ctx, session.Client.ID)
		}})
	}

	effects = append(effects, effect{"loyalty_progress", func(ctx context.Context) error {
		return s.Loyalty.IncrementProgress(ctx, session.Client.ID, progress)
	}})

	effects = append(effects, effect{"audit_log", func(ctx context.Context) error {
		return s.Audit.Record(ctx, models.AuditEvent{
			ID:       uuid.New().String(),
			Kind:     "SESSION_SETTLED",
			EntityID: session.ID,
			Actor:    in.Actor,
			Detail: map[string]any{
				"appointment_id":   apt.ID,
				"total":            due,
				"advance_applied":  advanceApplied,
				"product_subtotal": productSubtotal,
				"new_package_sale": newSale,
			},
		})
	}})

	return effects
}
