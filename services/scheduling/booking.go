package scheduling

import (
	"context"
	"fmt"

	"babyspa/database"
	appointmentRepo "babyspa/database/repository/appointment"
	catalogRepo "babyspa/database/repository/catalog"
	clientRepo "babyspa/database/repository/client"
	purchaseRepo "babyspa/database/repository/purchase"
	sessionRepo "babyspa/database/repository/session"
	"babyspa/models"
	"babyspa/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateInput describes a booking request. Capacity is caller-supplied
// because the ceiling differs by channel (staff desk vs self-service
// portal).
type CreateInput struct {
	Client         models.ClientRef
	Date           string
	StartTime      string
	EndTime        string // empty: default session duration
	Notes          string
	Capacity       int
	RequireAdvance bool // channel demands advance payment
	Actor          string
}

// UpdateInput mutates an appointment. Empty fields are left unchanged.
type UpdateInput struct {
	Date         string
	StartTime    string
	EndTime      string
	Status       models.AppointmentStatus
	CancelReason string
	Actor        string
}

// BookingManager drives appointments through their lifecycle.
type BookingManager interface {
	CreateAppointment(ctx context.Context, in CreateInput) (*models.Appointment, error)
	UpdateAppointment(ctx context.Context, id string, in UpdateInput, capacity int) (*models.Appointment, error)
	MarkNoShow(ctx context.Context, id, actor string) (*models.Appointment, error)
	StartSession(ctx context.Context, appointmentID, therapistID, packagePurchaseID, packageID, actor string) (*models.Session, error)
	RecordAdvance(ctx context.Context, appointmentID string, amount float64, method, actor string) (*models.Appointment, error)
	GetAppointment(ctx context.Context, id string) (*models.Appointment, error)
	History(ctx context.Context, appointmentID string) ([]models.AppointmentHistory, error)
}

// AdvanceCollector records an advance payment in the financial ledger.
type AdvanceCollector interface {
	CollectAdvance(ctx context.Context, apt *models.Appointment, amount float64, method, actor string) (*models.Transaction, error)
}

// DefaultBookingManager is the production booking transaction manager.
type DefaultBookingManager struct {
	Appointments appointmentRepo.Repository
	Sessions     sessionRepo.Repository
	Purchases    purchaseRepo.Repository
	Clients      clientRepo.Repository
	Catalog      catalogRepo.Repository
	Availability *AvailabilityService
	Payments     AdvanceCollector
	Cfg          models.ScheduleConfig
}

func (m *DefaultBookingManager) GetAppointment(ctx context.Context, id string) (*models.Appointment, error) {
	apt, err := m.Appointments.GetByID(ctx, id)
	if err == appointmentRepo.ErrAppointmentNotFound {
		return nil, NewError(CodeAppointmentNotFound, "appointment %s not found", id)
	}
	return apt, err
}

func (m *DefaultBookingManager) History(ctx context.Context, appointmentID string) ([]models.AppointmentHistory, error) {
	return m.Appointments.HistoryFor(ctx, appointmentID)
}

func (m *DefaultBookingManager) CreateAppointment(ctx context.Context, in CreateInput) (*models.Appointment, error) {
	logger := utils.GetLogger()

	parent, err := m.resolveClient(ctx, in.Client)
	if err != nil {
		return nil, err
	}

	startMin, endMin, err := windowBounds(m.Cfg, in.Date, in.StartTime, in.EndTime)
	if err != nil {
		return nil, err
	}

	status := models.AppointmentScheduled
	if in.RequireAdvance || parent.RequiresPrepayment {
		status = models.AppointmentPendingPayment
	}

	apt := &models.Appointment{
		ID:        uuid.New().String(),
		Client:    in.Client,
		Date:      in.Date,
		StartTime: FormatClock(startMin),
		EndTime:   FormatClock(endMin),
		Status:    status,
		Notes:     in.Notes,
	}

	// The capacity check runs again inside the transaction; the day guard
	// write forces concurrent same-day bookings to serialize, so the check
	// cannot be stale at commit.
	err = m.Appointments.WithTransaction(ctx, func(ctx context.Context) error {
		appts, err := m.Appointments.ListActiveByDate(ctx, in.Date)
		if err != nil {
			return err
		}
		result := checkSlots(appts, startMin, endMin, m.Cfg.SubSlotMinutes, in.Capacity, "")
		if !result.Available {
			utils.SlotFullRejections.Inc()
			return NewError(CodeTimeSlotFull, "sub-slot %s already has %d occupants",
				result.ConflictingSlot, result.OccupiedCount)
		}
		if err := m.Appointments.Create(ctx, apt); err != nil {
			return err
		}
		if err := m.Appointments.TouchDay(ctx, in.Date); err != nil {
			return err
		}
		return m.Appointments.AppendHistory(ctx, &models.AppointmentHistory{
			ID:            uuid.New().String(),
			AppointmentID: apt.ID,
			Action:        "CREATE",
			NewStatus:     apt.Status,
			NewDate:       apt.Date,
			NewStart:      apt.StartTime,
			Actor:         in.Actor,
		})
	})
	if err != nil {
		if database.IsTransientConflict(err) {
			utils.SlotFullRejections.Inc()
			return nil, NewError(CodeTimeSlotFull, "slot taken by a concurrent booking, please retry")
		}
		return nil, err
	}

	m.Availability.InvalidateDay(ctx, in.Date)
	utils.AppointmentsCreated.Inc()
	logger.Info("appointment created",
		zap.String("id", apt.ID),
		zap.String("date", apt.Date),
		zap.String("start", apt.StartTime),
		zap.String("status", string(apt.Status)))
	return apt, nil
}

func (m *DefaultBookingManager) UpdateAppointment(ctx context.Context, id string, in UpdateInput, capacity int) (*models.Appointment, error) {
	apt, err := m.GetAppointment(ctx, id)
	if err != nil {
		return nil, err
	}
	if apt.Status.Terminal() {
		return nil, NewError(CodeInvalidStatusChange, "appointment %s is already %s", id, apt.Status)
	}

	newDate := apt.Date
	newStart := apt.StartTime
	newEnd := apt.EndTime
	if in.Date != "" {
		newDate = in.Date
	}
	if in.StartTime != "" {
		newStart = in.StartTime
		newEnd = "" // recompute from default unless an end is supplied
	}
	if in.EndTime != "" {
		newEnd = in.EndTime
	}
	reschedule := newDate != apt.Date || newStart != apt.StartTime || (in.EndTime != "" && in.EndTime != apt.EndTime)

	var startMin, endMin int
	if reschedule {
		startMin, endMin, err = windowBounds(m.Cfg, newDate, newStart, newEnd)
		if err != nil {
			return nil, err
		}
	}

	cancel := false
	if in.Status != "" && in.Status != apt.Status {
		switch in.Status {
		case models.AppointmentCancelled:
			if in.CancelReason == "" {
				return nil, NewError(CodeCancelReasonRequired, "cancellation requires a reason")
			}
			cancel = true
		default:
			// Completion, no-show and start have dedicated operations with
			// their own side effects.
			return nil, NewError(CodeInvalidStatusChange, "cannot set status %s directly", in.Status)
		}
	}

	oldDate, oldStart, oldStatus := apt.Date, apt.StartTime, apt.Status

	err = m.Appointments.WithTransaction(ctx, func(ctx context.Context) error {
		current, err := m.Appointments.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if current.Status != oldStatus {
			return NewError(CodeInvalidStatusChange, "appointment %s changed concurrently", id)
		}

		if reschedule {
			appts, err := m.Appointments.ListActiveByDate(ctx, newDate)
			if err != nil {
				return err
			}
			// Exclude the appointment's own prior occupancy.
			result := checkSlots(appts, startMin, endMin, m.Cfg.SubSlotMinutes, capacity, id)
			if !result.Available {
				utils.SlotFullRejections.Inc()
				return NewError(CodeTimeSlotFull, "sub-slot %s already has %d occupants",
					result.ConflictingSlot, result.OccupiedCount)
			}
			apt.Date = newDate
			apt.StartTime = FormatClock(startMin)
			apt.EndTime = FormatClock(endMin)
		}
		if cancel {
			apt.Status = models.AppointmentCancelled
			apt.CancelReason = in.CancelReason
		}

		if err := m.Appointments.Update(ctx, apt); err != nil {
			return err
		}
		if err := m.Appointments.TouchDay(ctx, oldDate); err != nil {
			return err
		}
		if reschedule && newDate != oldDate {
			if err := m.Appointments.TouchDay(ctx, newDate); err != nil {
				return err
			}
		}

		action := "RESCHEDULE"
		if cancel {
			action = "CANCEL"
		}
		return m.Appointments.AppendHistory(ctx, &models.AppointmentHistory{
			ID:            uuid.New().String(),
			AppointmentID: apt.ID,
			Action:        action,
			OldStatus:     oldStatus,
			NewStatus:     apt.Status,
			OldDate:       oldDate,
			NewDate:       apt.Date,
			OldStart:      oldStart,
			NewStart:      apt.StartTime,
			Actor:         in.Actor,
			Reason:        in.CancelReason,
		})
	})
	if err != nil {
		if database.IsTransientConflict(err) {
			utils.SlotFullRejections.Inc()
			return nil, NewError(CodeTimeSlotFull, "slot taken by a concurrent booking, please retry")
		}
		return nil, err
	}

	m.Availability.InvalidateDay(ctx, oldDate)
	if apt.Date != oldDate {
		m.Availability.InvalidateDay(ctx, apt.Date)
	}
	return apt, nil
}

func (m *DefaultBookingManager) MarkNoShow(ctx context.Context, id, actor string) (*models.Appointment, error) {
	apt, err := m.GetAppointment(ctx, id)
	if err != nil {
		return nil, err
	}
	if apt.Status != models.AppointmentScheduled {
		return nil, NewError(CodeNotScheduled, "appointment %s is %s, not SCHEDULED", id, apt.Status)
	}

	err = m.Appointments.WithTransaction(ctx, func(ctx context.Context) error {
		current, err := m.Appointments.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if current.Status != models.AppointmentScheduled {
			return NewError(CodeNotScheduled, "appointment %s is %s, not SCHEDULED", id, current.Status)
		}

		apt.Status = models.AppointmentNoShow
		if err := m.Appointments.Update(ctx, apt); err != nil {
			return err
		}

		parent, err := m.incrementNoShow(ctx, apt.Client)
		if err != nil {
			return err
		}

		// The no-show consumes no package session and writes no ledger entry;
		// the history row with the running counter is the only trail.
		return m.Appointments.AppendHistory(ctx, &models.AppointmentHistory{
			ID:            uuid.New().String(),
			AppointmentID: apt.ID,
			Action:        "NO_SHOW",
			OldStatus:     models.AppointmentScheduled,
			NewStatus:     models.AppointmentNoShow,
			Actor:         actor,
			Reason:        fmt.Sprintf("consecutive no-show #%d", parent.NoShowCount),
		})
	})
	if err != nil {
		return nil, err
	}

	m.Availability.InvalidateDay(ctx, apt.Date)
	utils.NoShowsMarked.Inc()
	return apt, nil
}

func (m *DefaultBookingManager) StartSession(ctx context.Context, appointmentID, therapistID, packagePurchaseID, packageID, actor string) (*models.Session, error) {
	apt, err := m.GetAppointment(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	switch apt.Status {
	case models.AppointmentPendingPayment:
		return nil, NewError(CodePendingPayment, "appointment %s awaits advance payment", appointmentID)
	case models.AppointmentScheduled:
	default:
		return nil, NewError(CodeNotScheduled, "appointment %s is %s, not SCHEDULED", appointmentID, apt.Status)
	}
	if therapistID == "" {
		return nil, NewError(CodeInvalidTherapist, "therapist assignment is required")
	}

	// Starting keeps the original slot, so only the closed-day rule is
	// re-checked here; the slot check re-runs only when date/time changes.
	day, err := ParseDate(apt.Date)
	if err != nil {
		return nil, NewError(CodeInvalidTime, "invalid date %q", apt.Date)
	}
	if _, open := m.Cfg.HoursFor(day.Weekday()); !open {
		return nil, NewError(CodeDateClosed, "no business hours on %s", apt.Date)
	}

	if packagePurchaseID != "" {
		purchase, err := m.Purchases.GetByID(ctx, packagePurchaseID)
		if err == purchaseRepo.ErrPurchaseNotFound {
			return nil, NewError(CodePackageNotFound, "package purchase %s not found", packagePurchaseID)
		}
		if err != nil {
			return nil, err
		}
		if purchase.Client != apt.Client {
			code := CodePackageNotForBaby
			if apt.Client.Kind == models.ClientParent {
				code = CodePackageNotForParent
			}
			return nil, NewError(code, "purchase %s belongs to another client", packagePurchaseID)
		}
		if purchase.RemainingSessions <= 0 {
			return nil, NewError(CodeNoSessionsRemaining, "purchase %s has no remaining sessions", packagePurchaseID)
		}
	}
	if packageID != "" {
		if _, err := m.Catalog.GetPackage(ctx, packageID); err != nil {
			return nil, NewError(CodePackageNotFound, "package %s not found", packageID)
		}
	}

	session := &models.Session{
		ID:                uuid.New().String(),
		AppointmentID:     apt.ID,
		Client:            apt.Client,
		TherapistID:       therapistID,
		Status:            models.SessionPending,
		PackagePurchaseID: packagePurchaseID,
	}

	err = m.Sessions.WithTransaction(ctx, func(ctx context.Context) error {
		if err := m.Sessions.Create(ctx, session); err != nil {
			if err == sessionRepo.ErrSessionExists {
				return NewError(CodeSessionExists, "appointment %s already has a session", apt.ID)
			}
			return err
		}
		apt.Status = models.AppointmentInProgress
		apt.TherapistID = therapistID
		apt.PackagePurchaseID = packagePurchaseID
		if err := m.Appointments.Update(ctx, apt); err != nil {
			return err
		}
		return m.Appointments.AppendHistory(ctx, &models.AppointmentHistory{
			ID:            uuid.New().String(),
			AppointmentID: apt.ID,
			Action:        "START",
			OldStatus:     models.AppointmentScheduled,
			NewStatus:     models.AppointmentInProgress,
			Actor:         actor,
		})
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (m *DefaultBookingManager) RecordAdvance(ctx context.Context, appointmentID string, amount float64, method, actor string) (*models.Appointment, error) {
	if amount <= 0 {
		return nil, NewError(CodeInvalidAmount, "advance amount must be positive")
	}
	apt, err := m.GetAppointment(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if apt.Status.Terminal() {
		return nil, NewError(CodeInvalidStatusChange, "appointment %s is already %s", appointmentID, apt.Status)
	}

	if _, err := m.Payments.CollectAdvance(ctx, apt, amount, method, actor); err != nil {
		return nil, err
	}

	if apt.Status == models.AppointmentPendingPayment {
		err = m.Appointments.WithTransaction(ctx, func(ctx context.Context) error {
			apt.Status = models.AppointmentScheduled
			if err := m.Appointments.Update(ctx, apt); err != nil {
				return err
			}
			return m.Appointments.AppendHistory(ctx, &models.AppointmentHistory{
				ID:            uuid.New().String(),
				AppointmentID: apt.ID,
				Action:        "ADVANCE_PAID",
				OldStatus:     models.AppointmentPendingPayment,
				NewStatus:     models.AppointmentScheduled,
				Actor:         actor,
			})
		})
		if err != nil {
			return nil, err
		}
	}
	return apt, nil
}

// resolveClient verifies the referenced client exists and returns the
// responsible parent.
func (m *DefaultBookingManager) resolveClient(ctx context.Context, ref models.ClientRef) (*models.Parent, error) {
	switch ref.Kind {
	case models.ClientBaby:
		baby, err := m.Clients.GetBaby(ctx, ref.ID)
		if err == clientRepo.ErrBabyNotFound {
			return nil, NewError(CodeBabyNotFound, "baby %s not found", ref.ID)
		}
		if err != nil {
			return nil, err
		}
		parent, err := m.Clients.GetParent(ctx, baby.ParentID)
		if err == clientRepo.ErrParentNotFound {
			return nil, NewError(CodeParentNotFound, "parent %s not found", baby.ParentID)
		}
		return parent, err
	case models.ClientParent:
		parent, err := m.Clients.GetParent(ctx, ref.ID)
		if err == clientRepo.ErrParentNotFound {
			return nil, NewError(CodeParentNotFound, "parent %s not found", ref.ID)
		}
		return parent, err
	default:
		return nil, NewError(CodeInvalidTime, "client reference is required")
	}
}

func (m *DefaultBookingManager) incrementNoShow(ctx context.Context, ref models.ClientRef) (*models.Parent, error) {
	parent, err := m.Clients.ResolveParent(ctx, ref)
	if err != nil {
		return nil, err
	}
	updated, err := m.Clients.IncrementNoShow(ctx, parent.ID)
	if err != nil {
		return nil, err
	}
	if updated.RequiresPrepayment && !parent.RequiresPrepayment {
		utils.GetLogger().Info("parent now requires prepayment",
			zap.String("parent_id", updated.ID),
			zap.Int("no_show_count", updated.NoShowCount))
	}
	return updated, nil
}

var _ BookingManager = (*DefaultBookingManager)(nil)
