package cron

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"babyspa/config"
	appointmentRepo "babyspa/database/repository/appointment"
	"babyspa/models"
	"babyspa/utils"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const (
	TypeAppointmentReminder = "appointment:reminder"
	TypeReminderScan        = "appointment:reminder_scan"
	TypePendingExpiry       = "appointment:expire_pending"
)

// Notifier delivers appointment reminders. Delivery channels (SMS, push)
// live outside this core.
type Notifier interface {
	SendReminder(ctx context.Context, apt *models.Appointment) error
}

// ReminderPayload is the task body for one reminder delivery.
type ReminderPayload struct {
	AppointmentID string `json:"appointment_id"`
	Date          string `json:"date"`
	StartTime     string `json:"start_time"`
}

// NewReminderTask builds a reminder task scheduled for fireAt.
func NewReminderTask(p ReminderPayload, fireAt time.Time) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, nil, err
	}
	return asynq.NewTask(TypeAppointmentReminder, b), []asynq.Option{asynq.ProcessAt(fireAt)}, nil
}

func redisOpts() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisTaskQueueDB,
	}
}

// InitWorker starts the background worker and its periodic schedule:
// a nightly scan that enqueues next-day reminders, and an hourly sweep
// cancelling PENDING_PAYMENT appointments whose advance never arrived.
func InitWorker(repo appointmentRepo.Repository, notifier Notifier) {
	logger := utils.GetLogger()
	opts := redisOpts()

	srv := asynq.NewServer(opts, asynq.Config{
		Concurrency: 10,
		Queues: map[string]int{
			"default": 1,
		},
	})

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeAppointmentReminder, handleReminder(repo, notifier))
	mux.HandleFunc(TypeReminderScan, handleReminderScan(repo))
	mux.HandleFunc(TypePendingExpiry, handlePendingExpiry(repo))

	scheduler := asynq.NewScheduler(opts, &asynq.SchedulerOpts{})
	if _, err := scheduler.Register("0 18 * * *", asynq.NewTask(TypeReminderScan, nil)); err != nil {
		logger.Fatal("failed to register reminder scan", zap.Error(err))
	}
	if _, err := scheduler.Register("@every 1h", asynq.NewTask(TypePendingExpiry, nil)); err != nil {
		logger.Fatal("failed to register pending-payment expiry", zap.Error(err))
	}

	go func() {
		if err := scheduler.Run(); err != nil {
			logger.Error("scheduler stopped", zap.Error(err))
		}
	}()
	go func() {
		logger.Info("starting background worker")
		if err := srv.Run(mux); err != nil {
			logger.Error("background worker stopped", zap.Error(err))
		}
	}()
}

func handleReminder(repo appointmentRepo.Repository, notifier Notifier) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		logger := utils.GetLogger()

		var p ReminderPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			logger.Error("invalid reminder payload", zap.Error(err))
			return err
		}

		apt, err := repo.GetByID(ctx, p.AppointmentID)
		if err == appointmentRepo.ErrAppointmentNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		// Rescheduled or terminal appointments keep their queued task; skip
		// it when it fires.
		if apt.Status != models.AppointmentScheduled || apt.Date != p.Date || apt.StartTime != p.StartTime {
			return nil
		}

		if notifier == nil {
			logger.Info("reminder due, no notifier configured",
				zap.String("appointment_id", apt.ID))
			return nil
		}
		return notifier.SendReminder(ctx, apt)
	}
}

// handleReminderScan enqueues a reminder task for every SCHEDULED
// appointment on the next calendar day.
func handleReminderScan(repo appointmentRepo.Repository) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		logger := utils.GetLogger()
		client := asynq.NewClient(redisOpts())
		defer client.Close()

		tomorrow := time.Now().AddDate(0, 0, 1).Format("2006-01-02")
		apts, err := repo.ListActiveByDate(ctx, tomorrow)
		if err != nil {
			return err
		}

		enqueued := 0
		for i := range apts {
			apt := &apts[i]
			if apt.Status != models.AppointmentScheduled {
				continue
			}
			reminder, opts, err := NewReminderTask(ReminderPayload{
				AppointmentID: apt.ID,
				Date:          apt.Date,
				StartTime:     apt.StartTime,
			}, reminderFireTime(apt))
			if err != nil {
				return err
			}
			if _, err := client.EnqueueContext(ctx, reminder, opts...); err != nil {
				logger.Error("failed to enqueue reminder",
					zap.String("appointment_id", apt.ID), zap.Error(err))
				continue
			}
			enqueued++
		}
		logger.Info("reminder scan complete",
			zap.String("date", tomorrow), zap.Int("enqueued", enqueued))
		return nil
	}
}

// reminderFireTime is two hours before the appointment start, clamped to
// now for starts in the near past of the scan.
func reminderFireTime(apt *models.Appointment) time.Time {
	at, err := time.ParseInLocation("2006-01-02 15:04", fmt.Sprintf("%s %s", apt.Date, apt.StartTime), time.Local)
	if err != nil {
		return time.Now()
	}
	fire := at.Add(-2 * time.Hour)
	if fire.Before(time.Now()) {
		return time.Now()
	}
	return fire
}

// handlePendingExpiry cancels PENDING_PAYMENT appointments older than the
// configured TTL, freeing their slots.
func handlePendingExpiry(repo appointmentRepo.Repository) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		logger := utils.GetLogger()

		ttl := time.Duration(config.AppConfig.PendingPaymentTTLHours) * time.Hour
		cutoff := time.Now().Add(-ttl)
		stale, err := repo.ListPendingPaymentBefore(ctx, cutoff)
		if err != nil {
			return err
		}

		for i := range stale {
			apt := &stale[i]
			err := repo.WithTransaction(ctx, func(ctx context.Context) error {
				current, err := repo.GetByID(ctx, apt.ID)
				if err != nil {
					return err
				}
				if current.Status != models.AppointmentPendingPayment {
					return nil
				}
				current.Status = models.AppointmentCancelled
				current.CancelReason = "advance payment not received"
				if err := repo.Update(ctx, current); err != nil {
					return err
				}
				if err := repo.TouchDay(ctx, current.Date); err != nil {
					return err
				}
				return repo.AppendHistory(ctx, &models.AppointmentHistory{
					ID:            uuid.New().String(),
					AppointmentID: current.ID,
					Action:        "CANCEL",
					OldStatus:     models.AppointmentPendingPayment,
					NewStatus:     models.AppointmentCancelled,
					Actor:         "system",
					Reason:        current.CancelReason,
				})
			})
			if err != nil {
				logger.Error("failed to expire pending-payment appointment",
					zap.String("appointment_id", apt.ID), zap.Error(err))
				continue
			}
			logger.Info("expired pending-payment appointment",
				zap.String("appointment_id", apt.ID), zap.String("date", apt.Date))
		}
		return nil
	}
}
