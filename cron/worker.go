package cron

import (
	"context"
	"encoding/json"
	"fmt"

	"glowdesk/config"
	sessionRepo "glowdesk/database/repository/session"
	"glowdesk/models"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// InitReminderWorker runs the reminder worker in the background. Fired
// reminders are delivered through the chat channel: the message is
// appended to the customer's session history, where the next snapshot or
// message exchange surfaces it.
func InitReminderWorker(store sessionRepo.Store, logger *zap.Logger) {
	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     config.AppConfig.RedisAddr,
			Password: config.AppConfig.RedisPassword,
			DB:       config.AppConfig.RedisReminderQueueDB,
		},
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeAppointmentReminder, handleReminderTask(store, logger))

	go func() {
		logger.Info("reminder worker starting")
		if err := srv.Run(mux); err != nil {
			logger.Error("reminder worker stopped", zap.Error(err))
		}
	}()
}

func handleReminderTask(store sessionRepo.Store, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p models.ReminderPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			logger.Error("invalid reminder payload", zap.Error(err))
			return err
		}

		logger.Info("appointment reminder fired",
			zap.String("customerId", p.CustomerID),
			zap.String("orderId", p.OrderID),
			zap.String("date", p.Date),
			zap.String("time", p.Time))

		unlock := store.Lock(p.CustomerID)
		defer unlock()

		session, err := store.Get(ctx, p.CustomerID)
		if err != nil {
			// The session already expired; the reminder has nowhere to land.
			return nil
		}

		session.AppendHistory(reminderText(session.Language, p), false)
		return store.Save(ctx, session)
	}
}

func reminderText(lang models.Language, p models.ReminderPayload) string {
	if lang == models.LanguageArabic {
		return fmt.Sprintf("تذكير: موعدك في %s يوم %s الساعة %s. رقم الحجز %s.",
			p.LocationName, p.Date, p.Time, p.OrderID)
	}
	return fmt.Sprintf("Reminder: your appointment at %s is on %s at %s. Booking number %s.",
		p.LocationName, p.Date, p.Time, p.OrderID)
}
