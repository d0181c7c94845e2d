package cron

import (
	"encoding/json"
	"fmt"
	"time"

	"glowdesk/config"
	"glowdesk/models"

	"github.com/hibiken/asynq"
)

const TypeAppointmentReminder = "reminder:appointment"

// Scheduler enqueues delayed appointment reminders on the Redis-backed
// task queue.
type Scheduler struct {
	client *asynq.Client
}

// NewScheduler creates a scheduler bound to the reminder queue.
func NewScheduler() *Scheduler {
	return &Scheduler{
		client: asynq.NewClient(asynq.RedisClientOpt{
			Addr:     config.AppConfig.RedisAddr,
			Password: config.AppConfig.RedisPassword,
			DB:       config.AppConfig.RedisReminderQueueDB,
		}),
	}
}

// EnqueueAppointmentReminder schedules one reminder to fire at the given
// time. Reminders whose fire time already passed are dropped.
func (s *Scheduler) EnqueueAppointmentReminder(p models.ReminderPayload, fireAt time.Time) error {
	if !fireAt.After(time.Now()) {
		return nil
	}
	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal reminder payload: %w", err)
	}
	task := asynq.NewTask(TypeAppointmentReminder, payload)
	if _, err := s.client.Enqueue(task, asynq.ProcessAt(fireAt)); err != nil {
		return fmt.Errorf("enqueue reminder: %w", err)
	}
	return nil
}

// Close releases the queue connection.
func (s *Scheduler) Close() error {
	return s.client.Close()
}
