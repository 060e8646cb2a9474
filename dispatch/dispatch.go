// Package dispatch is the fire-time side of the system: a minute ticker
// that scans active reminders, matches each against the current minute in
// the configured location, and pushes the due ones through FCM. Reminder
// storage stays with the backend, reached through the Source interface.
package dispatch

import (
	"context"
	"fmt"
	"time"

	"firebase.google.com/go/v4/messaging"
	"github.com/go-redis/redis/v7"
	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"

	"github.com/plante-app/plante-notify/fields"
)

// ScheduledReminder is an active reminder as the backend stores it.
type ScheduledReminder struct {
	ID            string
	UserID        string
	PlantID       string
	Type          fields.ReminderType
	Frequency     fields.Frequency
	ScheduledTime time.Time
	DayOfWeek     string
	TimeOfDay     string
	PlantName     string
}

// Source lists active reminders and retires spent one-shot ones.
type Source interface {
	Active(ctx context.Context) ([]ScheduledReminder, error)
	Deactivate(ctx context.Context, reminderID string) error
}

// TokenLookup resolves a user's current registration token.
type TokenLookup interface {
	FCMToken(ctx context.Context, userID string) (string, error)
}

// Sender delivers one FCM message. Satisfied by *messaging.Client.
type Sender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

type Service struct {
	Source   Source
	Tokens   TokenLookup
	Sender   Sender
	Redis    *redis.Client
	Logger   *logrus.Logger
	Clock    fields.Clock
	Location *time.Location

	lastSent map[string]string
	stop     chan struct{}
}

func New(source Source, tokens TokenLookup, sender Sender, rdb *redis.Client, logger *logrus.Logger, loc *time.Location) *Service {
	if loc == nil {
		loc, _ = time.LoadLocation("Asia/Bangkok")
	}
	return &Service{
		Source:   source,
		Tokens:   tokens,
		Sender:   sender,
		Redis:    rdb,
		Logger:   logger,
		Clock:    fields.SystemClock,
		Location: loc,
		lastSent: make(map[string]string),
		stop:     make(chan struct{}),
	}
}

// Start runs the minute loop until Stop is called.
func (s *Service) Start() {
	ticker := time.NewTicker(1 * time.Minute)
	go func() {
		for {
			select {
			case <-ticker.C:
				if err := s.CheckAndSend(context.Background()); err != nil {
					s.Logger.WithField("code", err.Error()).Error("error checking reminders")
				}
			case <-s.stop:
				ticker.Stop()
				return
			}
		}
	}()
}

func (s *Service) Stop() {
	close(s.stop)
}

// CheckAndSend scans active reminders once and delivers the due ones.
func (s *Service) CheckAndSend(ctx context.Context) error {
	now := s.Clock.Now().In(s.Location)
	reminders, err := s.Source.Active(ctx)
	if err != nil {
		return fmt.Errorf("error fetching reminders: %v", err)
	}

	for _, reminder := range reminders {
		if !s.due(reminder, now) {
			continue
		}
		if !s.claim(reminder.ID, now) {
			// Already sent for this minute.
			continue
		}
		token, err := s.Tokens.FCMToken(ctx, reminder.UserID)
		if err != nil || token == "" {
			s.Logger.WithFields(logrus.Fields{
				"reminder_id": reminder.ID,
				"user_id":     reminder.UserID,
			}).Error("no registration token for user, skipping reminder")
			continue
		}
		if err := s.send(ctx, reminder, token); err != nil {
			s.Logger.WithFields(logrus.Fields{
				"reminder_id": reminder.ID,
				"code":        err.Error(),
			}).Error("error sending reminder notification")
			continue
		}
		if reminder.Frequency == fields.Once {
			if err := s.Source.Deactivate(ctx, reminder.ID); err != nil {
				s.Logger.WithFields(logrus.Fields{
					"reminder_id": reminder.ID,
					"code":        err.Error(),
				}).Error("error deactivating one-time reminder")
			}
		}
	}
	return nil
}

// due matches a reminder against the current minute. Seconds never
// participate in the comparison.
func (s *Service) due(r ScheduledReminder, now time.Time) bool {
	switch r.Frequency {
	case fields.Once:
		at := r.ScheduledTime.In(s.Location)
		return at.Year() == now.Year() && at.YearDay() == now.YearDay() &&
			at.Hour() == now.Hour() && at.Minute() == now.Minute()
	case fields.Daily:
		return now.Format("15:04") == r.TimeOfDay
	case fields.Weekly:
		return now.Format("Monday") == r.DayOfWeek && now.Format("15:04") == r.TimeOfDay
	}
	return false
}

// claim reserves the (reminder, minute) pair, through Redis when one is
// configured and in process memory otherwise.
func (s *Service) claim(reminderID string, now time.Time) bool {
	minute := now.Format("2006-01-02T15:04")
	if s.Redis != nil {
		ok, err := s.Redis.SetNX("notify:last:"+reminderID, minute, 2*time.Minute).Result()
		if err != nil {
			s.Logger.WithField("code", err.Error()).Warn("redis dedup unavailable, sending anyway")
			return true
		}
		return ok
	}
	if s.lastSent[reminderID] == minute {
		return false
	}
	s.lastSent[reminderID] = minute
	return true
}

func (s *Service) send(ctx context.Context, r ScheduledReminder, token string) error {
	title, body := fields.Message(r.Type, r.Frequency, r.PlantName)
	event := fields.NotificationEvent{
		ReminderID: r.ID,
		PlantID:    r.PlantID,
		Type:       r.Type,
		Frequency:  r.Frequency,
		PlantName:  r.PlantName,
		Title:      title,
		Body:       body,
	}
	raw, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("error encoding reminder data: %v", err)
	}

	badge := 1
	message := &messaging.Message{
		Token:        token,
		Notification: &messaging.Notification{Title: title, Body: body},
		Data: map[string]string{
			"reminder":   string(raw),
			"reminderId": r.ID,
			"plantId":    r.PlantID,
			"type":       string(r.Type),
			"frequency":  string(r.Frequency),
			"plantName":  r.PlantName,
			"title":      title,
			"body":       body,
		},
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				Title:    title,
				Body:     body,
				Priority: messaging.PriorityHigh,
			},
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Sound: "default",
					Badge: &badge,
				},
			},
		},
	}

	id, err := s.Sender.Send(ctx, message)
	if err != nil {
		return fmt.Errorf("error sending FCM message: %v", err)
	}
	s.Logger.WithFields(logrus.Fields{
		"reminder_id": r.ID,
		"message_id":  id,
	}).Info("reminder notification sent")
	return nil
}
