package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"firebase.google.com/go/v4/messaging"
	"github.com/sirupsen/logrus"

	"github.com/plante-app/plante-notify/fields"
)

type fakeSource struct {
	reminders   []ScheduledReminder
	deactivated []string
	err         error
}

func (f *fakeSource) Active(ctx context.Context) ([]ScheduledReminder, error) {
	return f.reminders, f.err
}

func (f *fakeSource) Deactivate(ctx context.Context, reminderID string) error {
	f.deactivated = append(f.deactivated, reminderID)
	return nil
}

type fakeTokens struct {
	tokens map[string]string
}

func (f *fakeTokens) FCMToken(ctx context.Context, userID string) (string, error) {
	token, ok := f.tokens[userID]
	if !ok {
		return "", errors.New("no token")
	}
	return token, nil
}

type fakeSender struct {
	sent []*messaging.Message
	err  error
}

func (f *fakeSender) Send(ctx context.Context, message *messaging.Message) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, message)
	return "msg-1", nil
}

var bangkok = func() *time.Location {
	loc, _ := time.LoadLocation("Asia/Bangkok")
	return loc
}()

func newTestDispatcher(source *fakeSource, sender *fakeSender, now time.Time) *Service {
	s := New(source, &fakeTokens{tokens: map[string]string{"u1": "fcm-1"}}, sender, nil, logrus.New(), bangkok)
	s.Clock = &fields.MockClock{Timestamp: now}
	return s
}

func TestService_Due(t *testing.T) {
	// Tuesday 2025-06-10 08:30 in Bangkok.
	now := time.Date(2025, 6, 10, 8, 30, 45, 0, bangkok)
	s := newTestDispatcher(&fakeSource{}, &fakeSender{}, now)

	tests := []struct {
		name string
		r    ScheduledReminder
		want bool
	}{
		{"once same minute", ScheduledReminder{Frequency: fields.Once, ScheduledTime: time.Date(2025, 6, 10, 8, 30, 0, 0, bangkok)}, true},
		{"once same minute different seconds", ScheduledReminder{Frequency: fields.Once, ScheduledTime: time.Date(2025, 6, 10, 8, 30, 59, 0, bangkok)}, true},
		{"once other minute", ScheduledReminder{Frequency: fields.Once, ScheduledTime: time.Date(2025, 6, 10, 8, 31, 0, 0, bangkok)}, false},
		{"once same clock time in UTC", ScheduledReminder{Frequency: fields.Once, ScheduledTime: time.Date(2025, 6, 10, 1, 30, 0, 0, time.UTC)}, true},
		{"daily matching time", ScheduledReminder{Frequency: fields.Daily, TimeOfDay: "08:30"}, true},
		{"daily other time", ScheduledReminder{Frequency: fields.Daily, TimeOfDay: "08:31"}, false},
		{"weekly matching day and time", ScheduledReminder{Frequency: fields.Weekly, DayOfWeek: "Tuesday", TimeOfDay: "08:30"}, true},
		{"weekly wrong day", ScheduledReminder{Frequency: fields.Weekly, DayOfWeek: "Monday", TimeOfDay: "08:30"}, false},
		{"weekly wrong time", ScheduledReminder{Frequency: fields.Weekly, DayOfWeek: "Tuesday", TimeOfDay: "09:30"}, false},
		{"unknown frequency", ScheduledReminder{Frequency: "hourly"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.due(tt.r, now.In(bangkok)); got != tt.want {
				t.Errorf("due() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestService_CheckAndSend(t *testing.T) {
	now := time.Date(2025, 6, 10, 8, 30, 0, 0, bangkok)
	source := &fakeSource{reminders: []ScheduledReminder{
		{ID: "r1", UserID: "u1", PlantID: "p1", Type: fields.Watering, Frequency: fields.Daily, TimeOfDay: "08:30", PlantName: "ต้นบอน"},
		{ID: "r2", UserID: "u1", PlantID: "p2", Type: fields.Fertilizing, Frequency: fields.Daily, TimeOfDay: "09:00", PlantName: "กุหลาบ"},
	}}
	sender := &fakeSender{}
	s := newTestDispatcher(source, sender, now)

	if err := s.CheckAndSend(context.Background()); err != nil {
		t.Fatalf("CheckAndSend() error = %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(sender.sent))
	}

	msg := sender.sent[0]
	if msg.Token != "fcm-1" {
		t.Errorf("token = %q, want fcm-1", msg.Token)
	}
	if msg.Notification.Title != "🪴 ถึงเวลารดน้ำ ต้นบอน แล้ว!" {
		t.Errorf("title = %q", msg.Notification.Title)
	}
	if msg.Notification.Body != "ถึงเวลารดน้ำประจำวันแล้ว" {
		t.Errorf("body = %q", msg.Notification.Body)
	}
	if msg.Data["reminderId"] != "r1" || msg.Data["plantId"] != "p1" {
		t.Errorf("data = %v, want reminder r1 for plant p1", msg.Data)
	}
	if msg.Data["reminder"] == "" {
		t.Error("data is missing the nested reminder document")
	}
	if msg.Android == nil || msg.Android.Priority != "high" {
		t.Error("android config does not request high priority")
	}
	if len(source.deactivated) != 0 {
		t.Errorf("deactivated %v, want none for recurring reminders", source.deactivated)
	}
}

func TestService_CheckAndSendDeduplicatesMinute(t *testing.T) {
	now := time.Date(2025, 6, 10, 8, 30, 0, 0, bangkok)
	source := &fakeSource{reminders: []ScheduledReminder{
		{ID: "r1", UserID: "u1", PlantID: "p1", Type: fields.Watering, Frequency: fields.Daily, TimeOfDay: "08:30", PlantName: "ต้นบอน"},
	}}
	sender := &fakeSender{}
	s := newTestDispatcher(source, sender, now)

	// Two scans inside the same minute send once.
	s.CheckAndSend(context.Background())
	s.Clock = &fields.MockClock{Timestamp: now.Add(30 * time.Second)}
	s.CheckAndSend(context.Background())
	if len(sender.sent) != 1 {
		t.Fatalf("sent %d messages within one minute, want 1", len(sender.sent))
	}

	// The next day's matching minute sends again.
	s.Clock = &fields.MockClock{Timestamp: now.Add(24 * time.Hour)}
	s.CheckAndSend(context.Background())
	if len(sender.sent) != 2 {
		t.Fatalf("sent %d messages across two days, want 2", len(sender.sent))
	}
}

func TestService_OnceReminderDeactivatedAfterSend(t *testing.T) {
	now := time.Date(2025, 6, 10, 18, 30, 0, 0, bangkok)
	source := &fakeSource{reminders: []ScheduledReminder{
		{ID: "r1", UserID: "u1", PlantID: "p1", Type: fields.Fertilizing, Frequency: fields.Once, ScheduledTime: now, PlantName: "กุหลาบ"},
	}}
	sender := &fakeSender{}
	s := newTestDispatcher(source, sender, now)

	if err := s.CheckAndSend(context.Background()); err != nil {
		t.Fatalf("CheckAndSend() error = %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(sender.sent))
	}
	if len(source.deactivated) != 1 || source.deactivated[0] != "r1" {
		t.Errorf("deactivated = %v, want [r1]", source.deactivated)
	}
}

func TestService_SendFailureKeepsOnceReminderActive(t *testing.T) {
	now := time.Date(2025, 6, 10, 18, 30, 0, 0, bangkok)
	source := &fakeSource{reminders: []ScheduledReminder{
		{ID: "r1", UserID: "u1", PlantID: "p1", Type: fields.Watering, Frequency: fields.Once, ScheduledTime: now, PlantName: "ต้นบอน"},
	}}
	s := newTestDispatcher(source, &fakeSender{err: errors.New("fcm unavailable")}, now)

	if err := s.CheckAndSend(context.Background()); err != nil {
		t.Fatalf("CheckAndSend() error = %v", err)
	}
	if len(source.deactivated) != 0 {
		t.Errorf("deactivated = %v after a failed send, want none", source.deactivated)
	}
}

func TestService_MissingTokenSkipsReminder(t *testing.T) {
	now := time.Date(2025, 6, 10, 8, 30, 0, 0, bangkok)
	source := &fakeSource{reminders: []ScheduledReminder{
		{ID: "r1", UserID: "unknown", PlantID: "p1", Type: fields.Watering, Frequency: fields.Daily, TimeOfDay: "08:30", PlantName: "ต้นบอน"},
	}}
	sender := &fakeSender{}
	s := newTestDispatcher(source, sender, now)

	if err := s.CheckAndSend(context.Background()); err != nil {
		t.Fatalf("CheckAndSend() error = %v", err)
	}
	if len(sender.sent) != 0 {
		t.Errorf("sent %d messages for a user without a token, want 0", len(sender.sent))
	}
}

func TestService_SourceErrorPropagates(t *testing.T) {
	now := time.Date(2025, 6, 10, 8, 30, 0, 0, bangkok)
	s := newTestDispatcher(&fakeSource{err: errors.New("backend down")}, &fakeSender{}, now)
	if err := s.CheckAndSend(context.Background()); err == nil {
		t.Error("CheckAndSend() error = nil, want the source error")
	}
}
