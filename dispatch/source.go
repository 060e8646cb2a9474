package dispatch

import (
	"context"

	"github.com/plante-app/plante-notify/backend"
)

// BackendSource feeds the dispatcher from the backend's reminder store.
type BackendSource struct {
	Client *backend.Client
}

func (s *BackendSource) Active(ctx context.Context) ([]ScheduledReminder, error) {
	stored, err := s.Client.ActiveReminders(ctx)
	if err != nil {
		return nil, err
	}
	reminders := make([]ScheduledReminder, 0, len(stored))
	for _, r := range stored {
		reminders = append(reminders, ScheduledReminder{
			ID:            r.ID,
			UserID:        r.UserID,
			PlantID:       r.PlantID,
			Type:          r.Type,
			Frequency:     r.Frequency,
			ScheduledTime: r.ScheduledTime,
			DayOfWeek:     r.DayOfWeek,
			TimeOfDay:     r.TimeOfDay,
			PlantName:     r.PlantName,
		})
	}
	return reminders, nil
}

func (s *BackendSource) Deactivate(ctx context.Context, reminderID string) error {
	return s.Client.DeactivateReminder(ctx, reminderID)
}

// FCMToken satisfies TokenLookup through the backend's user records.
func (s *BackendSource) FCMToken(ctx context.Context, userID string) (string, error) {
	return s.Client.UserFCMToken(ctx, userID)
}
