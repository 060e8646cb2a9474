package backend

import (
	"context"
	"net/http"
	"time"

	"github.com/plante-app/plante-notify/apperr"
	"github.com/plante-app/plante-notify/fields"
)

// StoredReminder is a reminder as the backend serves it to the dispatcher.
type StoredReminder struct {
	ID            string              `json:"id"`
	UserID        string              `json:"userId"`
	PlantID       string              `json:"plantId"`
	Type          fields.ReminderType `json:"type"`
	Frequency     fields.Frequency    `json:"frequency"`
	ScheduledTime time.Time           `json:"scheduledTime,omitempty"`
	DayOfWeek     string              `json:"dayOfWeek,omitempty"`
	TimeOfDay     string              `json:"timeOfDay,omitempty"`
	PlantName     string              `json:"plantName"`
	IsActive      bool                `json:"isActive"`
}

// ActiveReminders lists the reminders currently eligible to fire.
func (c *Client) ActiveReminders(ctx context.Context) ([]StoredReminder, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/reminders/active", nil)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.ErrInternal, "")
	}
	res, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	var out struct {
		Reminders []StoredReminder `json:"reminders"`
	}
	if err := c.decodeBody(res, &out); err != nil {
		return nil, err
	}
	return out.Reminders, nil
}

// DeactivateReminder retires a spent one-shot reminder.
func (c *Client) DeactivateReminder(ctx context.Context, reminderID string) error {
	var ignored struct{}
	return c.post(ctx, "/reminders/"+reminderID+"/deactivate", struct{}{}, &ignored)
}

// UserFCMToken resolves the registration token stored for a user.
func (c *Client) UserFCMToken(ctx context.Context, userID string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/users/"+userID+"/fcm-token", nil)
	if err != nil {
		return "", apperr.Wrap(err, apperr.ErrInternal, "")
	}
	res, err := c.do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()
	var out struct {
		FCMToken string `json:"fcmToken"`
	}
	if err := c.decodeBody(res, &out); err != nil {
		return "", err
	}
	return out.FCMToken, nil
}
