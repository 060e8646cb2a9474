// Package delivery renders system notifications from push payloads and
// routes the user's clicks back into the application. The background
// handler here is the only component alive when no page is open, so it
// never reports errors to a user: malformed input is logged and dropped.
package delivery

import (
	"github.com/sirupsen/logrus"

	"github.com/plante-app/plante-notify/fields"
	"github.com/plante-app/plante-notify/push"
)

type Handler struct {
	Notifier  Notifier
	Navigator Navigator
	Logger    *logrus.Logger
}

func NewHandler(notifier Notifier, navigator Navigator, logger *logrus.Logger) *Handler {
	return &Handler{Notifier: notifier, Navigator: navigator, Logger: logger}
}

// Handle renders one background delivery as a system notification. A
// payload without a notification block is a no-op: there is no user to
// report to, so it only leaves a log line.
func (h *Handler) Handle(p push.Payload) error {
	if p.Notification == nil {
		h.Logger.WithField("data", p.Data).Warn("push payload has no notification block, dropping")
		return nil
	}

	title := p.Notification.Title
	body := p.Notification.Body
	if title == "" {
		title = fields.DefaultNotificationTitle
	}
	if body == "" {
		body = fields.DefaultNotificationBody
	}

	tag := "default"
	if id := reminderTag(p.Data); id != "" {
		tag = fields.NotificationTag(id)
	}

	n := fields.WebNotification{
		Title:              title,
		Body:               body,
		Icon:               fields.NotificationIcon,
		Badge:              fields.NotificationBadge,
		Tag:                tag,
		RequireInteraction: true,
		Actions: []fields.NotificationAction{
			{Action: fields.ActionView, Title: fields.ActionViewTitle},
			{Action: fields.ActionDismiss, Title: fields.ActionDismissTitle},
		},
		Data: p.Data,
	}
	if err := h.Notifier.Show(n); err != nil {
		h.Logger.WithField("code", err.Error()).Error("could not show notification")
		return nil
	}
	return nil
}

// reminderTag picks the replacement key for the notification, preferring
// the reminder's own identifier.
func reminderTag(data map[string]string) string {
	if id := data["reminderId"]; id != "" {
		return id
	}
	return data["plantId"]
}

// HandleClick closes the notification and, for the "view" action, opens
// the application at the plant's reminder page. A dismiss or a plain click
// elsewhere on the notification navigates nowhere. The returned path is
// empty when no navigation happens.
func (h *Handler) HandleClick(ev fields.ClickEvent) (string, error) {
	h.Notifier.Close(ev.Tag)

	if ev.Action != fields.ActionView {
		return "", nil
	}
	plantID := ev.Data["plantId"]
	if plantID == "" {
		h.Logger.WithField("tag", ev.Tag).Warn("view click without a plant id, staying put")
		return "", nil
	}
	path := fields.ReminderDetailPath(plantID)
	if h.Navigator != nil {
		if err := h.Navigator.OpenWindow(path); err != nil {
			return "", err
		}
	}
	return path, nil
}
