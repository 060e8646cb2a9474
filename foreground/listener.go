// Package foreground receives push payloads while a page is open and
// renders them in-app instead of as system notifications. The underlying
// subscription is single-shot, so the listener runs a loop that
// resubscribes after every resolved delivery.
package foreground

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/plante-app/plante-notify/delivery"
	"github.com/plante-app/plante-notify/fields"
	"github.com/plante-app/plante-notify/push"
)

// Subscriber hands out one-shot subscriptions. Satisfied by *push.Broker.
type Subscriber interface {
	Subscribe() *push.Subscription
}

type Listener struct {
	Source   Subscriber
	Notifier delivery.Notifier
	Logger   *logrus.Logger
}

func NewListener(source Subscriber, notifier delivery.Notifier, logger *logrus.Logger) *Listener {
	return &Listener{Source: source, Notifier: notifier, Logger: logger}
}

// Run subscribes, waits for one delivery, handles it, and subscribes
// again, until the context ends. The immediate resubscription keeps the
// page listening between deliveries.
func (l *Listener) Run(ctx context.Context) {
	for {
		sub := l.Source.Subscribe()
		select {
		case <-ctx.Done():
			sub.Cancel()
			return
		case p, ok := <-sub.C:
			if !ok {
				continue
			}
			l.HandleMessage(p)
		}
	}
}

// HandleMessage renders one foreground delivery. Reminder payloads are
// re-templated locally from the shared catalog, so the in-app copy always
// matches the scheduler's preview regardless of what the server sent.
// Generic payloads render their notification block as-is.
func (l *Listener) HandleMessage(p push.Payload) {
	if ev, ok := p.ReminderEvent(); ok {
		title, body := fields.Message(ev.Type, ev.Frequency, ev.PlantName)
		tag := ev.ReminderID
		if tag == "" {
			tag = ev.PlantID
		}
		n := fields.WebNotification{
			Title:              title,
			Body:               body,
			Icon:               fields.NotificationIcon,
			Badge:              fields.NotificationBadge,
			Tag:                fields.NotificationTag(tag),
			RequireInteraction: true,
			Actions: []fields.NotificationAction{
				{Action: fields.ActionView, Title: fields.ActionViewTitle},
				{Action: fields.ActionDismiss, Title: fields.ActionDismissTitle},
			},
			Data: p.Data,
		}
		if err := l.Notifier.Show(n); err != nil {
			l.Logger.WithField("code", err.Error()).Error("could not show in-app notification")
		}
		return
	}

	if p.Notification != nil {
		n := fields.WebNotification{
			Title: p.Notification.Title,
			Body:  p.Notification.Body,
			Icon:  fields.NotificationIcon,
			Badge: fields.NotificationBadge,
			Tag:   "default",
		}
		if err := l.Notifier.Show(n); err != nil {
			l.Logger.WithField("code", err.Error()).Error("could not show in-app notification")
		}
		return
	}

	l.Logger.WithField("data", p.Data).Warn("foreground payload carries neither reminder data nor a notification block")
}
