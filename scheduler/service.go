// Package scheduler validates reminder drafts and submits them to the
// backend for durable scheduling. Its responsibility ends at producing a
// well-formed submission payload; turning that payload into fire events is
// the backend's job.
package scheduler

import (
	"context"

	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"

	"github.com/plante-app/plante-notify/apperr"
	"github.com/plante-app/plante-notify/backend"
	"github.com/plante-app/plante-notify/fields"
)

// TokenStore exposes the session's registration token. Satisfied by
// *registration.Manager.
type TokenStore interface {
	Token() *fields.RegistrationToken
}

type Service struct {
	Backend *backend.Client
	Tokens  TokenStore
	Logger  *logrus.Logger
	Clock   fields.Clock
}

func New(client *backend.Client, tokens TokenStore, logger *logrus.Logger) *Service {
	return &Service{Backend: client, Tokens: tokens, Logger: logger, Clock: fields.SystemClock}
}

func missingField(name string) error {
	return apperr.WithFields(apperr.New(apperr.ErrMissingRequiredField.Code, apperr.ErrMissingRequiredField.Status, "missing required field: "+name), map[string]any{"field": name})
}

// Validate runs the draft through the submission preconditions in order,
// stopping at the first failure.
func (s *Service) Validate(draft fields.ReminderDraft) error {
	if !fields.IsObjectID(draft.PlantID) {
		return apperr.ErrInvalidPlantReference
	}
	if !draft.Type.Known() {
		return missingField("type")
	}
	if !draft.Frequency.Known() {
		return missingField("frequency")
	}
	switch draft.Frequency {
	case fields.Once:
		if draft.ScheduledTime.IsZero() {
			return missingField("scheduledTime")
		}
		// A reminder set for today must still be later than now.
		if !draft.ScheduledTime.After(s.Clock.Now()) {
			return apperr.ErrScheduledTimeNotInFuture
		}
	case fields.Daily, fields.Weekly:
		if draft.TimeOfDay == "" {
			return missingField("timeOfDay")
		}
		if err := fields.Validator().Var(draft.TimeOfDay, "clocktime"); err != nil {
			return apperr.Wrap(err, apperr.ErrMissingRequiredField, "timeOfDay must be a HH:MM clock time")
		}
		if draft.Frequency == fields.Weekly {
			if draft.DayOfWeek == "" {
				return missingField("dayOfWeek")
			}
			if err := fields.Validator().Var(draft.DayOfWeek, "weekday"); err != nil {
				return apperr.Wrap(err, apperr.ErrMissingRequiredField, "dayOfWeek must be a weekday name")
			}
		}
	}
	if s.Tokens.Token() == nil {
		return apperr.ErrNotificationsNotEnabled
	}
	return nil
}

// Submit validates the draft and sends the full record to the backend,
// returning the backend's reminder identifier. The submission carries the
// templated notification copy so a server push and a local preview render
// the same text.
func (s *Service) Submit(ctx context.Context, draft fields.ReminderDraft) (string, error) {
	if err := s.Validate(draft); err != nil {
		return "", err
	}

	plant, err := s.Backend.GetPlant(ctx, draft.PlantID)
	if err != nil {
		return "", err
	}

	title, body := fields.Message(draft.Type, draft.Frequency, plant.Name)
	event := fields.NotificationEvent{
		PlantID:   draft.PlantID,
		Type:      draft.Type,
		Frequency: draft.Frequency,
		PlantName: plant.Name,
		Title:     title,
		Body:      body,
	}
	data, err := json.Marshal(event)
	if err != nil {
		return "", apperr.Wrap(err, apperr.ErrInternal, "")
	}

	sub := fields.ReminderSubmission{
		PlantID:          draft.PlantID,
		Type:             draft.Type,
		Frequency:        draft.Frequency,
		PlantName:        plant.Name,
		NotificationData: string(data),
	}
	// Only the fields the frequency requires go on the wire; the others
	// stay absent, never zero valued.
	switch draft.Frequency {
	case fields.Once:
		at := draft.ScheduledTime
		sub.ScheduledTime = &at
	case fields.Daily:
		sub.TimeOfDay = draft.TimeOfDay
	case fields.Weekly:
		sub.DayOfWeek = draft.DayOfWeek
		sub.TimeOfDay = draft.TimeOfDay
	}

	id, err := s.Backend.CreateReminder(ctx, sub)
	if err != nil {
		return "", err
	}
	s.Logger.WithFields(logrus.Fields{
		"reminder_id": id,
		"plant_id":    draft.PlantID,
		"type":        draft.Type,
		"frequency":   draft.Frequency,
	}).Info("reminder submitted")
	return id, nil
}
