package fields

import (
	"regexp"
	"time"
)

// ReminderType is the care action a reminder stands for.
type ReminderType string

const (
	Watering    ReminderType = "watering"
	Fertilizing ReminderType = "fertilizing"
)

func (t ReminderType) Known() bool {
	return t == Watering || t == Fertilizing
}

// Frequency is the reminder's recurrence class.
type Frequency string

const (
	Once   Frequency = "once"
	Daily  Frequency = "daily"
	Weekly Frequency = "weekly"
)

func (f Frequency) Known() bool {
	return f == Once || f == Daily || f == Weekly
}

var objectIDPattern = regexp.MustCompile(`^[a-fA-F0-9]{24}$`)

// IsObjectID reports whether id matches the backend's 24 hex character
// identifier format.
func IsObjectID(id string) bool {
	return objectIDPattern.MatchString(id)
}

var weekdays = map[string]struct{}{
	"Sunday": {}, "Monday": {}, "Tuesday": {}, "Wednesday": {},
	"Thursday": {}, "Friday": {}, "Saturday": {},
}

func IsWeekday(day string) bool {
	_, ok := weekdays[day]
	return ok
}

// IsClockTime reports whether s is a local HH:MM clock time.
func IsClockTime(s string) bool {
	_, err := time.Parse("15:04", s)
	return err == nil
}

// ReminderDraft is a user's scheduling intent before validation. Frequency
// dependent fields are optional here; the scheduler enforces which of them
// must be present.
type ReminderDraft struct {
	PlantID       string       `json:"plantId" binding:"required"`
	Type          ReminderType `json:"type" binding:"required"`
	Frequency     Frequency    `json:"frequency" binding:"required"`
	ScheduledTime time.Time    `json:"scheduledTime,omitempty"`
	DayOfWeek     string       `json:"dayOfWeek,omitempty"`
	TimeOfDay     string       `json:"timeOfDay,omitempty"`
}

// ReminderSubmission is the validated record sent to the backend's
// reminder-creation endpoint. Only the fields the chosen frequency requires
// are serialized; the rest stay absent from the wire payload.
type ReminderSubmission struct {
	PlantID          string       `json:"plantId"`
	Type             ReminderType `json:"type"`
	Frequency        Frequency    `json:"frequency"`
	ScheduledTime    *time.Time   `json:"scheduledTime,omitempty"`
	DayOfWeek        string       `json:"dayOfWeek,omitempty"`
	TimeOfDay        string       `json:"timeOfDay,omitempty"`
	PlantName        string       `json:"plantName"`
	NotificationData string       `json:"notificationData,omitempty"`
}

// RegistrationToken is the opaque credential the push provider issues for
// one device and app installation.
type RegistrationToken struct {
	Value    string    `json:"fcmToken"`
	UserID   string    `json:"userId,omitempty"`
	IssuedAt time.Time `json:"issuedAt,omitempty"`
}

// NotificationEvent is one delivered push payload, alive only while it is
// rendered and until the user's click. Never persisted.
type NotificationEvent struct {
	ReminderID string       `json:"reminderId"`
	PlantID    string       `json:"plantId"`
	Type       ReminderType `json:"type"`
	Frequency  Frequency    `json:"frequency"`
	PlantName  string       `json:"plantName"`
	Title      string       `json:"title,omitempty"`
	Body       string       `json:"body,omitempty"`
}

// Plant is the read-only slice of the backend's plant record the core needs
// for templating.
type Plant struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Notification action identifiers and display titles, as rendered on the
// system notification.
const (
	ActionView    = "view"
	ActionDismiss = "dismiss"

	ActionViewTitle    = "ดูรายละเอียด"
	ActionDismissTitle = "ปิด"

	NotificationIcon  = "/plantelogo.svg"
	NotificationBadge = "/plantelogo.svg"
)

// NotificationAction is one button on a rendered notification.
type NotificationAction struct {
	Action string `json:"action"`
	Title  string `json:"title"`
}

// WebNotification is the platform notification options block handed to the
// notification sink. Tag carries the replacement key: a second notification
// with the same tag replaces the first instead of stacking.
type WebNotification struct {
	Title              string               `json:"title"`
	Body               string               `json:"body"`
	Icon               string               `json:"icon,omitempty"`
	Badge              string               `json:"badge,omitempty"`
	Tag                string               `json:"tag"`
	RequireInteraction bool                 `json:"requireInteraction"`
	Actions            []NotificationAction `json:"actions,omitempty"`
	Data               map[string]string    `json:"data,omitempty"`
}

// ClickEvent is a user's interaction with a displayed notification, keyed on
// the action name. An empty action means a plain click on the body.
type ClickEvent struct {
	Action string            `json:"action"`
	Tag    string            `json:"tag"`
	Data   map[string]string `json:"data,omitempty"`
}

// ReminderDetailPath is the deep link a "view" click opens, scoped to the
// reminder's plant.
func ReminderDetailPath(plantID string) string {
	return "/reminder/detail/" + plantID
}

// NotificationTag builds the replacement tag for a reminder's notifications.
func NotificationTag(reminderID string) string {
	return "reminder-" + reminderID
}
