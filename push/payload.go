// Package push models the provider's delivery channel: the wire payload,
// the one-shot foreground subscription, and the routing rule that hands
// each payload to exactly one of the foreground listener or the background
// handler.
package push

import (
	"github.com/goccy/go-json"

	"github.com/plante-app/plante-notify/fields"
)

// Notification is the display block of a push payload.
type Notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Payload is one message delivered by the push provider: a display
// notification block and/or an application-defined data block.
type Payload struct {
	Notification *Notification     `json:"notification,omitempty"`
	Data         map[string]string `json:"data,omitempty"`
}

// Decode parses a raw provider payload.
func Decode(raw []byte) (Payload, error) {
	var p Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return Payload{}, err
	}
	return p, nil
}

// ReminderEvent extracts reminder-specific data from the payload. Two wire
// shapes exist: a "reminder" key holding a JSON document, and the same
// fields flattened into the data map. Both are accepted.
func (p Payload) ReminderEvent() (fields.NotificationEvent, bool) {
	if raw, ok := p.Data["reminder"]; ok && raw != "" {
		var ev fields.NotificationEvent
		if err := json.Unmarshal([]byte(raw), &ev); err != nil {
			return fields.NotificationEvent{}, false
		}
		return ev, true
	}
	if p.Data["plantId"] == "" && p.Data["reminderId"] == "" {
		return fields.NotificationEvent{}, false
	}
	return fields.NotificationEvent{
		ReminderID: p.Data["reminderId"],
		PlantID:    p.Data["plantId"],
		Type:       fields.ReminderType(p.Data["type"]),
		Frequency:  fields.Frequency(p.Data["frequency"]),
		PlantName:  p.Data["plantName"],
		Title:      p.Data["title"],
		Body:       p.Data["body"],
	}, true
}

// Encode serializes a payload the way the provider would put it on the
// wire.
func (p Payload) Encode() ([]byte, error) {
	return json.Marshal(p)
}
