package push

import (
	"errors"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/plante-app/plante-notify/apperr"
)

type recordingHandler struct {
	handled []Payload
	err     error
}

func (h *recordingHandler) Handle(p Payload) error {
	h.handled = append(h.handled, p)
	return h.err
}

func TestBroker_OneShotSubscription(t *testing.T) {
	b := NewBroker()
	sub := b.Subscribe()
	if !b.HasSubscribers() {
		t.Fatal("HasSubscribers() = false after Subscribe")
	}

	p := Payload{Data: map[string]string{"plantId": "p1"}}
	if !b.Publish(p) {
		t.Fatal("Publish() = false with a live subscriber")
	}
	got, ok := <-sub.C
	if !ok {
		t.Fatal("subscription channel closed before delivering")
	}
	if got.Data["plantId"] != "p1" {
		t.Errorf("delivered plantId = %q, want p1", got.Data["plantId"])
	}
	if _, ok := <-sub.C; ok {
		t.Error("subscription channel still open after one delivery")
	}
	if b.HasSubscribers() {
		t.Error("subscription survived its one delivery")
	}
}

func TestBroker_PublishWithoutSubscribers(t *testing.T) {
	b := NewBroker()
	if b.Publish(Payload{}) {
		t.Error("Publish() = true with no subscribers")
	}
}

func TestBroker_Cancel(t *testing.T) {
	b := NewBroker()
	sub := b.Subscribe()
	sub.Cancel()
	if b.HasSubscribers() {
		t.Error("cancelled subscription still registered")
	}
	if b.Publish(Payload{}) {
		t.Error("Publish() reached a cancelled subscription")
	}
}

func TestBroker_OldestSubscriberWins(t *testing.T) {
	b := NewBroker()
	first := b.Subscribe()
	second := b.Subscribe()

	b.Publish(Payload{Data: map[string]string{"reminderId": "r1"}})
	if got := <-first.C; got.Data["reminderId"] != "r1" {
		t.Errorf("first subscriber got %v, want r1", got.Data)
	}
	select {
	case p, ok := <-second.C:
		if ok {
			t.Errorf("second subscriber got %v before its turn", p)
		}
	default:
	}
	second.Cancel()
}

func TestRouter_ForegroundClaimsDelivery(t *testing.T) {
	broker := NewBroker()
	background := &recordingHandler{}
	r := NewRouter(broker, background, logrus.New())

	sub := broker.Subscribe()
	raw := []byte(`{"data":{"plantId":"p1","reminderId":"r1"}}`)
	if err := r.Route(raw); err != nil {
		t.Fatalf("Route() error = %v", err)
	}
	if len(background.handled) != 0 {
		t.Error("background handler ran while a page was listening")
	}
	if got := <-sub.C; got.Data["reminderId"] != "r1" {
		t.Errorf("foreground got %v, want reminder r1", got.Data)
	}
}

func TestRouter_BackgroundFallback(t *testing.T) {
	broker := NewBroker()
	background := &recordingHandler{}
	r := NewRouter(broker, background, logrus.New())

	raw := []byte(`{"notification":{"title":"t","body":"b"},"data":{"plantId":"p1"}}`)
	if err := r.Route(raw); err != nil {
		t.Fatalf("Route() error = %v", err)
	}
	if len(background.handled) != 1 {
		t.Fatalf("background handled %d payloads, want 1", len(background.handled))
	}
	if background.handled[0].Notification == nil || background.handled[0].Notification.Title != "t" {
		t.Errorf("background payload = %+v, want notification title t", background.handled[0])
	}
}

func TestRouter_MalformedPayload(t *testing.T) {
	broker := NewBroker()
	background := &recordingHandler{}
	r := NewRouter(broker, background, logrus.New())

	err := r.Route([]byte(`{not json`))
	if !errors.Is(err, apperr.ErrMalformedPushPayload) {
		t.Fatalf("Route() error = %v, want malformed_push_payload", err)
	}
	if len(background.handled) != 0 {
		t.Error("malformed payload reached the background handler")
	}
}

func TestPayload_ReminderEvent(t *testing.T) {
	tests := []struct {
		name    string
		payload Payload
		wantID  string
		wantOK  bool
	}{
		{
			"nested reminder document",
			Payload{Data: map[string]string{"reminder": `{"reminderId":"r1","plantId":"p1","type":"watering","frequency":"daily","plantName":"ต้นบอน"}`}},
			"r1",
			true,
		},
		{
			"flattened keys",
			Payload{Data: map[string]string{"reminderId": "r2", "plantId": "p2", "type": "fertilizing", "frequency": "weekly"}},
			"r2",
			true,
		},
		{
			"unparseable reminder document",
			Payload{Data: map[string]string{"reminder": "{bad"}},
			"",
			false,
		},
		{
			"no reminder data",
			Payload{Data: map[string]string{"campaign": "spring"}},
			"",
			false,
		},
		{
			"no data at all",
			Payload{Notification: &Notification{Title: "t"}},
			"",
			false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, ok := tt.payload.ReminderEvent()
			if ok != tt.wantOK {
				t.Fatalf("ReminderEvent() ok = %v, want %v", ok, tt.wantOK)
			}
			if ev.ReminderID != tt.wantID {
				t.Errorf("ReminderEvent() reminderId = %q, want %q", ev.ReminderID, tt.wantID)
			}
		})
	}
}
