package fields

import "fmt"

// Fallback copy for pushes that carry no reminder data and an empty
// notification block.
const (
	DefaultNotificationTitle = "แจ้งเตือนจาก Plante"
	DefaultNotificationBody  = "มีแจ้งเตือนใหม่สำหรับคุณ"
)

type messageTemplate struct {
	title  string
	bodies map[Frequency]string
}

// messageCatalog is the single source of truth for notification copy. Both
// the scheduler's preview and the delivery handlers read this table, so a
// locally rendered notification and a server-pushed one are textually
// identical.
var messageCatalog = map[ReminderType]messageTemplate{
	Watering: {
		title: "🪴 ถึงเวลารดน้ำ %s แล้ว!",
		bodies: map[Frequency]string{
			Once:   "ถึงเวลาที่กำหนดไว้สำหรับการรดน้ำแล้ว",
			Daily:  "ถึงเวลารดน้ำประจำวันแล้ว",
			Weekly: "ถึงเวลารดน้ำประจำสัปดาห์แล้ว",
		},
	},
	Fertilizing: {
		title: "🌱 ถึงเวลาใส่ปุ๋ย %s แล้ว!",
		bodies: map[Frequency]string{
			Once:   "ถึงเวลาที่กำหนดไว้สำหรับการใส่ปุ๋ยแล้ว",
			Daily:  "ถึงเวลาใส่ปุ๋ยประจำวันแล้ว",
			Weekly: "ถึงเวลาใส่ปุ๋ยประจำสัปดาห์แล้ว",
		},
	},
}

// Message maps (type, frequency) to the notification title and body,
// interpolating the plant's display name. Unknown types fall back to a
// generic care message.
func Message(t ReminderType, f Frequency, plantName string) (title, body string) {
	tmpl, ok := messageCatalog[t]
	if !ok {
		return fmt.Sprintf("🔔 การแจ้งเตือนสำหรับ %s", plantName), "ถึงเวลาดูแลต้นไม้ของคุณแล้ว"
	}
	body, ok = tmpl.bodies[f]
	if !ok {
		body = tmpl.bodies[Once]
	}
	return fmt.Sprintf(tmpl.title, plantName), body
}
