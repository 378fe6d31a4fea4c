package bus

import "time"

// Event is a domain event published on the bus. Topic is a realtime channel
// name ("/event/chatter/message") or a dotted kind ("daemon.status_changed").
type Event struct {
	Topic     string
	Timestamp time.Time
	Payload   any
}
