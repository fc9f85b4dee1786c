//
//
package broadcast

import (
	"encoding/json"
	"fmt"
	"time"
)

// MessageType names the kind of a Message.
type MessageType string

const (
	// TypeStats carries a statistics snapshot.
	TypeStats MessageType = "stats"
	// TypeHeartbeat keeps idle connections alive.
	TypeHeartbeat MessageType = "heartbeat"
)

// Message is one unit of fan-out. Data is pre-encoded JSON so it is marshalled
// once per publish, not once per subscriber.
type Message struct {
	Type MessageType
	Data json.RawMessage
}

// NewMessage encodes v as the payload of a message of type t.
func NewMessage(t MessageType, v interface{}) (Message, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return Message{}, fmt.Errorf("failed to marshal %s message: %w", t, err)
	}
	return Message{Type: t, Data: data}, nil
}

// Heartbeat returns a heartbeat message stamped with now.
func Heartbeat(now time.Time) Message {
	data, _ := json.Marshal(map[string]string{"ts": now.UTC().Format(time.RFC3339)})
	return Message{Type: TypeHeartbeat, Data: data}
}
