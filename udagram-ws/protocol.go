package udagramws

import (
	"encoding/json"
	"fmt"
)

// client protocol message types
const (
	MsgPing = "ping"
	MsgPong = "pong"
)

// Message is a control message exchanged on the $default route.
type Message struct {
	Type string `json:"type"`
}

// Notification is pushed to every connection when an image is uploaded.
type Notification struct {
	ImageKey string `json:"imageKey"`
}

// ParseMessage parses a client message from a JSON string.
func ParseMessage(body string) (*Message, error) {
	var msg Message
	if err := json.Unmarshal([]byte(body), &msg); err != nil {
		return nil, fmt.Errorf("invalid message: %w", err)
	}
	if msg.Type == "" {
		return nil, fmt.Errorf("missing message type")
	}
	return &msg, nil
}

// PongMessage returns a pong message.
func PongMessage() []byte {
	b, _ := json.Marshal(Message{Type: MsgPong})
	return b
}

// NotificationMessage returns the payload announcing imageKey.
func NotificationMessage(imageKey string) ([]byte, error) {
	b, err := json.Marshal(Notification{ImageKey: imageKey})
	if err != nil {
		return nil, fmt.Errorf("marshalling notification: %w", err)
	}
	return b, nil
}
