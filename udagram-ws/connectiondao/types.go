package connectiondao

import (
	"fmt"
	"time"
)

// Connection represents a WebSocket connection stored in DynamoDB.
type Connection struct {
	ID          string `dynamodbav:"id" ddb:"hash"`
	Endpoint    string `dynamodbav:"endpoint,omitempty"` // management API callback url, https://{domain}/{stage}
	ConnectedAt string `dynamodbav:"timestamp"`          // RFC3339
	TTL         int64  `dynamodbav:"ttl,omitempty"`
}

// NewConnection builds the record for a session opened at now that expires
// after ttl.
func NewConnection(id, endpoint string, now time.Time, ttl time.Duration) Connection {
	conn := Connection{
		ID:          id,
		Endpoint:    endpoint,
		ConnectedAt: now.UTC().Format(time.RFC3339Nano),
	}
	if ttl > 0 {
		conn.TTL = now.Add(ttl).Unix()
	}
	return conn
}

// Established returns when the session was opened.
func (c Connection) Established() (time.Time, error) {
	return time.Parse(time.RFC3339Nano, c.ConnectedAt)
}

// RegistryError reports a failed read or write against the connections table.
type RegistryError struct {
	Op  string
	ID  string
	Err error
}

func (e *RegistryError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("connection registry %v failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("connection registry %v %v failed: %v", e.Op, e.ID, e.Err)
}

func (e *RegistryError) Unwrap() error { return e.Err }
