package realtime

import (
	"encoding/json"
	"time"
)

// Event is the envelope pushed over the user channel.
type Event struct {
	Type      string      `json:"type"`
	UserID    string      `json:"user_id,omitempty"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// Encode serializes the event for the wire.
func (e Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// channelFor returns the Redis channel carrying one user's events.
func channelFor(userID string) string {
	return "events:user:" + userID
}

// broadcastChannel carries events addressed to every connected client.
const broadcastChannel = "events:broadcast"

// channelPattern subscribes to every per-user channel.
const channelPattern = "events:user:*"
