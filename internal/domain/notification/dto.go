package notification

import (
	"time"
)

// Message is what the engine hands to the sink for one recipient.
type Message struct {
	Type    NotificationType
	Title   string
	Message string
	Data    map[string]interface{}
}

// SSEEvent is one frame written to a subscribed client.
type SSEEvent struct {
	ID        string                 `json:"id"`
	Type      NotificationType       `json:"type"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Data      map[string]interface{} `json:"data,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

type SSETokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}
