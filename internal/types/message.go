package types

import (
	"time"

	"github.com/google/uuid"
)

type MessageType string

const (
	MessageTypeUser MessageType = "user"
	MessageTypeAI   MessageType = "ai"
)

type ContentType string

const (
	ContentTypeText  ContentType = "text"
	ContentTypeVoice ContentType = "voice"
	ContentTypeImage ContentType = "image"
	ContentTypeFile  ContentType = "file"
)

// MessageMetadata is advisory only; nothing validates it against the
// message content.
type MessageMetadata struct {
	VoiceDuration float64  `json:"voice_duration,omitempty"`
	Language      string   `json:"language,omitempty"`
	Confidence    float64  `json:"confidence,omitempty"`
	Emotions      []string `json:"emotions,omitempty"`
	Intent        string   `json:"intent,omitempty"`
	Entities      []string `json:"entities,omitempty"`
}

// Message lives inside the conversation row's JSON message column. It is
// never addressable on its own.
type Message struct {
	ID          uuid.UUID        `json:"id"`
	Type        MessageType      `json:"type"`
	ContentType ContentType      `json:"content_type"`
	Content     string           `json:"content"`
	Metadata    *MessageMetadata `json:"metadata,omitempty"`
	Timestamp   time.Time        `json:"timestamp"`
}
