package types

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/aria-backend/internal/normalization"
)

type ConversationStatus string

const (
	ConversationStatusActive   ConversationStatus = "active"
	ConversationStatusArchived ConversationStatus = "archived"
	ConversationStatusDeleted  ConversationStatus = "deleted"
)

const (
	DefaultContextWindow = 10
	titleMaxLen          = 50
	titlePlaceholder     = "New Conversation"
)

type ConversationStats struct {
	TotalMessages int   `gorm:"column:total_messages;not null" json:"total_messages"`
	UserMessages  int   `gorm:"column:user_messages;not null" json:"user_messages"`
	AIMessages    int   `gorm:"column:ai_messages;not null" json:"ai_messages"`
	VoiceMessages int   `gorm:"column:voice_messages;not null" json:"voice_messages"`
	Duration      int64 `gorm:"column:duration;not null" json:"duration"`
	TokensUsed    int   `gorm:"column:tokens_used;not null" json:"tokens_used"`
}

// Conversation is a single-owner document: the full message sequence is
// embedded as a JSON column and the row is replaced wholesale on write,
// so concurrent writers race last-write-wins.
type Conversation struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`

	Title   string `gorm:"column:title" json:"title"`
	Summary string `gorm:"column:summary" json:"summary,omitempty"`

	Status     ConversationStatus           `gorm:"column:status;not null;index" json:"status"`
	IsFavorite bool                         `gorm:"column:is_favorite;not null" json:"is_favorite"`
	Tags       datatypes.JSONSlice[string]  `gorm:"column:tags" json:"tags"`
	Messages   datatypes.JSONSlice[Message] `gorm:"column:messages" json:"messages"`
	Stats      ConversationStats            `gorm:"embedded;embeddedPrefix:stats_" json:"stats"`

	LastMessageAt time.Time `gorm:"column:last_message_at;not null;index" json:"last_message_at"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Conversation) TableName() string { return "conversation" }

func NewConversation(userID uuid.UUID, title string) *Conversation {
	title = normalization.TrimInput(title)
	if title == "" {
		title = titlePlaceholder
	}
	now := time.Now().UTC()
	return &Conversation{
		ID:            uuid.New(),
		UserID:        userID,
		Title:         title,
		Status:        ConversationStatusActive,
		Tags:          datatypes.JSONSlice[string]{},
		Messages:      datatypes.JSONSlice[Message]{},
		LastMessageAt: now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// AppendMessage adds one message to the end of the sequence and brings
// every derived field back in line with it. Content must be non-empty
// after trimming; that is the only error condition.
func (c *Conversation) AppendMessage(msgType MessageType, contentType ContentType, content string, metadata *MessageMetadata) (*Message, error) {
	content = normalization.TrimInput(content)
	if content == "" {
		return nil, fmt.Errorf("message content is required")
	}
	if contentType == "" {
		contentType = ContentTypeText
	}
	msg := Message{
		ID:          uuid.New(),
		Type:        msgType,
		ContentType: contentType,
		Content:     content,
		Metadata:    metadata,
		Timestamp:   time.Now().UTC(),
	}
	c.Messages = append(c.Messages, msg)
	c.LastMessageAt = msg.Timestamp
	c.RecomputeStats()
	return &c.Messages[len(c.Messages)-1], nil
}

// RecomputeStats rescans the whole sequence. O(n) per append is the
// deliberate trade: stats can never drift from the messages they
// describe, and conversations stay small enough for the scan not to
// matter.
func (c *Conversation) RecomputeStats() {
	stats := ConversationStats{}
	for _, m := range c.Messages {
		stats.TotalMessages++
		switch m.Type {
		case MessageTypeUser:
			stats.UserMessages++
		case MessageTypeAI:
			stats.AIMessages++
		}
		if m.ContentType == ContentTypeVoice {
			stats.VoiceMessages++
		}
		stats.TokensUsed += estimateTokens(m.Content)
	}
	stats.Duration = c.Duration()
	c.Stats = stats
}

// ContextWindow returns the most recent limit messages in arrival order.
func (c *Conversation) ContextWindow(limit int) []Message {
	if limit <= 0 {
		limit = DefaultContextWindow
	}
	if len(c.Messages) <= limit {
		return append([]Message(nil), c.Messages...)
	}
	return append([]Message(nil), c.Messages[len(c.Messages)-limit:]...)
}

// GenerateTitle derives a title from the first user-authored message,
// truncated to 50 characters with an ellipsis marker.
func (c *Conversation) GenerateTitle() string {
	for _, m := range c.Messages {
		if m.Type != MessageTypeUser {
			continue
		}
		runes := []rune(m.Content)
		if len(runes) > titleMaxLen {
			return string(runes[:titleMaxLen]) + "..."
		}
		return m.Content
	}
	return titlePlaceholder
}

// Duration is the elapsed time between the first and last message in
// whole seconds; zero with fewer than two messages.
func (c *Conversation) Duration() int64 {
	if len(c.Messages) < 2 {
		return 0
	}
	first := c.Messages[0].Timestamp
	last := c.Messages[len(c.Messages)-1].Timestamp
	return int64(last.Sub(first).Seconds())
}

// Archive, SoftDelete and Restore are total: they set the target status
// unconditionally regardless of the current one. Restore collapses both
// archived and deleted back to active.
func (c *Conversation) Archive()    { c.Status = ConversationStatusArchived }
func (c *Conversation) SoftDelete() { c.Status = ConversationStatusDeleted }
func (c *Conversation) Restore()    { c.Status = ConversationStatusActive }

func (c *Conversation) ToggleFavorite() { c.IsFavorite = !c.IsFavorite }

// MatchesTerm reports whether the lowercased term is a substring of the
// title, any message content, or any tag.
func (c *Conversation) MatchesTerm(term string) bool {
	term = normalization.ParseInputString(term)
	if term == "" {
		return false
	}
	if containsFold(c.Title, term) {
		return true
	}
	for _, m := range c.Messages {
		if containsFold(m.Content, term) {
			return true
		}
	}
	for _, tag := range c.Tags {
		if containsFold(tag, term) {
			return true
		}
	}
	return false
}

func containsFold(s, lowerTerm string) bool {
	return s != "" && strings.Contains(normalization.ParseInputString(s), lowerTerm)
}

// estimateTokens approximates usage at four characters per token; there
// is no model behind the responses, so this only has to be stable.
func estimateTokens(content string) int {
	if content == "" {
		return 0
	}
	return (len(content) + 3) / 4
}
