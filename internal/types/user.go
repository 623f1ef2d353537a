package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type AssistantModel string

const (
	AssistantModelLocal  AssistantModel = "local"
	AssistantModelHybrid AssistantModel = "hybrid"
	AssistantModelCloud  AssistantModel = "cloud"
)

type VoiceSettings struct {
	Enabled bool    `json:"enabled"`
	Speed   float64 `json:"speed"`
	Volume  float64 `json:"volume"`
}

type UserPreferences struct {
	Theme          string         `json:"theme"`
	Voice          VoiceSettings  `json:"voice"`
	AssistantModel AssistantModel `json:"assistant_model"`
	OfflineMode    bool           `json:"offline_mode"`
	Language       string         `json:"language"`
}

// UserStats counters only move forward; they are incremented by explicit
// calls and never recomputed from scratch.
type UserStats struct {
	Conversations     int   `gorm:"column:conversations;not null" json:"conversations"`
	Messages          int   `gorm:"column:messages;not null" json:"messages"`
	VoiceInteractions int   `gorm:"column:voice_interactions;not null" json:"voice_interactions"`
	TotalUsageTime    int64 `gorm:"column:total_usage_time;not null" json:"total_usage_time"`
}

type StatKind string

const (
	StatKindConversation StatKind = "conversation"
	StatKindMessage      StatKind = "message"
	StatKindVoice        StatKind = "voice"
	StatKindUsage        StatKind = "usage"
)

type User struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Username string    `gorm:"uniqueIndex;not null;column:username" json:"username"`
	Email    string    `gorm:"uniqueIndex;not null;column:email" json:"email"`
	Password string    `gorm:"not null;column:password" json:"-"`

	AvatarKey string `gorm:"column:avatar_key" json:"-"`
	AvatarURL string `gorm:"column:avatar_url" json:"avatar_url"`

	Preferences datatypes.JSONType[UserPreferences] `gorm:"column:preferences" json:"preferences"`
	Stats       UserStats                           `gorm:"embedded;embeddedPrefix:stats_" json:"stats"`

	IsActive   bool      `gorm:"column:is_active;not null" json:"is_active"`
	LastActive time.Time `gorm:"column:last_active;not null" json:"last_active"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (User) TableName() string { return "user" }

func DefaultPreferences() UserPreferences {
	return UserPreferences{
		Theme:          "system",
		Voice:          VoiceSettings{Enabled: true, Speed: 1.0, Volume: 0.8},
		AssistantModel: AssistantModelHybrid,
		Language:       "en-US",
	}
}

// ApplyStat bumps exactly one counter; unknown kinds fall through
// untouched rather than erroring.
func (s *UserStats) ApplyStat(kind StatKind, delta int64) {
	if delta == 0 {
		delta = 1
	}
	switch kind {
	case StatKindConversation:
		s.Conversations += int(delta)
	case StatKindMessage:
		s.Messages += int(delta)
	case StatKindVoice:
		s.VoiceInteractions += int(delta)
	case StatKindUsage:
		s.TotalUsageTime += delta
	}
}
