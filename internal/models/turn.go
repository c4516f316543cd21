package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one message in a conversation. Rows are append-only; nothing
// updates or reorders them after insert.
type Turn struct {
	ID             string         `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ConversationID string         `gorm:"column:conversation_id;type:text;index" json:"conversation_id"`
	Role           string         `gorm:"column:role;type:text" json:"role"` // "user" | "assistant"
	Content        string         `gorm:"column:content;type:text" json:"content"`
	Metadata       datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`
	CreatedAt      time.Time      `gorm:"column:created_at;type:timestamptz;index" json:"created_at"`
}

func (Turn) TableName() string { return "conversation_turns" }

// TurnMetadata is the shape folded into an assistant Turn's jsonb column.
type TurnMetadata struct {
	UsedRetrieval     bool     `json:"used_retrieval"`
	RetrievalDegraded bool     `json:"retrieval_degraded,omitempty"`
	RouteMode         string   `json:"route_mode,omitempty"`
	ReviewLabel       string   `json:"review_label,omitempty"`
	ReviewConfidence  float64  `json:"review_confidence,omitempty"`
	SourceTitles      []string `json:"source_titles,omitempty"`
	Summary           string   `json:"tldr,omitempty"`
	TraceID           string   `json:"trace_id,omitempty"`
}
