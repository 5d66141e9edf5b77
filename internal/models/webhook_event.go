package models

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

type WebhookOutcome string

const (
	WebhookOutcomeMatched   WebhookOutcome = "matched"
	WebhookOutcomeUnmatched WebhookOutcome = "unmatched"
)

// WebhookEvent keeps the raw payload of every provider callback we processed,
// whether or not it matched a transaction. Suppressed timeout notifications
// are never written here.
type WebhookEvent struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	TransactionID *uint           `gorm:"index" json:"transaction_id"`
	Outcome       WebhookOutcome  `gorm:"type:varchar(20);not null" json:"outcome"`
	Payload       json.RawMessage `gorm:"type:jsonb" json:"payload"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	DeletedAt     gorm.DeletedAt  `gorm:"index" json:"deleted_at,omitempty"`
}
