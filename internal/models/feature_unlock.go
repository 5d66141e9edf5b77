package models

import (
	"time"

	"gorm.io/gorm"
)

// FeatureUnlock records the downstream effect of a successfully reconciled
// payment (e.g. survey access activated). The unique reference index is the
// durable backstop behind the redis once-guard: a given initiation can only
// ever unlock once.
type FeatureUnlock struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Reference string `gorm:"type:varchar(100);uniqueIndex" json:"reference"`
	Phone     string `gorm:"type:varchar(20);index" json:"phone"`
	Feature   string `gorm:"type:varchar(50)" json:"feature"`
}
