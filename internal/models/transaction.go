package models

import (
	"time"

	"gorm.io/gorm"
)

// TransactionStatus is the canonical payment status, independent of the
// provider's numeric result codes
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusSuccess   TransactionStatus = "success"
	TransactionStatusCancelled TransactionStatus = "cancelled"
	TransactionStatusFailed    TransactionStatus = "failed"
)

// IsTerminal reports whether the status can no longer change from the
// waiter's point of view
func (s TransactionStatus) IsTerminal() bool {
	return s == TransactionStatusSuccess || s == TransactionStatusCancelled || s == TransactionStatusFailed
}

// Transaction is the single persisted record tying a push-payment initiation
// to its asynchronous provider confirmation. Rows are created by the
// initiator, mutated only by the webhook path, and never deleted.
type Transaction struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	// ExternalReference is assigned once at creation and never changes.
	ExternalReference     string            `gorm:"type:varchar(100);uniqueIndex" json:"external_reference"`
	ProviderTransactionID string            `gorm:"type:varchar(100);index" json:"provider_transaction_id"`
	Status                TransactionStatus `gorm:"type:varchar(20);index;default:'pending'" json:"status"`
	Amount                float64           `gorm:"type:decimal(15,2)" json:"amount"`
	Phone                 string            `gorm:"type:varchar(20);index" json:"phone"`
	// Email is the service account used for the provider call, not the
	// end user's address.
	Email             string     `gorm:"type:varchar(255)" json:"email"`
	ResultCode        string     `gorm:"type:varchar(10)" json:"result_code"`
	ResultDescription string     `gorm:"type:varchar(255)" json:"result_description"`
	ReceiptNumber     *string    `gorm:"type:varchar(50)" json:"receipt_number"`
	MerchantRequestID string     `gorm:"type:varchar(100)" json:"merchant_request_id"`
	CheckoutRequestID string     `gorm:"type:varchar(100)" json:"checkout_request_id"`
	TransactionDate   *time.Time `json:"transaction_date"`
}
