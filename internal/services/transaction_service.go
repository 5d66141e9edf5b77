package services

import (
	"encoding/json"
	"errors"
	"log"
	"strconv"
	"time"

	"gorm.io/gorm"

	"farepay_app/internal/models"
)

// receiptPlaceholder is the provider's literal "not applicable" receipt value;
// it is normalized to NULL on update.
const receiptPlaceholder = "N/A"

// TransactionService owns all reads and writes of transaction records. Status
// transitions happen only through ApplyCallback, so any future confirmation
// channel reuses the same transition logic.
type TransactionService struct {
	db *gorm.DB
}

func NewTransactionService(db *gorm.DB) *TransactionService {
	return &TransactionService{db: db}
}

// Create inserts a new pending transaction
func (s *TransactionService) Create(tx *models.Transaction) error {
	if tx.Status == "" {
		tx.Status = models.TransactionStatusPending
	}
	return s.db.Create(tx).Error
}

// FindByReference looks a transaction up by its external reference. Returns
// (nil, nil) when no record matches.
func (s *TransactionService) FindByReference(reference string) (*models.Transaction, error) {
	var tx models.Transaction
	err := s.db.Where("external_reference = ?", reference).First(&tx).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &tx, nil
}

// LatestPendingByPhone returns the most recently created transaction for the
// phone number that is still pending, or (nil, nil)
func (s *TransactionService) LatestPendingByPhone(phone string) (*models.Transaction, error) {
	var tx models.Transaction
	err := s.db.Where("phone = ? AND status = ?", phone, models.TransactionStatusPending).
		Order("created_at desc").First(&tx).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &tx, nil
}

// StatusByReference is the read used by the reconciliation waiter
func (s *TransactionService) StatusByReference(reference string) (models.TransactionStatus, error) {
	tx, err := s.FindByReference(reference)
	if err != nil {
		return "", err
	}
	if tx == nil {
		return "", gorm.ErrRecordNotFound
	}
	return tx.Status, nil
}

// ProviderCallback is the decoded webhook body plus its raw payload for the
// audit log
type ProviderCallback struct {
	TransactionID        string
	ResponseCode         int
	ResponseDescription  string
	TransactionAmount    float64
	TransactionReceipt   string
	TransactionDate      string
	TransactionReference string
	Msisdn               string
	MerchantRequestID    string
	CheckoutRequestID    string
	Raw                  json.RawMessage
}

// CallbackResult reports what ApplyCallback did
type CallbackResult struct {
	Suppressed  bool
	Matched     bool
	Transaction *models.Transaction
}

// ApplyCallback is the single authoritative mutation entry point for
// transaction status. It maps the provider code, matches a record (reference
// first, then most recent pending for the phone) and applies the update in
// one statement. Timeout notifications return before any store access.
func (s *TransactionService) ApplyCallback(cb *ProviderCallback) (*CallbackResult, error) {
	mapped := MapResultCode(cb.ResponseCode, cb.ResponseDescription)

	// First-class suppressed branch: the provider's timeout notification is
	// acknowledged upstream but never persisted, not even as an audit row.
	if mapped.Suppressed {
		return &CallbackResult{Suppressed: true}, nil
	}

	tx, err := s.matchTransaction(cb)
	if err != nil {
		return nil, err
	}

	if tx == nil {
		log.Printf("Unmatched webhook: provider tx %s, reference %q, msisdn %s", cb.TransactionID, cb.TransactionReference, cb.Msisdn)
		s.recordWebhookEvent(cb, nil)
		return &CallbackResult{Matched: false}, nil
	}

	if tx.Status != models.TransactionStatusPending {
		// Re-delivery for an already-terminal record; last writer wins.
		log.Printf("Webhook overwrites non-pending transaction %s (was %s, now %s)", tx.ExternalReference, tx.Status, mapped.Status)
	}

	updates := map[string]interface{}{
		"status":                  mapped.Status,
		"result_code":             strconv.Itoa(cb.ResponseCode),
		"result_description":      mapped.Description,
		"receipt_number":          normalizeReceipt(cb.TransactionReceipt),
		"merchant_request_id":     cb.MerchantRequestID,
		"checkout_request_id":     cb.CheckoutRequestID,
		"transaction_date":        ParseProviderDate(cb.TransactionDate),
		"provider_transaction_id": cb.TransactionID,
	}

	if err := s.db.Model(&models.Transaction{}).Where("id = ?", tx.ID).Updates(updates).Error; err != nil {
		return nil, err
	}

	s.recordWebhookEvent(cb, &tx.ID)

	updated, err := s.FindByReference(tx.ExternalReference)
	if err != nil {
		return nil, err
	}
	return &CallbackResult{Matched: true, Transaction: updated}, nil
}

// matchTransaction applies the matching strategy: exact reference equality
// first, then the most recent pending record for the phone number. The phone
// fallback can attach to the wrong record when one number has several pending
// initiations; it exists because the provider omits the reference on some
// callbacks.
func (s *TransactionService) matchTransaction(cb *ProviderCallback) (*models.Transaction, error) {
	if cb.TransactionReference != "" {
		tx, err := s.FindByReference(cb.TransactionReference)
		if err != nil {
			return nil, err
		}
		if tx != nil {
			return tx, nil
		}
	}

	if cb.Msisdn == "" {
		return nil, nil
	}

	tx, err := s.LatestPendingByPhone(cb.Msisdn)
	if err != nil {
		return nil, err
	}
	if tx != nil {
		log.Printf("Webhook matched by phone fallback: msisdn %s -> reference %s", cb.Msisdn, tx.ExternalReference)
	}
	return tx, nil
}

// recordWebhookEvent keeps the raw callback for the audit trail. Failures are
// logged only; the webhook must still be acknowledged.
func (s *TransactionService) recordWebhookEvent(cb *ProviderCallback, txID *uint) {
	outcome := models.WebhookOutcomeUnmatched
	if txID != nil {
		outcome = models.WebhookOutcomeMatched
	}
	event := models.WebhookEvent{
		TransactionID: txID,
		Outcome:       outcome,
		Payload:       cb.Raw,
	}
	if err := s.db.Create(&event).Error; err != nil {
		log.Printf("Failed to record webhook event: %v", err)
	}
}

func normalizeReceipt(receipt string) *string {
	if receipt == "" || receipt == receiptPlaceholder {
		return nil
	}
	return &receipt
}

// ParseProviderDate parses the provider's 14-digit YYYYMMDDHHMMSS date string.
// Anything that is not exactly 14 digits yields nil rather than an error.
func ParseProviderDate(raw string) *time.Time {
	if len(raw) != 14 {
		return nil
	}
	t, err := time.Parse("20060102150405", raw)
	if err != nil {
		return nil
	}
	return &t
}
