package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"farepay_app/internal/models"
	"farepay_app/internal/tasks"
)

const (
	// DefaultActivationFee is charged when the caller omits an amount
	DefaultActivationFee = 149

	// DefaultDescription labels an initiation without free-text input
	DefaultDescription = "Account activation fee"

	// FeatureSurveyAccess is unlocked when an activation payment reconciles
	FeatureSurveyAccess = "survey_access"

	defaultPollInterval    = 10 * time.Second
	defaultPollMaxAttempts = 30
)

// PaymentService drives push-payment initiation and the downstream unlock
// effect of a reconciled payment
type PaymentService struct {
	db           *gorm.DB
	transactions *TransactionService
	provider     *TinyPesaClient
	cache        *RedisCache

	pollInterval    time.Duration
	pollMaxAttempts int
}

func NewPaymentService(db *gorm.DB, transactions *TransactionService, provider *TinyPesaClient, cache *RedisCache) *PaymentService {
	return &PaymentService{
		db:              db,
		transactions:    transactions,
		provider:        provider,
		cache:           cache,
		pollInterval:    defaultPollInterval,
		pollMaxAttempts: defaultPollMaxAttempts,
	}
}

// InitiateRequest is the caller's input for one push-payment attempt
type InitiateRequest struct {
	Phone       string
	Amount      float64
	Description string
}

// InitiateResult is returned to the caller after the provider acknowledged
// the push request
type InitiateResult struct {
	Reference             string
	ProviderTransactionID string
}

// NewReference builds a client-generated correlation key, unique per call:
// a timestamp plus a random component. Collision-resistant in practice, not
// cryptographically guaranteed.
func NewReference() string {
	return fmt.Sprintf("FARE-%d-%s", time.Now().Unix(), strings.SplitN(uuid.NewString(), "-", 2)[0])
}

// Initiate validates the request, asks the provider to prompt the phone, and
// persists a pending transaction on provider success. A store failure after a
// successful provider call is never surfaced to the caller: the payment
// already happened from the provider's perspective, so the row is handed to
// the durable outbox instead.
func (s *PaymentService) Initiate(ctx context.Context, req InitiateRequest) (*InitiateResult, error) {
	if req.Phone == "" {
		return nil, &ValidationError{Message: "phone number is required"}
	}
	if !s.provider.Configured() {
		return nil, &ConfigError{Message: "provider credentials are not configured"}
	}

	amount := req.Amount
	if amount <= 0 {
		amount = DefaultActivationFee
	}
	description := req.Description
	if description == "" {
		description = DefaultDescription
	}

	reference := NewReference()

	resp, err := s.provider.Push(ctx, amount, req.Phone, reference)
	if err != nil {
		return nil, err
	}

	if !resp.OK() {
		msg := resp.FailureMessage()
		if msg == "" {
			msg = "payment request was rejected by the provider"
		}
		return nil, &UpstreamRejectionError{Message: msg}
	}

	tx := &models.Transaction{
		ExternalReference:     reference,
		ProviderTransactionID: resp.TransactionRequestID,
		Status:                models.TransactionStatusPending,
		Amount:                amount,
		Phone:                 req.Phone,
		Email:                 s.provider.AccountEmail(),
		ResultDescription:     description,
	}

	if err := s.transactions.Create(tx); err != nil {
		log.Printf("Failed to persist pending transaction %s: %v; enqueueing persist retry", reference, err)
		s.enqueuePersistRetry(tx)
	}

	return &InitiateResult{
		Reference:             reference,
		ProviderTransactionID: resp.TransactionRequestID,
	}, nil
}

// enqueuePersistRetry hands a pending row that failed to insert to the
// scheduled-task outbox so the worker can retry it
func (s *PaymentService) enqueuePersistRetry(tx *models.Transaction) {
	args := map[string]interface{}{
		"reference":               tx.ExternalReference,
		"provider_transaction_id": tx.ProviderTransactionID,
		"amount":                  tx.Amount,
		"phone":                   tx.Phone,
		"email":                   tx.Email,
		"description":             tx.ResultDescription,
	}

	task, err := tasks.BuildScheduledTask(tasks.PersistTransactionTask.TaskID(), args, time.Now(), nil, models.ScheduledTaskTypeOneTime, 5)
	if err != nil {
		log.Printf("Failed to build persist retry for %s: %v", tx.ExternalReference, err)
		return
	}
	if err := s.db.Create(task).Error; err != nil {
		// Both the insert and the outbox write failed; the row is lost until
		// an operator replays it from the provider statement.
		log.Printf("Failed to enqueue persist retry for %s: %v", tx.ExternalReference, err)
	}
}

// UnlockFeature records the downstream effect of a reconciled payment at most
// once per reference. The redis once-guard short-circuits repeats; the unique
// index on reference backstops it when redis is unavailable.
func (s *PaymentService) UnlockFeature(ctx context.Context, reference, phone string) error {
	if s.cache != nil {
		created, err := s.cache.SetNX(ctx, "unlock:"+reference, time.Now().Unix(), 24*time.Hour)
		if err != nil {
			log.Printf("Unlock once-guard unavailable for %s: %v", reference, err)
		} else if !created {
			return nil
		}
	}

	var unlock models.FeatureUnlock
	return s.db.Where(models.FeatureUnlock{Reference: reference}).
		Attrs(models.FeatureUnlock{Phone: phone, Feature: FeatureSurveyAccess}).
		FirstOrCreate(&unlock).Error
}

// AwaitReconciliation runs the bounded polling waiter for an initiated
// payment and triggers the unlock effect on success
func (s *PaymentService) AwaitReconciliation(ctx context.Context, reference, phone string) (WaitOutcome, error) {
	waiter := &ReconciliationWaiter{
		Interval:    s.pollInterval,
		MaxAttempts: s.pollMaxAttempts,
		ReadStatus: func(ctx context.Context, ref string) (models.TransactionStatus, error) {
			return s.transactions.StatusByReference(ref)
		},
		OnSuccess: func(ctx context.Context, ref string) error {
			return s.UnlockFeature(ctx, ref, phone)
		},
	}
	return waiter.Wait(ctx, reference)
}
