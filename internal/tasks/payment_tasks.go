package tasks

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"farepay_app/internal/models"
)

// PersistTransactionTaskDef is the outbox retry: it re-inserts a pending
// transaction whose original write failed after the provider had already
// accepted the push request.
type PersistTransactionTaskDef struct{}

// TaskID returns the unique identifier for this task
func (t *PersistTransactionTaskDef) TaskID() string {
	return "persist_pending_transaction"
}

// HandleExecution re-creates the pending row from the task arguments. The
// insert is idempotent on the reference: if a previous attempt (or the
// original request) already wrote the row, this is a no-op success.
func (t *PersistTransactionTaskDef) HandleExecution(ctx context.Context, db *gorm.DB, task models.ScheduledTask) (map[string]interface{}, error) {
	reference, ok := task.Arguments["reference"].(string)
	if !ok || reference == "" {
		return nil, errors.New("missing reference argument")
	}

	var existing models.Transaction
	err := db.Where("external_reference = ?", reference).First(&existing).Error
	if err == nil {
		return map[string]interface{}{
			"status":    "success",
			"reference": reference,
			"note":      "transaction already persisted",
		}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check existing transaction: %w", err)
	}

	amount, _ := task.Arguments["amount"].(float64)
	phone, _ := task.Arguments["phone"].(string)
	email, _ := task.Arguments["email"].(string)
	description, _ := task.Arguments["description"].(string)
	providerTxID, _ := task.Arguments["provider_transaction_id"].(string)

	tx := models.Transaction{
		ExternalReference:     reference,
		ProviderTransactionID: providerTxID,
		Status:                models.TransactionStatusPending,
		Amount:                amount,
		Phone:                 phone,
		Email:                 email,
		ResultDescription:     description,
	}
	if err := db.Create(&tx).Error; err != nil {
		return nil, fmt.Errorf("failed to persist transaction %s: %w", reference, err)
	}

	log.Printf("[Task: %s] Recovered pending transaction %s", t.TaskID(), reference)

	return map[string]interface{}{
		"status":         "success",
		"reference":      reference,
		"transaction_id": tx.ID,
	}, nil
}

// PersistTransactionTask is the singleton instance of PersistTransactionTaskDef
var PersistTransactionTask = &PersistTransactionTaskDef{}

// StalePendingAuditTaskDef is a recurring sweep that reports transactions
// stuck in pending. It only observes: status may never move away from pending
// outside the webhook path.
type StalePendingAuditTaskDef struct{}

// TaskID returns the unique identifier for this task
func (t *StalePendingAuditTaskDef) TaskID() string {
	return "stale_pending_audit"
}

// HandleExecution lists pending transactions older than the configured age
func (t *StalePendingAuditTaskDef) HandleExecution(ctx context.Context, db *gorm.DB, task models.ScheduledTask) (map[string]interface{}, error) {
	maxAgeMinutes := 60.0
	if v, ok := task.Arguments["max_age_minutes"].(float64); ok && v > 0 {
		maxAgeMinutes = v
	}
	cutoff := time.Now().Add(-time.Duration(maxAgeMinutes) * time.Minute)

	var stale []models.Transaction
	if err := db.Where("status = ? AND created_at < ?", models.TransactionStatusPending, cutoff).
		Order("created_at asc").Find(&stale).Error; err != nil {
		return nil, fmt.Errorf("failed to query stale pending transactions: %w", err)
	}

	references := make([]string, 0, len(stale))
	for _, tx := range stale {
		references = append(references, tx.ExternalReference)
	}

	if len(references) > 0 {
		log.Printf("[Task: %s] %d transactions pending for over %.0f minutes: %v", t.TaskID(), len(references), maxAgeMinutes, references)
	}

	return map[string]interface{}{
		"status":          "success",
		"stale_count":     len(references),
		"references":      references,
		"max_age_minutes": maxAgeMinutes,
	}, nil
}

// StalePendingAuditTask is the singleton instance of StalePendingAuditTaskDef
var StalePendingAuditTask = &StalePendingAuditTaskDef{}
