package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"farepay_app/internal/models"
	"farepay_app/internal/tasks"
)

func newTestPaymentService(t *testing.T, db *gorm.DB) *PaymentService {
	t.Helper()
	return NewPaymentService(db, NewTransactionService(db), NewTinyPesaClient(), nil)
}

// TestInitiateInsertFailureEnqueuesPersistRetry drives the post-provider
// insert into failure and checks the row is handed to the outbox instead of
// surfacing the error, then replays the queued task to recover the row.
func TestInitiateInsertFailureEnqueuesPersistRetry(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":"200","transaction_request_id":"abc123"}`))
	}))
	t.Cleanup(provider.Close)
	t.Setenv("TINYPESA_BASE_URL", provider.URL)
	t.Setenv("TINYPESA_API_KEY", "test-key")
	t.Setenv("TINYPESA_ACCOUNT_EMAIL", "ops@example.com")

	db := newTestDB(t)
	svc := newTestPaymentService(t, db)

	// Breaking the transactions table makes the insert fail while the task
	// queue stays writable.
	require.NoError(t, db.Migrator().DropTable(&models.Transaction{}))

	result, err := svc.Initiate(context.Background(), InitiateRequest{Phone: "0712345678"})
	require.NoError(t, err, "caller must still see success")
	require.True(t, strings.HasPrefix(result.Reference, "FARE-"))

	var queued []models.ScheduledTask
	require.NoError(t, db.Where("task_name = ?", tasks.PersistTransactionTask.TaskID()).Find(&queued).Error)
	require.Len(t, queued, 1)
	assert.Equal(t, models.ScheduledTaskStatusActive, queued[0].Status)
	assert.Equal(t, models.ScheduledTaskTypeOneTime, queued[0].TaskType)
	assert.Equal(t, 5, queued[0].MaxAttempt)
	assert.Equal(t, result.Reference, queued[0].Arguments["reference"])
	assert.Equal(t, float64(DefaultActivationFee), queued[0].Arguments["amount"])
	assert.Equal(t, "0712345678", queued[0].Arguments["phone"])

	// Once the store is back, executing the queued task recovers the row.
	require.NoError(t, db.AutoMigrate(&models.Transaction{}))
	_, err = tasks.PersistTransactionTask.HandleExecution(context.Background(), db, queued[0])
	require.NoError(t, err)

	var tx models.Transaction
	require.NoError(t, db.Where("external_reference = ?", result.Reference).First(&tx).Error)
	assert.Equal(t, models.TransactionStatusPending, tx.Status)
	assert.Equal(t, "abc123", tx.ProviderTransactionID)
}

func TestInitiateSuccessEnqueuesNothing(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":"200","transaction_request_id":"abc123"}`))
	}))
	t.Cleanup(provider.Close)
	t.Setenv("TINYPESA_BASE_URL", provider.URL)
	t.Setenv("TINYPESA_API_KEY", "test-key")
	t.Setenv("TINYPESA_ACCOUNT_EMAIL", "ops@example.com")

	db := newTestDB(t)
	svc := newTestPaymentService(t, db)

	_, err := svc.Initiate(context.Background(), InitiateRequest{Phone: "0712345678"})
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&models.ScheduledTask{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestUnlockFeatureOncePerReference(t *testing.T) {
	db := newTestDB(t)
	svc := newTestPaymentService(t, db)

	require.NoError(t, svc.UnlockFeature(context.Background(), "FARE-1-aaaa", "0712345678"))
	require.NoError(t, svc.UnlockFeature(context.Background(), "FARE-1-aaaa", "0712345678"))

	var unlocks []models.FeatureUnlock
	require.NoError(t, db.Find(&unlocks).Error)
	require.Len(t, unlocks, 1)
	assert.Equal(t, "FARE-1-aaaa", unlocks[0].Reference)
	assert.Equal(t, "0712345678", unlocks[0].Phone)
	assert.Equal(t, FeatureSurveyAccess, unlocks[0].Feature)
}

func TestUnlockFeatureDistinctReferences(t *testing.T) {
	db := newTestDB(t)
	svc := newTestPaymentService(t, db)

	require.NoError(t, svc.UnlockFeature(context.Background(), "FARE-1-aaaa", "0712345678"))
	require.NoError(t, svc.UnlockFeature(context.Background(), "FARE-2-bbbb", "0712345678"))

	var count int64
	require.NoError(t, db.Model(&models.FeatureUnlock{}).Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

// TestAwaitReconciliationUnlocksOnce resolves a waiter against an already
// confirmed transaction and checks the unlock effect fires exactly once even
// when the wait is repeated.
func TestAwaitReconciliationUnlocksOnce(t *testing.T) {
	db := newTestDB(t)
	svc := newTestPaymentService(t, db)

	tx := createPending(t, db, "FARE-1-aaaa", "0712345678")
	require.NoError(t, db.Model(tx).Update("status", models.TransactionStatusSuccess).Error)

	for i := 0; i < 2; i++ {
		outcome, err := svc.AwaitReconciliation(context.Background(), "FARE-1-aaaa", "0712345678")
		require.NoError(t, err)
		assert.Equal(t, WaitOutcomeSuccess, outcome)
	}

	var count int64
	require.NoError(t, db.Model(&models.FeatureUnlock{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestAwaitReconciliationCancelled(t *testing.T) {
	db := newTestDB(t)
	svc := newTestPaymentService(t, db)

	tx := createPending(t, db, "FARE-1-aaaa", "0712345678")
	require.NoError(t, db.Model(tx).Update("status", models.TransactionStatusCancelled).Error)

	outcome, err := svc.AwaitReconciliation(context.Background(), "FARE-1-aaaa", "0712345678")
	require.NoError(t, err)
	assert.Equal(t, WaitOutcomeCancelled, outcome)

	var count int64
	require.NoError(t, db.Model(&models.FeatureUnlock{}).Count(&count).Error)
	assert.Zero(t, count, "no unlock on a negative outcome")
}
