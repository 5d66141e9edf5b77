package services

import "farepay_app/internal/models"

// Provider result codes with special meaning. Everything else maps to failed.
const (
	resultCodeSuccess        = 0
	resultCodeCancelled      = 1
	resultCodeCancelledAlt1  = 1031
	resultCodeCancelledAlt2  = 1032
	resultCodeRequestTimeout = 1037
)

// successDescription replaces whatever the provider sent on code 0
const successDescription = "The service request is processed successfully."

// MappedStatus is the outcome of mapping a provider result code
type MappedStatus struct {
	Status      models.TransactionStatus
	Description string
	// Suppressed marks the provider's timeout notification: it must be
	// acknowledged but must never touch stored state.
	Suppressed bool
}

// MapResultCode translates a provider numeric code and description into the
// canonical status vocabulary. Pure function.
func MapResultCode(code int, description string) MappedStatus {
	switch code {
	case resultCodeSuccess:
		return MappedStatus{Status: models.TransactionStatusSuccess, Description: successDescription}
	case resultCodeCancelled, resultCodeCancelledAlt1, resultCodeCancelledAlt2:
		return MappedStatus{Status: models.TransactionStatusCancelled, Description: description}
	case resultCodeRequestTimeout:
		return MappedStatus{Suppressed: true, Description: description}
	default:
		return MappedStatus{Status: models.TransactionStatusFailed, Description: description}
	}
}
