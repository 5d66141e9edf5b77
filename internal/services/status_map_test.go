package services

import (
	"testing"

	"farepay_app/internal/models"
)

func TestMapResultCode(t *testing.T) {
	tests := []struct {
		name            string
		code            int
		description     string
		wantStatus      models.TransactionStatus
		wantDescription string
		wantSuppressed  bool
	}{
		{
			name:            "success replaces description",
			code:            0,
			description:     "whatever the provider sent",
			wantStatus:      models.TransactionStatusSuccess,
			wantDescription: "The service request is processed successfully.",
		},
		{
			name:            "user cancelled",
			code:            1,
			description:     "Request cancelled by user",
			wantStatus:      models.TransactionStatusCancelled,
			wantDescription: "Request cancelled by user",
		},
		{
			name:        "cancelled alternate 1031",
			code:        1031,
			wantStatus:  models.TransactionStatusCancelled,
		},
		{
			name:        "cancelled alternate 1032",
			code:        1032,
			wantStatus:  models.TransactionStatusCancelled,
		},
		{
			name:           "timeout is suppressed",
			code:           1037,
			description:    "DS timeout",
			wantSuppressed: true,
		},
		{
			name:            "unknown code fails with passthrough description",
			code:            2001,
			description:     "The initiator information is invalid",
			wantStatus:      models.TransactionStatusFailed,
			wantDescription: "The initiator information is invalid",
		},
		{
			name:        "negative code fails",
			code:        -1,
			wantStatus:  models.TransactionStatusFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapResultCode(tt.code, tt.description)
			if got.Suppressed != tt.wantSuppressed {
				t.Errorf("MapResultCode(%d).Suppressed = %v; want %v", tt.code, got.Suppressed, tt.wantSuppressed)
			}
			if tt.wantSuppressed {
				return
			}
			if got.Status != tt.wantStatus {
				t.Errorf("MapResultCode(%d).Status = %q; want %q", tt.code, got.Status, tt.wantStatus)
			}
			if got.Description != tt.wantDescription {
				t.Errorf("MapResultCode(%d).Description = %q; want %q", tt.code, got.Description, tt.wantDescription)
			}
		})
	}
}
