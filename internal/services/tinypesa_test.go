package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestParsePushResponse(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantOK      bool
		wantMessage string
		wantTxID    string
		wantErr     bool
	}{
		{
			name:     "clean success with string indicator",
			body:     `{"success":"200","transaction_request_id":"abc123"}`,
			wantOK:   true,
			wantTxID: "abc123",
		},
		{
			name:     "success with numeric indicator",
			body:     `{"success":200,"transaction_request_id":"abc123"}`,
			wantOK:   true,
			wantTxID: "abc123",
		},
		{
			name:     "banner text before JSON body",
			body:     "Incoming request detected...\nOK\n{\"success\":\"200\",\"transaction_request_id\":\"xyz789\"}",
			wantOK:   true,
			wantTxID: "xyz789",
		},
		{
			name:        "failure prefers message over massage",
			body:        `{"success":"403","message":"Invalid api key","massage":"ignored"}`,
			wantOK:      false,
			wantMessage: "Invalid api key",
		},
		{
			name:        "failure falls back to misspelled field",
			body:        `{"success":"403","massage":"Insufficient float balance"}`,
			wantOK:      false,
			wantMessage: "Insufficient float balance",
		},
		{
			name:    "no JSON at all",
			body:    "<html>502 Bad Gateway</html>",
			wantErr: true,
		},
		{
			name:    "truncated JSON",
			body:    `{"success":"200","transaction_request`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := ParsePushResponse([]byte(tt.body))
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParsePushResponse(%q) expected error, got %+v", tt.body, resp)
				}
				var protocolErr *UpstreamProtocolError
				if !errors.As(err, &protocolErr) {
					t.Errorf("ParsePushResponse(%q) error = %T; want *UpstreamProtocolError", tt.body, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePushResponse(%q) unexpected error: %v", tt.body, err)
			}
			if resp.OK() != tt.wantOK {
				t.Errorf("OK() = %v; want %v", resp.OK(), tt.wantOK)
			}
			if tt.wantMessage != "" && resp.FailureMessage() != tt.wantMessage {
				t.Errorf("FailureMessage() = %q; want %q", resp.FailureMessage(), tt.wantMessage)
			}
			if resp.TransactionRequestID != tt.wantTxID {
				t.Errorf("TransactionRequestID = %q; want %q", resp.TransactionRequestID, tt.wantTxID)
			}
		})
	}
}

func TestTinyPesaClientPush(t *testing.T) {
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("failed to decode push payload: %v", err)
		}
		// Banner noise ahead of the JSON body, like the real provider
		w.Write([]byte("request received\n{\"success\":\"200\",\"transaction_request_id\":\"tx-1\"}"))
	}))
	defer srv.Close()

	t.Setenv("TINYPESA_BASE_URL", srv.URL)
	t.Setenv("TINYPESA_API_KEY", "test-key")
	t.Setenv("TINYPESA_ACCOUNT_EMAIL", "ops@example.com")

	client := NewTinyPesaClient()
	if !client.Configured() {
		t.Fatal("client should be configured")
	}

	resp, err := client.Push(context.Background(), 149, "0712345678", "FARE-1-abcd")
	if err != nil {
		t.Fatalf("Push returned error: %v", err)
	}
	if !resp.OK() {
		t.Errorf("Push response not OK: %+v", resp)
	}
	if resp.TransactionRequestID != "tx-1" {
		t.Errorf("TransactionRequestID = %q; want %q", resp.TransactionRequestID, "tx-1")
	}

	want := map[string]string{
		"api_key":   "test-key",
		"email":     "ops@example.com",
		"amount":    "149",
		"msisdn":    "0712345678",
		"reference": "FARE-1-abcd",
	}
	for k, v := range want {
		if gotBody[k] != v {
			t.Errorf("push payload %s = %q; want %q", k, gotBody[k], v)
		}
	}
}

func TestTinyPesaClientNotConfigured(t *testing.T) {
	t.Setenv("TINYPESA_API_KEY", "")
	t.Setenv("TINYPESA_ACCOUNT_EMAIL", "")

	client := NewTinyPesaClient()
	if client.Configured() {
		t.Error("client without credentials should not report configured")
	}
}
