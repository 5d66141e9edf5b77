package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

// TinyPesaClient talks to the mobile-money push-payment provider. The
// provider's API is a single POST endpoint; its responses are plain text that
// may carry banner content before the JSON body.
type TinyPesaClient struct {
	baseURL string
	apiKey  string
	email   string
	client  *http.Client
}

func NewTinyPesaClient() *TinyPesaClient {
	url := os.Getenv("TINYPESA_BASE_URL")
	if url == "" {
		url = "https://tinypesa.com/api/v1"
	}
	return &TinyPesaClient{
		baseURL: url,
		apiKey:  os.Getenv("TINYPESA_API_KEY"),
		email:   os.Getenv("TINYPESA_ACCOUNT_EMAIL"),
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Configured reports whether provider credentials are available. Checked per
// request rather than at boot so the rest of the service can run without them.
func (s *TinyPesaClient) Configured() bool {
	return s.apiKey != "" && s.email != ""
}

// AccountEmail returns the service account email used on provider calls
func (s *TinyPesaClient) AccountEmail() string {
	return s.email
}

// FlexString accepts either a JSON string or a JSON number and normalizes it
// to its string form. The provider's success indicator arrives as both.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		*f = ""
		return nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}

// PushResponse is the parsed provider reply to a push-payment request
type PushResponse struct {
	Success              FlexString `json:"success"`
	Message              string     `json:"message"`
	// The provider is known to sometimes spell the message field this way.
	Massage              string     `json:"massage"`
	TransactionRequestID string     `json:"transaction_request_id"`
}

// OK reports whether the provider acknowledged the push request
func (r *PushResponse) OK() bool {
	return r.Success == "200"
}

// FailureMessage returns the provider's failure message, preferring the
// correctly spelled field over the misspelled one
func (r *PushResponse) FailureMessage() string {
	if r.Message != "" {
		return r.Message
	}
	return r.Massage
}

// Push asks the provider to prompt the given phone for payment. The reply is
// parsed tolerantly from the first '{' in the body.
func (s *TinyPesaClient) Push(ctx context.Context, amount float64, phone, reference string) (*PushResponse, error) {
	payload := map[string]string{
		"api_key":   s.apiKey,
		"email":     s.email,
		"amount":    strconv.FormatFloat(amount, 'f', -1, 64),
		"msisdn":    phone,
		"reference": reference,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal push request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/express/initialize", bytes.NewBuffer(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send push request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read provider response: %w", err)
	}

	return ParsePushResponse(body)
}

// ParsePushResponse locates the JSON object inside a possibly noisy provider
// reply and decodes it
func ParsePushResponse(body []byte) (*PushResponse, error) {
	idx := strings.Index(string(body), "{")
	if idx < 0 {
		return nil, &UpstreamProtocolError{Err: fmt.Errorf("no JSON object in response %q", truncate(string(body), 120))}
	}

	var parsed PushResponse
	if err := json.Unmarshal(body[idx:], &parsed); err != nil {
		return nil, &UpstreamProtocolError{Err: err}
	}
	return &parsed, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
