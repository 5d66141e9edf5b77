package handlers

// InitiatePaymentRequest is the client's push-payment request. Amount and
// description are optional; the service substitutes the activation defaults.
type InitiatePaymentRequest struct {
	Phone       string  `json:"phone"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
}

// ProviderWebhookPayload mirrors the provider's callback body field-for-field
type ProviderWebhookPayload struct {
	TransactionID        string  `json:"TransactionID"`
	ResponseCode         int     `json:"ResponseCode"`
	ResponseDescription  string  `json:"ResponseDescription"`
	TransactionAmount    float64 `json:"TransactionAmount"`
	TransactionReceipt   string  `json:"TransactionReceipt"`
	TransactionDate      string  `json:"TransactionDate"`
	TransactionReference string  `json:"TransactionReference"`
	Msisdn               string  `json:"Msisdn"`
	MerchantRequestID    string  `json:"MerchantRequestID"`
	CheckoutRequestID    string  `json:"CheckoutRequestID"`
}
