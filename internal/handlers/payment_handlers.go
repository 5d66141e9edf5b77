package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"farepay_app/internal/services"
)

type PaymentHandler struct {
	paymentService *services.PaymentService
	transactions   *services.TransactionService
}

func NewPaymentHandler(paymentService *services.PaymentService, transactions *services.TransactionService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService, transactions: transactions}
}

// InitiatePayment asks the provider to prompt the given phone and returns the
// reference the client polls with
func (h *PaymentHandler) InitiatePayment(c echo.Context) error {
	var req InitiatePaymentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid JSON payload")
	}

	result, err := h.paymentService.Initiate(c.Request().Context(), services.InitiateRequest{
		Phone:       req.Phone,
		Amount:      req.Amount,
		Description: req.Description,
	})
	if err != nil {
		var validationErr *services.ValidationError
		var configErr *services.ConfigError
		var protocolErr *services.UpstreamProtocolError
		var rejection *services.UpstreamRejectionError

		switch {
		case errors.As(err, &validationErr):
			return echo.NewHTTPError(http.StatusBadRequest, validationErr.Message)
		case errors.As(err, &configErr):
			return echo.NewHTTPError(http.StatusInternalServerError, configErr.Message)
		case errors.As(err, &protocolErr):
			return echo.NewHTTPError(http.StatusBadGateway, protocolErr.Error())
		case errors.As(err, &rejection):
			// The provider processed the request and said no; the HTTP
			// exchange itself succeeded.
			return c.JSON(http.StatusOK, map[string]interface{}{
				"status":  "failed",
				"message": rejection.Message,
			})
		default:
			return echo.NewHTTPError(http.StatusBadGateway, "Failed to reach payment provider: "+err.Error())
		}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":                  "success",
		"reference":               result.Reference,
		"provider_transaction_id": result.ProviderTransactionID,
	})
}

// ProviderCallback receives the provider's asynchronous confirmation. Every
// recognized case is acknowledged with 200 so the provider does not
// retry-storm us; only a missing TransactionID is a client error.
func (h *PaymentHandler) ProviderCallback(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Unable to read payload")
	}

	var payload ProviderWebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid JSON payload")
	}

	if payload.TransactionID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "TransactionID is required")
	}

	result, err := h.transactions.ApplyCallback(&services.ProviderCallback{
		TransactionID:        payload.TransactionID,
		ResponseCode:         payload.ResponseCode,
		ResponseDescription:  payload.ResponseDescription,
		TransactionAmount:    payload.TransactionAmount,
		TransactionReceipt:   payload.TransactionReceipt,
		TransactionDate:      payload.TransactionDate,
		TransactionReference: payload.TransactionReference,
		Msisdn:               payload.Msisdn,
		MerchantRequestID:    payload.MerchantRequestID,
		CheckoutRequestID:    payload.CheckoutRequestID,
		Raw:                  body,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	switch {
	case result.Suppressed:
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "success",
			"message": "Timeout notification acknowledged",
		})
	case !result.Matched:
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "success",
			"message": "No matching transaction",
		})
	default:
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "success",
			"message": "Callback processed",
		})
	}
}

// CheckStatus returns the current transaction state for a reference. This is
// the endpoint the polling client hits.
func (h *PaymentHandler) CheckStatus(c echo.Context) error {
	reference := c.Param("reference")
	if reference == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Reference is required")
	}

	tx, err := h.transactions.FindByReference(reference)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch transaction")
	}
	if tx == nil {
		return echo.NewHTTPError(http.StatusNotFound, "Transaction not found")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"reference":               tx.ExternalReference,
		"status":                  tx.Status,
		"amount":                  tx.Amount,
		"phone":                   tx.Phone,
		"result_code":             tx.ResultCode,
		"result_description":      tx.ResultDescription,
		"receipt_number":          tx.ReceiptNumber,
		"provider_transaction_id": tx.ProviderTransactionID,
		"transaction_date":        tx.TransactionDate,
		"updated_at":              tx.UpdatedAt,
	})
}

// AwaitReconciliation runs the bounded polling waiter server-side and
// long-polls until a terminal outcome. Closing the connection cancels the
// waiter and its timer.
func (h *PaymentHandler) AwaitReconciliation(c echo.Context) error {
	reference := c.Param("reference")
	if reference == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Reference is required")
	}

	phone := ""
	if tx, err := h.transactions.FindByReference(reference); err == nil && tx != nil {
		phone = tx.Phone
	}

	outcome, err := h.paymentService.AwaitReconciliation(c.Request().Context(), reference, phone)
	if err != nil {
		var timeout *services.PollTimeoutError
		if errors.As(err, &timeout) {
			return c.JSON(http.StatusOK, map[string]interface{}{
				"status":  string(services.WaitOutcomeTimedOut),
				"message": "We could not confirm your payment in time. Please contact support.",
			})
		}
		// Context cancellation: the client is gone, nothing to render.
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status": string(outcome),
	})
}
