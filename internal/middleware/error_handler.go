package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// CustomErrorHandler creates a custom error handler for Echo. Every error is
// rendered as a JSON body so webhook and polling clients never see HTML.
func CustomErrorHandler(err error, c echo.Context) {
	code := http.StatusInternalServerError
	errorMessage := ""

	// Check if it's an Echo HTTPError
	if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code

		// Try to extract message from HTTPError
		if msg, ok := he.Message.(string); ok && msg != "" {
			errorMessage = msg
		}

		// Set default message if no custom message provided
		if errorMessage == "" {
			switch code {
			case http.StatusNotFound:
				errorMessage = "The requested resource doesn't exist."
			case http.StatusBadRequest:
				errorMessage = "The request could not be processed."
			case http.StatusBadGateway:
				errorMessage = "The payment provider could not be reached."
			default:
				errorMessage = "Something went wrong. Please try again later."
			}
		}
	} else {
		// Non-HTTPError, use default
		errorMessage = "Something went wrong. Please try again later."
	}

	// Log the error
	c.Logger().Error(err)

	if c.Response().Committed {
		return
	}

	if writeErr := c.JSON(code, map[string]string{
		"status":  "error",
		"message": errorMessage,
	}); writeErr != nil {
		c.Logger().Error(writeErr)
	}
}
