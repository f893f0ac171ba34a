package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/phrazzld/storyforge-api/internal/orchestrator"
	"github.com/phrazzld/storyforge-api/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Bad request errors
	case errors.Is(err, orchestrator.ErrInvalidInput):
		return http.StatusBadRequest

	// Backpressure
	case errors.Is(err, orchestrator.ErrQueueFull):
		return http.StatusTooManyRequests

	// Not found errors
	case errors.Is(err, store.ErrTaskNotFound),
		errors.Is(err, store.ErrStoryNotFound):
		return http.StatusNotFound

	// Conflict errors
	case errors.Is(err, store.ErrAlreadyTerminal):
		return http.StatusConflict

	// Shutdown in progress
	case errors.Is(err, orchestrator.ErrQueueClosed),
		errors.Is(err, store.ErrStoreClosed):
		return http.StatusServiceUnavailable

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, orchestrator.ErrInvalidInput):
		return "Invalid task submission"

	case errors.Is(err, orchestrator.ErrQueueFull):
		return "Too many active tasks, try again later"

	case errors.Is(err, store.ErrTaskNotFound):
		return "Task not found"

	case errors.Is(err, store.ErrStoryNotFound):
		return "Story not found"

	case errors.Is(err, store.ErrAlreadyTerminal):
		return "Task already finished"

	case errors.Is(err, orchestrator.ErrQueueClosed),
		errors.Is(err, store.ErrStoreClosed):
		return "Service is shutting down"

	default:
		return "An unexpected error occurred"
	}
}

// SanitizeValidationError removes sensitive details from validation errors
// and returns a user-friendly message.
func SanitizeValidationError(err error) string {
	errMsg := err.Error()

	if strings.Contains(errMsg, "Field validation") {
		// Example format: "Key: 'SubmitTaskRequest.Keyword' Error:Field
		// validation for 'Keyword' failed on the 'required' tag"
		parts := strings.Split(errMsg, "Error:")
		if len(parts) >= 2 {
			fieldParts := strings.Split(parts[1], "'")
			if len(fieldParts) >= 3 {
				field := fieldParts[1]
				var tag string
				if len(fieldParts) >= 5 {
					tag = fieldParts[3]
				}

				if tag != "" {
					return fmt.Sprintf("Invalid %s: %s", field, getValidationTagMessage(tag))
				}
				return fmt.Sprintf("Invalid %s", field)
			}
		}
	}

	return "Validation error"
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "url":
		return "invalid URL format"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "gte", "lte":
		return "out of range"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}
