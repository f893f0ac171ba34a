package generation

import (
	"context"
	"errors"

	"github.com/phrazzld/storyforge-api/internal/domain"
)

// Common errors returned by providers and stages.
var (
	// ErrTransientFailure is returned for temporary provider errors that
	// might resolve on retry (network timeouts, rate limits, 5xx).
	ErrTransientFailure = errors.New("transient error during generation")

	// ErrContentBlocked is returned when the provider rejects the content,
	// for example due to safety filters. Retrying cannot fix it.
	ErrContentBlocked = errors.New("content blocked by provider safety filters")

	// ErrInvalidResponse is returned when the provider response is empty
	// or malformed. Treated as permanent: the same prompt produced it.
	ErrInvalidResponse = errors.New("invalid response from provider")

	// ErrTextOutOfBounds is returned when generated text falls outside the
	// configured length bounds. The stage regenerates; the attempt counts
	// against the stage's retry budget.
	ErrTextOutOfBounds = errors.New("generated text outside configured length bounds")

	// ErrInvalidConfig is returned when a provider configuration is invalid.
	ErrInvalidConfig = errors.New("invalid provider configuration")
)

// Classify maps a raw provider or stage error to the normalized error kind
// recorded on the task. Only this classification crosses into the status
// record; callers of the status API never see provider internals.
func Classify(err error) domain.ErrorKind {
	switch {
	case err == nil:
		return domain.ErrorKindNone
	case errors.Is(err, context.Canceled):
		return domain.ErrorKindCancelled
	case errors.Is(err, ErrContentBlocked), errors.Is(err, ErrInvalidConfig):
		return domain.ErrorKindPermanent
	case errors.Is(err, ErrInvalidResponse):
		return domain.ErrorKindPermanent
	case errors.Is(err, ErrTransientFailure), errors.Is(err, ErrTextOutOfBounds):
		return domain.ErrorKindTransient
	default:
		// Unclassified provider errors are assumed to be transport
		// failures and treated as retryable.
		return domain.ErrorKindTransient
	}
}

// IsRetryable reports whether the error should be retried within a stage's
// retry budget.
func IsRetryable(err error) bool {
	return Classify(err) == domain.ErrorKindTransient
}
