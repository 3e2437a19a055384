package pricing

import (
	"errors"
	"fmt"
)

// ErrScoreOutOfRange is returned when a credit score matches no catalog band.
var ErrScoreOutOfRange = errors.New("score out of supported range")

// ErrInvalidTerm is returned for non-positive loan terms.
var ErrInvalidTerm = errors.New("term must be a positive number of months")

// ValidationError describes a malformed request field. Pricing is
// deterministic, so none of these are retryable.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// IsValidationError reports whether err is a request validation failure.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
