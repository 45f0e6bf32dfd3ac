package domain

import (
	"fmt"
)

type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Err        error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches by code so that errors built with WithError still satisfy
// errors.Is against the sentinel they were derived from.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Code:       e.Code,
		Message:    e.Message,
		StatusCode: e.StatusCode,
		Err:        err,
	}
}

// Pre-defined errors
var (
	ErrInternal = &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    "An unexpected error occurred",
		StatusCode: 500,
	}

	ErrBadRequest = &AppError{
		Code:       "BAD_REQUEST",
		Message:    "Invalid request",
		StatusCode: 400,
	}

	ErrNotFound = &AppError{
		Code:       "NOT_FOUND",
		Message:    "Resource not found",
		StatusCode: 404,
	}

	ErrValidationFailed = &AppError{
		Code:       "VALIDATION_FAILED",
		Message:    "Request validation failed",
		StatusCode: 422,
	}

	ErrRateLimitExceeded = &AppError{
		Code:       "RATE_LIMIT_EXCEEDED",
		Message:    "Rate limit exceeded, please try again later",
		StatusCode: 429,
	}

	// Biometric pipeline errors

	// ErrInputContract covers caller mistakes: mismatched embedding lengths,
	// empty sample sets, malformed boxes or frames. Fatal to the call, never retried.
	ErrInputContract = &AppError{
		Code:       "INPUT_CONTRACT_VIOLATION",
		Message:    "Input violates the biometric contract",
		StatusCode: 422,
	}

	// ErrUpstreamFailure wraps detector or embedding model errors. The session
	// that observed it is terminated.
	ErrUpstreamFailure = &AppError{
		Code:       "UPSTREAM_FAILURE",
		Message:    "Face detector or embedding model failed",
		StatusCode: 502,
	}

	ErrLivenessFailed = &AppError{
		Code:       "LIVENESS_FAILED",
		Message:    "Liveness check failed, possible spoofing attempt",
		StatusCode: 422,
	}

	ErrNoFaceDetected = &AppError{
		Code:       "NO_FACE_DETECTED",
		Message:    "No face detected in the image",
		StatusCode: 422,
	}

	ErrInvalidImage = &AppError{
		Code:       "INVALID_IMAGE",
		Message:    "Invalid image format or corrupted file",
		StatusCode: 422,
	}

	ErrInvalidMatchPolicy = &AppError{
		Code:       "INVALID_MATCH_POLICY",
		Message:    "Match convention or threshold is misconfigured",
		StatusCode: 500,
	}

	// Session errors

	ErrSessionNotFound = &AppError{
		Code:       "SESSION_NOT_FOUND",
		Message:    "Session not found",
		StatusCode: 404,
	}

	ErrSessionExpired = &AppError{
		Code:       "SESSION_EXPIRED",
		Message:    "Session has expired",
		StatusCode: 410,
	}

	ErrSessionFinished = &AppError{
		Code:       "SESSION_FINISHED",
		Message:    "Session already reached a terminal state",
		StatusCode: 409,
	}

	ErrSessionStopped = &AppError{
		Code:       "SESSION_STOPPED",
		Message:    "Session was stopped",
		StatusCode: 409,
	}

	ErrIdempotencyConflict = &AppError{
		Code:       "IDEMPOTENCY_CONFLICT",
		Message:    "Idempotency key is held by a request still in flight",
		StatusCode: 409,
	}

	ErrSampleNotExpected = &AppError{
		Code:       "SAMPLE_NOT_EXPECTED",
		Message:    "Session is not waiting for a biometric sample",
		StatusCode: 409,
	}

	// Template errors

	ErrTemplateNotFound = &AppError{
		Code:       "TEMPLATE_NOT_FOUND",
		Message:    "No enrolled template for this external_id",
		StatusCode: 404,
	}

	ErrTemplateExists = &AppError{
		Code:       "TEMPLATE_ALREADY_EXISTS",
		Message:    "A template is already enrolled for this external_id",
		StatusCode: 409,
	}
)
