package errors

import "errors"

var (
	ErrInvalidSubmissionInput = errors.New("invalid submission input")
	ErrSubmissionNotFound     = errors.New("submission not found")
	ErrInvalidConfidence      = errors.New("confidence must be between 0 and 100")
	ErrAlreadyScored          = errors.New("submission already has an ai confidence")
	ErrInvalidStateTransition = errors.New("invalid submission state transition")
	ErrSettlementConflict     = errors.New("submission already settled with a different transaction")
	ErrIdempotencyKeyRequired = errors.New("idempotency key is required")
	ErrIdempotencyConflict    = errors.New("idempotency key conflict")
	ErrOracleUnavailable      = errors.New("vision oracle is unavailable")
	ErrOracleTimeout          = errors.New("vision oracle scoring timed out")
)
