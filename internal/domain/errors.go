package domain

import "kazi_backend/platform/apperr"

// Stable error codes surfaced to callers in the error envelope.
const (
	CodeNotFound              = "NOT_FOUND"
	CodeValidation            = "VALIDATION"
	CodeInvalidTransition     = "INVALID_TRANSITION"
	CodeJobNotAcceptingQuotes = "JOB_NOT_ACCEPTING_QUOTES"
	CodeQuoteNotPending       = "QUOTE_NOT_PENDING"
	CodeQuoteJobMismatch      = "QUOTE_JOB_MISMATCH"
	CodeClientMismatch        = "CLIENT_MISMATCH"
	CodeUnauthorized          = "UNAUTHORIZED"
	CodeDuplicateReview       = "DUPLICATE_REVIEW"
	CodeProviderNotFound      = "PROVIDER_NOT_FOUND"
	CodeJobNotReviewable      = "JOB_NOT_REVIEWABLE"
	CodeTxContention          = "TX_CONTENTION"
)

// Sentinel errors. Match with errors.Is or apperr.HasCode; attach the
// operation with WithOp, which copies.
var (
	ErrJobNotFound           = apperr.NotFound("job not found").WithCode(CodeNotFound)
	ErrQuoteNotFound         = apperr.NotFound("quote not found").WithCode(CodeNotFound)
	ErrProviderNotFound      = apperr.NotFound("provider not found").WithCode(CodeProviderNotFound)
	ErrInvalidTransition     = apperr.Conflict("job status does not allow this transition").WithCode(CodeInvalidTransition)
	ErrJobNotAcceptingQuotes = apperr.Conflict("job is not accepting quotes").WithCode(CodeJobNotAcceptingQuotes)
	ErrQuoteNotPending       = apperr.Conflict("quote is not pending").WithCode(CodeQuoteNotPending)
	ErrQuoteJobMismatch      = apperr.BadRequest("quote does not belong to this job").WithCode(CodeQuoteJobMismatch)
	ErrClientMismatch        = apperr.BadRequest("client does not own this job").WithCode(CodeClientMismatch)
	ErrUnauthorized          = apperr.Forbidden("not allowed to act on this resource").WithCode(CodeUnauthorized)
	ErrDuplicateReview       = apperr.Conflict("job has already been reviewed by this client").WithCode(CodeDuplicateReview)
	ErrJobNotReviewable      = apperr.Conflict("job is not completed or has no assigned provider").WithCode(CodeJobNotReviewable)
	ErrTxContention          = apperr.Unavailable("transaction aborted by contention, retry").WithCode(CodeTxContention)
)

// ValidationError builds a validation failure carrying the offending field.
func ValidationError(field, message string) *apperr.Error {
	return apperr.Validation(message).
		WithCode(CodeValidation).
		WithDetails(map[string]string{field: message})
}
