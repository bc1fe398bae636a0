package handlers

// Error codes carried in ErrorResponse.Code. Clients branch on these, never
// on Message. Middleware that answers before a handler runs (rate limiting,
// idempotency key checks) uses its own codes: too_many_requests and
// bad_idempotency_key.
const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeNotFound         = "not_found"
	// ErrCodeConflict answers a create whose Idempotency-Key is held by a
	// request that has not finished.
	ErrCodeConflict         = "conflict"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeInternal         = "internal_error"
	// ErrCodeUnavailable means the request was cancelled or timed out before
	// the write finished; the client may retry with the same Idempotency-Key.
	ErrCodeUnavailable = "unavailable"

	ErrCodeValidationFailed = "validation_failed"
	ErrCodeCreateFailed     = "create_failed"
	ErrCodeUpdateFailed     = "update_failed"
	ErrCodeDeleteFailed     = "delete_failed"
	ErrCodeListFailed       = "list_failed"
)
