package domain

import "errors"

var (
	// ErrInvalidAppID: the review source reports the app id does not exist.
	ErrInvalidAppID = errors.New("invalid app id")
	// ErrSourceUnavailable: the review source stayed unreachable after retry.
	ErrSourceUnavailable = errors.New("review source unavailable")
	// ErrMalformedStore: a persisted batch file is missing a required column
	// or holds a value that cannot be parsed back to its type.
	ErrMalformedStore = errors.New("malformed review store")
	// ErrTemplateNotFound: no template with the requested identifier.
	ErrTemplateNotFound = errors.New("template not found")
	// ErrUnresolvedPlaceholder: a template placeholder had no value at build
	// time. Never substituted with a blank.
	ErrUnresolvedPlaceholder = errors.New("unresolved placeholder")
	// ErrPayloadTooLarge: batch exceeds the inline limit and no attachment
	// mechanism is configured.
	ErrPayloadTooLarge = errors.New("payload too large")
	// ErrSchemaViolation: the model's output does not satisfy the requested
	// response schema.
	ErrSchemaViolation = errors.New("response schema violation")
	// ErrProvider: upstream model failure (auth, rate limit, 5xx) that
	// survived the local retry budget.
	ErrProvider = errors.New("model provider error")
)
