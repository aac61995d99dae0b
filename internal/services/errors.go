// Package services implements the business logic of the question pipeline:
// ingesting a question, processing it through retrieval-augmented
// generation, notifying the user, and maintaining the WebSocket connection
// registry.
//
// This file centralizes common service-level error values so that they can
// be consistently returned by service methods and checked by callers.
// Translation into HTTP status codes or response envelopes is performed at
// the handler layer.
package services

import "errors"

var (
	// ErrQuestionTextMissing is returned when a stored question entity has
	// no question text to generate an answer from.
	ErrQuestionTextMissing = errors.New("question text not found on stored entity")

	// ErrMissingStatus is returned when a notify-event carries no status.
	// Status is mandatory for notifications; a payload without one cannot
	// be rendered meaningfully for the client.
	ErrMissingStatus = errors.New("status is mandatory for notifications")

	// ErrMissingUserID is returned when a register message carries no
	// user_id.
	ErrMissingUserID = errors.New("user_id is required")
)
