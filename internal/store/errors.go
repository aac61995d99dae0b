// Package store wraps the DynamoDB tables behind narrow, injectable
// adapters: QuestionStore for the question entities and ConnectionStore for
// the WebSocket connection registry.
//
// "Not found" is a sentinel value distinct from transport failures: callers
// branch on the sentinels below, while any other error means DynamoDB itself
// failed and wraps the underlying cause.
package store

import "errors"

var (
	// ErrQuestionNotFound indicates that no question exists for the given
	// (user_id, question_id) pair.
	ErrQuestionNotFound = errors.New("question not found")

	// ErrConnectionNotFound indicates that the user has no live WebSocket
	// connection registered.
	ErrConnectionNotFound = errors.New("connection not found")

	// ErrStatusConflict is returned by BeginProcessing when the question has
	// already left the pending state, i.e. a redelivered event is trying to
	// process it a second time.
	ErrStatusConflict = errors.New("question is not pending")

	// ErrNoFields is returned by UpdateFields when the update would be a
	// no-op because no fields were supplied.
	ErrNoFields = errors.New("at least one field must be updated")
)
