// Package domain defines the core data model shared by every Lambda in the
// pipeline: the persisted question entity, its status lifecycle, the
// request/event payloads exchanged between handlers, and the validation rules
// applied at the boundaries.
//
// The same struct is used for DynamoDB persistence (dynamodbav tags) and for
// JSON payloads (json tags), so attribute names here are the single source of
// truth for the record shape.
package domain

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxQuestionLength is the maximum accepted question length in characters.
const MaxQuestionLength = 2000

// Status is the processing state of a question.
//
// A question only ever moves forward: pending -> processing -> completed or
// error. Terminal states never transition again.
type Status string

// Question statuses. The string values are part of the persisted record and
// of the public API; they must stay stable.
const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusError:
		return true
	}
	return false
}

// Terminal reports whether s is an end state of the lifecycle.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// CanTransitionTo reports whether the lifecycle allows moving from s to next.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusProcessing
	case StatusProcessing:
		return next == StatusCompleted || next == StatusError
	}
	return false
}

// NotificationDetails records the outcome of a realtime delivery attempt.
type NotificationDetails struct {
	RealtimeSent     bool   `dynamodbav:"realtime_sent" json:"realtime_sent"`
	NotificationTime string `dynamodbav:"notification_time,omitempty" json:"notification_time,omitempty"`
}

// Question is the persisted question entity.
//
// Identity is the composite (UserID, QuestionID) pair, stored under the
// partition key USER#{user_id} and sort key QUESTION#{question_id}. Answer and
// Sources are populated only when Status is completed; ErrorMessage only when
// Status is error. Timestamps are ISO-8601 UTC strings.
type Question struct {
	PK string `dynamodbav:"PK" json:"-"`
	SK string `dynamodbav:"SK" json:"-"`

	UserID     string `dynamodbav:"user_id" json:"user_id"`
	QuestionID string `dynamodbav:"question_id" json:"question_id"`
	Question   string `dynamodbav:"question" json:"question"`
	Status     Status `dynamodbav:"status" json:"status"`

	Answer            string   `dynamodbav:"answer,omitempty" json:"answer,omitempty"`
	Sources           []string `dynamodbav:"sources,omitempty" json:"sources,omitempty"`
	ModelID           string   `dynamodbav:"inference_model,omitempty" json:"inference_model,omitempty"`
	FoundRelevantDocs bool     `dynamodbav:"found_relevant_docs,omitempty" json:"found_relevant_docs,omitempty"`
	ErrorMessage      string   `dynamodbav:"error_message,omitempty" json:"error_message,omitempty"`

	CreatedAt           string `dynamodbav:"created_at" json:"created_at"`
	UpdatedAt           string `dynamodbav:"updated_at" json:"updated_at"`
	ProcessingStartedAt string `dynamodbav:"processing_started_at,omitempty" json:"processing_started_at,omitempty"`
	ProcessedAt         string `dynamodbav:"processed_at,omitempty" json:"processed_at,omitempty"`

	NotificationSent    bool                 `dynamodbav:"notification_sent,omitempty" json:"notification_sent,omitempty"`
	NotificationDetails *NotificationDetails `dynamodbav:"notification_details,omitempty" json:"notification_details,omitempty"`
}

// PartitionKey returns the DynamoDB partition key value for a user.
func PartitionKey(userID string) string { return "USER#" + userID }

// SortKey returns the DynamoDB sort key value for a question.
func SortKey(questionID string) string { return "QUESTION#" + questionID }

// ConnectionRecord is the ephemeral mapping from a user to their live
// WebSocket connection. At most one record exists per user; a new connection
// overwrites the previous one.
type ConnectionRecord struct {
	UserID       string `dynamodbav:"user_id" json:"user_id"`
	ConnectionID string `dynamodbav:"connection_id" json:"connection_id"`
}

// ValidationError describes rejected input. It is always safe to surface the
// message to the caller.
type ValidationError struct {
	Field  string
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// QuestionRequest is the inbound payload for submitting a question.
type QuestionRequest struct {
	UserID   string `json:"user_id"`
	Question string `json:"question"`
}

// Validate trims both fields and checks the request against the inbound
// rules: user_id and question must be non-empty, and the question must not
// exceed MaxQuestionLength characters.
func (r *QuestionRequest) Validate() error {
	r.UserID = strings.TrimSpace(r.UserID)
	r.Question = strings.TrimSpace(r.Question)

	if r.UserID == "" {
		return &ValidationError{Field: "user_id", Reason: "cannot be an empty string"}
	}
	if r.Question == "" {
		return &ValidationError{Field: "question", Reason: "cannot be an empty string"}
	}
	if utf8.RuneCountInString(r.Question) > MaxQuestionLength {
		return &ValidationError{
			Field:  "question",
			Reason: fmt.Sprintf("must be at most %d characters", MaxQuestionLength),
		}
	}
	return nil
}

// QuestionSummary is the minimal view of a question returned by the ingest
// endpoint and carried in events.
type QuestionSummary struct {
	UserID     string `json:"user_id"`
	QuestionID string `json:"question_id"`
	Status     Status `json:"status"`
}
