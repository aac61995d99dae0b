// Package services – IngestService
//
// This file implements the IngestService, which accepts a new question,
// persists it in status pending, and hands it off to the asynchronous
// processing pipeline by publishing a process-event. It also exposes
// paginated listing of a user's questions.
package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/torolabs/go-qa-backend/internal/domain"
	"github.com/torolabs/go-qa-backend/internal/store"
)

// QuestionWriter defines the store contract required by IngestService.
type QuestionWriter interface {
	// Create persists a new question with a generated id and status pending.
	Create(ctx context.Context, userID, questionText string) (*domain.Question, error)

	// ListByUser returns one page of the user's questions.
	ListByUser(ctx context.Context, userID string, limit int32, nextToken string) (*store.QuestionPage, error)
}

// EventPublisher publishes question events to a pub/sub topic.
type EventPublisher interface {
	PublishQuestionEvent(ctx context.Context, topicARN string, ev domain.QuestionEvent) error
}

// IngestService validates and persists inbound questions and queues them for
// processing.
type IngestService struct {
	// Questions is the question store.
	Questions QuestionWriter
	// Events publishes process-events.
	Events EventPublisher
	// ProcessTopicARN is the topic the process Lambda consumes.
	ProcessTopicARN string
}

// NewIngestService constructs an IngestService.
func NewIngestService(questions QuestionWriter, events EventPublisher, processTopicARN string) *IngestService {
	return &IngestService{Questions: questions, Events: events, ProcessTopicARN: processTopicARN}
}

// Submit validates the request, creates the question entity in status
// pending, and publishes exactly one process-event for it. Validation
// failures return a *domain.ValidationError with no side effects.
func (s *IngestService) Submit(ctx context.Context, req domain.QuestionRequest) (*domain.QuestionSummary, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	q, err := s.Questions.Create(ctx, req.UserID, req.Question)
	if err != nil {
		return nil, err
	}

	ev := domain.QuestionEvent{
		UserID:     q.UserID,
		QuestionID: q.QuestionID,
		Status:     domain.StatusPending,
	}
	if err := s.Events.PublishQuestionEvent(ctx, s.ProcessTopicARN, ev); err != nil {
		// The entity is already persisted; without the event it will never
		// be processed, so surface the failure to the caller.
		return nil, fmt.Errorf("question %s saved but not queued: %w", q.QuestionID, err)
	}

	log.Info().Str("user_id", q.UserID).Str("question_id", q.QuestionID).Msg("question queued for processing")
	return &domain.QuestionSummary{
		UserID:     q.UserID,
		QuestionID: q.QuestionID,
		Status:     domain.StatusPending,
	}, nil
}

// List returns one page of the user's questions.
func (s *IngestService) List(ctx context.Context, userID string, limit int32, nextToken string) (*store.QuestionPage, error) {
	if userID == "" {
		return nil, &domain.ValidationError{Field: "user_id", Reason: "cannot be an empty string"}
	}
	return s.Questions.ListByUser(ctx, userID, limit, nextToken)
}
