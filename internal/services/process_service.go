// Package services – ProcessService
//
// This file implements the ProcessService, the worker side of the pipeline:
// it consumes a process-event, walks the question through the status
// lifecycle (pending -> processing -> completed|error), invokes the
// generation adapter, and publishes a notify-event with the outcome.
//
// The pending -> processing transition is conditional on the entity still
// being pending, so a redelivered event cannot trigger a second generation
// for an already settled question.
package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"

	"github.com/torolabs/go-qa-backend/internal/domain"
	"github.com/torolabs/go-qa-backend/internal/generation"
	"github.com/torolabs/go-qa-backend/internal/store"
)

// ProcessQuestionStore defines the store contract required by
// ProcessService.
type ProcessQuestionStore interface {
	// Get fetches the question, or store.ErrQuestionNotFound.
	Get(ctx context.Context, userID, questionID string) (*domain.Question, error)

	// BeginProcessing conditionally transitions pending -> processing, or
	// store.ErrStatusConflict when the question already left pending.
	BeginProcessing(ctx context.Context, userID, questionID string) (*domain.Question, error)

	// UpdateFields applies a partial update, always refreshing updated_at.
	UpdateFields(ctx context.Context, userID, questionID string, fields map[string]any) (*domain.Question, error)
}

// AnswerGenerator produces a grounded answer for a question.
type AnswerGenerator interface {
	Answer(ctx context.Context, question string) (*generation.Result, error)
}

// ProcessResult is the outcome reported by Process.
type ProcessResult struct {
	UserID            string        `json:"user_id"`
	QuestionID        string        `json:"question_id"`
	Status            domain.Status `json:"status"`
	FoundRelevantDocs bool          `json:"found_relevant_docs"`
}

// ProcessService runs retrieval-augmented generation for queued questions.
type ProcessService struct {
	// Questions is the question store.
	Questions ProcessQuestionStore
	// Generator is the retrieval + generation adapter.
	Generator AnswerGenerator
	// Events publishes notify-events.
	Events EventPublisher
	// NotifyTopicARN is the topic the notify Lambda consumes.
	NotifyTopicARN string

	// now is a seam for tests; defaults to time.Now.
	now func() time.Time
}

// NewProcessService constructs a ProcessService.
func NewProcessService(questions ProcessQuestionStore, generator AnswerGenerator, events EventPublisher, notifyTopicARN string) *ProcessService {
	return &ProcessService{
		Questions:      questions,
		Generator:      generator,
		Events:         events,
		NotifyTopicARN: notifyTopicARN,
		now:            time.Now,
	}
}

func (s *ProcessService) timestamp() string {
	return s.now().UTC().Format(time.RFC3339Nano)
}

// Process answers the question referenced by ev.
//
// Failures before the entity is resolved (bad event, unknown question,
// missing text) return an error with no side effects. Failures after that
// point trigger a best-effort compensation: the entity is marked error with
// the failure message and a notify-event with status error is published; a
// secondary failure during compensation is only logged so it never masks
// the primary error.
func (s *ProcessService) Process(ctx context.Context, ev domain.QuestionEvent) (*ProcessResult, error) {
	if err := ev.Validate(); err != nil {
		return nil, err
	}

	ctx, span := otel.Tracer("services").Start(ctx, "process.question")
	defer span.End()

	q, err := s.Questions.Get(ctx, ev.UserID, ev.QuestionID)
	if err != nil {
		return nil, err
	}
	if q.Question == "" {
		return nil, ErrQuestionTextMissing
	}

	if _, err := s.Questions.BeginProcessing(ctx, ev.UserID, ev.QuestionID); err != nil {
		if errors.Is(err, store.ErrStatusConflict) {
			// Redelivered event for an already settled question: report the
			// current state and do nothing else.
			log.Warn().
				Str("user_id", ev.UserID).
				Str("question_id", ev.QuestionID).
				Str("status", string(q.Status)).
				Msg("skipping redelivered event")
			return &ProcessResult{
				UserID:            ev.UserID,
				QuestionID:        ev.QuestionID,
				Status:            q.Status,
				FoundRelevantDocs: q.FoundRelevantDocs,
			}, nil
		}
		return nil, s.fail(ctx, ev, err)
	}

	log.Info().Str("question_id", ev.QuestionID).Msg("processing question")

	gen, err := s.Generator.Answer(ctx, q.Question)
	if err != nil {
		return nil, s.fail(ctx, ev, err)
	}

	sources := make([]string, 0, len(gen.Sources))
	for _, src := range gen.Sources {
		sources = append(sources, src.DocumentID)
	}

	fields := map[string]any{
		"status":              domain.StatusCompleted,
		"answer":              gen.Answer,
		"sources":             sources,
		"inference_model":     gen.ModelID,
		"found_relevant_docs": gen.FoundRelevantDocs,
		"processed_at":        s.timestamp(),
	}
	if _, err := s.Questions.UpdateFields(ctx, ev.UserID, ev.QuestionID, fields); err != nil {
		return nil, s.fail(ctx, ev, err)
	}

	notify := domain.QuestionEvent{UserID: ev.UserID, QuestionID: ev.QuestionID, Status: domain.StatusCompleted}
	if err := s.Events.PublishQuestionEvent(ctx, s.NotifyTopicARN, notify); err != nil {
		return nil, s.fail(ctx, ev, err)
	}

	return &ProcessResult{
		UserID:            ev.UserID,
		QuestionID:        ev.QuestionID,
		Status:            domain.StatusCompleted,
		FoundRelevantDocs: gen.FoundRelevantDocs,
	}, nil
}

// fail marks the question as errored and publishes a notify-event with
// status error, then returns the primary error. Compensation failures are
// logged, never returned.
func (s *ProcessService) fail(ctx context.Context, ev domain.QuestionEvent, cause error) error {
	log.Error().Err(cause).
		Str("user_id", ev.UserID).
		Str("question_id", ev.QuestionID).
		Msg("processing failed")

	fields := map[string]any{
		"status":        domain.StatusError,
		"error_message": cause.Error(),
	}
	if _, err := s.Questions.UpdateFields(ctx, ev.UserID, ev.QuestionID, fields); err != nil {
		log.Error().Err(err).Str("question_id", ev.QuestionID).Msg("could not mark question as errored")
		return cause
	}

	notify := domain.QuestionEvent{UserID: ev.UserID, QuestionID: ev.QuestionID, Status: domain.StatusError}
	if err := s.Events.PublishQuestionEvent(ctx, s.NotifyTopicARN, notify); err != nil {
		log.Error().Err(err).Str("question_id", ev.QuestionID).Msg("could not publish error notification")
	}
	return cause
}
