package handlers

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/torolabs/go-qa-backend/internal/domain"
	"github.com/torolabs/go-qa-backend/internal/services"
)

// ProcessAPI defines the service operation consumed by the process handler.
type ProcessAPI interface {
	Process(ctx context.Context, ev domain.QuestionEvent) (*services.ProcessResult, error)
}

// Process handles the SNS-triggered generation step.
type Process struct {
	svc ProcessAPI
}

// NewProcess constructs the process handler.
func NewProcess(svc ProcessAPI) *Process {
	return &Process{svc: svc}
}

// Handle consumes one process-event, either SNS-wrapped or bare.
//
// The invocation error is always nil: this is an async consumer, and a
// terminally bad event (malformed, unknown question) must not be redelivered
// by the transport. The envelope carries the outcome instead.
func (h *Process) Handle(ctx context.Context, raw json.RawMessage) (Response, error) {
	ev, err := domain.DecodeQuestionEvent(raw)
	if err != nil {
		log.Error().Err(err).Msg("rejecting process event")
		return failure(err.Error()), nil
	}

	result, err := h.svc.Process(ctx, ev)
	if err != nil {
		log.Error().Err(err).
			Str("user_id", ev.UserID).
			Str("question_id", ev.QuestionID).
			Msg("process handler failed")
		return failure(err.Error()), nil
	}
	return succeed(result), nil
}
