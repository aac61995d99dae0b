package handlers

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/torolabs/go-qa-backend/internal/domain"
	"github.com/torolabs/go-qa-backend/internal/services"
)

// NotifyAPI defines the service operation consumed by the notify handler.
type NotifyAPI interface {
	Notify(ctx context.Context, ev domain.QuestionEvent) (*services.NotifyResult, error)
}

// Notify handles the SNS-triggered WebSocket push step.
type Notify struct {
	svc NotifyAPI
}

// NewNotify constructs the notify handler.
func NewNotify(svc NotifyAPI) *Notify {
	return &Notify{svc: svc}
}

// Handle consumes one notify-event, either SNS-wrapped or bare. Like the
// process handler, it reports failures in the envelope rather than as
// invocation errors.
func (h *Notify) Handle(ctx context.Context, raw json.RawMessage) (Response, error) {
	ev, err := domain.DecodeQuestionEvent(raw)
	if err != nil {
		log.Error().Err(err).Msg("rejecting notify event")
		return failure(err.Error()), nil
	}

	result, err := h.svc.Notify(ctx, ev)
	if err != nil {
		log.Error().Err(err).
			Str("user_id", ev.UserID).
			Str("question_id", ev.QuestionID).
			Msg("notify handler failed")
		return failure(err.Error()), nil
	}
	return succeed(result), nil
}
