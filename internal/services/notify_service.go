// Package services – NotifyService
//
// This file implements the NotifyService, which consumes a notify-event and
// pushes the question's current state to the user's live WebSocket
// connection, if any. Delivery is best effort: a user without a connection,
// or a push failure, yields notification_sent=false rather than a handler
// error. Stale (gone) connections are removed from the registry on the way.
package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/torolabs/go-qa-backend/internal/domain"
	"github.com/torolabs/go-qa-backend/internal/realtime"
	"github.com/torolabs/go-qa-backend/internal/store"
)

// NotifyQuestionStore defines the question-store contract required by
// NotifyService.
type NotifyQuestionStore interface {
	Get(ctx context.Context, userID, questionID string) (*domain.Question, error)
	UpdateFields(ctx context.Context, userID, questionID string, fields map[string]any) (*domain.Question, error)
}

// ConnectionLookup defines the connection-registry contract required by
// NotifyService.
type ConnectionLookup interface {
	// Get returns the live connection id, or store.ErrConnectionNotFound.
	Get(ctx context.Context, userID string) (string, error)
	// Delete removes the user's connection record.
	Delete(ctx context.Context, userID string) error
}

// RealtimePusher delivers a payload to a WebSocket connection.
type RealtimePusher interface {
	Post(ctx context.Context, connectionID string, payload any) error
}

// NotifyResult is the outcome reported by Notify.
type NotifyResult struct {
	UserID              string                     `json:"user_id"`
	QuestionID          string                     `json:"question_id"`
	Status              domain.Status              `json:"status"`
	NotificationSent    bool                       `json:"notification_sent"`
	NotificationDetails domain.NotificationDetails `json:"notification_details"`
}

// NotifyService pushes question status updates to connected clients.
type NotifyService struct {
	// Questions is the question store, used to enrich the payload and to
	// record the notification attempt.
	Questions NotifyQuestionStore
	// Connections is the WebSocket connection registry.
	Connections ConnectionLookup
	// Pusher delivers payloads over the WebSocket transport.
	Pusher RealtimePusher

	// now is a seam for tests; defaults to time.Now.
	now func() time.Time
}

// NewNotifyService constructs a NotifyService.
func NewNotifyService(questions NotifyQuestionStore, connections ConnectionLookup, pusher RealtimePusher) *NotifyService {
	return &NotifyService{Questions: questions, Connections: connections, Pusher: pusher, now: time.Now}
}

func (s *NotifyService) timestamp() string {
	return s.now().UTC().Format(time.RFC3339Nano)
}

// Notify pushes the state carried by ev to the user's live connection.
//
// The event must carry a status: rendering a notification without one would
// silently misreport the question's state. A missing entity is tolerated
// (the payload just carries less detail), as is every push failure; only
// event validation and store write failures surface as errors.
func (s *NotifyService) Notify(ctx context.Context, ev domain.QuestionEvent) (*NotifyResult, error) {
	if err := ev.Validate(); err != nil {
		return nil, err
	}
	if ev.Status == "" {
		return nil, ErrMissingStatus
	}

	q, err := s.Questions.Get(ctx, ev.UserID, ev.QuestionID)
	if err != nil {
		if !errors.Is(err, store.ErrQuestionNotFound) {
			return nil, err
		}
		log.Warn().Str("question_id", ev.QuestionID).Msg("notifying about unknown question")
		q = nil
	}

	sent := s.push(ctx, ev, q)

	result := &NotifyResult{
		UserID:              ev.UserID,
		QuestionID:          ev.QuestionID,
		Status:              ev.Status,
		NotificationSent:    sent,
		NotificationDetails: domain.NotificationDetails{RealtimeSent: sent},
	}
	if !sent {
		return result, nil
	}

	fields := map[string]any{
		"notification_sent": true,
		"notification_details": map[string]any{
			"realtime_sent":     true,
			"notification_time": s.timestamp(),
		},
	}
	if _, err := s.Questions.UpdateFields(ctx, ev.UserID, ev.QuestionID, fields); err != nil {
		return nil, err
	}
	return result, nil
}

// push looks up the user's connection and delivers the payload. It returns
// whether the notification was actually sent; every failure path logs and
// reports false.
func (s *NotifyService) push(ctx context.Context, ev domain.QuestionEvent, q *domain.Question) bool {
	connectionID, err := s.Connections.Get(ctx, ev.UserID)
	if err != nil {
		if errors.Is(err, store.ErrConnectionNotFound) {
			log.Info().Str("user_id", ev.UserID).Msg("user has no live connection")
		} else {
			log.Error().Err(err).Str("user_id", ev.UserID).Msg("connection lookup failed")
		}
		return false
	}

	payload := realtime.StatusPayload{
		Type:       "question_update",
		QuestionID: ev.QuestionID,
		Status:     ev.Status,
	}
	switch ev.Status {
	case domain.StatusCompleted:
		if q != nil {
			payload.Answer = q.Answer
			payload.Sources = q.Sources
			payload.Question = q.Question
		}
	case domain.StatusError:
		payload.ErrorMessage = "Unknown error"
		if q != nil && q.ErrorMessage != "" {
			payload.ErrorMessage = q.ErrorMessage
		}
	}

	if err := s.Pusher.Post(ctx, connectionID, payload); err != nil {
		if realtime.IsGone(err) {
			if derr := s.Connections.Delete(ctx, ev.UserID); derr != nil {
				log.Error().Err(derr).Str("user_id", ev.UserID).Msg("could not remove stale connection")
			} else {
				log.Info().Str("user_id", ev.UserID).Msg("stale connection removed")
			}
		}
		log.Error().Err(err).Str("user_id", ev.UserID).Msg("websocket delivery failed")
		return false
	}

	log.Info().Str("user_id", ev.UserID).Str("question_id", ev.QuestionID).Msg("websocket notification sent")
	return true
}
