// Package realtime pushes payloads to connected WebSocket clients through
// the API Gateway Management API.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi"
	"github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi/types"
	"github.com/aws/smithy-go"

	"github.com/torolabs/go-qa-backend/internal/domain"
)

// ManagementAPI is the subset of the API Gateway Management client the
// pusher consumes.
type ManagementAPI interface {
	PostToConnection(ctx context.Context, params *apigatewaymanagementapi.PostToConnectionInput, optFns ...func(*apigatewaymanagementapi.Options)) (*apigatewaymanagementapi.PostToConnectionOutput, error)
}

// Pusher delivers JSON payloads to a single WebSocket connection.
type Pusher struct {
	client ManagementAPI
}

// NewPusher returns a Pusher over the given management client.
func NewPusher(client ManagementAPI) *Pusher {
	return &Pusher{client: client}
}

// Post serializes payload as JSON and delivers it to the connection.
func (p *Pusher) Post(ctx context.Context, connectionID string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("realtime: marshal payload: %w", err)
	}

	_, err = p.client.PostToConnection(ctx, &apigatewaymanagementapi.PostToConnectionInput{
		ConnectionId: &connectionID,
		Data:         data,
	})
	if err != nil {
		return fmt.Errorf("realtime: post to connection: %w", err)
	}
	return nil
}

// IsGone reports whether err indicates the connection is stale: the client
// disconnected without the registry being cleaned up. Callers should remove
// the connection record when this returns true.
func IsGone(err error) bool {
	var gone *types.GoneException
	if errors.As(err, &gone) {
		return true
	}
	var api smithy.APIError
	return errors.As(err, &api) && api.ErrorCode() == "GoneException"
}

// StatusPayload is the message pushed to a client when their question
// changes state. Answer, Sources and Question are present on completion;
// ErrorMessage on failure.
type StatusPayload struct {
	Type         string        `json:"type"`
	QuestionID   string        `json:"question_id"`
	Status       domain.Status `json:"status"`
	Answer       string        `json:"answer,omitempty"`
	Sources      []string      `json:"sources,omitempty"`
	Question     string        `json:"question,omitempty"`
	ErrorMessage string        `json:"error_message,omitempty"`
}
