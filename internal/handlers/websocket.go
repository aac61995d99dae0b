package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/rs/zerolog/log"

	"github.com/torolabs/go-qa-backend/internal/services"
)

// ConnectionAPI defines the service operations consumed by the WebSocket
// handler.
type ConnectionAPI interface {
	Connect(ctx context.Context, connectionID, userID string) error
	Disconnect(ctx context.Context, connectionID string) error
	Register(ctx context.Context, connectionID, userID string) error
}

// WebSocket handles the API Gateway WebSocket lifecycle routes.
type WebSocket struct {
	svc ConnectionAPI
}

// NewWebSocket constructs the WebSocket handler.
func NewWebSocket(svc ConnectionAPI) *WebSocket {
	return &WebSocket{svc: svc}
}

// wsResponse builds the plain-text {statusCode, body} response the
// WebSocket routes use.
func wsResponse(status int, body string) events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{StatusCode: status, Body: body}
}

// Handle dispatches on the route key: $connect, $disconnect, register, or a
// 404 for anything else. Unexpected failures are logged in full and
// answered with a generic 500 body.
func (h *WebSocket) Handle(ctx context.Context, req events.APIGatewayWebsocketProxyRequest) (events.APIGatewayProxyResponse, error) {
	connectionID := req.RequestContext.ConnectionID
	routeKey := req.RequestContext.RouteKey

	switch routeKey {
	case "$connect":
		userID := req.QueryStringParameters["user_id"]
		if err := h.svc.Connect(ctx, connectionID, userID); err != nil {
			return h.internalError(routeKey, err), nil
		}
		return wsResponse(http.StatusOK, "Connected"), nil

	case "$disconnect":
		if err := h.svc.Disconnect(ctx, connectionID); err != nil {
			return h.internalError(routeKey, err), nil
		}
		return wsResponse(http.StatusOK, "Disconnected"), nil

	case "register":
		userID := bodyUserID(req.Body)
		err := h.svc.Register(ctx, connectionID, userID)
		switch {
		case errors.Is(err, services.ErrMissingUserID):
			return wsResponse(http.StatusBadRequest, "user_id is required"), nil
		case err != nil:
			return h.internalError(routeKey, err), nil
		}
		return wsResponse(http.StatusOK, "User registered"), nil

	default:
		log.Warn().Str("route", routeKey).Msg("unhandled websocket route")
		return wsResponse(http.StatusNotFound, "Route not implemented"), nil
	}
}

func (h *WebSocket) internalError(routeKey string, err error) events.APIGatewayProxyResponse {
	log.Error().Err(err).Str("route", routeKey).Msg("websocket handler failed")
	return wsResponse(http.StatusInternalServerError, "Internal error")
}

// bodyUserID extracts user_id from an optional JSON body. Malformed bodies
// are treated the same as an absent user_id.
func bodyUserID(body string) string {
	if body == "" {
		return ""
	}
	var msg struct {
		UserID string `json:"user_id"`
	}
	if err := json.Unmarshal([]byte(body), &msg); err != nil {
		return ""
	}
	return msg.UserID
}
