package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/rs/zerolog/log"

	"github.com/torolabs/go-qa-backend/internal/domain"
	"github.com/torolabs/go-qa-backend/internal/store"
	"github.com/torolabs/go-qa-backend/internal/utils"
)

// IngestAPI defines the service operations consumed by the ingest handler.
type IngestAPI interface {
	// Submit validates, persists and queues a new question.
	Submit(ctx context.Context, req domain.QuestionRequest) (*domain.QuestionSummary, error)
	// List returns one page of the user's questions.
	List(ctx context.Context, userID string, limit int32, nextToken string) (*store.QuestionPage, error)
}

// Ingest handles the HTTP entrypoint: POST submits a question, GET lists a
// user's questions.
type Ingest struct {
	svc IngestAPI
}

// NewIngest constructs the ingest handler.
func NewIngest(svc IngestAPI) *Ingest {
	return &Ingest{svc: svc}
}

// Handle dispatches an API Gateway proxy request.
func (h *Ingest) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	switch req.HTTPMethod {
	case http.MethodPost:
		return h.submit(ctx, req), nil
	case http.MethodGet:
		return h.list(ctx, req), nil
	default:
		return apiResponse(http.StatusMethodNotAllowed, failure("method not allowed")), nil
	}
}

func (h *Ingest) submit(ctx context.Context, req events.APIGatewayProxyRequest) events.APIGatewayProxyResponse {
	var body domain.QuestionRequest
	if err := json.Unmarshal([]byte(req.Body), &body); err != nil {
		return apiResponse(http.StatusBadRequest, failure("invalid JSON body"))
	}

	log.Debug().Interface("request", utils.Redact(map[string]any{"user_id": body.UserID})).Msg("question received")

	summary, err := h.svc.Submit(ctx, body)
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			return apiResponse(http.StatusBadRequest, failure(verr.Error()))
		}
		log.Error().Err(err).Msg("question submission failed")
		return apiResponse(http.StatusInternalServerError, failure(internalErrorMessage))
	}
	return apiResponse(http.StatusOK, succeed(summary))
}

func (h *Ingest) list(ctx context.Context, req events.APIGatewayProxyRequest) events.APIGatewayProxyResponse {
	userID := strings.TrimSpace(req.QueryStringParameters["user_id"])
	limit := utils.Atoi32Default(req.QueryStringParameters["limit"], store.DefaultListLimit)
	nextToken := req.QueryStringParameters["next_token"]

	page, err := h.svc.List(ctx, userID, limit, nextToken)
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			return apiResponse(http.StatusBadRequest, failure(verr.Error()))
		}
		log.Error().Err(err).Str("user_id", userID).Msg("question listing failed")
		return apiResponse(http.StatusInternalServerError, failure(internalErrorMessage))
	}
	return apiResponse(http.StatusOK, succeed(page))
}
