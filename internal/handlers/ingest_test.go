package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"

	"github.com/torolabs/go-qa-backend/internal/domain"
	"github.com/torolabs/go-qa-backend/internal/store"
)

type fakeIngestService struct {
	summary   *domain.QuestionSummary
	submitErr error
	submitted *domain.QuestionRequest

	page    *store.QuestionPage
	listErr error

	listUser  string
	listLimit int32
	listToken string
}

func (f *fakeIngestService) Submit(_ context.Context, req domain.QuestionRequest) (*domain.QuestionSummary, error) {
	f.submitted = &req
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	return f.summary, nil
}

func (f *fakeIngestService) List(_ context.Context, userID string, limit int32, nextToken string) (*store.QuestionPage, error) {
	f.listUser, f.listLimit, f.listToken = userID, limit, nextToken
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.page, nil
}

func decodeEnvelope(t *testing.T, body string) Response {
	t.Helper()
	var resp Response
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		t.Fatalf("body is not an envelope: %v\n%s", err, body)
	}
	return resp
}

func checkCORS(t *testing.T, headers map[string]string) {
	t.Helper()
	if headers["Content-Type"] != "application/json" {
		t.Errorf("Content-Type = %q", headers["Content-Type"])
	}
	if headers["Access-Control-Allow-Origin"] != "*" {
		t.Errorf("Allow-Origin = %q", headers["Access-Control-Allow-Origin"])
	}
	if headers["Access-Control-Allow-Credentials"] != "true" {
		t.Errorf("Allow-Credentials = %q", headers["Access-Control-Allow-Credentials"])
	}
}

func TestIngestSubmitRequest(t *testing.T) {
	svc := &fakeIngestService{summary: &domain.QuestionSummary{
		UserID: "u1", QuestionID: "q1", Status: domain.StatusPending,
	}}
	h := NewIngest(svc)

	resp, err := h.Handle(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodPost,
		Body:       `{"user_id":"u1","question":"what is x?"}`,
	})
	if err != nil {
		t.Fatalf("Handle() = %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
	checkCORS(t, resp.Headers)

	env := decodeEnvelope(t, resp.Body)
	if !env.Success || env.Error != "" {
		t.Errorf("envelope = %+v", env)
	}
	data, _ := env.Data.(map[string]any)
	if data["question_id"] != "q1" || data["status"] != "pending" {
		t.Errorf("data = %v", env.Data)
	}

	if svc.submitted == nil || svc.submitted.Question != "what is x?" {
		t.Errorf("service received %+v", svc.submitted)
	}
}

func TestIngestSubmitBadJSON(t *testing.T) {
	h := NewIngest(&fakeIngestService{})

	resp, err := h.Handle(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodPost,
		Body:       `{not json`,
	})
	if err != nil {
		t.Fatalf("Handle() = %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d", resp.StatusCode)
	}
	env := decodeEnvelope(t, resp.Body)
	if env.Success || env.Error != "invalid JSON body" {
		t.Errorf("envelope = %+v", env)
	}
}

func TestIngestSubmitValidationError(t *testing.T) {
	svc := &fakeIngestService{submitErr: &domain.ValidationError{Field: "question", Reason: "cannot be an empty string"}}
	h := NewIngest(svc)

	resp, err := h.Handle(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodPost,
		Body:       `{"user_id":"u1","question":""}`,
	})
	if err != nil {
		t.Fatalf("Handle() = %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d", resp.StatusCode)
	}
	env := decodeEnvelope(t, resp.Body)
	if env.Error != "question: cannot be an empty string" {
		t.Errorf("error = %q", env.Error)
	}
}

func TestIngestSubmitInternalError(t *testing.T) {
	svc := &fakeIngestService{submitErr: errors.New("dynamodb: connection refused to 10.0.0.7")}
	h := NewIngest(svc)

	resp, err := h.Handle(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodPost,
		Body:       `{"user_id":"u1","question":"q"}`,
	})
	if err != nil {
		t.Fatalf("Handle() = %v", err)
	}
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d", resp.StatusCode)
	}
	env := decodeEnvelope(t, resp.Body)
	// Internal detail must never leak to the caller.
	if env.Error != internalErrorMessage {
		t.Errorf("error = %q", env.Error)
	}
}

func TestIngestListRequest(t *testing.T) {
	svc := &fakeIngestService{page: &store.QuestionPage{
		Items:     []domain.Question{{UserID: "u1", QuestionID: "q1", Status: domain.StatusCompleted}},
		NextToken: "tok",
	}}
	h := NewIngest(svc)

	resp, err := h.Handle(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodGet,
		QueryStringParameters: map[string]string{
			"user_id":    " u1 ",
			"limit":      "5",
			"next_token": "prev",
		},
	})
	if err != nil {
		t.Fatalf("Handle() = %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
	if svc.listUser != "u1" || svc.listLimit != 5 || svc.listToken != "prev" {
		t.Errorf("service received (%q, %d, %q)", svc.listUser, svc.listLimit, svc.listToken)
	}

	env := decodeEnvelope(t, resp.Body)
	data, _ := env.Data.(map[string]any)
	if data["next_token"] != "tok" {
		t.Errorf("data = %v", env.Data)
	}
}

func TestIngestListDefaultsLimit(t *testing.T) {
	svc := &fakeIngestService{page: &store.QuestionPage{}}
	h := NewIngest(svc)

	if _, err := h.Handle(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod:            http.MethodGet,
		QueryStringParameters: map[string]string{"user_id": "u1"},
	}); err != nil {
		t.Fatalf("Handle() = %v", err)
	}
	if svc.listLimit != store.DefaultListLimit {
		t.Errorf("limit = %d, want default", svc.listLimit)
	}
}

func TestIngestListValidationError(t *testing.T) {
	svc := &fakeIngestService{listErr: &domain.ValidationError{Field: "user_id", Reason: "cannot be an empty string"}}
	h := NewIngest(svc)

	resp, err := h.Handle(context.Background(), events.APIGatewayProxyRequest{HTTPMethod: http.MethodGet})
	if err != nil {
		t.Fatalf("Handle() = %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

func TestIngestMethodNotAllowed(t *testing.T) {
	h := NewIngest(&fakeIngestService{})

	resp, err := h.Handle(context.Background(), events.APIGatewayProxyRequest{HTTPMethod: http.MethodDelete})
	if err != nil {
		t.Fatalf("Handle() = %v", err)
	}
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status = %d", resp.StatusCode)
	}
	env := decodeEnvelope(t, resp.Body)
	if env.Error != "method not allowed" {
		t.Errorf("error = %q", env.Error)
	}
}
