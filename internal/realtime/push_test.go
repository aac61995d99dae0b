package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi"
	"github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi/types"
	"github.com/aws/smithy-go"

	"github.com/torolabs/go-qa-backend/internal/domain"
)

type fakeManagement struct {
	in  *apigatewaymanagementapi.PostToConnectionInput
	err error
}

func (f *fakeManagement) PostToConnection(_ context.Context, in *apigatewaymanagementapi.PostToConnectionInput, _ ...func(*apigatewaymanagementapi.Options)) (*apigatewaymanagementapi.PostToConnectionOutput, error) {
	f.in = in
	if f.err != nil {
		return nil, f.err
	}
	return &apigatewaymanagementapi.PostToConnectionOutput{}, nil
}

func TestPost(t *testing.T) {
	fake := &fakeManagement{}
	p := NewPusher(fake)

	payload := StatusPayload{Type: "question_update", QuestionID: "q1", Status: domain.StatusCompleted, Answer: "hi"}
	if err := p.Post(context.Background(), "conn-1", payload); err != nil {
		t.Fatalf("Post() = %v", err)
	}

	if *fake.in.ConnectionId != "conn-1" {
		t.Errorf("connection id = %q", *fake.in.ConnectionId)
	}
	var decoded StatusPayload
	if err := json.Unmarshal(fake.in.Data, &decoded); err != nil {
		t.Fatalf("data is not JSON: %v", err)
	}
	if decoded.Answer != "hi" || decoded.Status != domain.StatusCompleted {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestPostError(t *testing.T) {
	cause := errors.New("boom")
	p := NewPusher(&fakeManagement{err: cause})

	if err := p.Post(context.Background(), "conn-1", StatusPayload{}); !errors.Is(err, cause) {
		t.Fatalf("Post() = %v, want wrapped cause", err)
	}
}

func TestIsGone(t *testing.T) {
	if !IsGone(&types.GoneException{}) {
		t.Error("typed GoneException not detected")
	}
	if !IsGone(fmt.Errorf("post: %w", &types.GoneException{})) {
		t.Error("wrapped GoneException not detected")
	}
	if !IsGone(&smithy.GenericAPIError{Code: "GoneException"}) {
		t.Error("generic GoneException code not detected")
	}
	if IsGone(&smithy.GenericAPIError{Code: "ForbiddenException"}) {
		t.Error("unrelated API error detected as gone")
	}
	if IsGone(errors.New("plain error")) {
		t.Error("plain error detected as gone")
	}
	if IsGone(nil) {
		t.Error("nil detected as gone")
	}
}
