package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/torolabs/go-qa-backend/internal/domain"
	"github.com/torolabs/go-qa-backend/internal/store"
)

// publishedEvent captures one PublishQuestionEvent call.
type publishedEvent struct {
	topic string
	ev    domain.QuestionEvent
}

// fakePublisher records published events and optionally fails. Shared by the
// ingest and process service tests.
type fakePublisher struct {
	calls []publishedEvent
	err   error
}

func (f *fakePublisher) PublishQuestionEvent(_ context.Context, topicARN string, ev domain.QuestionEvent) error {
	f.calls = append(f.calls, publishedEvent{topic: topicARN, ev: ev})
	return f.err
}

type fakeQuestionWriter struct {
	created   *domain.Question
	createErr error
	creates   int

	page    *store.QuestionPage
	listErr error
}

func (f *fakeQuestionWriter) Create(_ context.Context, userID, questionText string) (*domain.Question, error) {
	f.creates++
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = &domain.Question{
		UserID:     userID,
		QuestionID: "q1",
		Question:   questionText,
		Status:     domain.StatusPending,
	}
	return f.created, nil
}

func (f *fakeQuestionWriter) ListByUser(_ context.Context, _ string, _ int32, _ string) (*store.QuestionPage, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.page, nil
}

func TestIngestSubmit(t *testing.T) {
	writer := &fakeQuestionWriter{}
	publisher := &fakePublisher{}
	svc := NewIngestService(writer, publisher, "arn:process")

	summary, err := svc.Submit(context.Background(), domain.QuestionRequest{UserID: "u1", Question: "why?"})
	if err != nil {
		t.Fatalf("Submit() = %v", err)
	}

	if summary.UserID != "u1" || summary.QuestionID != "q1" || summary.Status != domain.StatusPending {
		t.Errorf("summary = %+v", summary)
	}
	if len(publisher.calls) != 1 {
		t.Fatalf("published %d events, want 1", len(publisher.calls))
	}
	got := publisher.calls[0]
	if got.topic != "arn:process" {
		t.Errorf("topic = %q", got.topic)
	}
	want := domain.QuestionEvent{UserID: "u1", QuestionID: "q1", Status: domain.StatusPending}
	if got.ev != want {
		t.Errorf("event = %+v, want %+v", got.ev, want)
	}
}

func TestIngestSubmitInvalidRequest(t *testing.T) {
	writer := &fakeQuestionWriter{}
	publisher := &fakePublisher{}
	svc := NewIngestService(writer, publisher, "arn:process")

	_, err := svc.Submit(context.Background(), domain.QuestionRequest{UserID: "", Question: "why?"})
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Submit() = %v, want *domain.ValidationError", err)
	}
	if writer.creates != 0 || len(publisher.calls) != 0 {
		t.Error("invalid request produced side effects")
	}
}

func TestIngestSubmitCreateFailure(t *testing.T) {
	cause := errors.New("table unavailable")
	writer := &fakeQuestionWriter{createErr: cause}
	publisher := &fakePublisher{}
	svc := NewIngestService(writer, publisher, "arn:process")

	if _, err := svc.Submit(context.Background(), domain.QuestionRequest{UserID: "u1", Question: "why?"}); !errors.Is(err, cause) {
		t.Fatalf("Submit() = %v, want store error", err)
	}
	if len(publisher.calls) != 0 {
		t.Error("event published despite create failure")
	}
}

func TestIngestSubmitPublishFailure(t *testing.T) {
	cause := errors.New("topic gone")
	writer := &fakeQuestionWriter{}
	publisher := &fakePublisher{err: cause}
	svc := NewIngestService(writer, publisher, "arn:process")

	_, err := svc.Submit(context.Background(), domain.QuestionRequest{UserID: "u1", Question: "why?"})
	if !errors.Is(err, cause) {
		t.Fatalf("Submit() = %v, want wrapped publish error", err)
	}
	if !strings.Contains(err.Error(), "saved but not queued") {
		t.Errorf("error %q does not explain the partial write", err)
	}
}

func TestIngestList(t *testing.T) {
	page := &store.QuestionPage{Items: []domain.Question{{QuestionID: "q1"}}}
	svc := NewIngestService(&fakeQuestionWriter{page: page}, &fakePublisher{}, "arn:process")

	got, err := svc.List(context.Background(), "u1", 10, "")
	if err != nil {
		t.Fatalf("List() = %v", err)
	}
	if got != page {
		t.Errorf("page = %+v", got)
	}
}

func TestIngestListMissingUser(t *testing.T) {
	svc := NewIngestService(&fakeQuestionWriter{}, &fakePublisher{}, "arn:process")

	_, err := svc.List(context.Background(), "", 10, "")
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("List() = %v, want *domain.ValidationError", err)
	}
}
