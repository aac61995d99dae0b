package domain

import (
	"encoding/json"
	"strings"
)

// QuestionEvent is the message exchanged between handlers over SNS. The
// ingest handler publishes it to trigger processing; the process handler
// publishes it again to trigger notification.
type QuestionEvent struct {
	UserID     string `json:"user_id"`
	QuestionID string `json:"question_id"`
	Status     Status `json:"status,omitempty"`
}

// Validate checks that the event identifies a question. Status is optional
// here; consumers that require it (the notify flow) enforce that themselves.
func (e *QuestionEvent) Validate() error {
	e.UserID = strings.TrimSpace(e.UserID)
	e.QuestionID = strings.TrimSpace(e.QuestionID)

	if e.UserID == "" || e.QuestionID == "" {
		return &ValidationError{Reason: "user_id and question_id are mandatory"}
	}
	if e.Status != "" && !e.Status.Valid() {
		return &ValidationError{Field: "status", Reason: "unknown status value"}
	}
	return nil
}

// snsEnvelope is the subset of an SNS-delivered Lambda event needed to
// unwrap the inner message.
type snsEnvelope struct {
	Records []struct {
		EventSource string `json:"EventSource"`
		SNS         struct {
			Message string `json:"Message"`
		} `json:"Sns"`
	} `json:"Records"`
}

// DecodeQuestionEvent decodes a raw Lambda payload into a QuestionEvent.
//
// Two payload variants are accepted: an SNS envelope carrying the event as a
// JSON string in Records[0].Sns.Message, or the bare event object itself
// (direct invocation, tests). The variant is decided once here so every
// consumer works with a strongly typed event.
func DecodeQuestionEvent(data []byte) (QuestionEvent, error) {
	var env snsEnvelope
	if err := json.Unmarshal(data, &env); err == nil && len(env.Records) > 0 && env.Records[0].EventSource == "aws:sns" {
		var ev QuestionEvent
		if err := json.Unmarshal([]byte(env.Records[0].SNS.Message), &ev); err != nil {
			return QuestionEvent{}, &ValidationError{Reason: "malformed event message: " + err.Error()}
		}
		return ev, ev.Validate()
	}

	var ev QuestionEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return QuestionEvent{}, &ValidationError{Reason: "malformed event payload: " + err.Error()}
	}
	return ev, ev.Validate()
}
