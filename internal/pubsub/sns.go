// Package pubsub publishes the pipeline's events to SNS topics. Delivery is
// at-least-once and unordered; consumers are written to tolerate duplicates.
package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/rs/zerolog/log"

	"github.com/torolabs/go-qa-backend/internal/domain"
)

// SNSAPI is the subset of the SNS client the publisher consumes.
type SNSAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// Publisher sends question events to SNS topics.
type Publisher struct {
	client SNSAPI
}

// NewPublisher returns a Publisher over the given SNS client.
func NewPublisher(client SNSAPI) *Publisher {
	return &Publisher{client: client}
}

// PublishQuestionEvent publishes ev as a JSON message to the given topic.
func (p *Publisher) PublishQuestionEvent(ctx context.Context, topicARN string, ev domain.QuestionEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("pubsub: marshal event: %w", err)
	}

	_, err = p.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(topicARN),
		Message:  aws.String(string(body)),
	})
	if err != nil {
		return fmt.Errorf("pubsub: publish to %s: %w", topicARN, err)
	}

	log.Debug().
		Str("topic", topicARN).
		Str("question_id", ev.QuestionID).
		Str("status", string(ev.Status)).
		Msg("event published")
	return nil
}
