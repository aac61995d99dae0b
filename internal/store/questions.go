package store

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/torolabs/go-qa-backend/internal/domain"
)

// DefaultListLimit is the page size used when the caller does not supply one.
const DefaultListLimit = 20

// DynamoDBAPI is the subset of the DynamoDB client consumed by the stores.
// The concrete *dynamodb.Client satisfies it; tests supply fakes.
type DynamoDBAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// QuestionPage is one page of a user's questions.
type QuestionPage struct {
	Items []domain.Question `json:"items"`
	// NextToken is present iff more results remain.
	NextToken string `json:"next_token,omitempty"`
}

// QuestionStore persists question entities in a single DynamoDB table using
// the composite key USER#{user_id} / QUESTION#{question_id}.
type QuestionStore struct {
	client DynamoDBAPI
	table  string

	// now is a seam for tests; defaults to time.Now.
	now func() time.Time
}

// NewQuestionStore returns a QuestionStore bound to the given table.
func NewQuestionStore(client DynamoDBAPI, table string) *QuestionStore {
	return &QuestionStore{client: client, table: table, now: time.Now}
}

// timestamp returns the current time as an ISO-8601 UTC string.
func (s *QuestionStore) timestamp() string {
	return s.now().UTC().Format(time.RFC3339Nano)
}

func questionKey(userID, questionID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: domain.PartitionKey(userID)},
		"SK": &types.AttributeValueMemberS{Value: domain.SortKey(questionID)},
	}
}

// Create writes a new question entity with a freshly generated id and status
// pending. The put is unconditional: the key cannot collide because the id
// is generated here.
func (s *QuestionStore) Create(ctx context.Context, userID, questionText string) (*domain.Question, error) {
	ts := s.timestamp()
	id := uuid.NewString()
	q := &domain.Question{
		PK:         domain.PartitionKey(userID),
		SK:         domain.SortKey(id),
		UserID:     userID,
		QuestionID: id,
		Question:   questionText,
		Status:     domain.StatusPending,
		CreatedAt:  ts,
		UpdatedAt:  ts,
	}

	item, err := attributevalue.MarshalMap(q)
	if err != nil {
		return nil, fmt.Errorf("store: marshal question: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	})
	if err != nil {
		return nil, fmt.Errorf("store: put question: %w", err)
	}

	log.Info().Str("user_id", userID).Str("question_id", q.QuestionID).Msg("question saved")
	return q, nil
}

// Get returns the question for (userID, questionID), or ErrQuestionNotFound.
func (s *QuestionStore) Get(ctx context.Context, userID, questionID string) (*domain.Question, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key:       questionKey(userID, questionID),
	})
	if err != nil {
		return nil, fmt.Errorf("store: get question: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, ErrQuestionNotFound
	}

	var q domain.Question
	if err := attributevalue.UnmarshalMap(out.Item, &q); err != nil {
		return nil, fmt.Errorf("store: unmarshal question: %w", err)
	}
	return &q, nil
}

// UpdateStatus performs a narrow update of status and updated_at only and
// returns the updated entity.
func (s *QuestionStore) UpdateStatus(ctx context.Context, userID, questionID string, status domain.Status) (*domain.Question, error) {
	upd := expression.
		Set(expression.Name("status"), expression.Value(status)).
		Set(expression.Name("updated_at"), expression.Value(s.timestamp()))
	expr, err := expression.NewBuilder().WithUpdate(upd).Build()
	if err != nil {
		return nil, fmt.Errorf("store: build status update: %w", err)
	}
	return s.updateItem(ctx, userID, questionID, expr)
}

// BeginProcessing transitions a pending question to processing, stamping
// processing_started_at. The transition is conditional on the current status
// still being pending, which makes redelivered process-events safe: a second
// delivery observes ErrStatusConflict instead of re-running the flow.
func (s *QuestionStore) BeginProcessing(ctx context.Context, userID, questionID string) (*domain.Question, error) {
	ts := s.timestamp()
	upd := expression.
		Set(expression.Name("status"), expression.Value(domain.StatusProcessing)).
		Set(expression.Name("processing_started_at"), expression.Value(ts)).
		Set(expression.Name("updated_at"), expression.Value(ts))
	cond := expression.Name("status").Equal(expression.Value(domain.StatusPending))

	expr, err := expression.NewBuilder().WithUpdate(upd).WithCondition(cond).Build()
	if err != nil {
		return nil, fmt.Errorf("store: build processing update: %w", err)
	}

	out, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.table),
		Key:                       questionKey(userID, questionID),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		var cce *types.ConditionalCheckFailedException
		if errors.As(err, &cce) {
			return nil, ErrStatusConflict
		}
		return nil, fmt.Errorf("store: begin processing: %w", err)
	}

	var q domain.Question
	if err := attributevalue.UnmarshalMap(out.Attributes, &q); err != nil {
		return nil, fmt.Errorf("store: unmarshal question: %w", err)
	}
	return &q, nil
}

// UpdateFields applies a partial update built dynamically from the supplied
// field set and always refreshes updated_at. Field names are written as-is;
// callers are responsible for supplying legal attribute names. An empty
// field set is rejected with ErrNoFields.
func (s *QuestionStore) UpdateFields(ctx context.Context, userID, questionID string, fields map[string]any) (*domain.Question, error) {
	if len(fields) == 0 {
		return nil, ErrNoFields
	}

	upd := expression.Set(expression.Name("updated_at"), expression.Value(s.timestamp()))
	for name, value := range fields {
		upd = upd.Set(expression.Name(name), expression.Value(value))
	}
	expr, err := expression.NewBuilder().WithUpdate(upd).Build()
	if err != nil {
		return nil, fmt.Errorf("store: build field update: %w", err)
	}
	return s.updateItem(ctx, userID, questionID, expr)
}

func (s *QuestionStore) updateItem(ctx context.Context, userID, questionID string, expr expression.Expression) (*domain.Question, error) {
	out, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.table),
		Key:                       questionKey(userID, questionID),
		UpdateExpression:          expr.Update(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		return nil, fmt.Errorf("store: update question: %w", err)
	}

	var q domain.Question
	if err := attributevalue.UnmarshalMap(out.Attributes, &q); err != nil {
		return nil, fmt.Errorf("store: unmarshal question: %w", err)
	}
	return &q, nil
}

// ListByUser returns one page of the user's questions, newest key order as
// stored. nextToken is the opaque continuation token from a previous page;
// pass the empty string for the first page.
func (s *QuestionStore) ListByUser(ctx context.Context, userID string, limit int32, nextToken string) (*QuestionPage, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	kc := expression.Key("PK").Equal(expression.Value(domain.PartitionKey(userID)))
	expr, err := expression.NewBuilder().WithKeyCondition(kc).Build()
	if err != nil {
		return nil, fmt.Errorf("store: build list query: %w", err)
	}

	in := &dynamodb.QueryInput{
		TableName:                 aws.String(s.table),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		Limit:                     aws.Int32(limit),
	}
	if nextToken != "" {
		start, err := decodePageToken(nextToken)
		if err != nil {
			return nil, err
		}
		in.ExclusiveStartKey = start
	}

	out, err := s.client.Query(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("store: list questions: %w", err)
	}

	items := make([]domain.Question, 0, len(out.Items))
	for _, raw := range out.Items {
		var q domain.Question
		if err := attributevalue.UnmarshalMap(raw, &q); err != nil {
			return nil, fmt.Errorf("store: unmarshal question: %w", err)
		}
		items = append(items, q)
	}

	page := &QuestionPage{Items: items}
	if len(out.LastEvaluatedKey) > 0 {
		token, err := encodePageToken(out.LastEvaluatedKey)
		if err != nil {
			return nil, err
		}
		page.NextToken = token
	}
	return page, nil
}

// encodePageToken turns a DynamoDB evaluated key into an opaque token the
// client can echo back. Both key attributes are plain strings.
func encodePageToken(key map[string]types.AttributeValue) (string, error) {
	var plain map[string]string
	if err := attributevalue.UnmarshalMap(key, &plain); err != nil {
		return "", fmt.Errorf("store: encode page token: %w", err)
	}
	raw, err := json.Marshal(plain)
	if err != nil {
		return "", fmt.Errorf("store: encode page token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

func decodePageToken(token string) (map[string]types.AttributeValue, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, &domain.ValidationError{Field: "next_token", Reason: "malformed pagination token"}
	}
	var plain map[string]string
	if err := json.Unmarshal(raw, &plain); err != nil {
		return nil, &domain.ValidationError{Field: "next_token", Reason: "malformed pagination token"}
	}
	key, err := attributevalue.MarshalMap(plain)
	if err != nil {
		return nil, fmt.Errorf("store: decode page token: %w", err)
	}
	return key, nil
}
