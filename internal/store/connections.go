package store

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rs/zerolog/log"

	"github.com/torolabs/go-qa-backend/internal/domain"
)

// ConnectionStore persists the user -> WebSocket connection mapping. The
// table is keyed by user_id only, so writing a record for a user replaces
// any previous connection (last writer wins).
type ConnectionStore struct {
	client DynamoDBAPI
	table  string
}

// NewConnectionStore returns a ConnectionStore bound to the given table.
func NewConnectionStore(client DynamoDBAPI, table string) *ConnectionStore {
	return &ConnectionStore{client: client, table: table}
}

func connectionKey(userID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"user_id": &types.AttributeValueMemberS{Value: userID},
	}
}

// Put registers (or replaces) the live connection for a user.
func (s *ConnectionStore) Put(ctx context.Context, userID, connectionID string) error {
	item, err := attributevalue.MarshalMap(domain.ConnectionRecord{
		UserID:       userID,
		ConnectionID: connectionID,
	})
	if err != nil {
		return fmt.Errorf("store: marshal connection: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("store: put connection: %w", err)
	}
	return nil
}

// Get returns the live connection id for a user, or ErrConnectionNotFound.
func (s *ConnectionStore) Get(ctx context.Context, userID string) (string, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key:       connectionKey(userID),
	})
	if err != nil {
		return "", fmt.Errorf("store: get connection: %w", err)
	}
	if len(out.Item) == 0 {
		return "", ErrConnectionNotFound
	}

	var rec domain.ConnectionRecord
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return "", fmt.Errorf("store: unmarshal connection: %w", err)
	}
	if rec.ConnectionID == "" {
		return "", ErrConnectionNotFound
	}
	return rec.ConnectionID, nil
}

// Delete removes the connection record for a user. Deleting an absent record
// is not an error.
func (s *ConnectionStore) Delete(ctx context.Context, userID string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.table),
		Key:       connectionKey(userID),
	})
	if err != nil {
		return fmt.Errorf("store: delete connection: %w", err)
	}
	return nil
}

// DeleteByConnection removes every record bound to the given connection id
// and returns the affected user ids. Used on $disconnect, where only the
// connection id is known.
func (s *ConnectionStore) DeleteByConnection(ctx context.Context, connectionID string) ([]string, error) {
	filter := expression.Name("connection_id").Equal(expression.Value(connectionID))
	expr, err := expression.NewBuilder().WithFilter(filter).Build()
	if err != nil {
		return nil, fmt.Errorf("store: build connection scan: %w", err)
	}

	out, err := s.client.Scan(ctx, &dynamodb.ScanInput{
		TableName:                 aws.String(s.table),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return nil, fmt.Errorf("store: scan connections: %w", err)
	}

	var removed []string
	for _, raw := range out.Items {
		var rec domain.ConnectionRecord
		if err := attributevalue.UnmarshalMap(raw, &rec); err != nil {
			return removed, fmt.Errorf("store: unmarshal connection: %w", err)
		}
		if rec.UserID == "" {
			continue
		}
		if err := s.Delete(ctx, rec.UserID); err != nil {
			return removed, err
		}
		removed = append(removed, rec.UserID)
		log.Info().Str("user_id", rec.UserID).Str("connection_id", connectionID).Msg("connection removed")
	}
	return removed, nil
}
