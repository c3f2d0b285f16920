// Package storage implements the document store over DynamoDB.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/BassettUNC/GolfCloud/models"
)

var (
	// ErrUserNotFound is returned when a requested user document does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrDrillNotFound is returned when a requested drill document does not exist.
	ErrDrillNotFound = errors.New("drill not found")
)

// transactLimit is the DynamoDB cap on items per TransactWriteItems call.
// Each chunk of that size commits all-or-nothing.
const transactLimit = 100

// Tables holds the table and index names the store operates on.
type Tables struct {
	Users              string
	Activity           string
	PerformanceRecords string
	Drills             string
	// ScoreIndex is the GSI on performanceRecords keyed by did with
	// score as the sort key.
	ScoreIndex string
}

// DynamoDBAPI is the subset of the DynamoDB client the store uses.
type DynamoDBAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

// DynamoStore reads and writes the engine's documents.
type DynamoStore struct {
	client DynamoDBAPI
	tables Tables
}

func NewDynamoStore(client DynamoDBAPI, tables Tables) *DynamoStore {
	return &DynamoStore{
		client: client,
		tables: tables,
	}
}

// ListUsers returns every user document.
func (s *DynamoStore) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.scanUsers(ctx, nil)
}

// QueryUsersByType returns users whose userType is one of the given groups.
func (s *DynamoStore) QueryUsersByType(ctx context.Context, groups []string) ([]models.User, error) {
	if len(groups) == 0 {
		return nil, nil
	}

	operands := make([]expression.OperandBuilder, 0, len(groups))
	for _, group := range groups {
		operands = append(operands, expression.Value(group))
	}
	expr, err := expression.NewBuilder().
		WithFilter(expression.Name("userType").In(operands[0], operands[1:]...)).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build userType filter: %w", err)
	}

	return s.scanUsers(ctx, &expr)
}

// GetUser fetches one user by id.
func (s *DynamoStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tables.Users),
		Key:       idKey(id),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get user %s: %w", id, err)
	}
	if len(out.Item) == 0 {
		return nil, ErrUserNotFound
	}

	var user models.User
	if err := attributevalue.UnmarshalMap(out.Item, &user); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user %s: %w", id, err)
	}
	return &user, nil
}

// GetDrill fetches one drill by id.
func (s *DynamoStore) GetDrill(ctx context.Context, id string) (*models.Drill, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tables.Drills),
		Key:       idKey(id),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get drill %s: %w", id, err)
	}
	if len(out.Item) == 0 {
		return nil, ErrDrillNotFound
	}

	var drill models.Drill
	if err := attributevalue.UnmarshalMap(out.Item, &drill); err != nil {
		return nil, fmt.Errorf("failed to unmarshal drill %s: %w", id, err)
	}
	return &drill, nil
}

// CountPerformanceRecords counts how many records exist for a drill.
func (s *DynamoStore) CountPerformanceRecords(ctx context.Context, did string) (int, error) {
	expr, err := expression.NewBuilder().
		WithKeyCondition(expression.Key("did").Equal(expression.Value(did))).
		Build()
	if err != nil {
		return 0, fmt.Errorf("failed to build did key condition: %w", err)
	}

	total := 0
	var startKey map[string]types.AttributeValue
	for {
		out, err := s.client.Query(ctx, &dynamodb.QueryInput{
			TableName:                 aws.String(s.tables.PerformanceRecords),
			IndexName:                 aws.String(s.tables.ScoreIndex),
			KeyConditionExpression:    expr.KeyCondition(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			Select:                    types.SelectCount,
			ExclusiveStartKey:         startKey,
		})
		if err != nil {
			return 0, fmt.Errorf("failed to count performance records for drill %s: %w", did, err)
		}
		total += int(out.Count)
		if out.LastEvaluatedKey == nil {
			return total, nil
		}
		startKey = out.LastEvaluatedKey
	}
}

// LowestScores returns up to limit records for a drill ordered by score
// ascending, i.e. best first.
func (s *DynamoStore) LowestScores(ctx context.Context, did string, limit int) ([]models.PerformanceRecord, error) {
	expr, err := expression.NewBuilder().
		WithKeyCondition(expression.Key("did").Equal(expression.Value(did))).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build did key condition: %w", err)
	}

	out, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(s.tables.PerformanceRecords),
		IndexName:                 aws.String(s.tables.ScoreIndex),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(true),
		Limit:                     aws.Int32(int32(limit)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query lowest scores for drill %s: %w", did, err)
	}

	records := make([]models.PerformanceRecord, 0, len(out.Items))
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &records); err != nil {
		return nil, fmt.Errorf("failed to unmarshal performance records: %w", err)
	}
	return records, nil
}

// IncrementBadges adds 1 to badgeCount for every given user in
// transactional chunks. ADD is a server-side atomic increment, so
// concurrent events on the same user compose instead of clobbering.
func (s *DynamoStore) IncrementBadges(ctx context.Context, userIDs []string) error {
	for start := 0; start < len(userIDs); start += transactLimit {
		end := start + transactLimit
		if end > len(userIDs) {
			end = len(userIDs)
		}

		items := make([]types.TransactWriteItem, 0, end-start)
		for _, id := range userIDs[start:end] {
			items = append(items, types.TransactWriteItem{
				Update: &types.Update{
					TableName:        aws.String(s.tables.Users),
					Key:              idKey(id),
					UpdateExpression: aws.String("ADD badgeCount :one"),
					ExpressionAttributeValues: map[string]types.AttributeValue{
						":one": &types.AttributeValueMemberN{Value: "1"},
					},
				},
			})
		}

		if _, err := s.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
			TransactItems: items,
		}); err != nil {
			return fmt.Errorf("failed to commit badge increment batch: %w", err)
		}
	}
	return nil
}

// CreateActivity stores a new activity document, assigning an id when the
// caller left it empty.
func (s *DynamoStore) CreateActivity(ctx context.Context, activity *models.Activity) (string, error) {
	if activity.ID == "" {
		activity.ID = uuid.NewString()
	}

	item, err := attributevalue.MarshalMap(activity)
	if err != nil {
		return "", fmt.Errorf("failed to marshal activity: %w", err)
	}
	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tables.Activity),
		Item:      item,
	}); err != nil {
		return "", fmt.Errorf("failed to create activity: %w", err)
	}
	return activity.ID, nil
}

// scanUsers pages through the users table, optionally with a filter.
func (s *DynamoStore) scanUsers(ctx context.Context, expr *expression.Expression) ([]models.User, error) {
	var users []models.User
	var startKey map[string]types.AttributeValue
	for {
		input := &dynamodb.ScanInput{
			TableName:         aws.String(s.tables.Users),
			ExclusiveStartKey: startKey,
		}
		if expr != nil {
			input.FilterExpression = expr.Filter()
			input.ExpressionAttributeNames = expr.Names()
			input.ExpressionAttributeValues = expr.Values()
		}

		out, err := s.client.Scan(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to scan users: %w", err)
		}

		var page []models.User
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, fmt.Errorf("failed to unmarshal users: %w", err)
		}
		users = append(users, page...)

		if out.LastEvaluatedKey == nil {
			return users, nil
		}
		startKey = out.LastEvaluatedKey
	}
}

func idKey(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"id": &types.AttributeValueMemberS{Value: id},
	}
}
