package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/medflowai/medflow-api/internal/domain"
)

// DynamoAPI is the slice of the DynamoDB client the store uses.
// *dynamodb.Client satisfies it; tests substitute a fake.
type DynamoAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// DynamoStore persists prediction records in a DynamoDB table keyed by
// userId (hash) and predictionId (range), with a secondary index over
// gsi1pk/gsi1sk for per-model-type listing.
type DynamoStore struct {
	client    DynamoAPI
	table     string
	index     string
	log       *logrus.Logger
	newID     func() string
	nowMillis func() int64
}

// NewDynamoStore creates a DynamoDB-backed prediction store
func NewDynamoStore(client DynamoAPI, table, index string, logger *logrus.Logger) *DynamoStore {
	return &DynamoStore{
		client:    client,
		table:     table,
		index:     index,
		log:       logger,
		newID:     uuid.NewString,
		nowMillis: func() int64 { return time.Now().UnixMilli() },
	}
}

// Create inserts a new prediction record. The conditional expression
// rejects an existing (userId, predictionId) pair so a collision fails
// with domain.ErrConflict instead of overwriting.
func (s *DynamoStore) Create(ctx context.Context, userID string, modelType domain.ModelType, input map[string]any, output any) (*domain.Prediction, error) {
	if err := validateCreate(userID, modelType, input); err != nil {
		return nil, err
	}

	if output == nil {
		output = domain.PlaceholderOutput
	}

	createdAt := s.nowMillis()
	record := &domain.Prediction{
		UserID:       userID,
		PredictionID: s.newID(),
		ModelType:    modelType,
		CreatedAt:    createdAt,
		Gsi1pk:       userID,
		Gsi1sk:       domain.GSISortKey(modelType, createdAt),
		Input:        input,
		Output:       output,
	}

	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return nil, fmt.Errorf("marshaling prediction: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.table),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(userId) AND attribute_not_exists(predictionId)"),
	})
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			s.log.WithFields(logrus.Fields{
				"user_id":       userID,
				"prediction_id": record.PredictionID,
			}).Warn("Duplicate prediction id detected")
			return nil, fmt.Errorf("creating prediction: %w", domain.ErrConflict)
		}
		s.log.WithFields(logrus.Fields{
			"user_id":    userID,
			"model_type": modelType,
			"error":      err,
		}).Error("Failed to create prediction")
		return nil, fmt.Errorf("creating prediction: %w", domain.ErrStorageUnavailable)
	}

	s.log.WithFields(logrus.Fields{
		"user_id":       userID,
		"prediction_id": record.PredictionID,
		"model_type":    modelType,
	}).Info("Prediction created")

	return record, nil
}

// ListByUser queries records newest first. With a model type it goes
// through the secondary index using a begins_with prefix on the
// composite sort key; otherwise it queries the primary key directly.
func (s *DynamoStore) ListByUser(ctx context.Context, userID string, modelType domain.ModelType, limit int) ([]*domain.Prediction, error) {
	if userID == "" {
		return nil, domain.NewValidationError("userId")
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}

	query := &dynamodb.QueryInput{
		TableName:              aws.String(s.table),
		KeyConditionExpression: aws.String("userId = :u"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":u": &types.AttributeValueMemberS{Value: userID},
		},
		ScanIndexForward: aws.Bool(false), // newest first
		Limit:            aws.Int32(int32(limit)),
	}
	if modelType != "" {
		query.IndexName = aws.String(s.index)
		query.KeyConditionExpression = aws.String("gsi1pk = :u AND begins_with(gsi1sk, :m)")
		query.ExpressionAttributeValues[":m"] = &types.AttributeValueMemberS{Value: domain.GSIPrefix(modelType)}
	}

	out, err := s.client.Query(ctx, query)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"user_id":    userID,
			"model_type": modelType,
			"error":      err,
		}).Error("Failed to list predictions")
		return nil, fmt.Errorf("listing predictions: %w", domain.ErrStorageUnavailable)
	}

	records := make([]*domain.Prediction, 0, len(out.Items))
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &records); err != nil {
		return nil, fmt.Errorf("unmarshaling predictions: %w", err)
	}

	return records, nil
}

// Get performs a point lookup by the exact primary key pair
func (s *DynamoStore) Get(ctx context.Context, userID, predictionID string) (*domain.Prediction, error) {
	var missing []string
	if userID == "" {
		missing = append(missing, "userId")
	}
	if predictionID == "" {
		missing = append(missing, "predictionId")
	}
	if len(missing) > 0 {
		return nil, domain.NewValidationError(missing...)
	}

	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			"userId":       &types.AttributeValueMemberS{Value: userID},
			"predictionId": &types.AttributeValueMemberS{Value: predictionID},
		},
	})
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"user_id":       userID,
			"prediction_id": predictionID,
			"error":         err,
		}).Error("Failed to get prediction")
		return nil, fmt.Errorf("getting prediction: %w", domain.ErrStorageUnavailable)
	}

	if out.Item == nil {
		return nil, fmt.Errorf("prediction %s/%s: %w", userID, predictionID, domain.ErrNotFound)
	}

	record := &domain.Prediction{}
	if err := attributevalue.UnmarshalMap(out.Item, record); err != nil {
		return nil, fmt.Errorf("unmarshaling prediction: %w", err)
	}

	return record, nil
}
