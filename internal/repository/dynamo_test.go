package repository

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medflowai/medflow-api/internal/domain"
)

// fakeDynamo records calls and replays canned responses
type fakeDynamo struct {
	putInput   *dynamodb.PutItemInput
	putErr     error
	getInput   *dynamodb.GetItemInput
	getOutput  *dynamodb.GetItemOutput
	getErr     error
	queryInput *dynamodb.QueryInput
	queryOut   *dynamodb.QueryOutput
	queryErr   error
}

func (f *fakeDynamo) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.putInput = params
	if f.putErr != nil {
		return nil, f.putErr
	}
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.getInput = params
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.getOutput != nil {
		return f.getOutput, nil
	}
	return &dynamodb.GetItemOutput{}, nil
}

func (f *fakeDynamo) Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.queryInput = params
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	if f.queryOut != nil {
		return f.queryOut, nil
	}
	return &dynamodb.QueryOutput{}, nil
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestDynamoStore(fake *fakeDynamo) *DynamoStore {
	return NewDynamoStore(fake, "Predictions", "GSI1", testLogger())
}

func TestDynamoStore_Create(t *testing.T) {
	fake := &fakeDynamo{}
	store := newTestDynamoStore(fake)
	store.newID = func() string { return "pid-1" }
	store.nowMillis = func() int64 { return 1700000000000 }

	record, err := store.Create(context.Background(), "u1", domain.ModelSleep, map[string]any{"age": 30.0}, nil)
	require.NoError(t, err)

	assert.Equal(t, "pid-1", record.PredictionID)
	assert.Equal(t, int64(1700000000000), record.CreatedAt)
	assert.Equal(t, "u1", record.Gsi1pk)
	assert.Equal(t, domain.GSISortKey(domain.ModelSleep, 1700000000000), record.Gsi1sk)
	assert.Equal(t, domain.PlaceholderOutput, record.Output)

	require.NotNil(t, fake.putInput)
	assert.Equal(t, "Predictions", aws.ToString(fake.putInput.TableName))
	assert.Equal(t,
		"attribute_not_exists(userId) AND attribute_not_exists(predictionId)",
		aws.ToString(fake.putInput.ConditionExpression))

	userID, ok := fake.putInput.Item["userId"].(*types.AttributeValueMemberS)
	require.True(t, ok)
	assert.Equal(t, "u1", userID.Value)
}

func TestDynamoStore_Create_Validation(t *testing.T) {
	fake := &fakeDynamo{}
	store := newTestDynamoStore(fake)

	_, err := store.Create(context.Background(), "u1", "", nil, nil)

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"modelType", "input"}, verr.Fields)
	assert.Nil(t, fake.putInput, "validation must fail before any storage call")
}

func TestDynamoStore_Create_Conflict(t *testing.T) {
	fake := &fakeDynamo{putErr: &types.ConditionalCheckFailedException{}}
	store := newTestDynamoStore(fake)

	_, err := store.Create(context.Background(), "u1", domain.ModelSleep, map[string]any{"age": 30.0}, nil)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestDynamoStore_Create_StorageFault(t *testing.T) {
	fake := &fakeDynamo{putErr: errors.New("connection reset")}
	store := newTestDynamoStore(fake)

	_, err := store.Create(context.Background(), "u1", domain.ModelSleep, map[string]any{"age": 30.0}, nil)
	assert.ErrorIs(t, err, domain.ErrStorageUnavailable)
}

func TestDynamoStore_Get(t *testing.T) {
	want := &domain.Prediction{
		UserID:       "u1",
		PredictionID: "pid-1",
		ModelType:    domain.ModelSleep,
		CreatedAt:    1700000000000,
		Input:        map[string]any{"age": 30.0},
		Output:       domain.PlaceholderOutput,
	}
	item, err := attributevalue.MarshalMap(want)
	require.NoError(t, err)

	fake := &fakeDynamo{getOutput: &dynamodb.GetItemOutput{Item: item}}
	store := newTestDynamoStore(fake)

	got, err := store.Get(context.Background(), "u1", "pid-1")
	require.NoError(t, err)
	assert.Equal(t, want.UserID, got.UserID)
	assert.Equal(t, want.PredictionID, got.PredictionID)
	assert.Equal(t, want.Input, got.Input)

	key, ok := fake.getInput.Key["predictionId"].(*types.AttributeValueMemberS)
	require.True(t, ok)
	assert.Equal(t, "pid-1", key.Value)
}

func TestDynamoStore_Get_NotFound(t *testing.T) {
	fake := &fakeDynamo{}
	store := newTestDynamoStore(fake)

	_, err := store.Get(context.Background(), "u1", "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDynamoStore_ListByUser_PrimaryKey(t *testing.T) {
	fake := &fakeDynamo{}
	store := newTestDynamoStore(fake)

	records, err := store.ListByUser(context.Background(), "u1", "", 0)
	require.NoError(t, err)
	assert.Empty(t, records)

	require.NotNil(t, fake.queryInput)
	assert.Nil(t, fake.queryInput.IndexName)
	assert.Equal(t, "userId = :u", aws.ToString(fake.queryInput.KeyConditionExpression))
	assert.False(t, aws.ToBool(fake.queryInput.ScanIndexForward))
	assert.Equal(t, int32(DefaultListLimit), aws.ToInt32(fake.queryInput.Limit))
}

func TestDynamoStore_ListByUser_SecondaryIndex(t *testing.T) {
	record := &domain.Prediction{
		UserID:       "u1",
		PredictionID: "pid-1",
		ModelType:    domain.ModelSleep,
		CreatedAt:    1700000000000,
		Input:        map[string]any{"age": 30.0},
		Output:       domain.PlaceholderOutput,
	}
	item, err := attributevalue.MarshalMap(record)
	require.NoError(t, err)

	fake := &fakeDynamo{queryOut: &dynamodb.QueryOutput{Items: []map[string]types.AttributeValue{item}}}
	store := newTestDynamoStore(fake)

	records, err := store.ListByUser(context.Background(), "u1", domain.ModelSleep, 5)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "pid-1", records[0].PredictionID)

	assert.Equal(t, "GSI1", aws.ToString(fake.queryInput.IndexName))
	assert.Equal(t, "gsi1pk = :u AND begins_with(gsi1sk, :m)", aws.ToString(fake.queryInput.KeyConditionExpression))

	prefix, ok := fake.queryInput.ExpressionAttributeValues[":m"].(*types.AttributeValueMemberS)
	require.True(t, ok)
	assert.Equal(t, "sleep#", prefix.Value)
	assert.Equal(t, int32(5), aws.ToInt32(fake.queryInput.Limit))
}

func TestDynamoStore_ListByUser_StorageFault(t *testing.T) {
	fake := &fakeDynamo{queryErr: errors.New("throttled")}
	store := newTestDynamoStore(fake)

	_, err := store.ListByUser(context.Background(), "u1", "", 0)
	assert.ErrorIs(t, err, domain.ErrStorageUnavailable)
}
