// Package database constructs the DynamoDB client backing the
// prediction store and, for local development, bootstraps the table.
package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/sirupsen/logrus"

	"github.com/medflowai/medflow-api/internal/domain"
)

const dynamoTableWaitTimeout = 2 * time.Minute

// NewDynamoClient creates a DynamoDB client from the default AWS
// credential chain. A non-empty Endpoint overrides the SDK endpoint,
// which is how local DynamoDB is wired in.
func NewDynamoClient(ctx context.Context, cfg domain.DynamoDBConfig, logger *logrus.Logger) (*dynamodb.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	opts := dynamodb.Options{
		Region:      awsCfg.Region,
		Credentials: awsCfg.Credentials,
		HTTPClient:  awsCfg.HTTPClient,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}

	client := dynamodb.New(opts)

	logger.WithFields(logrus.Fields{
		"table":    cfg.TableName,
		"region":   cfg.Region,
		"endpoint": cfg.Endpoint,
	}).Info("DynamoDB client created")

	return client, nil
}

// EnsureTable creates the prediction table and its secondary index if
// they do not exist. Intended for local development and tests only;
// production tables are provisioned outside the application.
func EnsureTable(ctx context.Context, client *dynamodb.Client, cfg domain.DynamoDBConfig, logger *logrus.Logger) error {
	_, err := client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(cfg.TableName),
	})
	if err == nil {
		return nil
	}

	var notFound *types.ResourceNotFoundException
	if !errors.As(err, &notFound) {
		return fmt.Errorf("describing table %s: %w", cfg.TableName, err)
	}

	_, err = client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(cfg.TableName),
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String("userId"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String("predictionId"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String("gsi1pk"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String("gsi1sk"), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("userId"), KeyType: types.KeyTypeHash},
			{AttributeName: aws.String("predictionId"), KeyType: types.KeyTypeRange},
		},
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
			{
				IndexName: aws.String(cfg.IndexName),
				KeySchema: []types.KeySchemaElement{
					{AttributeName: aws.String("gsi1pk"), KeyType: types.KeyTypeHash},
					{AttributeName: aws.String("gsi1sk"), KeyType: types.KeyTypeRange},
				},
				Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
			},
		},
		BillingMode: types.BillingModePayPerRequest,
	})
	if err != nil {
		return fmt.Errorf("creating table %s: %w", cfg.TableName, err)
	}

	waiter := dynamodb.NewTableExistsWaiter(client)
	if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(cfg.TableName),
	}, dynamoTableWaitTimeout); err != nil {
		return fmt.Errorf("waiting for table %s: %w", cfg.TableName, err)
	}

	logger.WithField("table", cfg.TableName).Info("DynamoDB table created")
	return nil
}
