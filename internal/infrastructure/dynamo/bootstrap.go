package dynamo

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-api-ledger/internal/config"
)

// Bootstrap creates the ledger tables and their GSIs if they don't already
// exist. Existing tables are left untouched.
func Bootstrap(ctx context.Context, client *dynamodb.Client, tables config.DynamoTables) {
	for _, in := range tableDefinitions(tables) {
		createTable(ctx, client, in)
	}
	enableTTL(ctx, client, tables.RefreshTokens, fieldExpiresAt)
}

func tableDefinitions(tables config.DynamoTables) []*dynamodb.CreateTableInput {
	return []*dynamodb.CreateTableInput{
		{
			TableName:   aws.String(tables.Users),
			BillingMode: types.BillingModePayPerRequest,
			AttributeDefinitions: []types.AttributeDefinition{
				strAttr(fieldUserID),
				strAttr(fieldEmail),
			},
			KeySchema:              []types.KeySchemaElement{hashKey(fieldUserID)},
			GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{gsi(indexEmail, fieldEmail)},
		},
		{
			TableName:   aws.String(tables.Accounts),
			BillingMode: types.BillingModePayPerRequest,
			AttributeDefinitions: []types.AttributeDefinition{
				strAttr(fieldAccountID),
				strAttr(fieldUserID),
			},
			KeySchema:              []types.KeySchemaElement{hashKey(fieldAccountID)},
			GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{gsi(indexUserID, fieldUserID)},
		},
		{
			TableName:   aws.String(tables.Transactions),
			BillingMode: types.BillingModePayPerRequest,
			AttributeDefinitions: []types.AttributeDefinition{
				strAttr(fieldAccountID),
				{AttributeName: aws.String(fieldTimestamp), AttributeType: types.ScalarAttributeTypeN},
			},
			KeySchema: []types.KeySchemaElement{
				hashKey(fieldAccountID),
				{AttributeName: aws.String(fieldTimestamp), KeyType: types.KeyTypeRange},
			},
		},
		{
			TableName:   aws.String(tables.RefreshTokens),
			BillingMode: types.BillingModePayPerRequest,
			AttributeDefinitions: []types.AttributeDefinition{
				strAttr(fieldToken),
				strAttr(fieldUserID),
			},
			KeySchema:              []types.KeySchemaElement{hashKey(fieldToken)},
			GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{gsi(indexUserID, fieldUserID)},
		},
	}
}

func strAttr(name string) types.AttributeDefinition {
	return types.AttributeDefinition{AttributeName: aws.String(name), AttributeType: types.ScalarAttributeTypeS}
}

func hashKey(name string) types.KeySchemaElement {
	return types.KeySchemaElement{AttributeName: aws.String(name), KeyType: types.KeyTypeHash}
}

// gsi builds a hash-only GSI projecting all attributes.
func gsi(indexName, hashAttr string) types.GlobalSecondaryIndex {
	return types.GlobalSecondaryIndex{
		IndexName:  aws.String(indexName),
		KeySchema:  []types.KeySchemaElement{hashKey(hashAttr)},
		Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
	}
}

func createTable(ctx context.Context, client *dynamodb.Client, input *dynamodb.CreateTableInput) {
	_, err := client.CreateTable(ctx, input)
	if err != nil {
		var riue *types.ResourceInUseException
		if !errors.As(err, &riue) {
			slog.Warn("could not create table", "table", aws.ToString(input.TableName), "err", err)
		}
		return
	}
	slog.Info("created table", "table", aws.ToString(input.TableName))
}

func enableTTL(ctx context.Context, client *dynamodb.Client, tableName, ttlAttr string) {
	_, err := client.UpdateTimeToLive(ctx, &dynamodb.UpdateTimeToLiveInput{
		TableName: aws.String(tableName),
		TimeToLiveSpecification: &types.TimeToLiveSpecification{
			Enabled:       aws.Bool(true),
			AttributeName: aws.String(ttlAttr),
		},
	})
	if err != nil {
		slog.Warn("could not enable TTL", "table", tableName, "err", err)
	}
}
