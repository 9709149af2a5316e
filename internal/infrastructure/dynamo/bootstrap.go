package dynamo

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/storefront-api/internal/config"
)

// tableSpec describes a string-keyed table and its hash-only GSIs
// (index name -> attribute).
type tableSpec struct {
	name    string
	key     string
	indexes map[string]string
}

func tableSpecs(tables config.DynamoTables) []tableSpec {
	return []tableSpec{
		{
			name: tables.Users,
			key:  "user_id",
			indexes: map[string]string{
				emailIndex: "email",
				tokenIndex: fieldVerificationToken,
			},
		},
		{name: tables.Products, key: "product_id"},
		{
			name:    tables.Orders,
			key:     "order_id",
			indexes: map[string]string{userOrdersIndex: "user_id"},
		},
	}
}

// Bootstrap creates the users, products and orders tables with their GSIs.
// Tables that already exist are left alone, so it runs on every startup.
func Bootstrap(ctx context.Context, client *dynamodb.Client, tables config.DynamoTables) {
	for _, tbl := range tableSpecs(tables) {
		createTable(ctx, client, tbl.input())
	}
}

func (s tableSpec) input() *dynamodb.CreateTableInput {
	attrs := []types.AttributeDefinition{stringAttr(s.key)}
	var indexes []types.GlobalSecondaryIndex
	for name, attr := range s.indexes {
		attrs = append(attrs, stringAttr(attr))
		indexes = append(indexes, types.GlobalSecondaryIndex{
			IndexName:  aws.String(name),
			KeySchema:  []types.KeySchemaElement{hashKey(attr)},
			Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
		})
	}
	return &dynamodb.CreateTableInput{
		TableName:              aws.String(s.name),
		BillingMode:            types.BillingModePayPerRequest,
		AttributeDefinitions:   attrs,
		KeySchema:              []types.KeySchemaElement{hashKey(s.key)},
		GlobalSecondaryIndexes: indexes,
	}
}

func stringAttr(name string) types.AttributeDefinition {
	return types.AttributeDefinition{AttributeName: aws.String(name), AttributeType: types.ScalarAttributeTypeS}
}

func hashKey(name string) types.KeySchemaElement {
	return types.KeySchemaElement{AttributeName: aws.String(name), KeyType: types.KeyTypeHash}
}

func createTable(ctx context.Context, client *dynamodb.Client, input *dynamodb.CreateTableInput) {
	_, err := client.CreateTable(ctx, input)
	var inUse *types.ResourceInUseException
	switch {
	case err == nil:
		slog.Info("created table", "table", *input.TableName)
	case errors.As(err, &inUse):
	default:
		slog.Warn("could not create table", "table", *input.TableName, "err", err)
	}
}
