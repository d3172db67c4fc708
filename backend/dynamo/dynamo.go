// Package dynamo provides a Backend stored in a DynamoDB table, one item per
// cache name.
//
// Table schema:
//   - Partition key: cache_name (string)
//
// Create the table with:
//
//	aws dynamodb create-table \
//	  --table-name cachego \
//	  --attribute-definitions AttributeName=cache_name,AttributeType=S \
//	  --key-schema AttributeName=cache_name,KeyType=HASH \
//	  --billing-mode PAY_PER_REQUEST
//
// DynamoDB items are limited to 400KB; keep persisted caches small or use a
// compressing codec when storing through this backend.
package dynamo

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/hupe1980/cachego/backend"
)

const (
	attrName = "cache_name"
	attrBlob = "blob"
)

// Client is the subset of the DynamoDB API used by Store.
type Client interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// Store implements backend.Backend on a DynamoDB table.
type Store struct {
	client    Client
	tableName string
}

// NewStore creates a DynamoDB cache backend.
func NewStore(client Client, tableName string) *Store {
	return &Store{
		client:    client,
		tableName: tableName,
	}
}

func (s *Store) itemKey(name string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrName: &types.AttributeValueMemberS{Value: name},
	}
}

// Load reads the blob for name.
func (s *Store) Load(ctx context.Context, name string) ([]byte, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.tableName),
		Key:            s.itemKey(name),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, backend.ErrNotFound
	}
	blob, ok := out.Item[attrBlob].(*types.AttributeValueMemberB)
	if !ok {
		return nil, backend.ErrNotFound
	}
	return blob.Value, nil
}

// Save replaces the blob for name.
func (s *Store) Save(ctx context.Context, name string, data []byte) error {
	_, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item: map[string]types.AttributeValue{
			attrName: &types.AttributeValueMemberS{Value: name},
			attrBlob: &types.AttributeValueMemberB{Value: data},
		},
	})
	return err
}

// Remove deletes the blob for name.
func (s *Store) Remove(ctx context.Context, name string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key:       s.itemKey(name),
	})
	return err
}

// Name returns "dynamo".
func (s *Store) Name() string { return "dynamo" }

var _ backend.Backend = (*Store)(nil)
