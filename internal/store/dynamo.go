package store

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/sirupsen/logrus"
)

// DynamoAPI is the subset of the DynamoDB client the store uses.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// DynamoStore is the partitioned key-value backend.
type DynamoStore struct {
	client    DynamoAPI
	tableName string
	logger    *logrus.Logger
}

func NewDynamoStore(client DynamoAPI, tableName string, logger *logrus.Logger) *DynamoStore {
	return &DynamoStore{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

func itemKey(key Key) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: key.PK},
		"SK": &types.AttributeValueMemberS{Value: key.SK},
	}
}

func (s *DynamoStore) Get(ctx context.Context, key Key, out Record) error {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key:       itemKey(key),
	})
	if err != nil {
		s.logger.WithError(err).Error("Failed to get item from DynamoDB")
		return &UnavailableError{Op: "get", Err: err}
	}
	if result.Item == nil {
		return ErrNotFound
	}
	if err := attributevalue.UnmarshalMap(result.Item, out); err != nil {
		return fmt.Errorf("unmarshal item: %w", err)
	}
	return nil
}

func (s *DynamoStore) Query(ctx context.Context, pk, skPrefix string, newRec func() Record) ([]Record, error) {
	var (
		records []Record
		start   map[string]types.AttributeValue
	)
	for {
		result, err := s.client.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(s.tableName),
			KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :sk)"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":pk": &types.AttributeValueMemberS{Value: pk},
				":sk": &types.AttributeValueMemberS{Value: skPrefix},
			},
			ExclusiveStartKey: start,
		})
		if err != nil {
			s.logger.WithError(err).Error("Failed to query DynamoDB")
			return nil, &UnavailableError{Op: "query", Err: err}
		}

		for _, item := range result.Items {
			rec := newRec()
			if err := attributevalue.UnmarshalMap(item, rec); err != nil {
				return nil, fmt.Errorf("unmarshal item: %w", err)
			}
			records = append(records, rec)
		}

		if result.LastEvaluatedKey == nil {
			return records, nil
		}
		start = result.LastEvaluatedKey
	}
}

func (s *DynamoStore) Scan(ctx context.Context, entityType, attr, value string, newRec func() Record) ([]Record, error) {
	var (
		records []Record
		start   map[string]types.AttributeValue
	)
	for {
		result, err := s.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:        aws.String(s.tableName),
			FilterExpression: aws.String("#t = :t AND #a = :v"),
			ExpressionAttributeNames: map[string]string{
				"#t": "type",
				"#a": attr,
			},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":t": &types.AttributeValueMemberS{Value: entityType},
				":v": &types.AttributeValueMemberS{Value: value},
			},
			ExclusiveStartKey: start,
		})
		if err != nil {
			s.logger.WithError(err).Error("Failed to scan DynamoDB")
			return nil, &UnavailableError{Op: "scan", Err: err}
		}

		for _, item := range result.Items {
			rec := newRec()
			if err := attributevalue.UnmarshalMap(item, rec); err != nil {
				return nil, fmt.Errorf("unmarshal item: %w", err)
			}
			records = append(records, rec)
		}

		if result.LastEvaluatedKey == nil {
			return records, nil
		}
		start = result.LastEvaluatedKey
	}
}

func (s *DynamoStore) Put(ctx context.Context, rec Record) error {
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("marshal item: %w", err)
	}

	key := rec.ItemKey()
	item["PK"] = &types.AttributeValueMemberS{Value: key.PK}
	item["SK"] = &types.AttributeValueMemberS{Value: key.SK}
	item["type"] = &types.AttributeValueMemberS{Value: rec.EntityType()}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	})
	if err != nil {
		s.logger.WithError(err).Error("Failed to put item in DynamoDB")
		return &UnavailableError{Op: "put", Err: err}
	}
	return nil
}

func (s *DynamoStore) Delete(ctx context.Context, key Key, _ string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key:       itemKey(key),
	})
	if err != nil {
		s.logger.WithError(err).Error("Failed to delete item from DynamoDB")
		return &UnavailableError{Op: "delete", Err: err}
	}
	return nil
}
