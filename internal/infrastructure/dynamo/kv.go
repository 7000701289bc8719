package dynamo

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/capsule-api/internal/kv"
)

// batchGetLimit is DynamoDB's maximum key count per BatchGetItem call.
const batchGetLimit = 100

// KV implements kv.Store over a single DynamoDB table. A key "capsule:c1"
// maps to partition key "capsule" and sort key "c1"; prefix reads become
// partition queries, which keeps getByPrefix off full-table scans.
type KV struct {
	client    *dynamodb.Client
	tableName string
}

func NewKV(client *dynamodb.Client, tableName string) *KV {
	return &KV{client: client, tableName: tableName}
}

func (s *KV) Get(ctx context.Context, key string) ([]byte, error) {
	ns, rest := kv.Split(key)
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key:       compositeKey("pk", ns, "sk", rest),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, kv.ErrNotFound
	}
	return docAttr(out.Item)
}

func (s *KV) Set(ctx context.Context, key string, value []byte) error {
	ns, rest := kv.Split(key)
	_, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item: map[string]types.AttributeValue{
			"pk":  &types.AttributeValueMemberS{Value: ns},
			"sk":  &types.AttributeValueMemberS{Value: rest},
			"doc": &types.AttributeValueMemberS{Value: string(value)},
		},
	})
	return err
}

func (s *KV) Delete(ctx context.Context, key string) error {
	ns, rest := kv.Split(key)
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key:       compositeKey("pk", ns, "sk", rest),
	})
	return err
}

// MGet loads the documents for the given keys. Missing keys are skipped;
// result order follows DynamoDB's response order, not the input order.
func (s *KV) MGet(ctx context.Context, keys []string) ([][]byte, error) {
	var out [][]byte
	for start := 0; start < len(keys); start += batchGetLimit {
		end := start + batchGetLimit
		if end > len(keys) {
			end = len(keys)
		}
		chunk, err := s.batchGet(ctx, keys[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, chunk...)
	}
	return out, nil
}

func (s *KV) batchGet(ctx context.Context, keys []string) ([][]byte, error) {
	reqKeys := make([]map[string]types.AttributeValue, len(keys))
	for i, key := range keys {
		ns, rest := kv.Split(key)
		reqKeys[i] = compositeKey("pk", ns, "sk", rest)
	}
	var out [][]byte
	request := map[string]types.KeysAndAttributes{
		s.tableName: {Keys: reqKeys},
	}
	for len(request) > 0 {
		resp, err := s.client.BatchGetItem(ctx, &dynamodb.BatchGetItemInput{
			RequestItems: request,
		})
		if err != nil {
			return nil, err
		}
		for _, item := range resp.Responses[s.tableName] {
			doc, err := docAttr(item)
			if err != nil {
				return nil, err
			}
			out = append(out, doc)
		}
		request = resp.UnprocessedKeys
	}
	return out, nil
}

// GetByPrefix returns every document whose key starts with prefix. The prefix
// must cover at least a full namespace ("capsule:"); longer prefixes narrow
// the sort key with begins_with.
func (s *KV) GetByPrefix(ctx context.Context, prefix string) ([][]byte, error) {
	ns, rest, err := splitPrefix(prefix)
	if err != nil {
		return nil, err
	}
	input := &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		KeyConditionExpression: aws.String("pk = :ns"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":ns": &types.AttributeValueMemberS{Value: ns},
		},
	}
	if rest != "" {
		input.KeyConditionExpression = aws.String("pk = :ns AND begins_with(sk, :rest)")
		input.ExpressionAttributeValues[":rest"] = &types.AttributeValueMemberS{Value: rest}
	}

	var out [][]byte
	for {
		resp, err := s.client.Query(ctx, input)
		if err != nil {
			return nil, err
		}
		for _, item := range resp.Items {
			doc, err := docAttr(item)
			if err != nil {
				return nil, err
			}
			out = append(out, doc)
		}
		if resp.LastEvaluatedKey == nil {
			return out, nil
		}
		input.ExclusiveStartKey = resp.LastEvaluatedKey
	}
}

func splitPrefix(prefix string) (ns, rest string, err error) {
	i := strings.IndexByte(prefix, ':')
	if i < 0 {
		return "", "", fmt.Errorf("prefix %q does not cover a key namespace", prefix)
	}
	return prefix[:i], prefix[i+1:], nil
}

func docAttr(item map[string]types.AttributeValue) ([]byte, error) {
	v, ok := item["doc"].(*types.AttributeValueMemberS)
	if !ok {
		return nil, fmt.Errorf("document item missing doc attribute")
	}
	return []byte(v.Value), nil
}
