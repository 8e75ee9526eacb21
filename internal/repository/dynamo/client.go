package dynamo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Single-table layout:
//
//	PK=SESSION#<id>   SK=META                          session record
//	PK=OWNER#<owner>  SK=SESSION#<id>                  owner listing copy
//	PK=SESSION#<id>   SK=MSG#<created_at>#<message id> message
const (
	skMeta          = "META"
	skPrefixMsg     = "MSG#"
	skPrefixSession = "SESSION#"
	pkPrefixOwner   = "OWNER#"

	// Fixed width so sort keys order chronologically.
	sortableTime = "2006-01-02T15:04:05.000000Z"
)

// dynamodbAPI is the minimal DynamoDB interface required by the repositories.
// *dynamodb.Client satisfies it.
type dynamodbAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	TransactWriteItems(ctx context.Context, in *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

// Table binds the API client to one table name.
type Table struct {
	api  dynamodbAPI
	name string
}

func NewTable(api dynamodbAPI, tableName string) (*Table, error) {
	if api == nil {
		return nil, errors.New("dynamo: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("dynamo: table name must not be empty")
	}
	return &Table{api: api, name: tableName}, nil
}

func sessionPK(id string) string {
	return skPrefixSession + id
}

func ownerPK(owner string) string {
	return pkPrefixOwner + owner
}

func messageSK(createdAt time.Time, id string) string {
	return skPrefixMsg + createdAt.UTC().Format(sortableTime) + "#" + id
}

func formatTime(t time.Time) string {
	return t.UTC().Format(sortableTime)
}

func parseTime(value string) (time.Time, error) {
	return time.Parse(sortableTime, value)
}

func key(pk, sk string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: pk},
		"SK": &types.AttributeValueMemberS{Value: sk},
	}
}

func strAttr(item map[string]types.AttributeValue, name string) (string, error) {
	v, ok := item[name]
	if !ok {
		return "", fmt.Errorf("dynamo: missing attribute %q", name)
	}
	s, ok := v.(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("dynamo: attribute %q is not a string", name)
	}
	return s.Value, nil
}

func timeAttr(item map[string]types.AttributeValue, name string) (time.Time, error) {
	raw, err := strAttr(item, name)
	if err != nil {
		return time.Time{}, err
	}
	t, err := parseTime(raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("dynamo: parse attribute %q: %w", name, err)
	}
	return t, nil
}

// queryAll follows LastEvaluatedKey until the result set is exhausted.
func (t *Table) queryAll(ctx context.Context, in *dynamodb.QueryInput) ([]map[string]types.AttributeValue, error) {
	var items []map[string]types.AttributeValue
	for {
		out, err := t.api.Query(ctx, in)
		if err != nil {
			return nil, err
		}
		items = append(items, out.Items...)
		if len(out.LastEvaluatedKey) == 0 {
			return items, nil
		}
		in.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

// isConditionFailure reports whether a transactional write was rejected only
// because one of its condition expressions did not hold.
func isConditionFailure(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return true
	}
	var tce *types.TransactionCanceledException
	if !errors.As(err, &tce) {
		return false
	}
	failed := false
	for _, reason := range tce.CancellationReasons {
		code := aws.ToString(reason.Code)
		switch code {
		case "ConditionalCheckFailed":
			failed = true
		case "", "None":
		default:
			return false
		}
	}
	return failed
}
