package dynamo

import (
	"context"
	"fmt"

	"arthik-chat-be/internal/entity"
	"arthik-chat-be/internal/repository/contract"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type ChatMessageRepository struct {
	table *Table
}

func NewChatMessageRepository(table *Table) contract.ChatMessageRepository {
	return &ChatMessageRepository{table: table}
}

func (r *ChatMessageRepository) Create(ctx context.Context, message *entity.ChatMessage) error {
	_, err := r.table.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.table.name),
		Item:                messageItem(message),
		ConditionExpression: aws.String("attribute_not_exists(PK) AND attribute_not_exists(SK)"),
	})
	if err != nil {
		return fmt.Errorf("dynamo: Create message: %w", err)
	}
	return nil
}

func (r *ChatMessageRepository) messagesQuery(sessionId string) *dynamodb.QueryInput {
	return &dynamodb.QueryInput{
		TableName:              aws.String(r.table.name),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":     &types.AttributeValueMemberS{Value: sessionPK(sessionId)},
			":prefix": &types.AttributeValueMemberS{Value: skPrefixMsg},
		},
	}
}

func (r *ChatMessageRepository) FindAllBySessionId(ctx context.Context, sessionId string) ([]*entity.ChatMessage, error) {
	in := r.messagesQuery(sessionId)
	in.ScanIndexForward = aws.Bool(true)

	items, err := r.table.queryAll(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("dynamo: FindAllBySessionId query: %w", err)
	}
	return itemsToMessages(items)
}

func (r *ChatMessageRepository) FindRecentBySessionId(ctx context.Context, sessionId string, limit int) ([]*entity.ChatMessage, error) {
	in := r.messagesQuery(sessionId)
	// Read newest first so LIMIT favors the most recent context.
	in.ScanIndexForward = aws.Bool(false)
	if limit > 0 {
		in.Limit = aws.Int32(int32(limit))
	}

	out, err := r.table.api.Query(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("dynamo: FindRecentBySessionId query: %w", err)
	}
	msgs, err := itemsToMessages(out.Items)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

func (r *ChatMessageRepository) CountBySessionId(ctx context.Context, sessionId string) (int64, error) {
	in := r.messagesQuery(sessionId)
	in.Select = types.SelectCount

	var total int64
	for {
		out, err := r.table.api.Query(ctx, in)
		if err != nil {
			return 0, fmt.Errorf("dynamo: CountBySessionId query: %w", err)
		}
		total += int64(out.Count)
		if len(out.LastEvaluatedKey) == 0 {
			return total, nil
		}
		in.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

func messageItem(m *entity.ChatMessage) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK":        &types.AttributeValueMemberS{Value: sessionPK(m.SessionId)},
		"SK":        &types.AttributeValueMemberS{Value: messageSK(m.CreatedAt, m.Id)},
		"id":        &types.AttributeValueMemberS{Value: m.Id},
		"sessionId": &types.AttributeValueMemberS{Value: m.SessionId},
		"role":      &types.AttributeValueMemberS{Value: m.Role},
		"content":   &types.AttributeValueMemberS{Value: m.Content},
		"createdAt": &types.AttributeValueMemberS{Value: formatTime(m.CreatedAt)},
	}
}

func itemsToMessages(items []map[string]types.AttributeValue) ([]*entity.ChatMessage, error) {
	msgs := make([]*entity.ChatMessage, 0, len(items))
	for _, item := range items {
		m, err := itemToMessage(item)
		if err != nil {
			return nil, fmt.Errorf("dynamo: decode message: %w", err)
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}

func itemToMessage(item map[string]types.AttributeValue) (*entity.ChatMessage, error) {
	id, err := strAttr(item, "id")
	if err != nil {
		return nil, err
	}
	sessionId, err := strAttr(item, "sessionId")
	if err != nil {
		return nil, err
	}
	role, err := strAttr(item, "role")
	if err != nil {
		return nil, err
	}
	content, err := strAttr(item, "content")
	if err != nil {
		return nil, err
	}
	createdAt, err := timeAttr(item, "createdAt")
	if err != nil {
		return nil, err
	}
	return &entity.ChatMessage{
		Id:        id,
		SessionId: sessionId,
		Role:      role,
		Content:   content,
		CreatedAt: createdAt,
	}, nil
}
