package dynamo

import (
	"context"
	"fmt"
	"sort"
	"time"

	"arthik-chat-be/internal/entity"
	"arthik-chat-be/internal/repository/contract"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type ChatSessionRepository struct {
	table *Table
}

func NewChatSessionRepository(table *Table) contract.ChatSessionRepository {
	return &ChatSessionRepository{table: table}
}

func (r *ChatSessionRepository) Create(ctx context.Context, session *entity.ChatSession) error {
	created, err := r.CreateIfNotExists(ctx, session)
	if err != nil {
		return err
	}
	if !created {
		return fmt.Errorf("dynamo: chat session %s already exists", session.Id)
	}
	return nil
}

func (r *ChatSessionRepository) CreateIfNotExists(ctx context.Context, session *entity.ChatSession) (bool, error) {
	notExists := aws.String("attribute_not_exists(PK) AND attribute_not_exists(SK)")
	_, err := r.table.api.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				Put: &types.Put{
					TableName:           aws.String(r.table.name),
					Item:                sessionItem(sessionPK(session.Id), skMeta, session),
					ConditionExpression: notExists,
				},
			},
			{
				Put: &types.Put{
					TableName:           aws.String(r.table.name),
					Item:                sessionItem(ownerPK(session.OwnerId), sessionPK(session.Id), session),
					ConditionExpression: notExists,
				},
			},
		},
	})
	if err != nil {
		if isConditionFailure(err) {
			return false, nil
		}
		return false, fmt.Errorf("dynamo: CreateIfNotExists: %w", err)
	}
	return true, nil
}

func (r *ChatSessionRepository) FindById(ctx context.Context, id string) (*entity.ChatSession, error) {
	out, err := r.table.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.table.name),
		Key:            key(sessionPK(id), skMeta),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("dynamo: FindById get item: %w", err)
	}
	if out == nil || len(out.Item) == 0 {
		return nil, nil
	}
	session, err := itemToSession(out.Item)
	if err != nil {
		return nil, fmt.Errorf("dynamo: FindById decode: %w", err)
	}
	return session, nil
}

func (r *ChatSessionRepository) FindAllByOwner(ctx context.Context, ownerId string) ([]*entity.ChatSession, error) {
	items, err := r.table.queryAll(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.table.name),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":     &types.AttributeValueMemberS{Value: ownerPK(ownerId)},
			":prefix": &types.AttributeValueMemberS{Value: skPrefixSession},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("dynamo: FindAllByOwner query: %w", err)
	}

	sessions := make([]*entity.ChatSession, 0, len(items))
	for _, item := range items {
		s, err := itemToSession(item)
		if err != nil {
			return nil, fmt.Errorf("dynamo: FindAllByOwner decode: %w", err)
		}
		sessions = append(sessions, s)
	}
	// The owner partition is keyed by session id, so ordering happens here.
	sort.SliceStable(sessions, func(i, j int) bool {
		if !sessions[i].UpdatedAt.Equal(sessions[j].UpdatedAt) {
			return sessions[i].UpdatedAt.After(sessions[j].UpdatedAt)
		}
		return sessions[i].CreatedAt.After(sessions[j].CreatedAt)
	})
	return sessions, nil
}

func (r *ChatSessionRepository) Touch(ctx context.Context, id string, at time.Time) error {
	session, err := r.FindById(ctx, id)
	if err != nil {
		return err
	}
	if session == nil || !at.After(session.UpdatedAt) {
		return nil
	}

	update := func(pk, sk string) *types.Update {
		return &types.Update{
			TableName:           aws.String(r.table.name),
			Key:                 key(pk, sk),
			UpdateExpression:    aws.String("SET updatedAt = :at"),
			ConditionExpression: aws.String("attribute_exists(PK) AND updatedAt < :at"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":at": &types.AttributeValueMemberS{Value: formatTime(at)},
			},
		}
	}

	_, err = r.table.api.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Update: update(sessionPK(id), skMeta)},
			{Update: update(ownerPK(session.OwnerId), sessionPK(id))},
		},
	})
	if err != nil {
		// A concurrent append already moved updatedAt past at.
		if isConditionFailure(err) {
			return nil
		}
		return fmt.Errorf("dynamo: Touch: %w", err)
	}
	return nil
}

func sessionItem(pk, sk string, s *entity.ChatSession) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK":        &types.AttributeValueMemberS{Value: pk},
		"SK":        &types.AttributeValueMemberS{Value: sk},
		"id":        &types.AttributeValueMemberS{Value: s.Id},
		"ownerId":   &types.AttributeValueMemberS{Value: s.OwnerId},
		"title":     &types.AttributeValueMemberS{Value: s.Title},
		"createdAt": &types.AttributeValueMemberS{Value: formatTime(s.CreatedAt)},
		"updatedAt": &types.AttributeValueMemberS{Value: formatTime(s.UpdatedAt)},
	}
}

func itemToSession(item map[string]types.AttributeValue) (*entity.ChatSession, error) {
	id, err := strAttr(item, "id")
	if err != nil {
		return nil, err
	}
	title, err := strAttr(item, "title")
	if err != nil {
		return nil, err
	}
	owner, _ := strAttr(item, "ownerId") // empty for global sessions
	createdAt, err := timeAttr(item, "createdAt")
	if err != nil {
		return nil, err
	}
	updatedAt, err := timeAttr(item, "updatedAt")
	if err != nil {
		return nil, err
	}
	return &entity.ChatSession{
		Id:        id,
		OwnerId:   owner,
		Title:     title,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}, nil
}
