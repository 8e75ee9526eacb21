package implementation

import (
	"context"

	"arthik-chat-be/internal/entity"
	"arthik-chat-be/internal/mapper"
	"arthik-chat-be/internal/model"
	"arthik-chat-be/internal/repository/contract"
	"arthik-chat-be/internal/repository/specification"

	"gorm.io/gorm"
)

type ChatMessageRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ChatMapper
}

func NewChatMessageRepository(db *gorm.DB) contract.ChatMessageRepository {
	return &ChatMessageRepositoryImpl{
		db:     db,
		mapper: mapper.NewChatMapper(),
	}
}

func (r *ChatMessageRepositoryImpl) Create(ctx context.Context, message *entity.ChatMessage) error {
	m := r.mapper.ChatMessageToModel(message)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*message = *r.mapper.ChatMessageToEntity(m)
	return nil
}

func (r *ChatMessageRepositoryImpl) FindAllBySessionId(ctx context.Context, sessionId string) ([]*entity.ChatMessage, error) {
	var models []*model.ChatMessage
	query := specification.Apply(r.db.WithContext(ctx),
		specification.ByChatSessionID{ChatSessionID: sessionId},
		specification.OrderBy{Field: "created_at", Desc: false},
		specification.OrderBy{Field: "id", Desc: false},
	)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ChatMessagesToEntities(models), nil
}

func (r *ChatMessageRepositoryImpl) FindRecentBySessionId(ctx context.Context, sessionId string, limit int) ([]*entity.ChatMessage, error) {
	var models []*model.ChatMessage
	query := specification.Apply(r.db.WithContext(ctx),
		specification.ByChatSessionID{ChatSessionID: sessionId},
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.OrderBy{Field: "id", Desc: true},
		specification.Limit{Limit: limit},
	)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	// Newest first from the query, flip back to chronological order.
	for i, j := 0, len(models)-1; i < j; i, j = i+1, j-1 {
		models[i], models[j] = models[j], models[i]
	}
	return r.mapper.ChatMessagesToEntities(models), nil
}

func (r *ChatMessageRepositoryImpl) CountBySessionId(ctx context.Context, sessionId string) (int64, error) {
	var count int64
	query := specification.Apply(r.db.WithContext(ctx).Model(&model.ChatMessage{}),
		specification.ByChatSessionID{ChatSessionID: sessionId},
	)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
