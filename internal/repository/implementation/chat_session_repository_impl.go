package implementation

import (
	"context"
	"errors"
	"time"

	"arthik-chat-be/internal/entity"
	"arthik-chat-be/internal/mapper"
	"arthik-chat-be/internal/model"
	"arthik-chat-be/internal/repository/contract"
	"arthik-chat-be/internal/repository/specification"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ChatSessionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ChatMapper
}

func NewChatSessionRepository(db *gorm.DB) contract.ChatSessionRepository {
	return &ChatSessionRepositoryImpl{
		db:     db,
		mapper: mapper.NewChatMapper(),
	}
}

func (r *ChatSessionRepositoryImpl) Create(ctx context.Context, session *entity.ChatSession) error {
	m := r.mapper.ChatSessionToModel(session)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*session = *r.mapper.ChatSessionToEntity(m)
	return nil
}

func (r *ChatSessionRepositoryImpl) CreateIfNotExists(ctx context.Context, session *entity.ChatSession) (bool, error) {
	m := r.mapper.ChatSessionToModel(session)
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(m)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *ChatSessionRepositoryImpl) FindById(ctx context.Context, id string) (*entity.ChatSession, error) {
	var m model.ChatSession
	query := specification.Apply(r.db.WithContext(ctx), specification.ByID{ID: id})
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ChatSessionToEntity(&m), nil
}

func (r *ChatSessionRepositoryImpl) FindAllByOwner(ctx context.Context, ownerId string) ([]*entity.ChatSession, error) {
	var models []*model.ChatSession
	query := specification.Apply(r.db.WithContext(ctx),
		specification.OwnedBy{OwnerID: ownerId},
		specification.OrderBy{Field: "updated_at", Desc: true},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ChatSessionsToEntities(models), nil
}

func (r *ChatSessionRepositoryImpl) Touch(ctx context.Context, id string, at time.Time) error {
	query := specification.Apply(r.db.WithContext(ctx).Model(&model.ChatSession{}),
		specification.ByID{ID: id},
		specification.UpdatedBefore{At: at},
	)
	// UpdateColumn skips hooks and the automatic updated_at bookkeeping.
	return query.UpdateColumn("updated_at", at).Error
}
