package unitofwork

import (
	"context"

	"arthik-chat-be/internal/repository/contract"

	"gorm.io/gorm"
)

type RepositoryFactoryImpl struct {
	db *gorm.DB
}

func NewRepositoryFactory(db *gorm.DB) RepositoryFactory {
	return &RepositoryFactoryImpl{
		db: db,
	}
}

// UoW is short lived, one per request.
func (f *RepositoryFactoryImpl) NewUnitOfWork(ctx context.Context) UnitOfWork {
	return NewUnitOfWork(f.db)
}

// StaticRepositoryFactory hands out the same repositories to every unit of
// work. Used by backends without multi-item transactions (memory, dynamodb,
// mongodb); each repository call is atomic on its own.
type StaticRepositoryFactory struct {
	sessions contract.ChatSessionRepository
	messages contract.ChatMessageRepository
}

func NewStaticRepositoryFactory(sessions contract.ChatSessionRepository, messages contract.ChatMessageRepository) RepositoryFactory {
	return &StaticRepositoryFactory{sessions: sessions, messages: messages}
}

func (f *StaticRepositoryFactory) NewUnitOfWork(ctx context.Context) UnitOfWork {
	return &staticUnitOfWork{sessions: f.sessions, messages: f.messages}
}

type staticUnitOfWork struct {
	sessions contract.ChatSessionRepository
	messages contract.ChatMessageRepository
}

func (u *staticUnitOfWork) Begin(ctx context.Context) error { return nil }
func (u *staticUnitOfWork) Commit() error                  { return nil }
func (u *staticUnitOfWork) Rollback() error                { return nil }

func (u *staticUnitOfWork) ChatSessionRepository() contract.ChatSessionRepository {
	return u.sessions
}

func (u *staticUnitOfWork) ChatMessageRepository() contract.ChatMessageRepository {
	return u.messages
}
