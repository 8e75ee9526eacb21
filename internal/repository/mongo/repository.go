package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"arthik-chat-be/internal/entity"
	"arthik-chat-be/internal/repository/contract"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// EnsureIndexes creates the indexes the listing queries rely on.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(sessionsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "updated_at", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("mongo: session indexes: %w", err)
	}
	_, err = db.Collection(messagesCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "session_id", Value: 1}, {Key: "created_at", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("mongo: message indexes: %w", err)
	}
	return nil
}

type ChatSessionRepository struct {
	coll *mongo.Collection
}

func NewChatSessionRepository(db *mongo.Database) contract.ChatSessionRepository {
	return &ChatSessionRepository{coll: db.Collection(sessionsCollection)}
}

func (r *ChatSessionRepository) Create(ctx context.Context, session *entity.ChatSession) error {
	if _, err := r.coll.InsertOne(ctx, sessionToDocument(session)); err != nil {
		return fmt.Errorf("mongo: Create session: %w", err)
	}
	return nil
}

func (r *ChatSessionRepository) CreateIfNotExists(ctx context.Context, session *entity.ChatSession) (bool, error) {
	_, err := r.coll.InsertOne(ctx, sessionToDocument(session))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, fmt.Errorf("mongo: CreateIfNotExists: %w", err)
	}
	return true, nil
}

func (r *ChatSessionRepository) FindById(ctx context.Context, id string) (*entity.ChatSession, error) {
	var doc sessionDocument
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("mongo: FindById: %w", err)
	}
	return doc.toEntity(), nil
}

func (r *ChatSessionRepository) FindAllByOwner(ctx context.Context, ownerId string) ([]*entity.ChatSession, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}, {Key: "created_at", Value: -1}})
	cur, err := r.coll.Find(ctx, bson.M{"owner_id": ownerId}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo: FindAllByOwner: %w", err)
	}
	var docs []sessionDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo: FindAllByOwner decode: %w", err)
	}
	sessions := make([]*entity.ChatSession, len(docs))
	for i, d := range docs {
		sessions[i] = d.toEntity()
	}
	return sessions, nil
}

func (r *ChatSessionRepository) Touch(ctx context.Context, id string, at time.Time) error {
	us := toMicros(at)
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id, "updated_at": bson.M{"$lt": us}},
		bson.M{"$set": bson.M{"updated_at": us}},
	)
	if err != nil {
		return fmt.Errorf("mongo: Touch: %w", err)
	}
	return nil
}

type ChatMessageRepository struct {
	coll *mongo.Collection
}

func NewChatMessageRepository(db *mongo.Database) contract.ChatMessageRepository {
	return &ChatMessageRepository{coll: db.Collection(messagesCollection)}
}

func (r *ChatMessageRepository) Create(ctx context.Context, message *entity.ChatMessage) error {
	if _, err := r.coll.InsertOne(ctx, messageToDocument(message)); err != nil {
		return fmt.Errorf("mongo: Create message: %w", err)
	}
	return nil
}

func (r *ChatMessageRepository) find(ctx context.Context, sessionId string, opts *options.FindOptionsBuilder) ([]*entity.ChatMessage, error) {
	cur, err := r.coll.Find(ctx, bson.M{"session_id": sessionId}, opts)
	if err != nil {
		return nil, err
	}
	var docs []messageDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	msgs := make([]*entity.ChatMessage, len(docs))
	for i, d := range docs {
		msgs[i] = d.toEntity()
	}
	return msgs, nil
}

func (r *ChatMessageRepository) FindAllBySessionId(ctx context.Context, sessionId string) ([]*entity.ChatMessage, error) {
	msgs, err := r.find(ctx, sessionId, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("mongo: FindAllBySessionId: %w", err)
	}
	return msgs, nil
}

func (r *ChatMessageRepository) FindRecentBySessionId(ctx context.Context, sessionId string, limit int) ([]*entity.ChatMessage, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts = opts.SetLimit(int64(limit))
	}
	msgs, err := r.find(ctx, sessionId, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo: FindRecentBySessionId: %w", err)
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

func (r *ChatMessageRepository) CountBySessionId(ctx context.Context, sessionId string) (int64, error) {
	count, err := r.coll.CountDocuments(ctx, bson.M{"session_id": sessionId})
	if err != nil {
		return 0, fmt.Errorf("mongo: CountBySessionId: %w", err)
	}
	return count, nil
}
