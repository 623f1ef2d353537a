package repos

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/aria-backend/internal/platform/logger"
	"github.com/yungbote/aria-backend/internal/types"
)

// ListOptions are the owner-scoped listing knobs: status filter, sort
// field and direction, offset/limit pagination. The zero value lists
// active conversations newest-first.
type ListOptions struct {
	Status  types.ConversationStatus
	SortBy  string
	SortAsc bool
	Offset  int
	Limit   int
}

var sortableColumns = map[string]string{
	"last_message_at": "last_message_at",
	"created_at":      "created_at",
	"updated_at":      "updated_at",
	"title":           "title",
}

type ConversationRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.Conversation) ([]*types.Conversation, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Conversation, error)
	ListByOwner(ctx context.Context, tx *gorm.DB, userID uuid.UUID, opts ListOptions) ([]*types.Conversation, int64, error)
	ListActiveByOwner(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Conversation, error)
	Save(ctx context.Context, tx *gorm.DB, row *types.Conversation) error
}

type conversationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewConversationRepo(db *gorm.DB, baseLog *logger.Logger) ConversationRepo {
	return &conversationRepo{db: db, log: baseLog.With("repo", "ConversationRepo")}
}

func (cr *conversationRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.Conversation) ([]*types.Conversation, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	if len(rows) == 0 {
		return []*types.Conversation{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (cr *conversationRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Conversation, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("missing id")
	}
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	var out types.Conversation
	err := transaction.WithContext(ctx).
		Where("id = ?", id).
		Take(&out).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &out, nil
}

func (cr *conversationRepo) ListByOwner(ctx context.Context, tx *gorm.DB, userID uuid.UUID, opts ListOptions) ([]*types.Conversation, int64, error) {
	if userID == uuid.Nil {
		return nil, 0, fmt.Errorf("missing user_id")
	}
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	status := opts.Status
	if status == "" {
		status = types.ConversationStatusActive
	}
	column, ok := sortableColumns[opts.SortBy]
	if !ok {
		column = "last_message_at"
	}
	direction := "DESC"
	if opts.SortAsc {
		direction = "ASC"
	}
	limit := opts.Limit
	if limit <= 0 || limit > 200 {
		limit = 20
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	var total int64
	if err := transaction.WithContext(ctx).
		Model(&types.Conversation{}).
		Where("user_id = ? AND status = ?", userID, status).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var out []*types.Conversation
	if err := transaction.WithContext(ctx).
		Model(&types.Conversation{}).
		Where("user_id = ? AND status = ?", userID, status).
		Order(column + " " + direction).
		Offset(offset).
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// ListActiveByOwner loads the owner's active conversations newest-first;
// the search service filters the term matches in memory because the
// message sequence is a JSON column.
func (cr *conversationRepo) ListActiveByOwner(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Conversation, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("missing user_id")
	}
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	var out []*types.Conversation
	if err := transaction.WithContext(ctx).
		Model(&types.Conversation{}).
		Where("user_id = ? AND status = ?", userID, types.ConversationStatusActive).
		Order("last_message_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (cr *conversationRepo) Save(ctx context.Context, tx *gorm.DB, row *types.Conversation) error {
	if row == nil || row.ID == uuid.Nil {
		return fmt.Errorf("missing conversation")
	}
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	row.UpdatedAt = time.Now().UTC()
	return transaction.WithContext(ctx).Save(row).Error
}
