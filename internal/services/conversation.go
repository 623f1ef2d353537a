package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/aria-backend/internal/normalization"
	"github.com/yungbote/aria-backend/internal/platform/apierr"
	"github.com/yungbote/aria-backend/internal/platform/logger"
	"github.com/yungbote/aria-backend/internal/repos"
	"github.com/yungbote/aria-backend/internal/requestdata"
	"github.com/yungbote/aria-backend/internal/types"
)

type ConversationUpdate struct {
	Title      *string
	Summary    *string
	Tags       *[]string
	IsFavorite *bool
}

type ConversationPage struct {
	Conversations []*types.Conversation `json:"conversations"`
	Total         int64                 `json:"total"`
	Offset        int                   `json:"offset"`
	Limit         int                   `json:"limit"`
}

// ConversationExport is the full message dump served by the export
// endpoint.
type ConversationExport struct {
	ID         uuid.UUID                `json:"id"`
	Title      string                   `json:"title"`
	Summary    string                   `json:"summary,omitempty"`
	Tags       []string                 `json:"tags"`
	Status     types.ConversationStatus `json:"status"`
	Stats      types.ConversationStats  `json:"stats"`
	Messages   []types.Message          `json:"messages"`
	ExportedBy uuid.UUID                `json:"exported_by"`
}

type ConversationService interface {
	Create(ctx context.Context, title string, tags []string) (*types.Conversation, error)
	List(ctx context.Context, opts repos.ListOptions) (*ConversationPage, error)
	Get(ctx context.Context, id uuid.UUID) (*types.Conversation, error)
	Update(ctx context.Context, id uuid.UUID, update ConversationUpdate) (*types.Conversation, error)
	Archive(ctx context.Context, id uuid.UUID) (*types.Conversation, error)
	SoftDelete(ctx context.Context, id uuid.UUID) (*types.Conversation, error)
	Restore(ctx context.Context, id uuid.UUID) (*types.Conversation, error)
	ToggleFavorite(ctx context.Context, id uuid.UUID) (*types.Conversation, error)
	Search(ctx context.Context, term string, offset, limit int) (*ConversationPage, error)
	Stats(ctx context.Context, id uuid.UUID) (*types.ConversationStats, error)
	Export(ctx context.Context, id uuid.UUID) (*ConversationExport, error)
	AppendMessage(ctx context.Context, id uuid.UUID, msgType types.MessageType, contentType types.ContentType, content string, metadata *types.MessageMetadata) (*types.Conversation, *types.Message, error)
}

type conversationService struct {
	db               *gorm.DB
	log              *logger.Logger
	conversationRepo repos.ConversationRepo
	userService      UserService
}

func NewConversationService(db *gorm.DB, log *logger.Logger, conversationRepo repos.ConversationRepo, userService UserService) ConversationService {
	return &conversationService{
		db:               db,
		log:              log.With("service", "ConversationService"),
		conversationRepo: conversationRepo,
		userService:      userService,
	}
}

func callerID(ctx context.Context) (uuid.UUID, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return uuid.Nil, apierr.Unauthorized("missing_identity", fmt.Errorf("no authenticated user in context"))
	}
	return rd.UserID, nil
}

// ownedConversation loads by primary key and enforces the ownership
// check: the authenticated caller must match the owner field.
func (cs *conversationService) ownedConversation(ctx context.Context, id uuid.UUID) (*types.Conversation, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	conv, err := cs.conversationRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, apierr.Internal("conversation_lookup_failed", err)
	}
	if conv == nil {
		return nil, apierr.NotFound("conversation_not_found", fmt.Errorf("conversation not found"))
	}
	if conv.UserID != userID {
		return nil, apierr.Forbidden("not_owner", fmt.Errorf("conversation belongs to another user"))
	}
	return conv, nil
}

func (cs *conversationService) Create(ctx context.Context, title string, tags []string) (*types.Conversation, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	conv := types.NewConversation(userID, title)
	for _, tag := range tags {
		if t := normalization.TrimInput(tag); t != "" {
			conv.Tags = append(conv.Tags, t)
		}
	}
	if _, err := cs.conversationRepo.Create(ctx, nil, []*types.Conversation{conv}); err != nil {
		return nil, apierr.Internal("conversation_create_failed", err)
	}
	if _, err := cs.userService.UpdateStats(ctx, types.StatKindConversation, 1); err != nil {
		cs.log.Warn("Failed to bump conversation counter", "error", err)
	}
	return conv, nil
}

func (cs *conversationService) List(ctx context.Context, opts repos.ListOptions) (*ConversationPage, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	rows, total, err := cs.conversationRepo.ListByOwner(ctx, nil, userID, opts)
	if err != nil {
		return nil, apierr.Internal("conversation_list_failed", err)
	}
	return &ConversationPage{Conversations: rows, Total: total, Offset: opts.Offset, Limit: opts.Limit}, nil
}

func (cs *conversationService) Get(ctx context.Context, id uuid.UUID) (*types.Conversation, error) {
	return cs.ownedConversation(ctx, id)
}

func (cs *conversationService) Update(ctx context.Context, id uuid.UUID, update ConversationUpdate) (*types.Conversation, error) {
	conv, err := cs.ownedConversation(ctx, id)
	if err != nil {
		return nil, err
	}
	if update.Title != nil {
		conv.Title = normalization.TrimInput(*update.Title)
	}
	if update.Summary != nil {
		conv.Summary = normalization.TrimInput(*update.Summary)
	}
	if update.Tags != nil {
		conv.Tags = conv.Tags[:0]
		for _, tag := range *update.Tags {
			if t := normalization.TrimInput(tag); t != "" {
				conv.Tags = append(conv.Tags, t)
			}
		}
	}
	if update.IsFavorite != nil {
		conv.IsFavorite = *update.IsFavorite
	}
	if err := cs.conversationRepo.Save(ctx, nil, conv); err != nil {
		return nil, apierr.Internal("conversation_save_failed", err)
	}
	return conv, nil
}

func (cs *conversationService) transition(ctx context.Context, id uuid.UUID, apply func(*types.Conversation)) (*types.Conversation, error) {
	conv, err := cs.ownedConversation(ctx, id)
	if err != nil {
		return nil, err
	}
	apply(conv)
	if err := cs.conversationRepo.Save(ctx, nil, conv); err != nil {
		return nil, apierr.Internal("conversation_save_failed", err)
	}
	return conv, nil
}

func (cs *conversationService) Archive(ctx context.Context, id uuid.UUID) (*types.Conversation, error) {
	return cs.transition(ctx, id, (*types.Conversation).Archive)
}

func (cs *conversationService) SoftDelete(ctx context.Context, id uuid.UUID) (*types.Conversation, error) {
	return cs.transition(ctx, id, (*types.Conversation).SoftDelete)
}

func (cs *conversationService) Restore(ctx context.Context, id uuid.UUID) (*types.Conversation, error) {
	return cs.transition(ctx, id, (*types.Conversation).Restore)
}

func (cs *conversationService) ToggleFavorite(ctx context.Context, id uuid.UUID) (*types.Conversation, error) {
	return cs.transition(ctx, id, (*types.Conversation).ToggleFavorite)
}

// Search walks the owner's active conversations newest-first and keeps
// case-insensitive substring matches on title, message content or tags.
func (cs *conversationService) Search(ctx context.Context, term string, offset, limit int) (*ConversationPage, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	term = normalization.TrimInput(term)
	if term == "" {
		return nil, apierr.BadRequest("missing_query", fmt.Errorf("a search term is required"))
	}
	if limit <= 0 || limit > 200 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := cs.conversationRepo.ListActiveByOwner(ctx, nil, userID)
	if err != nil {
		return nil, apierr.Internal("conversation_search_failed", err)
	}
	matched := make([]*types.Conversation, 0, len(rows))
	for _, conv := range rows {
		if conv.MatchesTerm(term) {
			matched = append(matched, conv)
		}
	}
	total := int64(len(matched))
	if offset >= len(matched) {
		matched = nil
	} else {
		end := offset + limit
		if end > len(matched) {
			end = len(matched)
		}
		matched = matched[offset:end]
	}
	return &ConversationPage{Conversations: matched, Total: total, Offset: offset, Limit: limit}, nil
}

func (cs *conversationService) Stats(ctx context.Context, id uuid.UUID) (*types.ConversationStats, error) {
	conv, err := cs.ownedConversation(ctx, id)
	if err != nil {
		return nil, err
	}
	return &conv.Stats, nil
}

func (cs *conversationService) Export(ctx context.Context, id uuid.UUID) (*ConversationExport, error) {
	conv, err := cs.ownedConversation(ctx, id)
	if err != nil {
		return nil, err
	}
	return &ConversationExport{
		ID:         conv.ID,
		Title:      conv.Title,
		Summary:    conv.Summary,
		Tags:       []string(conv.Tags),
		Status:     conv.Status,
		Stats:      conv.Stats,
		Messages:   []types.Message(conv.Messages),
		ExportedBy: conv.UserID,
	}, nil
}

// AppendMessage is the explicit append-and-recompute entry point: the
// message goes onto the sequence, derived stats are rebuilt from it, and
// the whole document is persisted in one write.
func (cs *conversationService) AppendMessage(ctx context.Context, id uuid.UUID, msgType types.MessageType, contentType types.ContentType, content string, metadata *types.MessageMetadata) (*types.Conversation, *types.Message, error) {
	conv, err := cs.ownedConversation(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	msg, err := conv.AppendMessage(msgType, contentType, content, metadata)
	if err != nil {
		return nil, nil, apierr.BadRequest("invalid_message", err)
	}
	if err := cs.conversationRepo.Save(ctx, nil, conv); err != nil {
		return nil, nil, apierr.Internal("conversation_save_failed", err)
	}
	if _, err := cs.userService.UpdateStats(ctx, types.StatKindMessage, 1); err != nil {
		cs.log.Warn("Failed to bump message counter", "error", err)
	}
	if msg.ContentType == types.ContentTypeVoice {
		if _, err := cs.userService.UpdateStats(ctx, types.StatKindVoice, 1); err != nil {
			cs.log.Warn("Failed to bump voice counter", "error", err)
		}
	}
	return conv, msg, nil
}
