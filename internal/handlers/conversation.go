package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/aria-backend/internal/platform/apierr"
	"github.com/yungbote/aria-backend/internal/repos"
	"github.com/yungbote/aria-backend/internal/services"
	"github.com/yungbote/aria-backend/internal/types"
)

type ConversationHandler struct {
	conversationService services.ConversationService
}

func NewConversationHandler(conversationService services.ConversationService) *ConversationHandler {
	return &ConversationHandler{conversationService: conversationService}
}

func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, apierr.BadRequest("invalid_id", err))
		return uuid.Nil, false
	}
	return id, true
}

func queryInt(c *gin.Context, name string, def int) int {
	raw := c.Query(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

func (ch *ConversationHandler) Create(c *gin.Context) {
	var req struct {
		Title string   `json:"title"`
		Tags  []string `json:"tags"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": APIError{Message: "invalid request body", Code: "invalid_body"}})
		return
	}
	conv, err := ch.conversationService.Create(c.Request.Context(), req.Title, req.Tags)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"conversation": conv})
}

func (ch *ConversationHandler) List(c *gin.Context) {
	opts := repos.ListOptions{
		Status:  types.ConversationStatus(c.DefaultQuery("status", string(types.ConversationStatusActive))),
		SortBy:  c.DefaultQuery("sort_by", "last_message_at"),
		SortAsc: strings.EqualFold(c.Query("order"), "asc"),
		Offset:  queryInt(c, "offset", 0),
		Limit:   queryInt(c, "limit", 20),
	}
	page, err := ch.conversationService.List(c.Request.Context(), opts)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{
		"conversations": page.Conversations,
		"total":         page.Total,
		"offset":        page.Offset,
		"limit":         page.Limit,
	})
}

func (ch *ConversationHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	conv, err := ch.conversationService.Get(c.Request.Context(), id)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"conversation": conv})
}

func (ch *ConversationHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req struct {
		Title      *string   `json:"title"`
		Summary    *string   `json:"summary"`
		Tags       *[]string `json:"tags"`
		IsFavorite *bool     `json:"is_favorite"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": APIError{Message: "invalid request body", Code: "invalid_body"}})
		return
	}
	conv, err := ch.conversationService.Update(c.Request.Context(), id, services.ConversationUpdate{
		Title:      req.Title,
		Summary:    req.Summary,
		Tags:       req.Tags,
		IsFavorite: req.IsFavorite,
	})
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"conversation": conv})
}

func (ch *ConversationHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	conv, err := ch.conversationService.SoftDelete(c.Request.Context(), id)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"conversation": conv})
}

func (ch *ConversationHandler) Archive(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	conv, err := ch.conversationService.Archive(c.Request.Context(), id)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"conversation": conv})
}

func (ch *ConversationHandler) Restore(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	conv, err := ch.conversationService.Restore(c.Request.Context(), id)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"conversation": conv})
}

func (ch *ConversationHandler) ToggleFavorite(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	conv, err := ch.conversationService.ToggleFavorite(c.Request.Context(), id)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"conversation": conv})
}

func (ch *ConversationHandler) Search(c *gin.Context) {
	page, err := ch.conversationService.Search(
		c.Request.Context(),
		c.Param("query"),
		queryInt(c, "offset", 0),
		queryInt(c, "limit", 20),
	)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{
		"conversations": page.Conversations,
		"total":         page.Total,
		"offset":        page.Offset,
		"limit":         page.Limit,
	})
}

func (ch *ConversationHandler) Stats(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	stats, err := ch.conversationService.Stats(c.Request.Context(), id)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"stats": stats})
}

func (ch *ConversationHandler) Export(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	export, err := ch.conversationService.Export(c.Request.Context(), id)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"export": export})
}
