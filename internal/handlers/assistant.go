package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/aria-backend/internal/platform/apierr"
	"github.com/yungbote/aria-backend/internal/services"
	"github.com/yungbote/aria-backend/internal/types"
)

type AssistantHandler struct {
	assistantService services.AssistantService
	userService      services.UserService
}

func NewAssistantHandler(assistantService services.AssistantService, userService services.UserService) *AssistantHandler {
	return &AssistantHandler{assistantService: assistantService, userService: userService}
}

func (ah *AssistantHandler) ProcessText(c *gin.Context) {
	var req struct {
		ConversationID string `json:"conversation_id"`
		Content        string `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": APIError{Message: "invalid request body", Code: "invalid_body"}})
		return
	}
	convID, err := uuid.Parse(req.ConversationID)
	if err != nil {
		RespondError(c, apierr.BadRequest("invalid_conversation_id", err))
		return
	}
	result, err := ah.assistantService.ProcessText(c.Request.Context(), convID, req.Content)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{
		"conversation": result.Conversation,
		"user_message": result.UserMessage,
		"reply":        result.Reply,
	})
}

func (ah *AssistantHandler) ProcessVoice(c *gin.Context) {
	var req struct {
		ConversationID string  `json:"conversation_id"`
		AudioRef       string  `json:"audio_ref"`
		Duration       float64 `json:"duration"`
		Language       string  `json:"language"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": APIError{Message: "invalid request body", Code: "invalid_body"}})
		return
	}
	convID, err := uuid.Parse(req.ConversationID)
	if err != nil {
		RespondError(c, apierr.BadRequest("invalid_conversation_id", err))
		return
	}
	result, err := ah.assistantService.ProcessVoice(c.Request.Context(), services.VoiceInput{
		ConversationID: convID,
		AudioRef:       req.AudioRef,
		Duration:       req.Duration,
		Language:       req.Language,
	})
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{
		"conversation": result.Conversation,
		"user_message": result.UserMessage,
		"reply":        result.Reply,
	})
}

func (ah *AssistantHandler) Status(c *gin.Context) {
	RespondOK(c, gin.H{"status": ah.assistantService.Status()})
}

// UpdatePreferences is the assistant-facing alias over the user
// preference sub-document: it only touches the assistant model and voice
// settings.
func (ah *AssistantHandler) UpdatePreferences(c *gin.Context) {
	var req struct {
		AssistantModel *types.AssistantModel `json:"assistant_model"`
		Voice          *types.VoiceSettings  `json:"voice"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": APIError{Message: "invalid request body", Code: "invalid_body"}})
		return
	}
	user, err := ah.userService.GetMe(c.Request.Context())
	if err != nil {
		RespondError(c, err)
		return
	}
	prefs := user.Preferences.Data()
	if req.AssistantModel != nil {
		prefs.AssistantModel = *req.AssistantModel
	}
	if req.Voice != nil {
		prefs.Voice = *req.Voice
	}
	updated, err := ah.userService.UpdatePreferences(c.Request.Context(), prefs)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"preferences": updated.Preferences.Data()})
}
