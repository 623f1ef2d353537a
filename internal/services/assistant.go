package services

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/aria-backend/internal/config"
	"github.com/yungbote/aria-backend/internal/platform/apierr"
	"github.com/yungbote/aria-backend/internal/platform/logger"
	"github.com/yungbote/aria-backend/internal/types"
)

// Responder is the injected reply capability. The default implementation
// picks from a configured set; a real model can be swapped in without
// touching the conversation logic.
type Responder interface {
	Reply(ctx context.Context, message string, contextWindow []types.Message) (string, error)
	ReplyVoice(ctx context.Context, transcript string, contextWindow []types.Message) (string, error)
	Transcribe(ctx context.Context, audioRef string, language string) (string, float64, error)
}

// VoiceInput carries the simulated voice payload: there is no audio
// pipeline, only the advisory fields the client reports.
type VoiceInput struct {
	ConversationID uuid.UUID
	AudioRef       string
	Duration       float64
	Language       string
}

type ProcessResult struct {
	Conversation *types.Conversation `json:"conversation"`
	UserMessage  *types.Message      `json:"user_message"`
	Reply        *types.Message      `json:"reply"`
}

type AssistantStatus struct {
	ModelName    string   `json:"model_name"`
	Capabilities []string `json:"capabilities"`
	Simulated    bool     `json:"simulated"`
	ReplyDelayMs int      `json:"reply_delay_ms"`
}

type AssistantService interface {
	ProcessText(ctx context.Context, conversationID uuid.UUID, content string) (*ProcessResult, error)
	ProcessVoice(ctx context.Context, in VoiceInput) (*ProcessResult, error)
	Status() AssistantStatus
}

type assistantService struct {
	log                 *logger.Logger
	cfg                 config.AssistantConfig
	responder           Responder
	conversationService ConversationService
}

func NewAssistantService(log *logger.Logger, cfg config.AssistantConfig, responder Responder, conversationService ConversationService) AssistantService {
	if responder == nil {
		responder = NewCannedResponder(cfg, time.Now().UnixNano())
	}
	return &assistantService{
		log:                 log.With("service", "AssistantService"),
		cfg:                 cfg,
		responder:           responder,
		conversationService: conversationService,
	}
}

func (s *assistantService) ProcessText(ctx context.Context, conversationID uuid.UUID, content string) (*ProcessResult, error) {
	if conversationID == uuid.Nil {
		return nil, apierr.BadRequest("missing_conversation", fmt.Errorf("a conversation id is required"))
	}
	conv, userMsg, err := s.conversationService.AppendMessage(ctx, conversationID, types.MessageTypeUser, types.ContentTypeText, content, nil)
	if err != nil {
		return nil, err
	}

	if err := s.replyDelay(ctx); err != nil {
		return nil, err
	}
	replyText, err := s.responder.Reply(ctx, userMsg.Content, conv.ContextWindow(types.DefaultContextWindow))
	if err != nil {
		return nil, apierr.Internal("reply_failed", err)
	}
	conv, reply, err := s.conversationService.AppendMessage(ctx, conversationID, types.MessageTypeAI, types.ContentTypeText, replyText, nil)
	if err != nil {
		return nil, err
	}
	return &ProcessResult{Conversation: conv, UserMessage: userMsg, Reply: reply}, nil
}

func (s *assistantService) ProcessVoice(ctx context.Context, in VoiceInput) (*ProcessResult, error) {
	if in.ConversationID == uuid.Nil {
		return nil, apierr.BadRequest("missing_conversation", fmt.Errorf("a conversation id is required"))
	}
	transcript, confidence, err := s.responder.Transcribe(ctx, in.AudioRef, in.Language)
	if err != nil {
		return nil, apierr.Internal("transcription_failed", err)
	}
	metadata := &types.MessageMetadata{
		VoiceDuration: in.Duration,
		Language:      in.Language,
		Confidence:    confidence,
	}
	conv, userMsg, err := s.conversationService.AppendMessage(ctx, in.ConversationID, types.MessageTypeUser, types.ContentTypeVoice, transcript, metadata)
	if err != nil {
		return nil, err
	}

	if err := s.replyDelay(ctx); err != nil {
		return nil, err
	}
	replyText, err := s.responder.ReplyVoice(ctx, transcript, conv.ContextWindow(types.DefaultContextWindow))
	if err != nil {
		return nil, apierr.Internal("reply_failed", err)
	}
	conv, reply, err := s.conversationService.AppendMessage(ctx, in.ConversationID, types.MessageTypeAI, types.ContentTypeText, replyText, nil)
	if err != nil {
		return nil, err
	}
	return &ProcessResult{Conversation: conv, UserMessage: userMsg, Reply: reply}, nil
}

func (s *assistantService) Status() AssistantStatus {
	return AssistantStatus{
		ModelName:    s.cfg.ModelName,
		Capabilities: s.cfg.Capabilities,
		Simulated:    true,
		ReplyDelayMs: s.cfg.ReplyDelayMs,
	}
}

// replyDelay simulates thinking time without outliving the request.
func (s *assistantService) replyDelay(ctx context.Context) error {
	delay := s.cfg.ReplyDelay()
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return apierr.Internal("request_cancelled", ctx.Err())
	}
}

// cannedResponder is the default Responder: uniform random picks from
// the configured reply sets and a fixed transcript for voice input.
type cannedResponder struct {
	cfg config.AssistantConfig

	mu  sync.Mutex
	rng *rand.Rand
}

func NewCannedResponder(cfg config.AssistantConfig, seed int64) Responder {
	return &cannedResponder{
		cfg: cfg,
		rng: rand.New(rand.NewSource(seed)),
	}
}

func (r *cannedResponder) pick(set []string) string {
	if len(set) == 0 {
		return ""
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return set[r.rng.Intn(len(set))]
}

func (r *cannedResponder) Reply(ctx context.Context, message string, contextWindow []types.Message) (string, error) {
	reply := r.pick(r.cfg.Replies)
	if reply == "" {
		return "", fmt.Errorf("no replies configured")
	}
	return reply, nil
}

func (r *cannedResponder) ReplyVoice(ctx context.Context, transcript string, contextWindow []types.Message) (string, error) {
	reply := r.pick(r.cfg.VoiceReplies)
	if reply == "" {
		return r.Reply(ctx, transcript, contextWindow)
	}
	return reply, nil
}

func (r *cannedResponder) Transcribe(ctx context.Context, audioRef string, language string) (string, float64, error) {
	transcript := r.cfg.StubTranscript
	if transcript == "" {
		transcript = "(simulated transcription)"
	}
	return transcript, 0.92, nil
}
