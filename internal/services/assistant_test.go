package services

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/aria-backend/internal/config"
	"github.com/yungbote/aria-backend/internal/types"
)

func testAssistantConfig() config.AssistantConfig {
	return config.AssistantConfig{
		ModelName:      "aria-sim-1",
		Replies:        []string{"reply one", "reply two", "reply three"},
		VoiceReplies:   []string{"voice reply"},
		StubTranscript: "play my morning playlist",
		ReplyDelayMs:   0,
		Capabilities:   []string{"text", "voice"},
	}
}

func newAssistantEnv(t *testing.T, cfg config.AssistantConfig) (*testEnv, AssistantService) {
	t.Helper()
	env := newTestEnv(t)
	responder := NewCannedResponder(cfg, 1)
	return env, NewAssistantService(env.log, cfg, responder, env.conversations)
}

func TestCannedResponder(t *testing.T) {
	cfg := testAssistantConfig()
	ctx := context.Background()

	t.Run("replies come from the configured set", func(t *testing.T) {
		r := NewCannedResponder(cfg, 42)
		allowed := map[string]bool{}
		for _, s := range cfg.Replies {
			allowed[s] = true
		}
		for i := 0; i < 20; i++ {
			reply, err := r.Reply(ctx, "anything", nil)
			if err != nil {
				t.Fatalf("reply: %v", err)
			}
			if !allowed[reply] {
				t.Fatalf("reply %q not in configured set", reply)
			}
		}
	})

	t.Run("deterministic under a fixed seed", func(t *testing.T) {
		a, b := NewCannedResponder(cfg, 7), NewCannedResponder(cfg, 7)
		for i := 0; i < 10; i++ {
			ra, _ := a.Reply(ctx, "x", nil)
			rb, _ := b.Reply(ctx, "x", nil)
			if ra != rb {
				t.Fatalf("pick %d diverged: %q vs %q", i, ra, rb)
			}
		}
	})

	t.Run("voice replies fall back to text set", func(t *testing.T) {
		noVoice := cfg
		noVoice.VoiceReplies = nil
		r := NewCannedResponder(noVoice, 1)
		reply, err := r.ReplyVoice(ctx, "hi", nil)
		if err != nil {
			t.Fatalf("voice reply: %v", err)
		}
		found := false
		for _, s := range cfg.Replies {
			if s == reply {
				found = true
			}
		}
		if !found {
			t.Fatalf("fallback reply %q not in text set", reply)
		}
	})

	t.Run("transcription is the stub", func(t *testing.T) {
		r := NewCannedResponder(cfg, 1)
		transcript, confidence, err := r.Transcribe(ctx, "audio-ref", "en-US")
		if err != nil {
			t.Fatalf("transcribe: %v", err)
		}
		if transcript != cfg.StubTranscript {
			t.Errorf("transcript = %q", transcript)
		}
		if confidence <= 0 || confidence > 1 {
			t.Errorf("confidence = %v", confidence)
		}
	})
}

func TestProcessText(t *testing.T) {
	cfg := testAssistantConfig()
	env, assistant := newAssistantEnv(t, cfg)
	user := env.register(t, "river", "river@example.com", "hunter2hunter2")
	ctx := ctxFor(user.ID)

	conv, err := env.conversations.Create(ctx, "", nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	result, err := assistant.ProcessText(ctx, conv.ID, "What's on my calendar?")
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if result.UserMessage.Type != types.MessageTypeUser || result.UserMessage.Content != "What's on my calendar?" {
		t.Errorf("user message = %+v", result.UserMessage)
	}
	if result.Reply.Type != types.MessageTypeAI {
		t.Errorf("reply type = %q", result.Reply.Type)
	}
	inSet := false
	for _, s := range cfg.Replies {
		if s == result.Reply.Content {
			inSet = true
		}
	}
	if !inSet {
		t.Errorf("reply %q not from configured set", result.Reply.Content)
	}

	got, err := env.conversations.Get(ctx, conv.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Messages) != 2 {
		t.Fatalf("messages = %d, want user+ai pair", len(got.Messages))
	}
	if got.Stats.UserMessages != 1 || got.Stats.AIMessages != 1 {
		t.Errorf("stats = %+v", got.Stats)
	}
	if got.GenerateTitle() != "What's on my calendar?" {
		t.Errorf("derived title = %q", got.GenerateTitle())
	}
}

func TestProcessVoice(t *testing.T) {
	cfg := testAssistantConfig()
	env, assistant := newAssistantEnv(t, cfg)
	user := env.register(t, "river", "river@example.com", "hunter2hunter2")
	ctx := ctxFor(user.ID)

	conv, err := env.conversations.Create(ctx, "", nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	result, err := assistant.ProcessVoice(ctx, VoiceInput{
		ConversationID: conv.ID,
		AudioRef:       "clip-001",
		Duration:       3.5,
		Language:       "en-US",
	})
	if err != nil {
		t.Fatalf("process voice: %v", err)
	}
	if result.UserMessage.ContentType != types.ContentTypeVoice {
		t.Errorf("content type = %q, want voice", result.UserMessage.ContentType)
	}
	if result.UserMessage.Content != cfg.StubTranscript {
		t.Errorf("content = %q, want stub transcript", result.UserMessage.Content)
	}
	meta := result.UserMessage.Metadata
	if meta == nil || meta.VoiceDuration != 3.5 || meta.Language != "en-US" || meta.Confidence <= 0 {
		t.Errorf("metadata = %+v", meta)
	}
	if result.Reply.Content != "voice reply" {
		t.Errorf("reply = %q", result.Reply.Content)
	}

	stats, err := env.users.GetStats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.VoiceInteractions != 1 {
		t.Errorf("voice counter = %d, want 1", stats.VoiceInteractions)
	}
}

func TestAssistantStatus(t *testing.T) {
	cfg := testAssistantConfig()
	_, assistant := newAssistantEnv(t, cfg)

	status := assistant.Status()
	if status.ModelName != "aria-sim-1" {
		t.Errorf("model = %q", status.ModelName)
	}
	if !status.Simulated {
		t.Error("status must report the simulated flag")
	}
	if len(status.Capabilities) != 2 {
		t.Errorf("capabilities = %v", status.Capabilities)
	}
}

func TestProcessTextRejectsMissingConversation(t *testing.T) {
	cfg := testAssistantConfig()
	env, assistant := newAssistantEnv(t, cfg)
	user := env.register(t, "river", "river@example.com", "hunter2hunter2")

	if _, err := assistant.ProcessText(ctxFor(user.ID), uuid.Nil, "hi"); err == nil {
		t.Fatal("nil conversation id accepted")
	}
}
