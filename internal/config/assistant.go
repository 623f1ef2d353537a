package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// AssistantConfig drives the simulated AI layer: the canned reply set,
// the artificial delay before a reply, and the capability descriptor
// served by the status endpoint.
type AssistantConfig struct {
	ModelName      string   `yaml:"model_name"`
	Replies        []string `yaml:"replies"`
	VoiceReplies   []string `yaml:"voice_replies"`
	StubTranscript string   `yaml:"stub_transcript"`
	ReplyDelayMs   int      `yaml:"reply_delay_ms"`
	Capabilities   []string `yaml:"capabilities"`
}

func (c *AssistantConfig) ReplyDelay() time.Duration {
	if c.ReplyDelayMs <= 0 {
		return 0
	}
	return time.Duration(c.ReplyDelayMs) * time.Millisecond
}

func DefaultAssistantConfig() AssistantConfig {
	return AssistantConfig{
		ModelName: "aria-sim-1",
		Replies: []string{
			"I see. Tell me more about that.",
			"That's interesting. What would you like to do next?",
			"Got it. Is there anything else I can help with?",
			"Let me think about that for a moment... done. What else?",
		},
		VoiceReplies: []string{
			"I heard you. What would you like me to do?",
			"Thanks, I've noted that.",
		},
		StubTranscript: "(simulated transcription)",
		ReplyDelayMs:   400,
		Capabilities:   []string{"text", "voice"},
	}
}

// LoadAssistantConfig reads the YAML file at path, falling back to the
// built-in defaults when the path is empty or the file is absent. A file
// replaces the defaults wholesale; omitted fields take the documented
// fallbacks in validateAssistantConfig, not the built-in reply sets.
func LoadAssistantConfig(path string) (AssistantConfig, error) {
	if path == "" {
		return DefaultAssistantConfig(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultAssistantConfig(), nil
		}
		return AssistantConfig{}, fmt.Errorf("read assistant config: %w", err)
	}
	var cfg AssistantConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return AssistantConfig{}, fmt.Errorf("parse assistant config: %w", err)
	}
	if err := validateAssistantConfig(&cfg); err != nil {
		return AssistantConfig{}, err
	}
	return cfg, nil
}

func validateAssistantConfig(cfg *AssistantConfig) error {
	if len(cfg.Replies) == 0 {
		return fmt.Errorf("assistant config: replies must not be empty")
	}
	if len(cfg.VoiceReplies) == 0 {
		cfg.VoiceReplies = cfg.Replies
	}
	if cfg.ModelName == "" {
		cfg.ModelName = DefaultAssistantConfig().ModelName
	}
	if cfg.StubTranscript == "" {
		cfg.StubTranscript = DefaultAssistantConfig().StubTranscript
	}
	if len(cfg.Capabilities) == 0 {
		cfg.Capabilities = DefaultAssistantConfig().Capabilities
	}
	return nil
}
