package llm

import (
	"testing"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/custos/internal/common"
	"github.com/ternarybob/custos/internal/interfaces"
)

func newTestFactory() *ProviderFactory {
	config := common.NewDefaultConfig()
	return NewProviderFactory(&config.Gemini, &config.Claude, &config.LLM, arbor.NewLogger().WithLevel(arbor.Disabled))
}

// clearKeyEnv blanks every credential source so tests control resolution.
func clearKeyEnv(t *testing.T) {
	t.Helper()
	for _, name := range common.GeminiKeyEnvVars {
		t.Setenv(name, "")
	}
	for _, name := range common.ClaudeKeyEnvVars {
		t.Setenv(name, "")
	}
}

func TestDetectProvider(t *testing.T) {
	factory := newTestFactory()

	tests := []struct {
		name     string
		model    string
		expected interfaces.ProviderType
	}{
		{"empty uses default", "", interfaces.ProviderGemini},
		{"claude prefix", "claude/claude-haiku-3-5-20241022", interfaces.ProviderClaude},
		{"anthropic prefix", "anthropic/claude-sonnet-4", interfaces.ProviderClaude},
		{"gemini prefix", "gemini/gemini-2.0-flash", interfaces.ProviderGemini},
		{"google prefix", "google/gemini-2.0-flash", interfaces.ProviderGemini},
		{"claude model name", "claude-haiku-3-5-20241022", interfaces.ProviderClaude},
		{"gemini model name", "gemini-2.0-flash", interfaces.ProviderGemini},
		{"mixed case", "Claude-Haiku-3-5", interfaces.ProviderClaude},
		{"unknown uses default", "gpt-4", interfaces.ProviderGemini},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := factory.DetectProvider(tt.model); got != tt.expected {
				t.Errorf("DetectProvider(%q) = %s, want %s", tt.model, got, tt.expected)
			}
		})
	}
}

func TestDetectProvider_ConfiguredDefault(t *testing.T) {
	config := common.NewDefaultConfig()
	config.LLM.DefaultProvider = "claude"
	factory := NewProviderFactory(&config.Gemini, &config.Claude, &config.LLM, arbor.NewLogger().WithLevel(arbor.Disabled))

	if got := factory.DetectProvider(""); got != interfaces.ProviderClaude {
		t.Errorf("DetectProvider(\"\") = %s, want claude", got)
	}
}

func TestNormalizeModel(t *testing.T) {
	factory := newTestFactory()

	tests := []struct {
		model    string
		expected string
	}{
		{"claude/claude-haiku-3-5-20241022", "claude-haiku-3-5-20241022"},
		{"anthropic/claude-sonnet-4", "claude-sonnet-4"},
		{"gemini/gemini-2.0-flash", "gemini-2.0-flash"},
		{"google/gemini-2.0-flash", "gemini-2.0-flash"},
		{"gemini-2.0-flash", "gemini-2.0-flash"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := factory.NormalizeModel(tt.model); got != tt.expected {
			t.Errorf("NormalizeModel(%q) = %q, want %q", tt.model, got, tt.expected)
		}
	}
}

func TestGetDefaultModel(t *testing.T) {
	factory := newTestFactory()

	if got := factory.GetDefaultModel(interfaces.ProviderGemini); got != "gemini-2.0-flash" {
		t.Errorf("GetDefaultModel(gemini) = %s", got)
	}
	if got := factory.GetDefaultModel(interfaces.ProviderClaude); got != "claude-haiku-3-5-20241022" {
		t.Errorf("GetDefaultModel(claude) = %s", got)
	}
}

func TestConfigured(t *testing.T) {
	clearKeyEnv(t)

	factory := newTestFactory()
	if factory.Configured() {
		t.Error("Configured() = true with no credential source")
	}

	t.Setenv("CUSTOS_GEMINI_API_KEY", "test-key")
	if !factory.Configured() {
		t.Error("Configured() = false with Gemini env key set")
	}
}

func TestConfigured_ClaudeOnly(t *testing.T) {
	clearKeyEnv(t)
	t.Setenv("ANTHROPIC_API_KEY", "test-key")

	factory := newTestFactory()
	if !factory.Configured() {
		t.Error("Configured() = false with Anthropic env key set")
	}
}

func TestConfigured_ConfigFallback(t *testing.T) {
	clearKeyEnv(t)

	config := common.NewDefaultConfig()
	config.Gemini.APIKey = "from-config"
	factory := NewProviderFactory(&config.Gemini, &config.Claude, &config.LLM, arbor.NewLogger().WithLevel(arbor.Disabled))

	if !factory.Configured() {
		t.Error("Configured() = false with config file key set")
	}
}

func TestConvertMessagesToGemini(t *testing.T) {
	messages := []interfaces.Message{
		{Role: "system", Content: "be brief"},
		{Role: "user", Content: "hello"},
		{Role: "assistant", Content: "hi"},
		{Role: "user", Content: "bye"},
	}

	contents, systemText, err := convertMessagesToGemini(messages)
	if err != nil {
		t.Fatalf("convertMessagesToGemini() error = %v", err)
	}

	if systemText != "be brief" {
		t.Errorf("systemText = %q, want %q", systemText, "be brief")
	}
	if len(contents) != 3 {
		t.Fatalf("len(contents) = %d, want 3 (system excluded)", len(contents))
	}
	if contents[0].Role != "user" || contents[1].Role != "model" || contents[2].Role != "user" {
		t.Errorf("roles = %s/%s/%s, want user/model/user", contents[0].Role, contents[1].Role, contents[2].Role)
	}
}

func TestConvertMessagesToGemini_Errors(t *testing.T) {
	if _, _, err := convertMessagesToGemini(nil); err == nil {
		t.Error("empty messages should fail")
	}

	noUser := []interfaces.Message{{Role: "system", Content: "be brief"}}
	if _, _, err := convertMessagesToGemini(noUser); err == nil {
		t.Error("messages without a user turn should fail")
	}
}

func TestConvertMessagesToClaude(t *testing.T) {
	messages := []interfaces.Message{
		{Role: "system", Content: "be brief"},
		{Role: "user", Content: "hello"},
		{Role: "assistant", Content: "hi"},
	}

	claudeMessages, systemText, err := convertMessagesToClaude(messages)
	if err != nil {
		t.Fatalf("convertMessagesToClaude() error = %v", err)
	}

	if systemText != "be brief" {
		t.Errorf("systemText = %q, want %q", systemText, "be brief")
	}
	if len(claudeMessages) != 2 {
		t.Fatalf("len(claudeMessages) = %d, want 2 (system excluded)", len(claudeMessages))
	}
	if claudeMessages[0].Role != "user" || claudeMessages[1].Role != "assistant" {
		t.Errorf("roles = %s/%s, want user/assistant", claudeMessages[0].Role, claudeMessages[1].Role)
	}
}

func TestConvertMessagesToClaude_Errors(t *testing.T) {
	if _, _, err := convertMessagesToClaude(nil); err == nil {
		t.Error("empty messages should fail")
	}

	noUser := []interfaces.Message{{Role: "assistant", Content: "hi"}}
	if _, _, err := convertMessagesToClaude(noUser); err == nil {
		t.Error("messages without a user turn should fail")
	}
}
