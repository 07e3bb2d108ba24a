package usecase

import (
	"strings"
	"testing"
	"time"

	"github.com/Daltonopenclaw/agent-forge/internal/domain/entity"
)

func TestSoulDocumentTemplateSubstitution(t *testing.T) {
	for tmplName := range personalityTemplates {
		cfg := &entity.AgentConfig{Name: "Atlas", PersonalityType: tmplName}
		doc := soulDocument(cfg)
		if !strings.Contains(doc, "Atlas") {
			t.Errorf("template %q: document does not mention the agent name", tmplName)
		}
		if strings.Contains(doc, "{{name}}") {
			t.Errorf("template %q: placeholder left unsubstituted", tmplName)
		}
	}
}

func TestSoulDocumentCustomFallback(t *testing.T) {
	cfg := &entity.AgentConfig{
		Name:            "Atlas",
		PersonalityType: "custom",
		SoulContent:     "# My own soul\n\nI do things my way.\n",
	}
	if got := soulDocument(cfg); got != cfg.SoulContent {
		t.Errorf("custom personality should return SoulContent verbatim, got %q", got)
	}

	// Unknown template names fall back the same way.
	cfg.PersonalityType = "no-such-template"
	if got := soulDocument(cfg); got != cfg.SoulContent {
		t.Errorf("unknown template should return SoulContent, got %q", got)
	}
}

func TestIdentityDocument(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	cfg := &entity.AgentConfig{Name: "Atlas", Avatar: "🤖"}
	doc := identityDocument(cfg, now)

	for _, want := range []string{"Atlas", "🤖", "2025-06-15"} {
		if !strings.Contains(doc, want) {
			t.Errorf("identity document missing %q:\n%s", want, doc)
		}
	}
}

func TestRuntimeConfigModelSelection(t *testing.T) {
	tests := []struct {
		name string
		cfg  entity.AgentConfig
		want string
	}{
		{
			name: "pooled smart tier routes through aggregator",
			cfg:  entity.AgentConfig{ModelTier: entity.ModelTierSmart},
			want: `"openrouter/claude-sonnet-4-20250514"`,
		},
		{
			name: "pooled powerful tier",
			cfg:  entity.AgentConfig{ModelTier: entity.ModelTierPowerful},
			want: `"openrouter/claude-opus-4-20250514"`,
		},
		{
			name: "pooled fast tier",
			cfg:  entity.AgentConfig{ModelTier: entity.ModelTierFast},
			want: `"openrouter/claude-3-5-haiku-20241022"`,
		},
		{
			name: "byok anthropic goes direct to the vendor",
			cfg: entity.AgentConfig{
				ModelTier:    entity.ModelTierSmart,
				BYOKProvider: entity.BYOKProviderAnthropic,
				BYOKAPIKey:   "sk-ant-test",
			},
			want: `"claude-sonnet-4-20250514"`,
		},
		{
			name: "byok openai still routes through aggregator",
			cfg: entity.AgentConfig{
				ModelTier:    entity.ModelTierSmart,
				BYOKProvider: entity.BYOKProviderOpenAI,
				BYOKAPIKey:   "sk-test",
			},
			want: `"openrouter/claude-sonnet-4-20250514"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := runtimeConfigDocument(&tt.cfg)
			if !strings.Contains(doc, tt.want) {
				t.Errorf("config document missing model ref %s:\n%s", tt.want, doc)
			}
		})
	}
}

func TestRuntimeConfigTrustedProxy(t *testing.T) {
	doc := runtimeConfigDocument(&entity.AgentConfig{ModelTier: entity.ModelTierSmart})
	for _, want := range []string{`mode: "trusted-proxy"`, "x-agentforge-user-id"} {
		if !strings.Contains(doc, want) {
			t.Errorf("config document missing %q", want)
		}
	}
}

func TestAgentDocumentsSet(t *testing.T) {
	cfg := &entity.AgentConfig{
		Name:            "Atlas",
		PersonalityType: "technical-expert",
		AgentsContent:   "# AGENTS.md\n\nOperating notes.\n",
		ModelTier:       entity.ModelTierSmart,
	}
	docs := agentDocuments(cfg, time.Now())

	wantKeys := []string{
		"config.json5", "IDENTITY.md", "SOUL.md", "AGENTS.md",
		"USER.md", "MEMORY.md", "TOOLS.md", "HEARTBEAT.md",
	}
	if len(docs) != len(wantKeys) {
		t.Fatalf("got %d documents, want %d", len(docs), len(wantKeys))
	}
	for _, key := range wantKeys {
		if _, ok := docs[key]; !ok {
			t.Errorf("missing document %q", key)
		}
	}
	if docs["AGENTS.md"] != cfg.AgentsContent {
		t.Errorf("AGENTS.md should carry the user content verbatim")
	}
}
