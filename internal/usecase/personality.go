package usecase

import (
	"fmt"
	"strings"
	"time"

	"github.com/Daltonopenclaw/agent-forge/internal/domain/entity"
)

// Built-in personality templates. The {{name}} placeholder is substituted
// with the agent's display name when the document is generated.
var personalityTemplates = map[string]string{
	"personal-assistant": `# SOUL.md

I am {{name}}, a personal assistant.

## How I work
- I am helpful and proactive, and I remember your preferences.
- I keep track of your tasks and schedules without being asked twice.
- I ask clarifying questions when a request is ambiguous, but I don't
  interrogate you over small things.

## Tone
Warm, organized, dependable.
`,
	"research-partner": `# SOUL.md

I am {{name}}, a research partner.

## How I work
- I dig deep into topics and synthesize information from multiple angles.
- I distinguish what I know from what I'm inferring, and I say so.
- I surface disagreements between sources rather than papering over them.

## Tone
Thorough, analytical, curious.
`,
	"creative-collaborator": `# SOUL.md

I am {{name}}, a creative collaborator.

## How I work
- I generate ideas in volume first, then help refine the promising ones.
- I build on your drafts rather than replacing them.
- I offer honest reactions when asked for feedback.

## Tone
Imaginative, encouraging, playful.
`,
	"technical-expert": `# SOUL.md

I am {{name}}, a technical expert.

## How I work
- I'm precise about code, APIs, and system behavior.
- I prefer working examples over abstract explanations.
- I flag edge cases and failure modes before they bite.

## Tone
Direct, pragmatic, detail-oriented.
`,
}

// soulDocument returns the SOUL.md body for the agent: a translated
// template with name substitution, or the user's free-text content when a
// custom personality was chosen (or the template is unknown).
func soulDocument(cfg *entity.AgentConfig) string {
	tmpl, ok := personalityTemplates[cfg.PersonalityType]
	if !ok {
		return cfg.SoulContent
	}
	return strings.ReplaceAll(tmpl, "{{name}}", cfg.Name)
}

func identityDocument(cfg *entity.AgentConfig, now time.Time) string {
	return fmt.Sprintf(`# IDENTITY.md

- **Name:** %s
- **Avatar:** %s
- **Created:** %s

---

_This is %s, powered by agent-forge_
`, cfg.Name, cfg.Avatar, now.Format("2006-01-02"), cfg.Name)
}

// Model identifiers per tier. The pooled credential routes through an
// aggregation provider, so these names stay vendor-qualified there.
var modelByTier = map[entity.ModelTier]string{
	entity.ModelTierSmart:    "claude-sonnet-4-20250514",
	entity.ModelTierPowerful: "claude-opus-4-20250514",
	entity.ModelTierFast:     "claude-3-5-haiku-20241022",
}

// runtimeConfigDocument renders the agent runtime's config.json5. Agents on
// the platform's pooled credential address models through the aggregation
// provider; an agent with a BYOK anthropic key talks to the vendor directly.
func runtimeConfigDocument(cfg *entity.AgentConfig) string {
	model := modelByTier[cfg.ModelTier]

	useAggregator := cfg.BYOKAPIKey == "" || cfg.BYOKProvider != entity.BYOKProviderAnthropic
	modelRef := fmt.Sprintf("%q", model)
	if useAggregator {
		modelRef = fmt.Sprintf("%q", "openrouter/"+model)
	}

	return fmt.Sprintf(`{
  // Agent runtime configuration
  // Auto-generated by agent-forge

  agents: {
    defaults: {
      model: {
        primary: %s,
      },
      bootstrapMaxChars: 8000,
      bootstrapTotalMaxChars: 16000,
    },
  },

  gateway: {
    auth: {
      mode: "trusted-proxy",
      trustedProxy: {
        userHeader: "x-agentforge-user-id",
      },
    },
    trustedProxies: ["10.0.0.0/8", "172.16.0.0/12"],
  },

  channels: {
    webchat: {
      enabled: true,
    },
  },

  memory: {
    search: {
      enabled: true,
      provider: "auto",
    },
  },

  tools: {
    web: {
      search: {
        enabled: true,
      },
      fetch: {
        enabled: true,
      },
    },
  },

  heartbeat: {
    enabled: false,
  },
}`, modelRef)
}

// agentDocuments assembles the full config object contents: the runtime
// config plus every named document the runtime expects in its workspace.
func agentDocuments(cfg *entity.AgentConfig, now time.Time) map[string]string {
	return map[string]string{
		"config.json5": runtimeConfigDocument(cfg),
		"IDENTITY.md":  identityDocument(cfg, now),
		"SOUL.md":      soulDocument(cfg),
		"AGENTS.md":    cfg.AgentsContent,
		"USER.md":      "# USER.md\n\n_Your agent will fill this in during your first conversation._\n",
		"MEMORY.md":    "# MEMORY.md\n\n_Long-term memories will be stored here._\n",
		"TOOLS.md":     "# TOOLS.md\n\n_Tool configurations and notes._\n",
		"HEARTBEAT.md": "# HEARTBEAT.md\n\n_Proactive check-in tasks (disabled by default)._\n",
	}
}
