package usecase

import (
	"fmt"
	"strings"
)

const maxSlugLen = 40

// Slugify lowercases a display name, collapses every run of
// non-alphanumeric characters into a single hyphen, trims leading and
// trailing hyphens, and bounds the result to 40 characters. Deterministic:
// the same name always produces the same slug.
func Slugify(name string) string {
	var b strings.Builder
	lastHyphen := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}

	slug := strings.Trim(b.String(), "-")
	if len(slug) > maxSlugLen {
		slug = strings.TrimRight(slug[:maxSlugLen], "-")
	}
	return slug
}

// AgentSlug combines the slugified name with the first 8 hex characters of
// the agent identifier, giving a stable, unique per-agent handle.
func AgentSlug(name, agentID string) string {
	short := agentID
	if len(short) > 8 {
		short = short[:8]
	}
	return fmt.Sprintf("%s-%s", Slugify(name), short)
}

// NamespaceFor derives the namespace name for an agent. Stable for the
// agent's lifetime.
func NamespaceFor(name, agentID string) string {
	return "agent-" + AgentSlug(name, agentID)
}
