package usecase

import (
	"strings"
	"testing"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"lowercase passthrough", "atlas", "atlas"},
		{"mixed case", "Atlas", "atlas"},
		{"spaces to hyphens", "My Cool Agent", "my-cool-agent"},
		{"punctuation collapses", "Bob's  --  Agent!!", "bob-s-agent"},
		{"unicode stripped", "Café Ünïcode", "caf-n-code"},
		{"digits kept", "agent 2000", "agent-2000"},
		{"leading and trailing junk", "  ---hello---  ", "hello"},
		{"only junk", "!!! ???", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Slugify(tt.input); got != tt.want {
				t.Errorf("Slugify(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSlugifyDeterministic(t *testing.T) {
	first := Slugify("My Cool Agent 2000")
	for i := 0; i < 10; i++ {
		if got := Slugify("My Cool Agent 2000"); got != first {
			t.Fatalf("Slugify not deterministic: got %q then %q", first, got)
		}
	}
}

func TestSlugifyTruncation(t *testing.T) {
	long := strings.Repeat("abcde ", 20)
	slug := Slugify(long)
	if len(slug) > 40 {
		t.Errorf("slug length = %d, want <= 40", len(slug))
	}
	if strings.HasSuffix(slug, "-") {
		t.Errorf("truncated slug %q ends with a hyphen", slug)
	}

	// A name whose 40th character lands on a separator must not leave a
	// trailing hyphen behind.
	boundary := strings.Repeat("a", 39) + " tail"
	slug = Slugify(boundary)
	if len(slug) != 39 {
		t.Errorf("boundary slug = %q (len %d), want the 39 leading characters", slug, len(slug))
	}
}

func TestAgentSlug(t *testing.T) {
	got := AgentSlug("Atlas", "3f8a2b1c-9d4e-4f6a-b1c2-d3e4f5a6b7c8")
	if got != "atlas-3f8a2b1c" {
		t.Errorf("AgentSlug = %q, want %q", got, "atlas-3f8a2b1c")
	}

	// Short identifiers are used whole.
	if got := AgentSlug("Atlas", "abc"); got != "atlas-abc" {
		t.Errorf("AgentSlug with short id = %q, want %q", got, "atlas-abc")
	}
}

func TestNamespaceFor(t *testing.T) {
	got := NamespaceFor("Atlas", "3f8a2b1c-9d4e-4f6a-b1c2-d3e4f5a6b7c8")
	if got != "agent-atlas-3f8a2b1c" {
		t.Errorf("NamespaceFor = %q, want %q", got, "agent-atlas-3f8a2b1c")
	}

	// Stable across calls: the namespace is derived, never stored state.
	if again := NamespaceFor("Atlas", "3f8a2b1c-9d4e-4f6a-b1c2-d3e4f5a6b7c8"); again != got {
		t.Errorf("NamespaceFor not stable: %q then %q", got, again)
	}
}
