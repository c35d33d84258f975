package bibid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalID(t *testing.T) {
	b := Default()

	tests := []struct {
		name     string
		title    string
		authors  []string
		year     int
		expected string
	}{
		{
			name:     "family name first",
			title:    "Influence",
			authors:  []string{"Cialdini, Robert B."},
			year:     2006,
			expected: "cialdini-2006---influence",
		},
		{
			name:     "given name first",
			title:    "Influence",
			authors:  []string{"Robert B. Cialdini"},
			year:     2006,
			expected: "cialdini-2006---influence",
		},
		{
			name:     "no year",
			title:    "Where Good Ideas Come From",
			authors:  []string{"Steven Johnson"},
			expected: "johnson---where-good-ideas-come-from",
		},
		{
			name:     "no author",
			title:    "Beowulf",
			year:     1000,
			expected: "1000---beowulf",
		},
		{
			name:     "title only",
			title:    "Beowulf",
			expected: "beowulf",
		},
		{
			name:     "author that slugs to nothing is omitted",
			title:    "Beowulf",
			authors:  []string{"???"},
			expected: "beowulf",
		},
		{
			// The subtitle goes by default. Builder.KeepSubtitle gives
			// "tough---how-children-succeed-grit-curiosity" instead.
			name:     "subtitle dropped before truncation",
			title:    "How Children Succeed: Grit, Curiosity, and the Hidden Power of Character",
			authors:  []string{"Paul Tough"},
			expected: "tough---how-children-succeed",
		},
		{
			name:     "only the first author counts",
			title:    "Growing Perennials in Cold Climates",
			authors:  []string{"Stuckey, Maggie", "McGee, Rose Marie Nichols"},
			year:     2000,
			expected: "stuckey-2000---growing-perennials-in-cold-climates",
		},
		{
			name:     "accented family name",
			title:    "Solaris",
			authors:  []string{"Stanisław Lem"},
			year:     1961,
			expected: "lem-1961---solaris",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, b.CanonicalID(tt.title, tt.authors, tt.year))
		})
	}
}

func TestCanonicalID_KeepSubtitle(t *testing.T) {
	b := Default()
	b.KeepSubtitle = true

	id := b.CanonicalID("How Children Succeed: Grit, Curiosity, and the Hidden Power of Character", []string{"Paul Tough"}, 0)
	assert.Equal(t, "tough---how-children-succeed-grit-curiosity", id)
}

func TestCanonicalID_IsStable(t *testing.T) {
	b := Default()
	first := b.CanonicalID("Thinking, Fast and Slow", []string{"Kahneman, Daniel"}, 2011)
	second := Default().CanonicalID("Thinking, Fast and Slow", []string{"Kahneman, Daniel"}, 2011)
	assert.Equal(t, first, second)
	assert.Equal(t, "kahneman-2011---thinking-fast-and-slow", first)
}

func TestAuthorSlug(t *testing.T) {
	b := Default()
	tests := []struct {
		input    string
		expected string
	}{
		{"Cialdini, Robert B.", "cialdini"},
		{"Robert B. Cialdini", "cialdini"},
		{"Robert B.Cialdini", "cialdini"},
		{"Cialdini", "cialdini"},
		{"García Márquez, Gabriel", "garcia-marquez"},
		{"Martin Luther King Jr.", "jr"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, b.AuthorSlug(tt.input))
		})
	}
}

func TestTitleSlug(t *testing.T) {
	b := Default()
	tests := []struct {
		input    string
		expected string
	}{
		{"This Very Long and Unwieldy Title That Never Ends", "this-very-long-and-unwieldy-title"},
		{"This Title: With a Subtitle", "this-title"},
		{"this title (with paren)", "this-title"},
		{"Influence", "influence"},
		{"(Untitled)", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, b.TitleSlug(tt.input))
		})
	}
}

func TestTruncate(t *testing.T) {
	b := Default()
	assert.Equal(t, "how-children-succeed-grit-curiosity",
		b.Truncate("how-children-succeed-grit-curiosity-and-the-hidden-power-of-character"))
	assert.Equal(t, "influence", b.Truncate("influence"))
	// Within the limit nothing is trimmed, even a trailing stop word.
	assert.Equal(t, "gone-with-the", b.Truncate("gone-with-the"))
	// Backing off never goes below one word.
	assert.Equal(t, "the", b.Truncate("the-and-the-and-the-and-the-end"))
}

func TestNewBuilder_CustomRules(t *testing.T) {
	b := NewBuilder(3, []string{"of", "the"})
	assert.Equal(t, "history", b.TitleSlug("History of the World Wars"))
	assert.Equal(t, "a-brief-history", b.TitleSlug("A Brief History of Time"))

	fallback := NewBuilder(0, nil)
	assert.Equal(t, "one-two-three-four-five-six-seven", fallback.Truncate("one-two-three-four-five-six-seven-eight"))
}
