package rbac

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	cases := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple name", "Content Team", "content-team"},
		{"already canonical", "content-team", "content-team"},
		{"mixed case and symbols", "Senior Editor!!", "senior-editor"},
		{"repeated separators", "a  -  b", "a-b"},
		{"leading and trailing separators", "  --hello--  ", "hello"},
		{"digits kept", "Tier 2 Support", "tier-2-support"},
		{"newline is a separator", "a\nb", "a-b"},
		{"mixed whitespace collapses", "a \r\n\t b", "a-b"},
		{"only symbols", "!!!", ""},
		{"empty", "", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Slugify(tc.input))
		})
	}
}

func TestSlugifyTruncates(t *testing.T) {
	long := strings.Repeat("a", 100)
	slug := Slugify(long)
	assert.Len(t, slug, SlugMaxLen)

	// A hyphen landing exactly on the cut is trimmed, not kept dangling
	input := strings.Repeat("a", SlugMaxLen-1) + " tail"
	slug = Slugify(input)
	assert.False(t, strings.HasSuffix(slug, "-"))
	assert.LessOrEqual(t, len(slug), SlugMaxLen)
}

func TestCustomRoleSlug(t *testing.T) {
	slug := CustomRoleSlug("3f2c8a1e")
	assert.Equal(t, "custom-user-3f2c8a1e", slug)
	assert.True(t, IsCustomRoleSlug(slug))
	assert.True(t, IsCustomRoleFor(slug, "3f2c8a1e"))
	assert.False(t, IsCustomRoleFor(slug, "other-user"))

	assert.False(t, IsCustomRoleSlug("editor"))
	assert.False(t, IsCustomRoleSlug(CustomRolePrefix)) // prefix alone is not a role

	long := CustomRoleSlug(strings.Repeat("x", 100))
	assert.LessOrEqual(t, len(long), SlugMaxLen)
}
