package rbac

import (
	"strings"
	"unicode"
)

const (
	// SlugMaxLen caps every role slug, generated or explicit.
	SlugMaxLen = 64

	// SlugMinLen is the shortest usable generated slug base.
	SlugMinLen = 2

	// CustomRolePrefix marks roles synthesized for a single user's bespoke
	// permission set.
	CustomRolePrefix = "custom-user-"
)

// Slugify canonicalizes a display name into a role slug: lowercase, stripped
// to [a-z0-9-], repeated separators collapsed, leading/trailing separators
// trimmed, truncated to SlugMaxLen. The result can be shorter than SlugMinLen
// when the name carries no usable characters; callers must check.
func Slugify(value string) string {
	var b strings.Builder
	b.Grow(len(value))

	lastHyphen := false
	for _, r := range strings.ToLower(strings.TrimSpace(value)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		case r == '-' || unicode.IsSpace(r):
			if !lastHyphen && b.Len() > 0 {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}

	slug := strings.Trim(b.String(), "-")
	if len(slug) > SlugMaxLen {
		slug = strings.Trim(slug[:SlugMaxLen], "-")
	}
	return slug
}

// CustomRoleSlug derives the deterministic slug of a user's private role.
func CustomRoleSlug(userID string) string {
	slug := CustomRolePrefix + userID
	if len(slug) > SlugMaxLen {
		slug = slug[:SlugMaxLen]
	}
	return slug
}

// IsCustomRoleSlug reports whether slug follows the private-role naming
// convention.
func IsCustomRoleSlug(slug string) bool {
	return strings.HasPrefix(slug, CustomRolePrefix) && len(slug) > len(CustomRolePrefix)
}

// IsCustomRoleFor reports whether slug is the private role of the given user.
func IsCustomRoleFor(slug, userID string) bool {
	return IsCustomRoleSlug(slug) && strings.Contains(slug, userID)
}
