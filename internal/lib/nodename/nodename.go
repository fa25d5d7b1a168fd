// Package nodename generates repository node labels: a validated label keeps
// only path-safe characters, a unique label suffixes -0, -1, ... until no
// sibling carries the same name.
package nodename

import (
	"context"
	"fmt"
	"strings"
	"unicode"
)

// ExistsFunc reports whether a node with the given name already exists under
// the target parent.
type ExistsFunc func(ctx context.Context, name string) (bool, error)

// Validated lowercases the input and replaces every character outside
// [a-z0-9_-] with a dash, collapsing runs. Empty input stays empty.
func Validated(label string) string {
	var b strings.Builder
	lastDash := false

	for _, r := range strings.ToLower(strings.TrimSpace(label)) {
		switch {
		case r >= 'a' && r <= 'z', unicode.IsDigit(r), r == '_':
			b.WriteRune(r)
			lastDash = false
		case r == '-':
			if !lastDash {
				b.WriteRune('-')
			}
			lastDash = true
		default:
			if !lastDash && b.Len() > 0 {
				b.WriteRune('-')
			}
			lastDash = true
		}
	}

	return strings.Trim(b.String(), "-")
}

// Unique returns base when no sibling holds it, otherwise base-0, base-1 and
// so on until a free label is found.
func Unique(ctx context.Context, base string, exists ExistsFunc) (string, error) {
	taken, err := exists(ctx, base)
	if err != nil {
		return "", fmt.Errorf("nodename.Unique: %w", err)
	}
	if !taken {
		return base, nil
	}

	for i := 0; ; i++ {
		candidate := fmt.Sprintf("%s-%d", base, i)
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("nodename.Unique: %w", err)
		}
		if !taken {
			return candidate, nil
		}
	}
}

// ForContact builds the contact label: first letter of the first name plus the
// last name, lowercased, whitespace stripped. Blank names fall back to
// "anonymous".
func ForContact(firstName, lastName string) string {
	firstName = strings.TrimSpace(firstName)
	if firstName == "" {
		return "anonymous"
	}

	lastName = strings.Join(strings.Fields(lastName), "")
	return Validated(strings.ToLower(string([]rune(firstName)[0]) + lastName))
}
