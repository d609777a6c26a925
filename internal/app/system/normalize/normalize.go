// Package normalize provides canonical forms for user-entered identifiers.
// Stores call these before writing so uniqueness checks and lookups agree.
package normalize

import "strings"

// Email lowercases and trims an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims surrounding whitespace but preserves case.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// Domain canonicalizes a church domain slug ("Kasiglahan " → "kasiglahan").
func Domain(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
