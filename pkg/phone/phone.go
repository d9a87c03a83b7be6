// Package phone canonicalizes Iraqi phone numbers into a single
// +964-prefixed form. The normalized form is the identity key used for
// login, duplicate-account detection and tracked-booker lookups, so it must
// be applied on both write and read paths.
package phone

import "strings"

// Normalize strips whitespace and any character outside [+0-9], then rewrites
// the national prefix variants ("0...", "00964...", "964...") to "+964...".
// A bare 10-digit subscriber number gets the country code prepended.
// Unrecognized input is returned as-is; downstream uniqueness checks simply
// will not match a malformed number.
func Normalize(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r == '+' || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	p := b.String()

	switch {
	case strings.HasPrefix(p, "00964"):
		return "+964" + p[len("00964"):]
	case strings.HasPrefix(p, "0"):
		return "+964" + p[1:]
	case strings.HasPrefix(p, "964"):
		return "+" + p
	case !strings.HasPrefix(p, "+964") && len(p) == 10:
		return "+964" + p
	}
	return p
}
