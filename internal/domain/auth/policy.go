package auth

import "strings"

// IsEmailAllowed reports whether email belongs to the allowed organizational
// domain. The email is trimmed and lowercased before checking; it must contain
// exactly one "@", a non-empty local part, and a domain part equal to
// allowedDomain (compared case-insensitively). Deterministic and total.
func IsEmailAllowed(email, allowedDomain string) bool {
	if allowedDomain == "" {
		return false
	}

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return false
	}

	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		// Zero or multiple "@" characters.
		return false
	}
	local, domain := parts[0], parts[1]
	if local == "" {
		return false
	}

	return domain == strings.ToLower(strings.TrimSpace(allowedDomain))
}
