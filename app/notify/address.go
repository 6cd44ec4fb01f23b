package notify

import (
	"net/mail"
	"regexp"
	"strings"
)

const maxEmailLength = 320

var (
	emailRe     = regexp.MustCompile(`^[A-Za-z0-9.!#$%&'*+/=?^_` + "`" + `{|}~-]+@[A-Za-z0-9-]+(?:\.[A-Za-z0-9-]+)+$`)
	separatorRe = regexp.MustCompile(`[,\n;]+`)
)

// NormalizeEmail lowercases and trims an address for comparison and storage.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsValidEmail reports whether an address has a pragmatic valid format. Bare
// addresses only, no display names, no header injection characters.
func IsValidEmail(email string) bool {
	if email == "" || len(email) > maxEmailLength {
		return false
	}
	if strings.ContainsAny(email, "\r\n") {
		return false
	}
	parsed, err := mail.ParseAddress(email)
	if err != nil || parsed.Address != email {
		return false
	}
	return emailRe.MatchString(email)
}

// SanitizeEmail normalizes an address, returning an empty string when the
// result is not valid.
func SanitizeEmail(email string) string {
	normalized := NormalizeEmail(email)
	if !IsValidEmail(normalized) {
		return ""
	}
	return normalized
}

// ParseEmailList splits a raw recipient string on commas, semicolons, and
// newlines.
func ParseEmailList(raw string) []string {
	var items []string
	for _, item := range separatorRe.Split(raw, -1) {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// SanitizeEmails normalizes, validates, and dedupes recipients while
// preserving order.
func SanitizeEmails(emails []string) []string {
	var cleaned []string
	seen := make(map[string]bool)
	for _, email := range emails {
		sanitized := SanitizeEmail(email)
		if sanitized == "" || seen[sanitized] {
			continue
		}
		seen[sanitized] = true
		cleaned = append(cleaned, sanitized)
	}
	return cleaned
}
