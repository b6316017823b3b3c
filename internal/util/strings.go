package util

import "strings"

// SafeTruncate safely truncates a string to maxLen characters without panicking.
// Returns the original string if it's shorter than maxLen, otherwise returns
// the first maxLen characters. This prevents index out of bounds errors when
// logging sensitive data like token hashes, where only a prefix should be shown.
//
// If maxLen is negative, it's treated as 0 and returns an empty string.
//
// Example:
//
//	SafeTruncate("f2ca1bb6c7e907d06dafe468", 8) // Returns: "f2ca1bb6"
//	SafeTruncate("short", 10)                   // Returns: "short"
//	SafeTruncate("test", -1)                    // Returns: ""
func SafeTruncate(s string, maxLen int) string {
	if maxLen < 0 {
		return ""
	}
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen]
}

// NormalizeEmail canonicalizes an email address for identity provider lookups.
// Leading/trailing whitespace is stripped and the address is lowercased so that
// "  Admin@Example.COM " and "admin@example.com" resolve to the same account.
//
// The function does not validate the address; an empty result means the input
// contained no usable address at all.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeOrigin normalizes a URL origin for link building by removing
// trailing slashes. Reset and login URLs are assembled by concatenating the
// configured application origin with a path, so a trailing slash would
// produce double-slash links.
//
// Example:
//
//	NormalizeOrigin("https://app.example.com/")   // Returns: "https://app.example.com"
//	NormalizeOrigin("https://app.example.com")    // Returns: "https://app.example.com"
func NormalizeOrigin(url string) string {
	return strings.TrimRight(url, "/")
}
