package util

// IDLogLength is how many characters of a token or code id may appear in logs
const IDLogLength = 8

// SafeTruncate returns at most maxLen bytes of s without panicking.
// A negative maxLen is treated as zero.
//
//	SafeTruncate("very-long-token-abc123", 8) // "very-lon"
//	SafeTruncate("short", 10)                  // "short"
func SafeTruncate(s string, maxLen int) string {
	if maxLen < 0 {
		return ""
	}
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen]
}

// LogID truncates a credential-like identifier to IDLogLength for logging
func LogID(id string) string {
	return SafeTruncate(id, IDLogLength)
}
