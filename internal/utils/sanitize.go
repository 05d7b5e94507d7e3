package utils

import (
	"regexp"
	"strings"
)

// Control characters (except common whitespace)
var controlCharPattern = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F\x7F]`)

// SanitizeAlertField cleans a string taken from an untrusted webhook payload
// before it is stored or rendered: control characters are stripped and the
// value is truncated to maxLen.
func SanitizeAlertField(value string, maxLen int) string {
	value = controlCharPattern.ReplaceAllString(value, "")
	value = strings.TrimSpace(value)
	if maxLen > 0 && len(value) > maxLen {
		value = value[:maxLen]
	}
	return value
}
