// Package utils provides common utility functions.
package utils

// MaskSecret masks a stored credential value for safe display (shows first 4
// and last 4 chars). Use this to avoid exposing secrets in API responses,
// logs, and terminal output.
func MaskSecret(value string) string {
	if value == "" {
		return "(empty)"
	}
	if len(value) < 12 {
		return "****"
	}
	return value[:4] + "..." + value[len(value)-4:]
}
