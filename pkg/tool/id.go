package tool

import (
	"strings"

	"github.com/google/uuid"
)

func GenerateUUIDV7() string {
	return uuid.Must(uuid.NewV7()).String()
}

// NormalizeEmail lowercases and trims an address for matching. Provider and
// identity emails are compared through this only.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
