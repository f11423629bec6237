package utils

import (
	"crypto/md5"
	"fmt"
	"strings"
)

// GetGravatarURL builds the Gravatar URL for an email address. Gravatar
// hashes the trimmed, lowercased address with MD5; unknown addresses fall
// back to the "mystery person" placeholder. A non-positive size defaults
// to the 32px used by the log viewer.
func GetGravatarURL(email string, size int) string {
	if size <= 0 {
		size = 32
	}

	normalized := strings.ToLower(strings.TrimSpace(email))
	hash := md5.Sum([]byte(normalized))

	return fmt.Sprintf("https://www.gravatar.com/avatar/%x?s=%d&d=mp", hash, size)
}
