package service

import (
	"fmt"
	"strings"
	"time"
)

const postNameMaxLength = 50

// GeneratePostName derives a short display name from the first five
// words of the post text.
func GeneratePostName(text string) string {
	words := strings.Fields(text)
	if len(words) > 5 {
		words = words[:5]
	}
	name := strings.Join(words, " ")
	if len([]rune(name)) > postNameMaxLength {
		name = string([]rune(name)[:postNameMaxLength]) + "..."
	}
	return name
}

// StoragePath builds the per-post side-storage directory, relative to
// the media root, from the creation date and the sanitized name.
func StoragePath(name string, createdAt time.Time) string {
	sanitized := strings.ReplaceAll(name, " ", "_")
	sanitized = strings.ReplaceAll(sanitized, "/", "_")
	return fmt.Sprintf("%s/%s/%s/%s",
		createdAt.Format("2006"),
		createdAt.Format("01"),
		createdAt.Format("02"),
		sanitized,
	)
}
