package output

import (
	"regexp"
	"strings"
)

const (
	maxKeyLength = 50
	emptyKey     = "untitled"
)

var (
	invalidKeyChars        = regexp.MustCompile(`[^a-z0-9]+`)
	consecutiveUnderscores = regexp.MustCompile(`_{2,}`)
)

// Key derives the document key for a topic set: each topic is lowercased with
// runs of other characters turned into underscores, the topics are joined with
// underscores and the result is cut to 50 characters.
func Key(topics []string) string {
	parts := make([]string, 0, len(topics))
	for _, topic := range topics {
		if s := sanitizeTopic(topic); s != "" {
			parts = append(parts, s)
		}
	}

	key := strings.Join(parts, "_")
	if len(key) > maxKeyLength {
		key = strings.TrimRight(key[:maxKeyLength], "_")
	}
	if key == "" {
		return emptyKey
	}

	return key
}

func sanitizeTopic(topic string) string {
	normalized := strings.ToLower(topic)
	normalized = invalidKeyChars.ReplaceAllString(normalized, "_")
	normalized = consecutiveUnderscores.ReplaceAllString(normalized, "_")
	return strings.Trim(normalized, "_")
}
