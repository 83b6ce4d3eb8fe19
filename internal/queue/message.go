// Package queue carries harvest job messages over a Redis list.
package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNoTopics is returned for a message without a usable topic.
var ErrNoTopics = errors.New("message has no topics")

// Message is one harvest job.
type Message struct {
	ID         string    `json:"id,omitempty"`
	Topics     []string  `json:"topics"`
	EnqueuedAt time.Time `json:"enqueued_at,omitzero"`
}

// Decode parses a raw list entry.
func Decode(raw string) (Message, error) {
	var msg Message
	if err := json.Unmarshal([]byte(raw), &msg); err != nil {
		return Message{}, fmt.Errorf("decode message: %w", err)
	}

	topics := msg.Topics[:0]
	for _, t := range msg.Topics {
		if t = strings.TrimSpace(t); t != "" {
			topics = append(topics, t)
		}
	}
	if len(topics) == 0 {
		return Message{}, ErrNoTopics
	}
	msg.Topics = topics

	return msg, nil
}
