package feed

import (
	"fmt"
	"io"
	"strings"

	"github.com/mmcdole/gofeed/rss"

	"github.com/jonesrussell/north-cloud/harvester/internal/domain"
)

// ParseCandidates parses an RSS body into at most limit candidates for topic.
// Items without a link are skipped. The aggregator appends " - <publisher>"
// to titles; that suffix is removed.
func ParseCandidates(body io.Reader, topic string, limit int) ([]domain.Candidate, error) {
	parser := &rss.Parser{}

	parsed, err := parser.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	candidates := make([]domain.Candidate, 0, min(len(parsed.Items), limit))
	for _, item := range parsed.Items {
		if len(candidates) >= limit {
			break
		}

		link := strings.TrimSpace(item.Link)
		if link == "" {
			continue
		}

		publisher := domain.UnknownPublisher
		if item.Source != nil && strings.TrimSpace(item.Source.Title) != "" {
			publisher = strings.TrimSpace(item.Source.Title)
		}

		candidates = append(candidates, domain.Candidate{
			Title:     trimPublisherSuffix(strings.TrimSpace(item.Title), publisher),
			URL:       link,
			Publisher: publisher,
			Topic:     topic,
		})
	}

	return candidates, nil
}

func trimPublisherSuffix(title, publisher string) string {
	if publisher == domain.UnknownPublisher {
		return title
	}
	trimmed := strings.TrimSuffix(title, " - "+publisher)
	if trimmed == "" {
		return title
	}
	return trimmed
}

// DedupeByURL keeps the first candidate for each exact URL, preserving order.
func DedupeByURL(candidates []domain.Candidate) []domain.Candidate {
	seen := make(map[string]struct{}, len(candidates))
	unique := make([]domain.Candidate, 0, len(candidates))

	for _, c := range candidates {
		if _, ok := seen[c.URL]; ok {
			continue
		}
		seen[c.URL] = struct{}{}
		unique = append(unique, c)
	}

	return unique
}
