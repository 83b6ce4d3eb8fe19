// Package domain holds the records that flow through the acquisition pipeline.
package domain

// UnknownPublisher is reported when the feed does not name a source.
const UnknownPublisher = "Unknown"

// Candidate is a discovered article's metadata prior to full-text extraction.
type Candidate struct {
	Title     string
	URL       string
	Publisher string
	Topic     string
}

// Document is the result of resolving and extracting a candidate URL.
// Text is cleaned plain text, or empty when nothing could be extracted.
type Document struct {
	FinalURL string
	Text     string
}

// Article is one record of a run's output.
type Article struct {
	Title     string `json:"title"`
	URL       string `json:"url"`
	Publisher string `json:"publisher"`
	Topic     string `json:"topic"`
	Text      string `json:"text"`
}

// NewArticle combines a candidate with its extracted document. The resolved
// URL replaces the candidate URL when one is known.
func NewArticle(c Candidate, doc Document) Article {
	url := doc.FinalURL
	if url == "" {
		url = c.URL
	}

	publisher := c.Publisher
	if publisher == "" {
		publisher = UnknownPublisher
	}

	return Article{
		Title:     c.Title,
		URL:       url,
		Publisher: publisher,
		Topic:     c.Topic,
		Text:      doc.Text,
	}
}
