package fetcher

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonesrussell/north-cloud/harvester/internal/pdf"
)

// FindPDFLink returns the absolute URL of the first anchor in doc that points
// at a PDF, or "" when there is none.
func FindPDFLink(doc, pageURL string) string {
	base, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}

	parsed, err := goquery.NewDocumentFromReader(strings.NewReader(doc))
	if err != nil {
		return ""
	}

	var link string
	parsed.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return true
		}

		resolved := base.ResolveReference(ref)
		if resolved.Scheme != "http" && resolved.Scheme != "https" {
			return true
		}
		if !pdf.IsPDFURL(resolved.String()) {
			return true
		}

		link = resolved.String()
		return false
	})

	return link
}
