// Package extractor pulls readable article text out of HTML.
//
// Extraction is a chain where the first success wins: readability over the
// page HTML, then a selector-driven pass inside the live page, then the same
// selector pass over the raw markup when the live page is unusable. Every
// result goes through Clean.
package extractor

import (
	"context"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	infralogger "github.com/jonesrussell/north-cloud/harvester/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/harvester/internal/browser"
)

// Extraction methods, reported in debug logs.
const (
	MethodReadability = "readability"
	MethodLivePage    = "live_page"
	MethodMarkup      = "markup"
	MethodNone        = "none"
)

// Extractor turns page HTML into clean text.
type Extractor struct {
	cfg    Config
	script string
	log    infralogger.Logger
}

// New creates an extractor.
func New(cfg Config, log infralogger.Logger) *Extractor {
	cfg = cfg.WithDefaults()
	return &Extractor{
		cfg:    cfg,
		script: manualExtractionScript(cfg.MinBlockLength),
		log:    log.With(infralogger.Component("extractor")),
	}
}

// ExtractPage extracts text from a loaded page. It returns "" when every
// method fails.
func (e *Extractor) ExtractPage(ctx context.Context, page browser.Page, pageURL string) string {
	text, method := e.extractPage(ctx, page, pageURL)
	e.log.Debug("Extracted page",
		infralogger.URL(pageURL),
		infralogger.String("method", method),
		infralogger.Int("chars", utf8.RuneCountInString(text)),
	)
	return text
}

func (e *Extractor) extractPage(ctx context.Context, page browser.Page, pageURL string) (string, string) {
	doc, contentErr := page.Content(ctx)
	if contentErr == nil {
		if text, ok := e.fromReadability(doc, pageURL); ok {
			return text, MethodReadability
		}
	}

	live, err := page.Evaluate(ctx, e.script)
	if err == nil {
		return Clean(live), MethodLivePage
	}
	e.log.Debug("Live page extraction failed, using markup", infralogger.URL(pageURL), infralogger.Error(err))

	if contentErr != nil {
		return "", MethodNone
	}
	text, err := e.fromMarkup(doc)
	if err != nil {
		return "", MethodNone
	}
	return text, MethodMarkup
}

// ExtractHTML extracts text from an HTML document without a live page.
func (e *Extractor) ExtractHTML(doc, pageURL string) string {
	if text, ok := e.fromReadability(doc, pageURL); ok {
		return text
	}
	text, err := e.fromMarkup(doc)
	if err != nil {
		return ""
	}
	return text
}

func (e *Extractor) fromReadability(doc, pageURL string) (string, bool) {
	doc = strings.TrimSpace(doc)
	if doc == "" {
		return "", false
	}

	parsedURL, err := url.Parse(pageURL)
	if err != nil {
		return "", false
	}

	article, err := readability.FromReader(strings.NewReader(doc), parsedURL)
	if err != nil {
		return "", false
	}

	text := Clean(article.TextContent)
	if utf8.RuneCountInString(text) <= e.cfg.MinReadabilityLength {
		return "", false
	}
	return text, true
}

// fromMarkup mirrors the live-page script over static HTML.
func (e *Extractor) fromMarkup(doc string) (string, error) {
	parsed, err := goquery.NewDocumentFromReader(strings.NewReader(doc))
	if err != nil {
		return "", err
	}

	var best *goquery.Selection
	bestLength := 0
	for _, selector := range ContentSelectors {
		parsed.Find(selector).Each(func(_ int, s *goquery.Selection) {
			length := utf8.RuneCountInString(strings.TrimSpace(selectionText(s)))
			if length > bestLength {
				best, bestLength = s, length
			}
		})
	}

	if best != nil && bestLength > e.cfg.MinBlockLength {
		container := best.Clone()
		for _, selector := range StripSelectors {
			container.Find(selector).Remove()
		}
		return Clean(selectionText(container)), nil
	}

	return Clean(selectionText(parsed.Find("body"))), nil
}

var whitespaceRun = regexp.MustCompile(`\s+`)

var blockElements = map[atom.Atom]bool{
	atom.Address: true, atom.Article: true, atom.Aside: true, atom.Blockquote: true,
	atom.Dd: true, atom.Div: true, atom.Dl: true, atom.Dt: true, atom.Figcaption: true,
	atom.Figure: true, atom.Footer: true, atom.H1: true, atom.H2: true, atom.H3: true,
	atom.H4: true, atom.H5: true, atom.H6: true, atom.Header: true, atom.Hr: true,
	atom.Li: true, atom.Main: true, atom.Ol: true, atom.P: true, atom.Pre: true,
	atom.Section: true, atom.Table: true, atom.Tr: true, atom.Ul: true,
}

var skippedElements = map[atom.Atom]bool{
	atom.Script: true, atom.Style: true, atom.Noscript: true, atom.Template: true,
}

// selectionText approximates rendered text: whitespace inside text nodes
// collapses and block elements start on their own line.
func selectionText(s *goquery.Selection) string {
	var b strings.Builder
	for _, n := range s.Nodes {
		writeNodeText(n, &b)
	}
	return b.String()
}

func writeNodeText(n *html.Node, b *strings.Builder) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(whitespaceRun.ReplaceAllString(n.Data, " "))
		return
	case html.ElementNode:
		if skippedElements[n.DataAtom] {
			return
		}
		if n.DataAtom == atom.Br {
			b.WriteByte('\n')
			return
		}
	case html.CommentNode:
		return
	}

	block := n.Type == html.ElementNode && blockElements[n.DataAtom]
	if block {
		b.WriteByte('\n')
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeNodeText(c, b)
	}
	if block {
		b.WriteByte('\n')
	}
}
