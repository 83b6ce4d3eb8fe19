// Package fetcher turns a candidate URL into document text, through the
// browser for web pages and over plain HTTP for PDFs.
package fetcher

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	infralogger "github.com/jonesrussell/north-cloud/harvester/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/harvester/internal/browser"
	"github.com/jonesrussell/north-cloud/harvester/internal/domain"
	"github.com/jonesrussell/north-cloud/harvester/internal/pdf"
)

// Failure stages passed to the failure hook.
const (
	StagePDF        = "pdf"
	StagePage       = "page"
	StageNavigation = "navigation"
	StageLinkedPDF  = "linked_pdf"
)

// Sessions hands out browser pages.
type Sessions interface {
	NewPage(ctx context.Context) (browser.Page, error)
	ClosePage(page browser.Page, timeout time.Duration)
}

// Navigator loads a page and follows redirects.
type Navigator interface {
	LoadAndResolve(ctx context.Context, page browser.Page, url string, timeout time.Duration) (string, error)
}

// Extractor reads text from a loaded page.
type Extractor interface {
	ExtractPage(ctx context.Context, page browser.Page, pageURL string) string
}

// Downloader fetches PDF text.
type Downloader interface {
	FetchText(ctx context.Context, url string) (string, error)
}

// Fetcher resolves URLs to documents.
type Fetcher struct {
	cfg       Config
	sessions  Sessions
	nav       Navigator
	extractor Extractor
	pdfs      Downloader
	log       infralogger.Logger
	onFailure func(stage string)
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithFailureHook registers fn to run for every swallowed failure.
func WithFailureHook(fn func(stage string)) Option {
	return func(f *Fetcher) {
		f.onFailure = fn
	}
}

// New creates a fetcher.
func New(
	cfg Config,
	sessions Sessions,
	nav Navigator,
	extractor Extractor,
	pdfs Downloader,
	log infralogger.Logger,
	opts ...Option,
) *Fetcher {
	f := &Fetcher{
		cfg:       cfg.WithDefaults(),
		sessions:  sessions,
		nav:       nav,
		extractor: extractor,
		pdfs:      pdfs,
		log:       log.With(infralogger.Component("fetcher")),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// GetDocumentText returns the text behind rawURL. Failures on a single
// document yield empty text and a nil error; only a browser that cannot be
// launched is reported, wrapping browser.ErrLaunch.
func (f *Fetcher) GetDocumentText(ctx context.Context, rawURL string) (domain.Document, error) {
	if pdf.IsPDFURL(rawURL) {
		text, err := f.pdfs.FetchText(ctx, rawURL)
		if err != nil {
			f.fail(StagePDF, rawURL, err)
			return domain.Document{FinalURL: rawURL}, nil
		}
		return domain.Document{FinalURL: rawURL, Text: text}, nil
	}

	page, err := f.sessions.NewPage(ctx)
	if err != nil {
		if errors.Is(err, browser.ErrLaunch) {
			return domain.Document{}, err
		}
		f.fail(StagePage, rawURL, err)
		return domain.Document{FinalURL: rawURL}, nil
	}
	defer f.sessions.ClosePage(page, f.cfg.CloseTimeout)

	finalURL, err := f.nav.LoadAndResolve(ctx, page, rawURL, f.cfg.NavigationTimeout)
	if err != nil {
		f.fail(StageNavigation, rawURL, err)
		return domain.Document{FinalURL: rawURL}, nil
	}

	pageCtx, cancel := context.WithTimeout(ctx, f.cfg.NavigationTimeout)
	defer cancel()

	text := f.extractor.ExtractPage(pageCtx, page, finalURL)
	if f.cfg.FollowPDFLinks {
		if link := f.linkedPDF(pageCtx, page, finalURL); link != "" {
			text = f.appendLinkedPDF(ctx, link, text)
		}
	}

	f.log.Debug("Fetched document",
		infralogger.URL(rawURL),
		infralogger.String("final_url", finalURL),
		infralogger.Int("chars", utf8.RuneCountInString(text)),
	)

	return domain.Document{FinalURL: finalURL, Text: text}, nil
}

func (f *Fetcher) linkedPDF(ctx context.Context, page browser.Page, pageURL string) string {
	doc, err := page.Content(ctx)
	if err != nil {
		return ""
	}
	return FindPDFLink(doc, pageURL)
}

func (f *Fetcher) appendLinkedPDF(ctx context.Context, link, text string) string {
	pdfText, err := f.pdfs.FetchText(ctx, link)
	if err != nil {
		f.fail(StageLinkedPDF, link, err)
		return text
	}

	switch {
	case pdfText == "":
		return text
	case text == "":
		return pdfText
	default:
		return text + "\n" + pdfText
	}
}

func (f *Fetcher) fail(stage, rawURL string, err error) {
	f.log.Warn("Document fetch failed",
		infralogger.String("stage", stage),
		infralogger.URL(rawURL),
		infralogger.Error(err),
	)
	if f.onFailure != nil {
		f.onFailure(stage)
	}
}
