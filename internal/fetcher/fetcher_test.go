package fetcher_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	infralogger "github.com/jonesrussell/north-cloud/harvester/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/harvester/infrastructure/retry"
	"github.com/jonesrussell/north-cloud/harvester/internal/browser"
	"github.com/jonesrussell/north-cloud/harvester/internal/browser/browsertest"
	"github.com/jonesrussell/north-cloud/harvester/internal/extractor"
	"github.com/jonesrussell/north-cloud/harvester/internal/fetcher"
	"github.com/jonesrussell/north-cloud/harvester/internal/navigation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	articleURL = "https://www.example-news.com/2026/10/tariffs"
	annexURL   = "https://www.example-news.com/docs/annex.pdf"
	linkedPage = `<html><body><p>See the annex <a href="/docs/annex.pdf">here</a>.</p></body></html>`
)

type fakeDownloader struct {
	mu    sync.Mutex
	texts map[string]string
	err   error
	calls []string
}

func (d *fakeDownloader) FetchText(_ context.Context, url string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.calls = append(d.calls, url)
	if d.err != nil {
		return "", d.err
	}
	return d.texts[url], nil
}

type harness struct {
	launcher *browsertest.Launcher
	page     *browsertest.Page
	pdfs     *fakeDownloader
	failures []string
	fetcher  *fetcher.Fetcher
}

// panickingExtractor fails the way a nil DOM node dereference would.
type panickingExtractor struct{}

func (panickingExtractor) ExtractPage(context.Context, browser.Page, string) string {
	panic("extractor: nil node")
}

func newHarness(t *testing.T, page *browsertest.Page, cfg fetcher.Config) *harness {
	t.Helper()
	return newHarnessWithExtractor(t, page, cfg, extractor.New(extractor.Config{}, infralogger.NewNop()))
}

func newHarnessWithExtractor(t *testing.T, page *browsertest.Page, cfg fetcher.Config, ext fetcher.Extractor) *harness {
	t.Helper()

	h := &harness{
		page: page,
		pdfs: &fakeDownloader{texts: map[string]string{annexURL: "Annex text"}},
	}
	h.launcher = &browsertest.Launcher{NewSession: func(int) *browsertest.Session {
		return &browsertest.Session{NewPageFunc: func() *browsertest.Page { return h.page }}
	}}

	log := infralogger.NewNop()
	retryCfg := retry.Config{
		MaxAttempts: 2,
		Sleep:       func(ctx context.Context, _ time.Duration) error { return ctx.Err() },
	}
	sessions := browser.NewSessionManager(h.launcher, browser.Config{CloseTimeout: 50 * time.Millisecond}, log)
	t.Cleanup(sessions.Shutdown)

	cfg.NavigationTimeout = time.Second
	h.fetcher = fetcher.New(cfg,
		sessions,
		navigation.NewController(navigation.Config{PollInterval: 5 * time.Millisecond}, retryCfg, log),
		ext,
		h.pdfs,
		log,
		fetcher.WithFailureHook(func(stage string) { h.failures = append(h.failures, stage) }),
	)

	return h
}

func TestGetDocumentText_PDFBypassesBrowser(t *testing.T) {
	t.Parallel()

	h := newHarness(t, &browsertest.Page{}, fetcher.Config{})

	doc, err := h.fetcher.GetDocumentText(context.Background(), annexURL)

	require.NoError(t, err)
	assert.Equal(t, "Annex text", doc.Text)
	assert.Equal(t, annexURL, doc.FinalURL)
	assert.Equal(t, 0, h.launcher.Launches())
}

func TestGetDocumentText_PDFFailureYieldsEmptyText(t *testing.T) {
	t.Parallel()

	h := newHarness(t, &browsertest.Page{}, fetcher.Config{})
	h.pdfs.err = errors.New("response is not a pdf document")

	doc, err := h.fetcher.GetDocumentText(context.Background(), annexURL)

	require.NoError(t, err)
	assert.Empty(t, doc.Text)
	assert.Equal(t, []string{fetcher.StagePDF}, h.failures)
}

func TestGetDocumentText_HTMLPage(t *testing.T) {
	t.Parallel()

	page := &browsertest.Page{HTML: linkedPage, EvalResult: "Live article text"}
	h := newHarness(t, page, fetcher.Config{})

	doc, err := h.fetcher.GetDocumentText(context.Background(), articleURL)

	require.NoError(t, err)
	assert.Equal(t, "Live article text", doc.Text)
	assert.Equal(t, articleURL, doc.FinalURL)
	assert.Empty(t, h.pdfs.calls, "linked PDFs are ignored unless enabled")
	assert.Equal(t, 1, page.CloseCalls())
}

func TestGetDocumentText_FollowsFirstPDFLink(t *testing.T) {
	t.Parallel()

	page := &browsertest.Page{HTML: linkedPage, EvalResult: "Live article text"}
	h := newHarness(t, page, fetcher.Config{FollowPDFLinks: true})

	doc, err := h.fetcher.GetDocumentText(context.Background(), articleURL)

	require.NoError(t, err)
	assert.Equal(t, "Live article text\nAnnex text", doc.Text)
	assert.Equal(t, []string{annexURL}, h.pdfs.calls)
}

func TestGetDocumentText_NavigationFailureYieldsEmptyText(t *testing.T) {
	t.Parallel()

	page := &browsertest.Page{GotoErr: errors.New("net::ERR_CONNECTION_REFUSED")}
	h := newHarness(t, page, fetcher.Config{})

	doc, err := h.fetcher.GetDocumentText(context.Background(), articleURL)

	require.NoError(t, err)
	assert.Empty(t, doc.Text)
	assert.Equal(t, articleURL, doc.FinalURL)
	assert.Equal(t, []string{fetcher.StageNavigation}, h.failures)
	assert.Equal(t, 1, page.CloseCalls(), "page is closed on the failure path")
}

func TestGetDocumentText_LaunchFailurePropagates(t *testing.T) {
	t.Parallel()

	h := newHarness(t, &browsertest.Page{}, fetcher.Config{})
	h.launcher.Err = errors.New("no chrome binary")

	_, err := h.fetcher.GetDocumentText(context.Background(), articleURL)

	assert.ErrorIs(t, err, browser.ErrLaunch)
}

func TestFindPDFLink(t *testing.T) {
	t.Parallel()

	doc := `<html><body>
<a href="mailto:press@example.com">Press</a>
<a href="/about">About</a>
<a href="files/Report.PDF?v=2">Report</a>
<a href="https://cdn.example.com/other.pdf">Other</a>
</body></html>`

	assert.Equal(t, "https://www.example-news.com/2026/10/files/Report.PDF?v=2", fetcher.FindPDFLink(doc, articleURL))
	assert.Empty(t, fetcher.FindPDFLink(`<a href="/about">About</a>`, articleURL))
}

func TestGetDocumentText_ExtractorPanicStillClosesPage(t *testing.T) {
	t.Parallel()

	page := &browsertest.Page{HTML: linkedPage}
	h := newHarnessWithExtractor(t, page, fetcher.Config{}, panickingExtractor{})

	assert.PanicsWithValue(t, "extractor: nil node", func() {
		_, _ = h.fetcher.GetDocumentText(context.Background(), articleURL)
	})
	assert.Equal(t, 1, page.CloseCalls())
}

func TestGetDocumentText_ContentAndEvaluateErrorsYieldEmptyText(t *testing.T) {
	t.Parallel()

	page := &browsertest.Page{
		HTML:       linkedPage,
		ContentErr: errors.New("execution context was destroyed"),
		EvalErr:    errors.New("execution context was destroyed"),
	}
	h := newHarness(t, page, fetcher.Config{FollowPDFLinks: true})

	doc, err := h.fetcher.GetDocumentText(context.Background(), articleURL)

	require.NoError(t, err)
	assert.Empty(t, doc.Text)
	assert.Equal(t, articleURL, doc.FinalURL)
	assert.Equal(t, 1, page.EvalCalls())
	assert.Equal(t, 1, page.CloseCalls())
	assert.Empty(t, h.pdfs.calls, "no linked pdf is read from a page whose content failed")
}
