package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	infralogger "github.com/jonesrussell/north-cloud/harvester/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/harvester/internal/browser"
	"github.com/jonesrussell/north-cloud/harvester/internal/domain"
	"github.com/jonesrussell/north-cloud/harvester/internal/feed"
	"github.com/jonesrussell/north-cloud/harvester/internal/metrics"
	"github.com/jonesrussell/north-cloud/harvester/internal/pipeline"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	candidates []domain.Candidate
	err        error
}

func (s *fakeSource) FetchCandidates(context.Context, []string) ([]domain.Candidate, error) {
	return s.candidates, s.err
}

type fakeFetcher struct {
	mu    sync.Mutex
	docs  map[string]domain.Document
	errs  map[string]error
	panic string
	calls []string
}

func (f *fakeFetcher) GetDocumentText(_ context.Context, url string) (domain.Document, error) {
	f.mu.Lock()
	f.calls = append(f.calls, url)
	f.mu.Unlock()

	if url == f.panic {
		panic("nil page")
	}
	if err := f.errs[url]; err != nil {
		return domain.Document{}, err
	}
	return f.docs[url], nil
}

type fakeSessions struct {
	shutdowns int
}

func (s *fakeSessions) Shutdown() { s.shutdowns++ }

func candidate(n int) domain.Candidate {
	return domain.Candidate{
		Title:     fmt.Sprintf("Story %d", n),
		URL:       fmt.Sprintf("https://news.example/%d", n),
		Publisher: "Reuters",
		Topic:     "tariffs",
	}
}

func newOrchestrator(src *fakeSource, f *fakeFetcher, s *fakeSessions, opts ...pipeline.Option) *pipeline.Orchestrator {
	return pipeline.NewOrchestrator(pipeline.Config{}, src, f, s, infralogger.NewNop(), opts...)
}

func TestRun_FeedFailureFailsRun(t *testing.T) {
	t.Parallel()

	sessions := &fakeSessions{}
	src := &fakeSource{err: fmt.Errorf("%w (2 topics)", feed.ErrAllTopicsFailed)}

	_, err := newOrchestrator(src, &fakeFetcher{}, sessions).Run(context.Background(), []string{"a", "b"})

	require.ErrorIs(t, err, feed.ErrAllTopicsFailed)
	assert.Zero(t, sessions.shutdowns)
}

func TestRun_NoCandidatesNeverTouchesSession(t *testing.T) {
	t.Parallel()

	sessions := &fakeSessions{}
	fetcher := &fakeFetcher{}

	got, err := newOrchestrator(&fakeSource{}, fetcher, sessions).Run(context.Background(), []string{"tariffs"})

	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Empty(t, fetcher.calls)
	assert.Zero(t, sessions.shutdowns)
}

func TestRun_MinimumLengthBoundary(t *testing.T) {
	t.Parallel()

	// Multi-byte text: the minimum counts characters, not bytes.
	atMinimum := strings.Repeat("é", 400)
	belowMinimum := strings.Repeat("é", 399)

	src := &fakeSource{candidates: []domain.Candidate{candidate(1), candidate(2)}}
	fetcher := &fakeFetcher{docs: map[string]domain.Document{
		candidate(1).URL: {Text: belowMinimum},
		candidate(2).URL: {Text: atMinimum},
	}}
	sessions := &fakeSessions{}

	got, err := newOrchestrator(src, fetcher, sessions).Run(context.Background(), []string{"tariffs"})

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, candidate(2).URL, got[0].URL)
	assert.Equal(t, 1, sessions.shutdowns)
}

func TestRun_PreservesOrderAndResolvedURL(t *testing.T) {
	t.Parallel()

	text := strings.Repeat("a", 500)
	src := &fakeSource{candidates: []domain.Candidate{candidate(3), candidate(1), candidate(2)}}
	fetcher := &fakeFetcher{docs: map[string]domain.Document{
		candidate(3).URL: {FinalURL: "https://www.reuters.com/three", Text: text},
		candidate(1).URL: {Text: text},
		candidate(2).URL: {FinalURL: "https://www.reuters.com/two", Text: text},
	}}

	got, err := newOrchestrator(src, fetcher, &fakeSessions{}).Run(context.Background(), []string{"tariffs"})

	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "https://www.reuters.com/three", got[0].URL)
	assert.Equal(t, candidate(1).URL, got[1].URL)
	assert.Equal(t, "https://www.reuters.com/two", got[2].URL)
	assert.Equal(t, []string{candidate(3).URL, candidate(1).URL, candidate(2).URL}, fetcher.calls)
	assert.Equal(t, "Story 3", got[0].Title)
	assert.Equal(t, "Reuters", got[0].Publisher)
	assert.Equal(t, "tariffs", got[0].Topic)
}

func TestRun_LaunchFailureAbortsRun(t *testing.T) {
	t.Parallel()

	src := &fakeSource{candidates: []domain.Candidate{candidate(1), candidate(2)}}
	fetcher := &fakeFetcher{errs: map[string]error{
		candidate(1).URL: fmt.Errorf("open page: %w", browser.ErrLaunch),
	}}
	sessions := &fakeSessions{}

	_, err := newOrchestrator(src, fetcher, sessions).Run(context.Background(), []string{"tariffs"})

	require.ErrorIs(t, err, browser.ErrLaunch)
	assert.Equal(t, []string{candidate(1).URL}, fetcher.calls)
	assert.Equal(t, 1, sessions.shutdowns)
}

func TestRun_ItemFailuresAreIsolated(t *testing.T) {
	t.Parallel()

	text := strings.Repeat("b", 450)
	src := &fakeSource{candidates: []domain.Candidate{candidate(1), candidate(2), candidate(3)}}
	fetcher := &fakeFetcher{
		docs:  map[string]domain.Document{candidate(3).URL: {Text: text}},
		errs:  map[string]error{candidate(1).URL: errors.New("unexpected page state")},
		panic: candidate(2).URL,
	}
	m := metrics.New()

	got, err := newOrchestrator(src, fetcher, &fakeSessions{}, pipeline.WithObserver(m)).
		Run(context.Background(), []string{"tariffs"})

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, candidate(3).URL, got[0].URL)
	assert.InDelta(t, 3, testutil.ToFloat64(m.CandidatesTotal), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.ArticlesTotal.WithLabelValues(metrics.OutcomeFailed)), 0)
	assert.Zero(t, testutil.ToFloat64(m.ArticlesTotal.WithLabelValues(metrics.OutcomeShort)))
}

func TestRun_CancelledContextStops(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := &fakeSource{candidates: []domain.Candidate{candidate(1)}}
	fetcher := &fakeFetcher{}
	sessions := &fakeSessions{}

	_, err := newOrchestrator(src, fetcher, sessions).Run(ctx, []string{"tariffs"})

	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, fetcher.calls)
	assert.Equal(t, 1, sessions.shutdowns)
}

func TestConfig_WithDefaults(t *testing.T) {
	t.Parallel()

	cfg := pipeline.Config{}.WithDefaults()
	assert.Equal(t, 400, cfg.MinTextLength)
	assert.InDelta(t, 87.0, cfg.DuplicateThreshold, 0)
}
