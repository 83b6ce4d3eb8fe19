package dedup_test

import (
	"testing"

	"github.com/jonesrussell/north-cloud/harvester/internal/dedup"
	"github.com/jonesrussell/north-cloud/harvester/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeTitle(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "u s tariffs rise 25", dedup.NormalizeTitle("  U.S. Tariffs   Rise 25%!"))
	assert.Empty(t, dedup.NormalizeTitle(" -- "))
	assert.Equal(t, "senat approuve la reforme", dedup.NormalizeTitle("Sénat approuve la réforme"))
}

func TestSimilarity(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 100, dedup.Similarity("Tariffs Rise!", "tariffs rise"), 1e-9)
	assert.Zero(t, dedup.Similarity("", "tariffs"))

	near := dedup.Similarity("US imposes new tariffs on steel imports", "U.S. imposes new tariffs on steel import")
	assert.GreaterOrEqual(t, near, dedup.DefaultThreshold)

	far := dedup.Similarity("US imposes new tariffs on steel imports", "Central bank holds interest rates steady")
	assert.Less(t, far, dedup.DefaultThreshold)
}

func TestIsDuplicate(t *testing.T) {
	t.Parallel()

	seen := []string{"Oil prices climb as supply tightens"}

	assert.True(t, dedup.IsDuplicate("Oil prices climb as supplies tighten", seen, dedup.DefaultThreshold))
	assert.False(t, dedup.IsDuplicate("Chipmakers rally on earnings", seen, dedup.DefaultThreshold))
	assert.False(t, dedup.IsDuplicate("anything", nil, dedup.DefaultThreshold))
}

func TestFilter(t *testing.T) {
	t.Parallel()

	articles := []domain.Article{
		{Title: "Oil prices climb as supplies tighten", URL: "u1"},
		{Title: "Chipmakers rally on earnings", URL: "u2"},
		{Title: "Chipmakers rally on earnings beat", URL: "u3"},
		{Title: "Farmers brace for drought", URL: "u4"},
	}
	delivered := []string{"Oil prices climb as supply tightens"}

	kept, dropped := dedup.Filter(articles, delivered, dedup.DefaultThreshold)

	require.Len(t, kept, 2)
	assert.Equal(t, "u2", kept[0].URL)
	assert.Equal(t, "u4", kept[1].URL)
	require.Len(t, dropped, 2)
	assert.Equal(t, "u1", dropped[0].URL)
	assert.Equal(t, "u3", dropped[1].URL)
}
