// Package dedup detects near-duplicate article titles.
//
// Similarity is Jaro-Winkler over normalized titles, scaled to 0-100. Two
// titles at or above the threshold are treated as the same story.
package dedup

import (
	"strings"
	"unicode"

	"github.com/antzucaro/matchr"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/jonesrussell/north-cloud/harvester/internal/domain"
)

// DefaultThreshold is the similarity percentage at which titles are duplicates.
const DefaultThreshold = 87.0

// NormalizeTitle lowercases a title, strips diacritics, turns punctuation
// into spaces and collapses whitespace.
func NormalizeTitle(title string) string {
	mapped := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			return unicode.ToLower(r)
		default:
			return ' '
		}
	}, removeAccents(title))
	return strings.Join(strings.Fields(mapped), " ")
}

// Similarity returns the similarity of two titles as a percentage.
func Similarity(a, b string) float64 {
	na, nb := NormalizeTitle(a), NormalizeTitle(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 100
	}
	return matchr.JaroWinkler(na, nb, false) * 100
}

// IsDuplicate reports whether title is at least threshold percent similar to
// any title in seen.
func IsDuplicate(title string, seen []string, threshold float64) bool {
	for _, s := range seen {
		if Similarity(title, s) >= threshold {
			return true
		}
	}
	return false
}

// Filter drops articles whose titles duplicate a delivered title or an
// earlier article in the same batch. Order is preserved. The second result
// holds the dropped articles.
func Filter(articles []domain.Article, delivered []string, threshold float64) (kept, dropped []domain.Article) {
	seen := append([]string(nil), delivered...)
	kept = make([]domain.Article, 0, len(articles))

	for _, a := range articles {
		if IsDuplicate(a.Title, seen, threshold) {
			dropped = append(dropped, a)
			continue
		}
		seen = append(seen, a.Title)
		kept = append(kept, a)
	}

	return kept, dropped
}

func removeAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return result
}
