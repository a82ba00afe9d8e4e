package fuzzy

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// LevenshteinDistance calculates the edit distance between two strings
// after normalization (case, accents, whitespace).
func LevenshteinDistance(s1, s2 string) int {
	r1 := []rune(normalizeString(s1))
	r2 := []rune(normalizeString(s2))

	if len(r1) == 0 {
		return len(r2)
	}
	if len(r2) == 0 {
		return len(r1)
	}

	// two rolling rows instead of the full matrix
	prev := make([]int, len(r2)+1)
	curr := make([]int, len(r2)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(r1); i++ {
		curr[0] = i
		for j := 1; j <= len(r2); j++ {
			cost := 1
			if r1[i-1] == r2[j-1] {
				cost = 0
			}
			curr[j] = min3(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[len(r2)]
}

// FuzzyMatch checks if query fuzzy-matches text within a given threshold
// threshold is the maximum allowed edit distance per word
func FuzzyMatch(query, text string, threshold int) bool {
	query = normalizeString(query)
	text = normalizeString(text)
	if query == "" {
		return false
	}

	if strings.Contains(text, query) {
		return true
	}

	for _, word := range strings.Fields(text) {
		if strings.HasPrefix(word, query) || LevenshteinDistance(query, word) <= threshold {
			return true
		}
	}

	return false
}

// thresholdFor gives longer queries more typo tolerance.
func thresholdFor(query string) int {
	switch n := len([]rune(query)); {
	case n <= 3:
		return 0
	case n <= 5:
		return 1
	case n < 9:
		return 2
	default:
		return 3
	}
}

// BrokerFields are the searchable attributes of a broker.
type BrokerFields struct {
	ID            string
	Name          string
	BrokerageName string
	LicenseNumber string
	Emails        []string
}

// ScoreBroker scores how relevant a broker is to a query; 0 means no match.
// Licence number and email hits outrank name hits, which outrank brokerage hits.
func ScoreBroker(query string, b BrokerFields) float64 {
	q := normalizeString(query)
	if q == "" {
		return 0
	}
	threshold := thresholdFor(q)
	score := 0.0

	if lic := normalizeString(b.LicenseNumber); lic != "" {
		if lic == q {
			score += 200
		} else if strings.HasPrefix(lic, q) {
			score += 90
		}
	}

	for _, email := range b.Emails {
		e := normalizeString(email)
		if e == q {
			score += 150
			break
		}
		local := e
		if idx := strings.Index(e, "@"); idx > 0 {
			local = e[:idx]
		}
		if strings.Contains(e, q) {
			score += 60
			break
		}
		if strings.HasPrefix(local, q) {
			score += 30
			break
		}
	}

	score += fieldScore(q, normalizeString(b.Name), threshold, 100)
	score += fieldScore(q, normalizeString(b.BrokerageName), threshold, 40)

	return score
}

// fieldScore rewards containment most, then word prefixes, then close typos.
func fieldScore(q, text string, threshold int, weight float64) float64 {
	if text == "" {
		return 0
	}
	if strings.Contains(text, q) {
		if containsWord(text, q) {
			return weight * 1.5
		}
		return weight
	}

	best := 0.0
	for _, word := range strings.Fields(text) {
		s := 0.0
		if strings.HasPrefix(word, q) {
			s = weight * 0.6
		} else if dist := LevenshteinDistance(q, word); dist <= threshold {
			s = weight*0.5 - float64(dist)*weight*0.1
		}
		if s > best {
			best = s
		}
	}
	return best
}

// RankBrokers returns the IDs of matching brokers, best match first.
func RankBrokers(query string, brokers []BrokerFields, limit int) []string {
	type scored struct {
		id    string
		score float64
	}
	var hits []scored
	for _, b := range brokers {
		if s := ScoreBroker(query, b); s > 0 {
			hits = append(hits, scored{id: b.ID, score: s})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].score > hits[j].score
	})

	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	ids := make([]string, len(hits))
	for i, h := range hits {
		ids[i] = h.id
	}
	return ids
}

// Helper functions

func min3(a, b, c int) int {
	if a < b {
		if a < c {
			return a
		}
		return c
	}
	if b < c {
		return b
	}
	return c
}

// normalizeString lowercases, strips accents and collapses whitespace
func normalizeString(s string) string {
	s = removeAccents(strings.ToLower(s))
	return strings.Join(strings.Fields(s), " ")
}

// containsWord checks if text contains query as a whole word
func containsWord(text, query string) bool {
	for _, word := range strings.Fields(text) {
		if word == query {
			return true
		}
	}
	return false
}

// removeAccents drops combining marks so "José" matches "jose"
func removeAccents(s string) string {
	var result strings.Builder
	for _, r := range norm.NFD.String(s) {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		result.WriteRune(r)
	}
	return result.String()
}
