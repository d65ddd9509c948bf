package window

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// maxMatchDistance is the largest edit distance, relative to the longer
// string, still accepted as a fuzzy match.
const maxMatchDistance = 0.4

// Match finds the window best described by query and returns its position.
// A case-insensitive substring of the title or class wins outright, the
// earliest such window first. Otherwise the closest title or class by edit
// distance is taken if it is close enough.
func Match(windows []Info, query string) (int, bool) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return -1, false
	}

	for i := range windows {
		if strings.Contains(strings.ToLower(windows[i].Title), q) ||
			strings.Contains(strings.ToLower(windows[i].Class), q) {
			return i, true
		}
	}

	best, bestRatio := -1, maxMatchDistance
	for i := range windows {
		for _, candidate := range []string{windows[i].Title, windows[i].Class} {
			if candidate == "" {
				continue
			}
			if ratio := distanceRatio(q, strings.ToLower(candidate)); ratio < bestRatio {
				best, bestRatio = i, ratio
			}
		}
	}
	return best, best >= 0
}

func distanceRatio(a, b string) float64 {
	dist := levenshtein.ComputeDistance(a, b)
	return float64(dist) / float64(max(len(a), len(b)))
}
