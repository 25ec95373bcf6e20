package recommend

import "strings"

// TagOverlap returns the number of case-folded tags shared by a and b.
// Duplicates count once; the result is not normalized by set size.
func TagOverlap(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	left := tagSet(a)
	n := 0
	for t := range tagSet(b) {
		if _, ok := left[t]; ok {
			n++
		}
	}
	return float64(n)
}

func tagSet(tags []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		set[strings.ToLower(t)] = struct{}{}
	}
	return set
}
