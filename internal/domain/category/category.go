// Package category maps free-text course categories onto canonical buckets.
package category

import "strings"

// Bucket is a canonical category and the keywords that select it.
type Bucket struct {
	Name     string
	Keywords []string
}

// buckets is ordered: the first bucket with a matching keyword wins.
var buckets = []Bucket{
	{Name: "development", Keywords: []string{"programming", "web", "development", "frontend", "backend"}},
	{Name: "mobile", Keywords: []string{"mobile", "flutter", "android", "ios"}},
	{Name: "blockchain", Keywords: []string{"blockchain", "web3", "crypto", "defi"}},
	{Name: "data_science", Keywords: []string{"data", "machine", "ai", "learning"}},
	{Name: "design", Keywords: []string{"design", "ui", "ux", "figma"}},
	{Name: "security", Keywords: []string{"security", "cyber", "hacking"}},
	{Name: "devops", Keywords: []string{"devops", "cloud", "aws", "docker"}},
	{Name: "business", Keywords: []string{"business", "marketing", "product"}},
}

// Buckets returns a copy of the bucket table in precedence order.
func Buckets() []Bucket {
	out := make([]Bucket, len(buckets))
	for i, b := range buckets {
		kw := make([]string, len(b.Keywords))
		copy(kw, b.Keywords)
		out[i] = Bucket{Name: b.Name, Keywords: kw}
	}
	return out
}

// Normalize lower-cases the label and returns the first bucket whose keyword
// occurs in it as a substring. Unmatched labels are their own bucket.
func Normalize(label string) string {
	lower := strings.ToLower(label)
	for _, b := range buckets {
		for _, kw := range b.Keywords {
			if strings.Contains(lower, kw) {
				return b.Name
			}
		}
	}
	return lower
}
