// Package classify tags articles with topical categories by keyword matching.
package classify

import (
	"sort"
	"strings"
	"unicode"
)

const (
	Technology  = "technology"
	Business    = "business"
	Science     = "science"
	Health      = "health"
	Environment = "environment"
	Sports      = "sports"
)

// AllCategories returns the categories the classifier can emit in canonical order.
func AllCategories() []string {
	return []string{Technology, Business, Science, Health, Environment, Sports}
}

// Keywords are matched as substrings of the normalized text. A leading or trailing
// space pins the keyword to a word boundary, so " ai " does not match "said".
var categoryKeywords = map[string][]string{
	Technology: {
		"technology", "tech ", " ai ", "artificial intelligence", "machine learning", "robot",
		"software", "computer", "smartphone", "iphone", "android", "internet", "cyber",
		"semiconductor", " chip", "startup", "google", "microsoft", "apple ", "openai",
		"app ", "cloud", "gadget", "algorithm", "quantum",
	},
	Business: {
		"business", "stock", "market", "economy", "economic", "finance", "financial",
		" bank", "invest", "trade", "trading", "earnings", "revenue", "profit", "ceo ",
		"inflation", "interest rate", "merger", "acquisition", "ipo ", "wall street",
		"company", "companies", "shares ",
	},
	Science: {
		"science", "scientist", "research", "study ", "physics", "chemistry", "biology",
		"space", "nasa", "astronom", "telescope", "planet", "galaxy", "discovery",
		"experiment", "genome", "fossil", "asteroid", "mars ", "rocket",
	},
	Health: {
		"health", "medical", "medicine", "disease", "covid", "vaccine", "hospital",
		"doctor", "patient", "cancer", "virus", "drug ", "mental health", "wellness",
		"diet", "obesity", "outbreak", "pandemic", "fda ", "clinical",
	},
	Environment: {
		"environment", "climate", "pollution", "emission", "renewable", "carbon",
		"wildlife", "sustainab", "global warming", "deforestation", "biodiversity",
		"solar power", "wind power", "recycling", "drought", "wildfire", "flood",
	},
	Sports: {
		"sport", "football", "soccer", "basketball", " nba ", " nfl ", "baseball",
		"tennis", "olympic", "cricket", "championship", "tournament", "world cup",
		"formula 1", "golf", "hockey", "athlete", "playoff", "league",
	},
}

// Classify returns the sorted set of categories whose keywords appear in the title or
// description. The result is empty (never nil) when nothing matches.
func Classify(title, description string) []string {
	text := normalize(title + " " + description)
	out := make([]string, 0, 2)
	if strings.TrimSpace(text) == "" {
		return out
	}

	for category, keywords := range categoryKeywords {
		for _, kw := range keywords {
			if strings.Contains(text, kw) {
				out = append(out, category)
				break
			}
		}
	}
	sort.Strings(out)
	return out
}

// normalize lowercases the text, turns punctuation into spaces and pads both ends so
// boundary keywords also match at the start and end.
func normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte(' ')
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}
	b.WriteByte(' ')
	return b.String()
}
