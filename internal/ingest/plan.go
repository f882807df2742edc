package ingest

import (
	"github.com/DjordjeVuckovic/news-feed/internal/domain"
	"github.com/DjordjeVuckovic/news-feed/internal/source"
)

var (
	DefaultCategories = []string{"technology", "business", "science", "health", "entertainment"}
	DefaultTopics     = []string{"ai", "artificial intelligence", "space", "astronomy"}
)

const (
	MainPlanName     = "main"
	CategoryPlanName = "categories"
)

// Plan is an ordered list of provider queries run as one cycle.
type Plan struct {
	Name    string
	Queries []source.Query
}

// NewPlan builds the full cycle: the default feed, then each category, then each topic.
func NewPlan(name string, categories, topics []string) Plan {
	p := Plan{Name: name, Queries: []source.Query{source.Top()}}
	for _, c := range domain.NormalizeCategories(categories) {
		p.Queries = append(p.Queries, source.Category(c))
	}
	for _, t := range topics {
		if t != "" {
			p.Queries = append(p.Queries, source.Topic(t))
		}
	}
	return p
}

func NewCategoryPlan(name string, categories []string) Plan {
	p := Plan{Name: name}
	for _, c := range domain.NormalizeCategories(categories) {
		p.Queries = append(p.Queries, source.Category(c))
	}
	return p
}

func DefaultPlan() Plan {
	return NewPlan(MainPlanName, DefaultCategories, DefaultTopics)
}

func CategoryPlan() Plan {
	return NewCategoryPlan(CategoryPlanName, DefaultCategories)
}
