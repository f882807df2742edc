// Package source fetches raw articles from external news providers.
package source

import (
	"context"
	"strings"
	"time"
)

type Kind string

const (
	KindTop      Kind = "top"
	KindCategory Kind = "category"
	KindTopic    Kind = "topic"
)

// Query selects what a provider should return: the default headline feed,
// a provider category, or a free-text topic. Source pins the query to one named
// source when several are configured.
type Query struct {
	Kind   Kind   `json:"kind" yaml:"kind"`
	Value  string `json:"value,omitempty" yaml:"value,omitempty"`
	Source string `json:"source,omitempty" yaml:"source,omitempty"`
}

func Top() Query                  { return Query{Kind: KindTop} }
func Category(name string) Query  { return Query{Kind: KindCategory, Value: name} }
func Topic(keywords string) Query { return Query{Kind: KindTopic, Value: keywords} }

func (q Query) String() string {
	if q.Value == "" {
		return string(q.Kind)
	}
	return string(q.Kind) + ":" + q.Value
}

// RawArticle is a provider record before validation. All fields are optional.
type RawArticle struct {
	Title       string
	Description string
	Content     string
	URL         string
	ImageURL    string
	SourceName  string
	Author      string
	Category    string
	PublishedAt *time.Time
	// Provider names the Source that produced the record.
	Provider string
}

type Source interface {
	Name() string
	// Fetch issues one provider request for q. It never retries; failures are *ProviderError.
	Fetch(ctx context.Context, q Query) ([]RawArticle, error)
}

// keepRaw drops records that carry neither a title nor a url, and provider placeholders.
func keepRaw(items []RawArticle) []RawArticle {
	out := make([]RawArticle, 0, len(items))
	for _, it := range items {
		it.Title = strings.TrimSpace(it.Title)
		it.URL = strings.TrimSpace(it.URL)
		if it.Title == "" && it.URL == "" {
			continue
		}
		if it.Title == removedPlaceholder {
			continue
		}
		out = append(out, it)
	}
	return out
}

const removedPlaceholder = "[Removed]"
