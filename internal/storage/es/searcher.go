package es

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/typedapi/types"
	"github.com/elastic/go-elasticsearch/v8/typedapi/types/enums/operator"

	"github.com/DjordjeVuckovic/news-feed/internal/domain"
	"github.com/DjordjeVuckovic/news-feed/pkg/pagination"
)

var searchFields = []string{"title^2", "content", "source"}

type Searcher struct {
	client    *elasticsearch.TypedClient
	indexName string
	logger    *slog.Logger
}

func NewSearcher(config ClientConfig, logger *slog.Logger) (*Searcher, error) {
	client, err := newClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Searcher{
		client:    client,
		indexName: config.IndexName,
		logger:    logger,
	}, nil
}

// Search runs a relevance-ranked multi_match over the index, optionally restricted to any
// of the given categories.
func (r *Searcher) Search(ctx context.Context, term string, categories []string, page pagination.OffsetRequest) ([]domain.ScoredArticle, int64, error) {
	_ = page.Validate()

	query := buildQuery(term, domain.NormalizeCategories(categories))

	res, err := r.client.Search().
		Index(r.indexName).
		Query(query).
		From(page.Offset()).
		Size(page.Limit).
		TrackScores(true).
		Do(ctx)
	if err != nil {
		r.logger.Error("elasticsearch query failed", "error", err, "query", term)
		return nil, 0, fmt.Errorf("failed to execute search: %w", err)
	}

	var total int64
	if res.Hits.Total != nil {
		total = res.Hits.Total.Value
	}

	items := make([]domain.ScoredArticle, 0, len(res.Hits.Hits))
	for _, hit := range res.Hits.Hits {
		var doc ArticleDocument
		if err := json.Unmarshal(hit.Source_, &doc); err != nil {
			return nil, 0, fmt.Errorf("failed to unmarshal document: %w", err)
		}
		article, err := mapToArticle(doc)
		if err != nil {
			r.logger.Warn("skipping document with invalid id", "id", doc.ID, "error", err)
			continue
		}
		var score float64
		if hit.Score_ != nil {
			score = float64(*hit.Score_)
		}
		items = append(items, domain.ScoredArticle{Article: article, Score: score})
	}

	r.logger.Debug("es search results fetched", "query", term, "total", total, "returned", len(items))
	return items, total, nil
}

func buildQuery(term string, categories []string) *types.Query {
	boolQuery := &types.BoolQuery{}

	if term == "" {
		boolQuery.Must = []types.Query{{MatchAll: &types.MatchAllQuery{}}}
	} else {
		and := operator.And
		boolQuery.Must = []types.Query{{
			MultiMatch: &types.MultiMatchQuery{
				Query:    term,
				Fields:   searchFields,
				Operator: &and,
			},
		}}
	}

	if len(categories) > 0 {
		values := make([]types.FieldValue, len(categories))
		for i, c := range categories {
			values[i] = c
		}
		boolQuery.Filter = []types.Query{{
			Terms: &types.TermsQuery{
				TermsQuery: map[string]types.TermsQueryField{"categories": values},
			},
		}}
	}

	return &types.Query{Bool: boolQuery}
}
