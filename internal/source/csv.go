package source

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

const csvName = "csv"

var csvTimeLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"}

// CSV serves articles from a local file with a header row. Recognized columns are
// title, description, content, url, image_url, source, author, category and
// published_at; unknown columns are ignored.
type CSV struct {
	path string
}

func NewCSV(path string) *CSV {
	return &CSV{path: path}
}

func (c *CSV) Name() string { return csvName }

// Fetch rereads the file on every call. Category queries keep the matching rows,
// topic queries keep the rows that mention the topic.
func (c *CSV) Fetch(ctx context.Context, q Query) ([]RawArticle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(c.path)
	if err != nil {
		return nil, &ProviderError{Source: c.Name(), Err: err}
	}
	defer f.Close()

	records, err := ReadCSV(f)
	if err != nil {
		return nil, &ProviderError{Source: c.Name(), Err: err}
	}

	value := strings.ToLower(strings.TrimSpace(q.Value))
	out := make([]RawArticle, 0, len(records))
	for _, raw := range records {
		switch q.Kind {
		case KindCategory:
			if !strings.EqualFold(raw.Category, value) {
				continue
			}
		case KindTopic:
			if !mentions(raw, value) {
				continue
			}
		}
		out = append(out, raw)
	}
	return keepRaw(out), nil
}

// ReadCSV decodes every row after the header into a RawArticle.
func ReadCSV(r io.Reader) ([]RawArticle, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	for i, h := range headers {
		headers[i] = strings.ToLower(strings.TrimSpace(h))
	}

	var out []RawArticle
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}

		record := make(map[string]string, len(headers))
		for i, h := range headers {
			if i < len(row) {
				record[h] = strings.TrimSpace(row[i])
			}
		}
		out = append(out, RawArticle{
			Title:       record["title"],
			Description: record["description"],
			Content:     record["content"],
			URL:         record["url"],
			ImageURL:    record["image_url"],
			SourceName:  record["source"],
			Author:      record["author"],
			Category:    strings.ToLower(record["category"]),
			PublishedAt: parseCSVTime(record["published_at"]),
		})
	}
	return out, nil
}

func parseCSVTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range csvTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}
