package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/DjordjeVuckovic/news-feed/internal/apperr"
	"github.com/DjordjeVuckovic/news-feed/internal/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ingestYAML = `
country: gb
categories: [technology, sports]
topics: [climate]
feeds:
  top:
    - https://feeds.example.com/top.xml
  technology:
    - https://feeds.example.com/tech.xml
`

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("NEWS_API_KEY", "key")
	t.Setenv("INGEST_CONFIG_PATH", "")

	cfg, err := LoadConfig()

	require.NoError(t, err)
	assert.True(t, cfg.Enabled)
	assert.Equal(t, "us", cfg.Country)
	assert.Equal(t, 15*time.Minute, cfg.Interval)
	assert.Equal(t, time.Hour, cfg.CategoryInterval)
	assert.Equal(t, time.Second, cfg.Pacing)
	assert.Equal(t, DefaultPlan(), cfg.MainPlan())
	assert.Equal(t, CategoryPlan(), cfg.CategoryPlan())
}

func TestLoadConfig_InvalidDuration(t *testing.T) {
	t.Setenv("INGEST_INTERVAL", "soon")

	_, err := LoadConfig()

	assert.ErrorContains(t, err, "INGEST_INTERVAL")
}

func TestLoadConfig_YAMLOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ingest.yaml")
	require.NoError(t, os.WriteFile(path, []byte(ingestYAML), 0o600))
	t.Setenv("INGEST_CONFIG_PATH", path)
	t.Setenv("INGEST_INTERVAL", "5m")

	cfg, err := LoadConfig()

	require.NoError(t, err)
	assert.Equal(t, "gb", cfg.Country)
	assert.Equal(t, 5*time.Minute, cfg.Interval)
	assert.Equal(t, []string{"technology", "sports"}, cfg.Categories)
	assert.Equal(t, source.FeedSet{
		"top":        {"https://feeds.example.com/top.xml"},
		"technology": {"https://feeds.example.com/tech.xml"},
	}, cfg.Feeds)

	plan := cfg.MainPlan()
	assert.Equal(t, []source.Query{
		source.Top(), source.Category("technology"), source.Category("sports"), source.Topic("climate"),
	}, plan.Queries)
}

func TestYAMLConfigLoader_RejectsEmptyFeedList(t *testing.T) {
	_, err := NewYAMLConfigLoader(strings.NewReader("feeds:\n  top: []\n")).Load(true)

	var vErr *apperr.ValidationError
	assert.ErrorAs(t, err, &vErr)
}

func TestYAMLConfigLoader_EmptyFile(t *testing.T) {
	fc, err := NewYAMLConfigLoader(strings.NewReader("")).Load(true)

	require.NoError(t, err)
	assert.Empty(t, fc.Categories)
}

func TestNewSource(t *testing.T) {
	t.Run("no provider is a config error", func(t *testing.T) {
		_, err := NewSource(&Config{}, nil)

		var cfgErr *apperr.ConfigError
		require.ErrorAs(t, err, &cfgErr)
		assert.Equal(t, "NEWS_API_KEY", cfgErr.Setting)
	})

	t.Run("api key only", func(t *testing.T) {
		src, err := NewSource(&Config{APIKey: "key", Country: "us"}, nil)

		require.NoError(t, err)
		assert.Equal(t, "newsapi", src.Name())
	})

	t.Run("feeds only", func(t *testing.T) {
		src, err := NewSource(&Config{Feeds: source.FeedSet{"top": {"https://feeds.example.com/top.xml"}}}, nil)

		require.NoError(t, err)
		assert.Equal(t, "rss", src.Name())
	})

	t.Run("both", func(t *testing.T) {
		src, err := NewSource(&Config{APIKey: "key", Feeds: source.FeedSet{"top": {"https://feeds.example.com/top.xml"}}}, nil)

		require.NoError(t, err)
		assert.Equal(t, "newsapi+rss", src.Name())
	})
}
