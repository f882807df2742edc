package ingest

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/DjordjeVuckovic/news-feed/internal/apperr"
	"github.com/DjordjeVuckovic/news-feed/internal/source"
	"github.com/DjordjeVuckovic/news-feed/pkg/config/env"
	"gopkg.in/yaml.v3"
)

const (
	defaultInterval         = 15 * time.Minute
	defaultCategoryInterval = time.Hour
	defaultPacing           = time.Second
	defaultProviderTimeout  = 15 * time.Second
)

type Config struct {
	Enabled          bool
	APIKey           string
	BaseURL          string
	Country          string
	Interval         time.Duration
	CategoryInterval time.Duration
	Pacing           time.Duration
	ProviderTimeout  time.Duration
	Categories       []string
	Topics           []string
	Feeds            source.FeedSet
}

// FileConfig is the optional YAML ingestion file. Present keys override the env defaults.
type FileConfig struct {
	Country    string         `yaml:"country"`
	Categories []string       `yaml:"categories"`
	Topics     []string       `yaml:"topics"`
	Feeds      source.FeedSet `yaml:"feeds"`
}

func (f *FileConfig) Validate() error {
	for category, urls := range f.Feeds {
		if len(urls) == 0 {
			return apperr.NewValidation(fmt.Sprintf("feeds.%s: at least one url is required", category))
		}
	}
	return nil
}

type YAMLConfigLoader struct {
	reader io.Reader
}

func NewYAMLConfigLoader(reader io.Reader) *YAMLConfigLoader {
	return &YAMLConfigLoader{
		reader: reader,
	}
}

func (cl *YAMLConfigLoader) Load(validate bool) (*FileConfig, error) {
	decoder := yaml.NewDecoder(cl.reader)
	var fc FileConfig
	if err := decoder.Decode(&fc); err != nil {
		if err == io.EOF {
			return &fc, nil
		}
		return nil, err
	}
	if validate {
		if err := fc.Validate(); err != nil {
			return nil, err
		}
	}
	return &fc, nil
}

// LoadConfig reads the ingestion settings from the environment and, when
// INGEST_CONFIG_PATH is set, merges the YAML file on top.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Enabled:    env.Bool("INGEST_ENABLED", true),
		APIKey:     os.Getenv("NEWS_API_KEY"),
		BaseURL:    os.Getenv("NEWS_API_BASE_URL"),
		Country:    env.String("NEWS_API_COUNTRY", "us"),
		Categories: DefaultCategories,
		Topics:     DefaultTopics,
	}

	var err error
	if cfg.Interval, err = env.Duration("INGEST_INTERVAL", defaultInterval); err != nil {
		return nil, err
	}
	if cfg.CategoryInterval, err = env.Duration("INGEST_CATEGORY_INTERVAL", defaultCategoryInterval); err != nil {
		return nil, err
	}
	if cfg.Pacing, err = env.Duration("INGEST_PACING", defaultPacing); err != nil {
		return nil, err
	}
	if cfg.ProviderTimeout, err = env.Duration("PROVIDER_TIMEOUT", defaultProviderTimeout); err != nil {
		return nil, err
	}

	if path := os.Getenv("INGEST_CONFIG_PATH"); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open ingest config: %w", err)
		}
		defer f.Close()

		fc, err := NewYAMLConfigLoader(f).Load(true)
		if err != nil {
			return nil, fmt.Errorf("load ingest config %s: %w", path, err)
		}
		cfg.apply(fc)
	}

	return cfg, nil
}

func (c *Config) apply(fc *FileConfig) {
	if fc.Country != "" {
		c.Country = fc.Country
	}
	if len(fc.Categories) > 0 {
		c.Categories = fc.Categories
	}
	if len(fc.Topics) > 0 {
		c.Topics = fc.Topics
	}
	if len(fc.Feeds) > 0 {
		c.Feeds = fc.Feeds
	}
}

func (c *Config) MainPlan() Plan {
	return NewPlan(MainPlanName, c.Categories, c.Topics)
}

func (c *Config) CategoryPlan() Plan {
	return NewCategoryPlan(CategoryPlanName, c.Categories)
}

// NewSource builds the provider chain. NewsAPI is used when a key is set and the
// RSS feeds when any are configured. With neither it returns a ConfigError.
func NewSource(cfg *Config, logger *slog.Logger) (source.Source, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var sources []source.Source
	if cfg.APIKey != "" {
		opts := []source.NewsAPIOption{
			source.WithCountry(cfg.Country),
			source.WithTimeout(cfg.ProviderTimeout),
		}
		if cfg.BaseURL != "" {
			opts = append(opts, source.WithBaseURL(cfg.BaseURL))
		}
		newsAPI, err := source.NewNewsAPI(cfg.APIKey, opts...)
		if err != nil {
			return nil, err
		}
		sources = append(sources, newsAPI)
	}
	if len(cfg.Feeds) > 0 {
		sources = append(sources, source.NewRSS(cfg.Feeds, source.WithRSSLogger(logger)))
	}

	switch len(sources) {
	case 0:
		return nil, apperr.NewConfig("NEWS_API_KEY", "no news provider configured")
	case 1:
		return sources[0], nil
	default:
		return source.NewMulti(logger, sources...), nil
	}
}
