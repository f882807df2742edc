package es

import (
	"fmt"
	"os"

	"github.com/elastic/go-elasticsearch/v8"

	"github.com/DjordjeVuckovic/news-feed/pkg/utils"
)

const DefaultIndexName = "articles"

type ClientConfig struct {
	Addresses []string
	IndexName string
	Username  string
	Password  string
}

// LoadEnv reads the search mirror settings. It returns nil when ES_ADDRESSES is unset,
// which leaves search disabled.
func LoadEnv() *ClientConfig {
	addresses := utils.SplitAndTrim([]string{os.Getenv("ES_ADDRESSES")}, ",")
	if len(addresses) == 0 {
		return nil
	}
	return &ClientConfig{
		Addresses: addresses,
		IndexName: utils.FirstNonEmpty(os.Getenv("ES_INDEX_NAME"), DefaultIndexName),
		Username:  os.Getenv("ES_USERNAME"),
		Password:  os.Getenv("ES_PASSWORD"),
	}
}

func newClient(config ClientConfig) (*elasticsearch.TypedClient, error) {
	if len(config.Addresses) == 0 {
		return nil, fmt.Errorf("elasticsearch addresses are empty")
	}
	cfg := elasticsearch.Config{
		Addresses: config.Addresses,
	}

	if config.Username != "" && config.Password != "" {
		cfg.Username = config.Username
		cfg.Password = config.Password
	}

	client, err := elasticsearch.NewTypedClient(cfg)

	return client, err
}
