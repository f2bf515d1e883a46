package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable. The SauceNAO API key is
// deliberately not required here; the search command accepts it as a flag
// and checks for it before running.
func (c *Config) Validate() error {
	if err := c.validateSearch(); err != nil {
		return err
	}
	if err := c.validateDanbooru(); err != nil {
		return err
	}
	if err := c.validateProxy(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateSearch() error {
	if c.Search.Similarity < 0 || c.Search.Similarity > 100 {
		return errors.New("search.similarity must be between 0 and 100")
	}
	if c.Search.SleepSeconds < 0 {
		return errors.New("search.sleep_seconds must be >= 0")
	}
	if c.Search.NumResults <= 0 {
		return errors.New("search.num_results must be positive")
	}
	if c.Search.MinSim < 0 || c.Search.MinSim > 100 {
		return errors.New("search.minsim must be between 0 and 100")
	}
	if c.SauceNAO.BaseURL == "" {
		return errors.New("saucenao.base_url must be set")
	}
	return nil
}

func (c *Config) validateDanbooru() error {
	if (c.Danbooru.Username == "") != (c.Danbooru.APIKey == "") {
		return errors.New("danbooru.username and danbooru.api_key must be set together")
	}
	if c.DanbooruEnabled() && c.Danbooru.BaseURL == "" {
		return errors.New("danbooru.base_url must be set when credentials are configured")
	}
	return nil
}

func (c *Config) validateProxy() error {
	if !c.Proxy.Enabled {
		return nil
	}
	if c.Proxy.Port <= 0 || c.Proxy.Port > 65535 {
		return fmt.Errorf("proxy.port must be a valid TCP port, got %d", c.Proxy.Port)
	}
	return nil
}
