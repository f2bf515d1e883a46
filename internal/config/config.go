package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Search contains the batch search knobs.
type Search struct {
	// Similarity is the client-side threshold applied to returned entries.
	Similarity float64 `toml:"similarity"`
	// SleepSeconds is the enforced delay between search uploads.
	SleepSeconds int `toml:"sleep_seconds"`
	// NumResults is the maximum number of results requested per upload.
	NumResults int `toml:"num_results"`
	// MinSim is the service-side similarity floor (minsim query parameter).
	MinSim int `toml:"minsim"`
}

// SauceNAO contains configuration for the reverse-image-search API.
type SauceNAO struct {
	APIKey  string `toml:"api_key"`
	BaseURL string `toml:"base_url"`
}

// Danbooru contains credentials for the board metadata API. Enrichment
// runs only when both fields are set.
type Danbooru struct {
	Username string `toml:"username"`
	APIKey   string `toml:"api_key"`
	BaseURL  string `toml:"base_url"`
}

// Proxy configures the local HTTP/HTTPS proxy used for all outbound calls.
type Proxy struct {
	Enabled bool `toml:"enabled"`
	Port    int  `toml:"port"`
}

// Output controls where run artifacts are written.
type Output struct {
	// Dir is the parent directory for per-run timestamped output folders.
	Dir string `toml:"dir"`
	// SaveJSON, when set, names the per-file JSON document written inside
	// the run output folder.
	SaveJSON string `toml:"save_json"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for saucebatch.
type Config struct {
	Search   Search   `toml:"search"`
	SauceNAO SauceNAO `toml:"saucenao"`
	Danbooru Danbooru `toml:"danbooru"`
	Proxy    Proxy    `toml:"proxy"`
	Output   Output   `toml:"output"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/saucebatch/config.toml")
}

// Load locates, parses, and validates a configuration file. Missing files
// are not an error; defaults apply and flags fill in the rest.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("saucebatch.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

func (c *Config) normalize() error {
	if strings.TrimSpace(c.Output.Dir) == "" {
		c.Output.Dir = "."
	}
	expanded, err := expandPath(c.Output.Dir)
	if err != nil {
		return err
	}
	c.Output.Dir = expanded

	c.SauceNAO.APIKey = strings.TrimSpace(c.SauceNAO.APIKey)
	c.SauceNAO.BaseURL = strings.TrimRight(strings.TrimSpace(c.SauceNAO.BaseURL), "/")
	c.Danbooru.Username = strings.TrimSpace(c.Danbooru.Username)
	c.Danbooru.APIKey = strings.TrimSpace(c.Danbooru.APIKey)
	c.Danbooru.BaseURL = strings.TrimRight(strings.TrimSpace(c.Danbooru.BaseURL), "/")
	return nil
}

// DanbooruEnabled reports whether board metadata enrichment credentials
// are fully configured.
func (c *Config) DanbooruEnabled() bool {
	return c.Danbooru.Username != "" && c.Danbooru.APIKey != ""
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
