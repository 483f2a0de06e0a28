package config

import (
	"fmt"
	"net"
	"net/url"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rpromhub/rpromhub/internal/target"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultAPIURL = "https://api.github.com/"

	// DefaultUserAgent is the client identity sent with every upstream request.
	DefaultUserAgent = "Mozilla/5.0 (iPhone; CPU iPhone OS 12_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/12.0 Mobile/15E148 Safari/604.1"
)

// Config is the exporter configuration.
// Fields map 1:1 to settings.example.yaml.
type Config struct {
	// Addr is the host:port the exposition endpoint listens on.
	Addr string `yaml:"addr"`

	// APIURL is the base URL of the GitHub REST API, with a trailing slash.
	APIURL string `yaml:"api_url"`

	// UserAgent is the client identity header sent upstream.
	UserAgent string `yaml:"user_agent"`

	// Repos lists the tracked repositories and their branches.
	Repos []RepoConfig `yaml:"repo"`
}

// RepoConfig names one repository and the branches tracked in it.
type RepoConfig struct {
	Owner    string   `yaml:"owner"`
	Repo     string   `yaml:"repo"`
	Branches []string `yaml:"branch"`
}

// Targets flattens the repo list into one target per branch, in file order.
// Duplicates are kept.
func (c *Config) Targets() []target.Target {
	var out []target.Target
	for _, r := range c.Repos {
		for _, b := range r.Branches {
			out = append(out, target.Target{Owner: r.Owner, Repo: r.Repo, Branch: b})
		}
	}
	return out
}

// Load reads and parses the YAML config file at path.
// Missing optional fields are filled with defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file: %w", err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		APIURL:    DefaultAPIURL,
		UserAgent: DefaultUserAgent,
	}
}

// validate checks required fields and structural constraints.
func validate(cfg *Config) error {
	if cfg.Addr == "" {
		return fmt.Errorf("addr is required")
	}
	if _, _, err := net.SplitHostPort(cfg.Addr); err != nil {
		return fmt.Errorf("addr %q invalid: %w", cfg.Addr, err)
	}

	u, err := url.Parse(cfg.APIURL)
	if err != nil {
		return fmt.Errorf("api_url %q invalid: %w", cfg.APIURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api_url %q must be an absolute http(s) URL", cfg.APIURL)
	}

	for i, r := range cfg.Repos {
		if r.Owner == "" {
			return fmt.Errorf("repo[%d]: owner is required", i)
		}
		if r.Repo == "" {
			return fmt.Errorf("repo[%d] %s: repo is required", i, r.Owner)
		}
		if len(r.Branches) == 0 {
			return fmt.Errorf("repo[%d] %s/%s: at least one branch is required", i, r.Owner, r.Repo)
		}
		for j, b := range r.Branches {
			if b == "" {
				return fmt.Errorf("repo[%d] %s/%s: branch[%d] is empty", i, r.Owner, r.Repo, j)
			}
		}
	}
	return nil
}
