// Package config merges defaults, an optional YAML file and the environment
// into the run configuration. Command-line flags are applied last by main.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) " +
		"Chrome/116.0.0.0 Safari/537.36"
	// PlayerOrigin is sent as Origin and Referer to the video host.
	PlayerOrigin = "https://player.hotmart.com"
)

type Config struct {
	URL      string `yaml:"url"`
	File     string `yaml:"file"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`

	LoginURL       string `yaml:"login_url"`
	ManualLoginURL string `yaml:"man_login_url"`

	UserAgent string        `yaml:"user_agent"`
	Timeout   time.Duration `yaml:"timeout"`
	Output    string        `yaml:"output"`
	ShowUI    bool          `yaml:"showui"`
	Proxy     string        `yaml:"proxy"`
	Verbose   int           `yaml:"verbose"`

	CompleteLecture bool          `yaml:"complete_lecture"`
	CompleteDelay   time.Duration `yaml:"complete_delay"`
	Attachments     bool          `yaml:"attachments"`
	Notes           bool          `yaml:"notes"`
	FileTimeout     time.Duration `yaml:"file_timeout"`
	Concurrency     int           `yaml:"concurrency"`
	PassCookies     bool          `yaml:"pass_cookies"`
}

func Default() *Config {
	return &Config{
		UserAgent:     DefaultUserAgent,
		Timeout:       10 * time.Second,
		Output:        ".",
		CompleteDelay: 3 * time.Second,
		FileTimeout:   10 * time.Minute,
		Concurrency:   15,
	}
}

// Load returns the defaults overlaid with the YAML file at path. An empty
// path or a missing file leaves the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// ApplyEnv loads dotenv files into the environment (existing variables win)
// and copies URL, EMAIL, PASSWORD and TEACHDL_PROXY into cfg when set.
func (c *Config) ApplyEnv(files ...string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	for name, dst := range map[string]*string{
		"URL":           &c.URL,
		"EMAIL":         &c.Email,
		"PASSWORD":      &c.Password,
		"TEACHDL_PROXY": &c.Proxy,
	} {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}
	return nil
}

// Validate checks that a login method and at least one course are given.
func (c *Config) Validate() error {
	if (c.Email == "" || c.Password == "") && c.ManualLoginURL == "" {
		return errors.New("choose email/password or manual login (--man-login-url)")
	}
	if c.URL == "" && c.File == "" {
		return errors.New("a course --url or a --file of urls is required")
	}
	if c.Timeout <= 0 {
		return errors.New("timeout must be positive")
	}
	if c.Concurrency <= 0 {
		return errors.New("concurrency must be positive")
	}
	return nil
}

// URLs returns the courses to download: the file's entries if a file is
// set, else the single URL.
func (c *Config) URLs() ([]string, error) {
	if c.File != "" {
		return ReadURLs(c.File)
	}
	return []string{c.URL}, nil
}

// Headers are sent with every media and image request.
func (c *Config) Headers() map[string]string {
	return map[string]string{
		"User-Agent": c.UserAgent,
		"Origin":     PlayerOrigin,
		"Referer":    PlayerOrigin,
	}
}

// ReadURLs reads one URL per line, skipping blanks and # comments.
func ReadURLs(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open url file: %w", err)
	}
	defer f.Close()

	var urls []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read url file: %w", err)
	}
	if len(urls) == 0 {
		return nil, fmt.Errorf("no urls found in %s", path)
	}
	return urls, nil
}
