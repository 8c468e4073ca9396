package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Folder naming strategies
const (
	FolderNamingURL      = "url"
	FolderNamingSequence = "sequence"
)

// Navigation wait conditions
const (
	WaitLoad  = "load"
	WaitReady = "ready"
)

// Config holds all configuration options for a crawl
type Config struct {
	// Crawl target and selectors
	Crawl CrawlConfig `yaml:"crawl" json:"crawl"`

	// Browser session settings
	Browser BrowserConfig `yaml:"browser" json:"browser"`

	// Download settings
	Download DownloadConfig `yaml:"download" json:"download"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// CrawlConfig describes what to crawl
type CrawlConfig struct {
	StartURL         string `yaml:"start_url" json:"start_url"`
	ImageSelector    string `yaml:"image_selector" json:"image_selector"`
	NextPageSelector string `yaml:"next_page_selector" json:"next_page_selector"`
	PageLimit        int    `yaml:"page_limit" json:"page_limit"`
	DefaultFolder    string `yaml:"default_folder" json:"default_folder"`
	FolderNaming     string `yaml:"folder_naming" json:"folder_naming"`
	FolderPrefix     string `yaml:"folder_prefix" json:"folder_prefix"`
}

// BrowserConfig holds browser session configuration
type BrowserConfig struct {
	Headless           bool          `yaml:"headless" json:"headless"`
	ExecPath           string        `yaml:"exec_path" json:"exec_path"`
	UserAgent          string        `yaml:"user_agent" json:"user_agent"`
	NavigationTimeout  time.Duration `yaml:"navigation_timeout" json:"navigation_timeout"`
	StartSettleDelay   time.Duration `yaml:"start_settle_delay" json:"start_settle_delay"`
	ExtractSettleDelay time.Duration `yaml:"extract_settle_delay" json:"extract_settle_delay"`
	PageSettleDelay    time.Duration `yaml:"page_settle_delay" json:"page_settle_delay"`
	WaitCondition      string        `yaml:"wait_condition" json:"wait_condition"`
}

// DownloadConfig holds download-specific configuration
type DownloadConfig struct {
	ConcurrentDownloads int           `yaml:"concurrent_downloads" json:"concurrent_downloads"`
	DownloadTimeout     time.Duration `yaml:"download_timeout" json:"download_timeout"`
	RequestsPerMinute   int           `yaml:"requests_per_minute" json:"requests_per_minute"`

	// Extra request headers for image fetches, e.g. a Referer for hotlink-protected hosts
	Headers map[string]string `yaml:"headers,omitempty" json:"headers,omitempty"`
}

// OutputConfig holds output directory configuration
type OutputConfig struct {
	BaseDirectory string `yaml:"base_directory" json:"base_directory"`
	WriteManifest bool   `yaml:"write_manifest" json:"write_manifest"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level      string `yaml:"level" json:"level"`
	File       string `yaml:"file" json:"file"`
	MaxSize    int    `yaml:"max_size" json:"max_size"`
	MaxBackups int    `yaml:"max_backups" json:"max_backups"`
	MaxAge     int    `yaml:"max_age" json:"max_age"`
	Compress   bool   `yaml:"compress" json:"compress"`
}

// MaxConcurrentDownloads caps the download pool size
const MaxConcurrentDownloads = 32

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Crawl: CrawlConfig{
			StartURL:         "http://books.toscrape.com/",
			ImageSelector:    ".product_pod img",
			NextPageSelector: "ul.pager li.next a",
			PageLimit:        100,
			DefaultFolder:    "page-1",
			FolderNaming:     FolderNamingURL,
			FolderPrefix:     "chapter-",
		},
		Browser: BrowserConfig{
			Headless:           true,
			NavigationTimeout:  60 * time.Second,
			StartSettleDelay:   3 * time.Second,
			ExtractSettleDelay: 600 * time.Millisecond,
			PageSettleDelay:    3 * time.Second,
			WaitCondition:      WaitLoad,
		},
		Download: DownloadConfig{
			ConcurrentDownloads: 4,
			DownloadTimeout:     30 * time.Second,
			RequestsPerMinute:   0, // 0 means no cap
		},
		Output: OutputConfig{
			BaseDirectory: "./data",
			WriteManifest: true,
		},
		Logging: LoggingConfig{
			Level:      "info",
			File:       "",
			MaxSize:    100,
			MaxBackups: 3,
			MaxAge:     7,
			Compress:   false,
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	var errs []error

	if v := os.Getenv("PAGEGRAB_START_URL"); v != "" {
		c.Crawl.StartURL = v
	}
	if v := os.Getenv("PAGEGRAB_IMAGE_SELECTOR"); v != "" {
		c.Crawl.ImageSelector = v
	}
	if v := os.Getenv("PAGEGRAB_NEXT_PAGE_SELECTOR"); v != "" {
		c.Crawl.NextPageSelector = v
	}
	if v := os.Getenv("PAGEGRAB_PAGE_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("PAGEGRAB_PAGE_LIMIT: %w", err))
		} else {
			c.Crawl.PageLimit = n
		}
	}
	if v := os.Getenv("PAGEGRAB_FOLDER_NAMING"); v != "" {
		c.Crawl.FolderNaming = v
	}

	if v := os.Getenv("PAGEGRAB_HEADLESS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("PAGEGRAB_HEADLESS: %w", err))
		} else {
			c.Browser.Headless = b
		}
	}
	if v := os.Getenv("PAGEGRAB_CHROME_PATH"); v != "" {
		c.Browser.ExecPath = v
	}
	if v := os.Getenv("PAGEGRAB_USER_AGENT"); v != "" {
		c.Browser.UserAgent = v
	}

	if v := os.Getenv("PAGEGRAB_CONCURRENT_DOWNLOADS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("PAGEGRAB_CONCURRENT_DOWNLOADS: %w", err))
		} else {
			c.Download.ConcurrentDownloads = n
		}
	}
	if v := os.Getenv("PAGEGRAB_REQUESTS_PER_MINUTE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("PAGEGRAB_REQUESTS_PER_MINUTE: %w", err))
		} else {
			c.Download.RequestsPerMinute = n
		}
	}

	if v := os.Getenv("PAGEGRAB_OUTPUT_DIR"); v != "" {
		c.Output.BaseDirectory = v
	}

	if v := os.Getenv("PAGEGRAB_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("PAGEGRAB_LOG_FILE"); v != "" {
		c.Logging.File = v
	}

	return errors.Join(errs...)
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = FindConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// FindConfigFile returns the first existing config file in the standard locations, or ""
func FindConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		"pagegrab.yaml",
		"pagegrab.yml",
		".pagegrab.yaml",
		filepath.Join(home, ".config", "pagegrab", "config.yaml"),
		filepath.Join(home, ".pagegrab.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	// Crawl target
	if c.Crawl.StartURL == "" {
		errs = append(errs, errors.New("start URL is required"))
	} else if u, err := url.Parse(c.Crawl.StartURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("start URL must be absolute: %q", c.Crawl.StartURL))
	}
	if strings.TrimSpace(c.Crawl.ImageSelector) == "" {
		errs = append(errs, errors.New("image selector is required"))
	}
	if strings.TrimSpace(c.Crawl.NextPageSelector) == "" {
		errs = append(errs, errors.New("next page selector is required"))
	}
	if c.Crawl.PageLimit < 1 {
		errs = append(errs, errors.New("page limit must be at least 1"))
	}
	switch c.Crawl.FolderNaming {
	case FolderNamingURL:
		if c.Crawl.DefaultFolder == "" {
			errs = append(errs, errors.New("default folder is required for url folder naming"))
		}
	case FolderNamingSequence:
	default:
		errs = append(errs, fmt.Errorf("invalid folder naming: %q", c.Crawl.FolderNaming))
	}

	// Browser
	if c.Browser.NavigationTimeout <= 0 {
		errs = append(errs, errors.New("navigation timeout must be positive"))
	}
	if c.Browser.StartSettleDelay < 0 || c.Browser.ExtractSettleDelay < 0 || c.Browser.PageSettleDelay < 0 {
		errs = append(errs, errors.New("settle delays cannot be negative"))
	}
	if c.Browser.WaitCondition != WaitLoad && c.Browser.WaitCondition != WaitReady {
		errs = append(errs, fmt.Errorf("invalid wait condition: %q", c.Browser.WaitCondition))
	}

	// Downloads
	if c.Download.ConcurrentDownloads <= 0 {
		errs = append(errs, errors.New("concurrent downloads must be positive"))
	}
	if c.Download.ConcurrentDownloads > MaxConcurrentDownloads {
		errs = append(errs, fmt.Errorf("concurrent downloads should not exceed %d", MaxConcurrentDownloads))
	}
	if c.Download.DownloadTimeout <= 0 {
		errs = append(errs, errors.New("download timeout must be positive"))
	}
	if c.Download.RequestsPerMinute < 0 {
		errs = append(errs, errors.New("requests per minute cannot be negative"))
	}

	// Output
	if c.Output.BaseDirectory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration.
// Only keys present in flags are applied.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if v, ok := flags["start-url"].(string); ok && v != "" {
		c.Crawl.StartURL = v
	}
	if v, ok := flags["image-selector"].(string); ok && v != "" {
		c.Crawl.ImageSelector = v
	}
	if v, ok := flags["next-selector"].(string); ok && v != "" {
		c.Crawl.NextPageSelector = v
	}
	if v, ok := flags["page-limit"].(int); ok && v > 0 {
		c.Crawl.PageLimit = v
	}
	if v, ok := flags["folder-naming"].(string); ok && v != "" {
		c.Crawl.FolderNaming = v
	}
	if v, ok := flags["headless"].(bool); ok {
		c.Browser.Headless = v
	}
	if v, ok := flags["output"].(string); ok && v != "" {
		c.Output.BaseDirectory = v
	}
	if v, ok := flags["concurrent"].(int); ok && v > 0 {
		c.Download.ConcurrentDownloads = v
	}
	if v, ok := flags["download-timeout"].(time.Duration); ok && v > 0 {
		c.Download.DownloadTimeout = v
	}
	if v, ok := flags["rate-limit"].(int); ok && v >= 0 {
		c.Download.RequestsPerMinute = v
	}
	if v, ok := flags["log-level"].(string); ok && v != "" {
		c.Logging.Level = v
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// .env files are optional
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".pagegrab.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
