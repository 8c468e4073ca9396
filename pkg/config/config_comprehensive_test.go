package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValues(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)

	// Crawl defaults
	assert.Equal(t, ".product_pod img", cfg.Crawl.ImageSelector)
	assert.Equal(t, "ul.pager li.next a", cfg.Crawl.NextPageSelector)
	assert.Equal(t, FolderNamingURL, cfg.Crawl.FolderNaming)
	assert.Equal(t, "chapter-", cfg.Crawl.FolderPrefix)

	// Browser defaults
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 60*time.Second, cfg.Browser.NavigationTimeout)
	assert.Equal(t, 3*time.Second, cfg.Browser.StartSettleDelay)
	assert.Equal(t, 600*time.Millisecond, cfg.Browser.ExtractSettleDelay)
	assert.Equal(t, 3*time.Second, cfg.Browser.PageSettleDelay)
	assert.Equal(t, WaitLoad, cfg.Browser.WaitCondition)

	// Download defaults
	assert.Equal(t, 30*time.Second, cfg.Download.DownloadTimeout)
	assert.Zero(t, cfg.Download.RequestsPerMinute)

	// Output defaults
	assert.True(t, cfg.Output.WriteManifest)

	// Logging defaults
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Empty(t, cfg.Logging.File)
	assert.Equal(t, 100, cfg.Logging.MaxSize)
	assert.Equal(t, 3, cfg.Logging.MaxBackups)
	assert.Equal(t, 7, cfg.Logging.MaxAge)
	assert.False(t, cfg.Logging.Compress)
}

func TestLoadFromFileYAML(t *testing.T) {
	t.Run("valid yaml file", func(t *testing.T) {
		tempDir := t.TempDir()
		configPath := filepath.Join(tempDir, "test_config.yaml")

		testConfig := `
crawl:
  start_url: http://site.test/catalogue/page-1.html
  image_selector: "article img"
  next_page_selector: "li.next > a"
  page_limit: 12
  default_folder: home
  folder_naming: sequence
  folder_prefix: "part-"

browser:
  headless: false
  exec_path: /usr/bin/chromium
  navigation_timeout: 45s
  start_settle_delay: 1s
  extract_settle_delay: 250ms
  page_settle_delay: 2s
  wait_condition: ready

download:
  concurrent_downloads: 2
  download_timeout: 60s
  requests_per_minute: 120

output:
  base_directory: /file/output
  write_manifest: false

logging:
  level: warn
  file: /var/log/pagegrab.log
  max_size: 50
  max_backups: 5
  max_age: 14
  compress: true
`

		err := os.WriteFile(configPath, []byte(testConfig), 0644)
		require.NoError(t, err)

		cfg := DefaultConfig()
		err = cfg.LoadFromFile(configPath)
		require.NoError(t, err)

		assert.Equal(t, "http://site.test/catalogue/page-1.html", cfg.Crawl.StartURL)
		assert.Equal(t, "article img", cfg.Crawl.ImageSelector)
		assert.Equal(t, "li.next > a", cfg.Crawl.NextPageSelector)
		assert.Equal(t, 12, cfg.Crawl.PageLimit)
		assert.Equal(t, "home", cfg.Crawl.DefaultFolder)
		assert.Equal(t, FolderNamingSequence, cfg.Crawl.FolderNaming)
		assert.Equal(t, "part-", cfg.Crawl.FolderPrefix)

		assert.False(t, cfg.Browser.Headless)
		assert.Equal(t, "/usr/bin/chromium", cfg.Browser.ExecPath)
		assert.Equal(t, 45*time.Second, cfg.Browser.NavigationTimeout)
		assert.Equal(t, time.Second, cfg.Browser.StartSettleDelay)
		assert.Equal(t, 250*time.Millisecond, cfg.Browser.ExtractSettleDelay)
		assert.Equal(t, 2*time.Second, cfg.Browser.PageSettleDelay)
		assert.Equal(t, WaitReady, cfg.Browser.WaitCondition)

		assert.Equal(t, 2, cfg.Download.ConcurrentDownloads)
		assert.Equal(t, 60*time.Second, cfg.Download.DownloadTimeout)
		assert.Equal(t, 120, cfg.Download.RequestsPerMinute)

		assert.Equal(t, "/file/output", cfg.Output.BaseDirectory)
		assert.False(t, cfg.Output.WriteManifest)

		assert.Equal(t, "warn", cfg.Logging.Level)
		assert.Equal(t, "/var/log/pagegrab.log", cfg.Logging.File)
		assert.Equal(t, 50, cfg.Logging.MaxSize)
		assert.Equal(t, 5, cfg.Logging.MaxBackups)
		assert.Equal(t, 14, cfg.Logging.MaxAge)
		assert.True(t, cfg.Logging.Compress)
	})

	t.Run("invalid yaml file", func(t *testing.T) {
		tempDir := t.TempDir()
		configPath := filepath.Join(tempDir, "invalid.yaml")

		err := os.WriteFile(configPath, []byte("crawl: [unterminated"), 0644)
		require.NoError(t, err)

		cfg := DefaultConfig()
		err = cfg.LoadFromFile(configPath)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse config file")
	})

	t.Run("missing explicit file", func(t *testing.T) {
		cfg := DefaultConfig()
		err := cfg.LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})
}

func TestLoadPrecedence(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "pagegrab.yaml")

	fileConfig := `
crawl:
  start_url: http://file.test/
  page_limit: 10
download:
  concurrent_downloads: 2
`
	require.NoError(t, os.WriteFile(configPath, []byte(fileConfig), 0644))

	t.Setenv("PAGEGRAB_PAGE_LIMIT", "20")
	t.Setenv("PAGEGRAB_CONCURRENT_DOWNLOADS", "6")

	flags := map[string]interface{}{
		"concurrent": 9,
	}

	cfg, err := Load(configPath, flags)
	require.NoError(t, err)

	// file value survives when nothing overrides it
	assert.Equal(t, "http://file.test/", cfg.Crawl.StartURL)
	// env beats file
	assert.Equal(t, 20, cfg.Crawl.PageLimit)
	// flags beat env
	assert.Equal(t, 9, cfg.Download.ConcurrentDownloads)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "bad.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("crawl:\n  page_limit: -1\n"), 0644))

	cfg, err := Load(configPath, nil)
	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "page limit must be at least 1")
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Crawl.StartURL = ""
	cfg.Download.ConcurrentDownloads = 0
	cfg.Output.BaseDirectory = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "start URL is required")
	assert.Contains(t, err.Error(), "concurrent downloads must be positive")
	assert.Contains(t, err.Error(), "output directory is required")
}
