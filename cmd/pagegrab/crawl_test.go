package main

import (
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCrawlCmd(t *testing.T) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "crawl"}
	addCrawlFlags(cmd)
	t.Cleanup(func() {
		imageSelector, nextSelector, folderNaming, outputDir, logLevel = "", "", "", "", ""
		pageLimit, concurrent, rateLimit = 0, 0, -1
		downloadTimeout = 0
		headful, noProgress = false, false
	})
	return cmd
}

func TestCrawlFlagsOnlyIncludesSetValues(t *testing.T) {
	cmd := newTestCrawlCmd(t)
	require.NoError(t, cmd.ParseFlags(nil))

	flags := crawlFlags(cmd, nil)
	assert.Empty(t, flags)
}

func TestCrawlFlags(t *testing.T) {
	cmd := newTestCrawlCmd(t)
	require.NoError(t, cmd.ParseFlags([]string{
		"--image-selector", "figure img",
		"--next-selector", "a[rel=next]",
		"--page-limit", "5",
		"--folder-naming", "sequence",
		"-o", "/tmp/out",
		"--concurrent", "8",
		"--rate-limit", "0",
		"--download-timeout", "10s",
		"--headful",
	}))

	flags := crawlFlags(cmd, []string{" http://books.toscrape.com/ "})

	assert.Equal(t, "http://books.toscrape.com/", flags["start-url"])
	assert.Equal(t, "figure img", flags["image-selector"])
	assert.Equal(t, "a[rel=next]", flags["next-selector"])
	assert.Equal(t, 5, flags["page-limit"])
	assert.Equal(t, "sequence", flags["folder-naming"])
	assert.Equal(t, "/tmp/out", flags["output"])
	assert.Equal(t, 8, flags["concurrent"])
	assert.Equal(t, 0, flags["rate-limit"])
	assert.Equal(t, 10*time.Second, flags["download-timeout"])
	assert.Equal(t, false, flags["headless"])
}
