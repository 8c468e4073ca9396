package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"pagegrab/pkg/config"
	"pagegrab/pkg/crawler"
	errs "pagegrab/pkg/errors"
	"pagegrab/pkg/logger"
	"pagegrab/pkg/ui"
)

var (
	// Crawl command flags
	imageSelector   string
	nextSelector    string
	pageLimit       int
	folderNaming    string
	outputDir       string
	concurrent      int
	rateLimit       int
	downloadTimeout time.Duration
	headful         bool
	noProgress      bool
)

// crawlCmd represents the crawl command
var crawlCmd = &cobra.Command{
	Use:   "crawl [start-url]",
	Short: "Crawl a paginated catalog and save its images",
	Long: `Crawl a paginated catalog starting at start-url (or crawl.start_url from the
configuration) and save every image matching the image selector.

Each page gets its own folder under the output directory. The crawl ends
successfully when the next-page control is missing or disabled, or when the
page limit is reached. It fails on the first page without matching images,
the first failed download, or any navigation error.`,
	Example: `  # Crawl the default catalog
  pagegrab crawl http://books.toscrape.com/

  # Custom selectors, at most 5 pages, 8 parallel downloads
  pagegrab crawl https://example.com/gallery \
    --image-selector "figure img" --next-selector "a[rel=next]" \
    --page-limit 5 --concurrent 8

  # Name folders chapter-1, chapter-2, ... and watch the browser
  pagegrab crawl https://example.com/read/1 --folder-naming sequence --headful`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCrawl,
}

func addCrawlFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&imageSelector, "image-selector", "", "CSS selector of the images to save")
	cmd.Flags().StringVar(&nextSelector, "next-selector", "", "CSS selector of the next-page control")
	cmd.Flags().IntVar(&pageLimit, "page-limit", 0, "maximum number of pages to visit")
	cmd.Flags().StringVar(&folderNaming, "folder-naming", "", "page folder naming: url or sequence")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory for downloads")
	cmd.Flags().IntVar(&concurrent, "concurrent", 0, "number of concurrent downloads per page")
	cmd.Flags().IntVar(&rateLimit, "rate-limit", -1, "maximum image requests per minute (0 = unlimited)")
	cmd.Flags().DurationVar(&downloadTimeout, "download-timeout", 0, "timeout for a single image download")
	cmd.Flags().BoolVar(&headful, "headful", false, "show the browser window")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "disable progress bars")
}

func init() {
	rootCmd.AddCommand(crawlCmd)
	addCrawlFlags(crawlCmd)

	// the root command crawls when given a URL
	addCrawlFlags(rootCmd)
}

// crawlFlags collects the flags the user actually set
func crawlFlags(cmd *cobra.Command, args []string) map[string]interface{} {
	flags := make(map[string]interface{})
	if len(args) == 1 {
		flags["start-url"] = strings.TrimSpace(args[0])
	}
	if imageSelector != "" {
		flags["image-selector"] = imageSelector
	}
	if nextSelector != "" {
		flags["next-selector"] = nextSelector
	}
	if pageLimit > 0 {
		flags["page-limit"] = pageLimit
	}
	if folderNaming != "" {
		flags["folder-naming"] = folderNaming
	}
	if outputDir != "" {
		flags["output"] = outputDir
	}
	if concurrent > 0 {
		flags["concurrent"] = concurrent
	}
	if rateLimit >= 0 {
		flags["rate-limit"] = rateLimit
	}
	if downloadTimeout > 0 {
		flags["download-timeout"] = downloadTimeout
	}
	if cmd.Flags().Changed("headful") {
		flags["headless"] = !headful
	}
	if logLevel != "" {
		flags["log-level"] = logLevel
	}
	return flags
}

func runCrawl(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, crawlFlags(cmd, args))
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		return err
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		ui.PrintError("Failed to initialize logger", err.Error())
		return err
	}
	log := logger.GetLogger()
	log.WithField("version", version).Info("pagegrab starting")

	ui.PrintInfo("Start page", cfg.Crawl.StartURL)
	ui.PrintInfo("Output", cfg.Output.BaseDirectory)
	ui.PrintInfo("Page limit", strconv.Itoa(cfg.Crawl.PageLimit))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tracker := ui.NewStatusTracker(os.Stderr, !quiet && !noProgress)
	c := crawler.New(cfg,
		crawler.WithLogger(log),
		crawler.WithObserver(tracker),
	)

	ok, err := c.Run(ctx)
	if err != nil {
		log.WithError(err).WithField("kind", string(errs.KindOf(err))).Error("Crawl failed")
		ui.PrintError(fmt.Sprintf("CRAWL FAILED [%s]", errs.KindOf(err)), err.Error())
		ui.PrintInfo("Summary", tracker.Summary())
		return err
	}

	if ok {
		ui.PrintSuccess("[CRAWL COMPLETED SUCCESSFULLY]")
	}
	ui.PrintInfo("Summary", tracker.Summary())
	return nil
}
