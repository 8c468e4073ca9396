package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"pagegrab/pkg/ui"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	quiet      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pagegrab [start-url]",
	Short: "Download every image of a paginated catalog",
	Long: `pagegrab opens a catalog page in a headless browser, saves every image
matching a CSS selector into a folder named after the page, clicks the
"next page" control and repeats until there is no next page or the page
limit is reached.

Running pagegrab with a URL is the same as 'pagegrab crawl <url>'.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	Args:    cobra.MaximumNArgs(1),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if quiet {
			ui.Output = nopWriter{}
		}
		if cmd.Name() != "version" && cmd.Name() != "help" && cmd.Name() != "config" && cmd.Parent() != configCmd {
			ui.PrintLogo()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return cmd.Help()
		}
		return runCrawl(cmd, args)
	},
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is ./pagegrab.yaml or $HOME/.pagegrab.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress banner, progress bars and status lines")

	rootCmd.SetVersionTemplate(`pagegrab {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
