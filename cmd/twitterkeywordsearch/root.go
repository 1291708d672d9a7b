package main

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"twitterkeywordsearch/pkg/ui"
)

var (
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	configFile string
)

var rootCmd = &cobra.Command{
	Use:   "twitterkeywordsearch",
	Short: "Collect keyword search results and their authors from the Twitter API",
	Long: `twitterkeywordsearch streams the results of a keyword search into a
document store, then downloads the profile, timeline, follower ids and
following ids of every author it found.

Both modes wait out rate limits and can be re-run: search with --resume
continues where it stopped, and users only fetches what is still missing.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		ui.PrintError("Error", err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configFile, "config", "c", "", "config file (default is ./.twitterkeywordsearch.yaml)")
	pf.String("log-level", "", "log level (debug, info, warn, error)")
	pf.StringP("incollection", "i", "", "collection holding search results")
	pf.StringP("outcollection", "o", "", "collection to write to")
	pf.String("database-url", "", "document store URL (mongodb://, sqlite:// or memory://)")
	pf.String("account", "", "stored credentials to use")
	pf.String("metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9090")
	pf.Duration("cooldown", 0, "wait after a rate limit (default 15m)")

	rootCmd.SetVersionTemplate(`twitterkeywordsearch {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// changedFlags collects the flags set on the command line, keyed by flag
// name, for config.MergeCommandLineFlags.
func changedFlags(flags *pflag.FlagSet) map[string]interface{} {
	out := make(map[string]interface{})
	flags.Visit(func(f *pflag.Flag) {
		switch f.Value.Type() {
		case "int":
			if v, err := flags.GetInt(f.Name); err == nil {
				out[f.Name] = v
			}
		case "bool":
			if v, err := flags.GetBool(f.Name); err == nil {
				out[f.Name] = v
			}
		case "duration":
			if v, err := flags.GetDuration(f.Name); err == nil {
				out[f.Name] = v
			}
		default:
			out[f.Name] = f.Value.String()
		}
	})
	return out
}

func formatDuration(d time.Duration) string {
	return d.Round(time.Second).String()
}
