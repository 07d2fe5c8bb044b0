// Command robot-lsp is a language server for Robot Framework.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"
	"golang.org/x/term"

	// glsp logs through commonlog; this backend routes it to zerolog.
	_ "github.com/tliron/commonlog/zerolog"

	"github.com/CWBudde/go-robot-lsp/internal/analysis"
	"github.com/CWBudde/go-robot-lsp/internal/lsp"
	"github.com/CWBudde/go-robot-lsp/internal/server"
)

var rootCmd = &cobra.Command{
	Use:   "robot-lsp",
	Short: "Language server for Robot Framework",
	Long: `robot-lsp serves the Language Server Protocol for Robot Framework test
suites and resource files. Without a subcommand it serves over stdio.`,
	SilenceUsage:      true,
	PersistentPreRunE: setupLogging,
	RunE:              runServe,
}

func main() {
	rootCmd.Version = lsp.Version

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("log-level", "error", "log level (trace|debug|info|warn|error|off)")
	rootCmd.PersistentFlags().String("log-file", "", "log file path (default: stderr)")
	addConfigFlags(rootCmd)
	addServeFlags(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// commonlog verbosity matching each zerolog level; commonlog's Info and
// Debug map to zerolog's Debug and Trace.
var logVerbosity = map[zerolog.Level]int{
	zerolog.TraceLevel: 2,
	zerolog.DebugLevel: 1,
	zerolog.InfoLevel:  0,
	zerolog.WarnLevel:  -1,
	zerolog.ErrorLevel: -2,
	zerolog.Disabled:   -4,
}

// setupLogging configures the global zerolog logger and the commonlog
// backend used by the transport from the --log-level and --log-file flags.
func setupLogging(cmd *cobra.Command, _ []string) error {
	levelName, err := cmd.Flags().GetString("log-level")
	if err != nil {
		return fmt.Errorf("failed to get log-level flag: %w", err)
	}
	logFile, err := cmd.Flags().GetString("log-file")
	if err != nil {
		return fmt.Errorf("failed to get log-file flag: %w", err)
	}

	level, err := parseLevel(levelName)
	if err != nil {
		return err
	}

	var path *string
	if logFile != "" {
		path = &logFile
	}
	// Configures log.Logger: a console writer on stderr, JSON in a file.
	commonlog.Configure(logVerbosity[level], path)
	if path == nil && !isTerminal(os.Stderr) {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Logger.Level(level)
	return nil
}

func parseLevel(name string) (zerolog.Level, error) {
	switch strings.ToLower(name) {
	case "off", "none", "disabled":
		return zerolog.Disabled, nil
	case "warning":
		return zerolog.WarnLevel, nil
	}
	level, err := zerolog.ParseLevel(strings.ToLower(name))
	if err != nil || level == zerolog.NoLevel {
		return zerolog.NoLevel, fmt.Errorf("unknown log level %q", name)
	}
	if _, ok := logVerbosity[level]; !ok {
		// fatal and panic
		return zerolog.ErrorLevel, nil
	}
	return level, nil
}

// addConfigFlags registers the flags overriding server.Config defaults.
func addConfigFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringSlice("libspec-dir", nil, "directory searched for libspec JSON files (repeatable)")
	cmd.PersistentFlags().String("parser-command", "", "command printing the JSON syntax tree of the Robot Framework source on stdin")
	cmd.PersistentFlags().Int("max-problems", analysis.DefaultMaxProblems, "maximum number of diagnostics per document (at most 100)")
	cmd.PersistentFlags().String("cache-dir", "", "directory for the libspec index cache")
}

// configFromFlags returns the default configuration overlaid with the
// flags set on the command line.
func configFromFlags(cmd *cobra.Command) (*server.Config, error) {
	cfg := server.DefaultConfig()
	flags := cmd.Flags()

	var err error
	if flags.Changed("libspec-dir") {
		if cfg.LibspecDirs, err = flags.GetStringSlice("libspec-dir"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("parser-command") {
		if cfg.ParserCommand, err = flags.GetString("parser-command"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("max-problems") {
		if cfg.MaxProblems, err = flags.GetInt("max-problems"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("cache-dir") {
		if cfg.CacheDir, err = flags.GetString("cache-dir"); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
