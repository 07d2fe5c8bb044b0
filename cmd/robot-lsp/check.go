package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/fatih/color"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/CWBudde/go-robot-lsp/internal/analysis"
	"github.com/CWBudde/go-robot-lsp/internal/libspec"
	"github.com/CWBudde/go-robot-lsp/internal/parser"
	"github.com/CWBudde/go-robot-lsp/internal/workspace"
)

var checkCmd = &cobra.Command{
	Use:   "check <file>...",
	Short: "Report the diagnostics of Robot Framework files",
	Long: `check analyzes the given files the way the language server does and
prints one line per problem. Without --parser-command the files must contain
syntax trees already dumped as JSON.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().IntP("jobs", "j", runtime.GOMAXPROCS(0), "number of files analyzed concurrently")
	checkCmd.Flags().String("color", "auto", "colorize output (auto|on|off)")
}

// errProblems signals that error diagnostics were reported.
var errProblems = errors.New("problems found")

// noOpenDocuments resolves resources from disk only.
type noOpenDocuments struct{}

func (noOpenDocuments) OpenDocument(string) (analysis.Document, bool) { return nil, false }

type fileResult struct {
	path  string
	diags []analysis.Diagnostic
}

func runCheck(cmd *cobra.Command, args []string) error {
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return fmt.Errorf("failed to get jobs flag: %w", err)
	}
	colorMode, err := cmd.Flags().GetString("color")
	if err != nil {
		return fmt.Errorf("failed to get color flag: %w", err)
	}
	switch colorMode {
	case "auto":
		color.NoColor = !isTerminal(os.Stdout)
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	default:
		return fmt.Errorf("invalid --color value %q (want auto, on or off)", colorMode)
	}

	cfg, err := configFromFlags(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	logger := log.Logger

	var p parser.Parser = parser.JSON
	if cfg.ParserCommand != "" {
		p = parser.NewCommand(cfg.ParserCommand, logger.With().Str("component", "parser").Logger())
	}

	libraries := libspec.NewManager(libspec.Options{
		Dirs:     cfg.LibspecDirs,
		CacheDir: cfg.CacheDir,
		Jobs:     jobs,
		Logger:   logger,
	})
	if err := libraries.Refresh(ctx); err != nil {
		return fmt.Errorf("failed to index libspec files: %w", err)
	}

	folder, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}
	loader := workspace.NewFileLoader(p, logger)
	analyzer := &analysis.Analyzer{
		Libraries:   libraries,
		Resources:   workspace.NewResourceResolver(noOpenDocuments{}, loader, func() []string { return []string{folder} }, logger),
		MaxProblems: cfg.MaxProblems,
		Logger:      logger,
	}

	results := make([]fileResult, len(args))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(jobs, 1))
	for i, arg := range args {
		g.Go(func() error {
			path, err := filepath.Abs(arg)
			if err != nil {
				return err
			}
			doc, err := loader.Load(gctx, path)
			if err != nil {
				return fmt.Errorf("%s: %w", arg, err)
			}
			diags, err := analyzer.Analyze(gctx, doc)
			if err != nil {
				return fmt.Errorf("%s: %w", arg, err)
			}
			results[i] = fileResult{path: arg, diags: diags}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if printResults(cmd.OutOrStdout(), results) > 0 {
		return errProblems
	}
	return nil
}

var severityColors = map[analysis.Severity]*color.Color{
	analysis.SeverityError:       color.New(color.FgRed, color.Bold),
	analysis.SeverityWarning:     color.New(color.FgYellow, color.Bold),
	analysis.SeverityInformation: color.New(color.FgBlue),
	analysis.SeverityHint:        color.New(color.FgCyan),
}

// printResults writes one line per diagnostic in argument order and returns
// the number of errors.
func printResults(w io.Writer, results []fileResult) int {
	bold := color.New(color.Bold)
	errorCount := 0
	for _, res := range results {
		for _, d := range res.diags {
			if d.Severity == analysis.SeverityError {
				errorCount++
			}
			severity := d.Severity.String()
			if c, ok := severityColors[d.Severity]; ok {
				severity = c.Sprint(severity)
			}
			fmt.Fprintf(w, "%s: %s: %s\n",
				bold.Sprintf("%s:%d:%d", res.path, d.Range.Start.Line+1, d.Range.Start.Character+1),
				severity, d.Message)
		}
	}
	return errorCount
}
