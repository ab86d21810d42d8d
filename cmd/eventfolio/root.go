package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/eventfolio/eventfolio"
	"github.com/eventfolio/eventfolio/internal/platform"
)

var (
	verbose    bool
	catalogDir string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "eventfolio",
	Short: "A file-backed, versioned resource catalog for event-driven architectures",
	Long: `Eventfolio stores events, commands, queries, services and domains as
frontmatter documents under a directory tree, addressed by id and version.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}

		opts := &slog.HandlerOptions{
			Level: level,
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, opts))
		slog.SetDefault(logger)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&catalogDir, "dir", "d", "", "Catalog directory (defaults to the enclosing catalog root)")
}

// openCatalog resolves the catalog root and opens it.
func openCatalog() (*eventfolio.Catalog, error) {
	dir := catalogDir
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get CWD: %w", err)
		}
		if root, err := platform.FindRoot(cwd); err == nil {
			dir = root
		} else {
			dir = cwd
		}
	}

	return eventfolio.New(dir,
		eventfolio.WithLogger(slog.Default()),
		eventfolio.WithMustExist(true),
	)
}

func fatal(msg string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", msg, err)
	os.Exit(1)
}
