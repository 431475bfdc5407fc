// Command hql is the compiler's CLI front end (SPEC_FULL.md §B): transpile,
// run, macroexpand, macroexpand1 and cache inspect subcommands over
// pkg/hql's Entry API, following the teacher's cobra root-command/
// PersistentFlags/RunE-closure shape (cli/main.go).
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/hlvm-dev/hql/internal/config"
	"github.com/spf13/cobra"
)

// globalFlags holds the persistent flag values every subcommand reads,
// mirroring the teacher's rootCmd closure-captured flag variables.
type globalFlags struct {
	strict     bool
	watch      bool
	configPath string
	verbose    bool
}

func main() {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:           "hql",
		Short:         "Compile, run and macro-expand HQL source",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	rootCmd.PersistentFlags().BoolVar(&flags.strict, "strict", false, "escalate type-mismatch warnings to errors")
	rootCmd.PersistentFlags().BoolVar(&flags.watch, "watch", false, "recompile on source changes")
	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "path to hql.config.yaml (default: next to the entry file)")
	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable debug-level logging")

	rootCmd.AddCommand(
		newTranspileCmd(flags),
		newRunCmd(flags),
		newMacroExpandCmd(flags),
		newMacroExpand1Cmd(flags),
		newCacheCmd(flags),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func (f *globalFlags) logger() *slog.Logger {
	level := slog.LevelWarn
	if f.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// resolveConfig loads hql.config.yaml: --config if given, else the file
// next to the entry path, else built-in defaults (internal/config.Find/Load).
func (f *globalFlags) resolveConfig(entryPath string) (config.Config, error) {
	path := f.configPath
	if path == "" {
		path = config.Find(filepath.Dir(entryPath))
	}
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}
