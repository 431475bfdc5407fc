package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hlvm-dev/hql/pkg/hql"
	"github.com/spf13/cobra"
)

func newMacroExpandCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "macroexpand <file>",
		Short: "Fully macro-expand an HQL file's top-level forms",
		Args:  cobra.ExactArgs(1),
		RunE:  macroExpandRunE(flags, hql.MacroExpand),
	}
}

func newMacroExpand1Cmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "macroexpand1 <file>",
		Short: "Apply exactly one outer macro rewrite to each top-level form",
		Args:  cobra.ExactArgs(1),
		RunE:  macroExpandRunE(flags, hql.MacroExpand1),
	}
}

type expandFn func(source string, opts hql.Options) ([]string, error)

func macroExpandRunE(flags *globalFlags, expand expandFn) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		path := args[0]
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("macroexpand: read %s: %w", path, err)
		}
		cfg, err := flags.resolveConfig(path)
		if err != nil {
			return err
		}
		forms, err := expand(string(data), hql.Options{
			BaseDir:     filepath.Dir(path),
			CurrentFile: path,
			Strict:      flags.strict || cfg.Strict,
			InstallDir:  cfg.InstallDir,
			Logger:      flags.logger(),
		})
		if err != nil {
			return err
		}
		fmt.Println(strings.Join(forms, "\n"))
		return nil
	}
}
