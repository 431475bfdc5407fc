package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hlvm-dev/hql/pkg/hql"
	"github.com/spf13/cobra"
)

func newRunCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <file>",
		Short: "Compile and evaluate an HQL file under Node",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			run := func() error {
				cfg, err := flags.resolveConfig(path)
				if err != nil {
					return err
				}
				value, err := hql.RunFile(cmd.Context(), path, hql.Options{
					BaseDir:    filepath.Dir(path),
					Strict:     flags.strict || cfg.Strict,
					InstallDir: cfg.InstallDir,
					Logger:     flags.logger(),
				})
				if err != nil {
					return err
				}
				return printValue(value)
			}
			if flags.watch {
				return watchAndRun(path, run)
			}
			return run()
		},
	}
	return cmd
}

func printValue(value any) error {
	if value == nil {
		fmt.Println("null")
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		fmt.Fprintln(os.Stdout, value)
		return nil
	}
	fmt.Println(string(data))
	return nil
}
