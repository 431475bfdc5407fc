package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hlvm-dev/hql/pkg/hql"
	"github.com/spf13/cobra"
)

func newTranspileCmd(flags *globalFlags) *cobra.Command {
	var outPath string
	var sourceMap bool

	cmd := &cobra.Command{
		Use:   "transpile <file>",
		Short: "Compile an HQL file to JavaScript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			run := func() error {
				result, err := transpileFile(flags, path, sourceMap)
				if err != nil {
					return err
				}
				if outPath != "" {
					if err := os.WriteFile(outPath, []byte(result.Code), 0o644); err != nil {
						return fmt.Errorf("transpile: write %s: %w", outPath, err)
					}
					if sourceMap && result.SourceMap != "" {
						if err := os.WriteFile(outPath+".map", []byte(result.SourceMap), 0o644); err != nil {
							return fmt.Errorf("transpile: write source map: %w", err)
						}
					}
					return nil
				}
				fmt.Println(result.Code)
				return nil
			}
			if flags.watch {
				return watchAndRun(path, run)
			}
			return run()
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "write compiled JS to this path instead of stdout")
	cmd.Flags().BoolVar(&sourceMap, "source-map", false, "also emit a Version-3 source map")
	return cmd
}

func transpileFile(flags *globalFlags, path string, sourceMap bool) (hql.Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return hql.Result{}, fmt.Errorf("transpile: read %s: %w", path, err)
	}
	cfg, err := flags.resolveConfig(path)
	if err != nil {
		return hql.Result{}, err
	}
	return hql.Transpile(string(data), hql.Options{
		BaseDir:           filepath.Dir(path),
		CurrentFile:       path,
		Strict:            flags.strict || cfg.Strict,
		GenerateSourceMap: sourceMap || cfg.GenerateSourceMap,
		InstallDir:        cfg.InstallDir,
		Logger:            flags.logger(),
	})
}
