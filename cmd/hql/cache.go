package main

import (
	"encoding/json"
	"fmt"

	"github.com/hlvm-dev/hql/internal/cache"
	"github.com/spf13/cobra"
)

func newCacheCmd(flags *globalFlags) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect the compiled-module cache",
	}
	cacheCmd.AddCommand(&cobra.Command{
		Use:   "inspect <path>",
		Short: "Dump a .hqlc cache record's manifest as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := cache.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("cache inspect: %w", err)
			}
			data, err := json.MarshalIndent(struct {
				Source       string   `json:"source"`
				Helpers      []string `json:"helpers"`
				ImportGraph  []string `json:"importGraph"`
				CodeBytes    int      `json:"codeBytes"`
				HasSourceMap bool     `json:"hasSourceMap"`
			}{
				Source:       rec.Source,
				Helpers:      rec.Helpers,
				ImportGraph:  rec.ImportGraph,
				CodeBytes:    len(rec.Code),
				HasSourceMap: rec.SourceMap != "",
			}, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		},
	})
	return cacheCmd
}
