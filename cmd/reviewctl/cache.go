package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"housingreview/internal/cache/sqlite"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the local extraction cache",
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete expired extraction cache entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Cache.Path == "" {
			return eris.New("cache.path is not configured")
		}
		c, err := sqlite.Open(cmd.Context(), cfg.Cache.Path, cfg.Cache.TTL)
		if err != nil {
			return eris.Wrap(err, "open extraction cache")
		}
		defer c.Close()

		n, err := c.Purge(cmd.Context())
		if err != nil {
			return eris.Wrap(err, "purge extraction cache")
		}
		fmt.Printf("purged %d expired entries\n", n)
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cachePurgeCmd)
	rootCmd.AddCommand(cacheCmd)
}
