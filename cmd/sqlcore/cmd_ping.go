package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func (app *App) pingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Open the pool and verify connectivity",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			pool, err := app.openPool(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = pool.Close() }()

			conn, err := pool.Acquire(ctx)
			if err != nil {
				return fmt.Errorf("acquire failed: %w", err)
			}
			defer func() { _ = conn.Close() }()

			start := time.Now()
			if err := conn.Ping(ctx); err != nil {
				return fmt.Errorf("ping failed: %w", err)
			}

			fmt.Printf("ok: %s reachable in %s\n", pool.Tag(), time.Since(start))
			stats := pool.Stats()
			fmt.Printf("open connections: %d, in use: %d, idle: %d\n", stats.OpenConnections, stats.InUse, stats.Idle)
			return nil
		},
	}
}
