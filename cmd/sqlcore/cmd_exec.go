package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func (app *App) execCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "exec <sql>",
		Short: "Run a mutating statement and print its ExecResult",
		Args:  cobra.ExactArgs(1),
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

			res, err := conn.Execute(ctx, args[0])
			if err != nil {
				return fmt.Errorf("exec failed: %w", err)
			}

			fmt.Printf("rows affected: %d\n", res.RowsAffected)
			if res.LastInsertID != nil {
				fmt.Printf("last insert id: %d\n", *res.LastInsertID)
			}
			return nil
		},
	}
}
