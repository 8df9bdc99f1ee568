package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func (app *App) fetchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fetch <sql>",
		Short: "Run a query and print its rows",
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

			var rows []map[string]any
			n, err := conn.Fetch(ctx, args[0], &rows)
			if err != nil {
				return fmt.Errorf("fetch failed: %w", err)
			}

			if app.config.JSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(rows)
			}
			return app.outputFetchTable(rows, n)
		},
	}
}

func (app *App) outputFetchTable(rows []map[string]any, n int) error {
	if n == 0 {
		fmt.Println("0 rows")
		return nil
	}

	cols := make([]string, 0, len(rows[0]))
	for col := range rows[0] {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	table := tablewriter.NewWriter(os.Stdout)
	table.Header(cols)

	for _, row := range rows {
		rendered := make([]string, len(cols))
		for i, col := range cols {
			rendered[i] = fmt.Sprint(row[col])
		}
		if err := table.Append(rendered); err != nil {
			return err
		}
	}

	if err := table.Render(); err != nil {
		return err
	}
	fmt.Printf("\n%d rows\n", n)
	return nil
}
