package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

func (app *App) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the tool version and supported backends",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("sqlcore %s\n", version)
			fmt.Println("supported backends: mysql, postgres, sqlite, mssql")
			return nil
		},
	}
}
