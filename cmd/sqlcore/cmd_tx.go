package main

import (
	"context"
	"fmt"

	"github.com/honeynil/sqlcore"
	"github.com/honeynil/sqlcore/drivers/base"
	"github.com/spf13/cobra"
)

func (app *App) txCmd() *cobra.Command {
	var rollback bool
	var txID string

	cmd := &cobra.Command{
		Use:   "tx <sql> [sql...]",
		Short: "Run one or more statements inside a named, managed transaction",
		Long: `Demonstrates TxManager: begins a transaction under a tx_id, runs each
given statement against it in order, then commits (or rolls back with
--rollback). The tx_id is printed before the statements run. The manager
is created without a TxLogger, so a rollback it makes on its own (lock-wait
timeout or shutdown) is not logged.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			pool, err := app.openPool(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = pool.Close() }()

			if txID == "" {
				txID, err = base.GenerateTxID()
				if err != nil {
					return fmt.Errorf("failed to generate tx id: %w", err)
				}
			}

			mgr := sqlcore.NewTxManager(app.config.LockWaitTimeout, app.config.CheckInterval, nil)
			defer mgr.Close()

			if err := mgr.Begin(ctx, txID, pool); err != nil {
				return fmt.Errorf("begin failed: %w", err)
			}
			fmt.Printf("tx_id: %s\n", txID)

			var runErr error
			for _, stmt := range args {
				err := mgr.GetMut(txID, func(tx *sqlcore.Tx) error {
					res, err := tx.Execute(ctx, stmt)
					if err != nil {
						return err
					}
					fmt.Printf("%s -> %d rows affected\n", stmt, res.RowsAffected)
					return nil
				})
				if err != nil {
					runErr = err
					break
				}
			}

			if runErr != nil || rollback {
				if err := mgr.Rollback(ctx, txID); err != nil {
					return fmt.Errorf("rollback failed: %w", err)
				}
				if runErr != nil {
					return fmt.Errorf("statement failed, rolled back: %w", runErr)
				}
				fmt.Println("rolled back")
				return nil
			}

			if err := mgr.Commit(ctx, txID); err != nil {
				return fmt.Errorf("commit failed: %w", err)
			}
			fmt.Println("committed")
			return nil
		},
	}

	cmd.Flags().BoolVar(&rollback, "rollback", false, "Roll back instead of committing")
	cmd.Flags().StringVar(&txID, "tx-id", "", "Transaction id (random if omitted)")
	cmd.Flags().DurationVar(&app.config.LockWaitTimeout, "lock-wait-timeout", app.config.LockWaitTimeout, "Max time a transaction may stay open")
	cmd.Flags().DurationVar(&app.config.CheckInterval, "check-interval", app.config.CheckInterval, "Sweeper poll interval")
	return cmd
}
