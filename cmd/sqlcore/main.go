// Command sqlcore is a small demonstration shell around the sqlcore
// package: it opens a pool against a connection URL, and offers ping,
// exec, fetch, and a scripted transaction demo as cobra subcommands.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/honeynil/sqlcore"
	"github.com/spf13/cobra"
)

// App holds shared CLI state: the loaded config, the cobra root command,
// and the pool opened once a subcommand actually needs one.
type App struct {
	config     *Config
	configFile string
	rootCmd    *cobra.Command
	pool       *sqlcore.Pool
}

func main() {
	app := &App{config: defaultConfig()}

	app.rootCmd = &cobra.Command{
		Use:           "sqlcore",
		Short:         "sqlcore connection pool and transaction demo shell",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	app.addGlobalFlags()
	app.addCommands()

	if err := app.rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func (app *App) addGlobalFlags() {
	flags := app.rootCmd.PersistentFlags()
	flags.StringVar(&app.config.URL, "url", "", "Connection URL (mysql://, postgres://, sqlite://, mssql://)")
	flags.StringVar(&app.configFile, "config", defaultConfigFile, "Config file path")
	flags.Uint32Var(&app.config.MaxConnections, "max-connections", app.config.MaxConnections, "Pool max connections")
	flags.BoolVar(&app.config.JSON, "json", false, "Output in JSON format")
	flags.BoolVar(&app.config.Verbose, "verbose", false, "Verbose logging")
}

func (app *App) addCommands() {
	app.rootCmd.AddCommand(
		app.pingCmd(),
		app.execCmd(),
		app.fetchCmd(),
		app.txCmd(),
		app.versionCmd(),
	)
}

// openPool loads config (flags > env > file) and opens a Pool against it.
func (app *App) openPool(ctx context.Context) (*sqlcore.Pool, error) {
	if err := app.config.loadFile(app.configFile); err != nil {
		return nil, err
	}
	app.config.loadEnv()

	if app.config.URL == "" {
		return nil, fmt.Errorf("connection url is required (use --url, SQLCORE_URL, or %s)", defaultConfigFile)
	}

	opts := sqlcore.DefaultPoolOptions()
	if app.config.MaxConnections > 0 {
		opts.MaxConnections = app.config.MaxConnections
	}
	opts.MinConnections = app.config.MinConnections
	if app.config.ConnectTimeout > 0 {
		opts.ConnectTimeout = app.config.ConnectTimeout
	}

	var poolOpts []sqlcore.Option
	if app.config.Verbose {
		poolOpts = append(poolOpts, sqlcore.WithLogger(slog.Default()))
	}

	pool, err := sqlcore.NewPoolWithOptions(ctx, app.config.URL, opts, poolOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open pool: %w", err)
	}
	app.pool = pool
	return pool, nil
}
