package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"rehabinv-cli/internal/config"
	"rehabinv-cli/internal/format"
	"rehabinv-cli/internal/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type App struct {
	EnvFile    string
	Dir        string
	Backend    string
	APIURL     string
	LogFile    string
	PrettyJSON bool
	Format     string

	cfg *config.Config
	log *zap.Logger
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "rehabinv",
		Short:        "Rehab clinic inventory editor (TUI + CLI)",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start the interactive editor
  rehabinv

  # Scriptable commands
  rehabinv items list --format table
  rehabinv items set item-ab12cd34 7

  # Run the REST backend
  rehabinv serve --addr :3000
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive TUI.
			if cmd.HasSubCommands() && len(args) == 0 {
				return runTUI(cmd, app)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return app.resolve(cmd)
	}
	cmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		if app.log != nil {
			_ = app.log.Sync()
		}
		return nil
	}

	cmd.PersistentFlags().StringVar(&app.EnvFile, "env-file", "", "Path to a .env file (default: ./.env when present)")
	cmd.PersistentFlags().StringVar(&app.Dir, "dir", envOr(config.EnvDir, ""), "Data directory (default: ~/.rehabinv)")
	cmd.PersistentFlags().StringVar(&app.Backend, "backend", envOr(config.EnvBackend, config.BackendLocal), "Persistence backend (local|api)")
	cmd.PersistentFlags().StringVar(&app.APIURL, "api-url", envOr(config.EnvAPIURL, ""), "Base URL of the REST backend when --backend api")
	cmd.PersistentFlags().StringVar(&app.LogFile, "log", envOr(config.EnvLog, ""), "Log file (default: no logging)")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")
	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr("REHABINV_FORMAT", "json"), "Output format (json|table)")

	cmd.AddCommand(newItemsCmd(app))
	cmd.AddCommand(newExportCmd(app))
	cmd.AddCommand(newServeCmd(app))
	cmd.AddCommand(newDocsCmd(app))

	return cmd
}

// resolve loads the environment config and lets explicitly set flags win over it.
func (app *App) resolve(cmd *cobra.Command) error {
	cfg, err := config.Load(app.EnvFile)
	if err != nil {
		return writeErr(cmd, err)
	}
	flags := cmd.Flags()
	if flags.Changed("dir") {
		cfg.Client.Dir = app.Dir
	}
	if flags.Changed("backend") {
		cfg.Client.Backend = strings.ToLower(strings.TrimSpace(app.Backend))
	}
	if flags.Changed("api-url") {
		cfg.Client.APIURL = app.APIURL
	}
	if flags.Changed("log") {
		cfg.Log.File = app.LogFile
	}
	if err := cfg.Validate(); err != nil {
		return writeErr(cmd, err)
	}
	app.cfg = cfg

	logger, err := logging.NewFile(cfg.Log.File, cfg.Log.Level)
	if err != nil {
		return writeErr(cmd, fmt.Errorf("open log: %w", err))
	}
	app.log = logger
	return nil
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, app.Format, app.PrettyJSON)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
