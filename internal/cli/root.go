// Package cli defines the root Cobra command and global flag/context setup.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/autodoc-sh/autodoc/internal/cli/commands"
	"github.com/autodoc-sh/autodoc/internal/core/config"
	"github.com/autodoc-sh/autodoc/internal/core/logger"
	"github.com/autodoc-sh/autodoc/internal/core/state"
	"github.com/autodoc-sh/autodoc/pkg/pprint"
)

// globalFlags holds values bound to persistent global flags.
var globalFlags struct {
	configFile string
	debug      bool
	jsonOutput bool
	dryRun     bool
}

// rootCmd is the base command for autodoc.
var rootCmd = &cobra.Command{
	Use:           "autodoc",
	Short:         "AutoDoc — Self-Documenting Homelab Infrastructure",
	Long:          ``, // overridden by SetHelpFunc below
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Bare `autodoc` — help func already prints banner
		return cmd.Help()
	},
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" || cmd.Name() == "completion" {
			return nil
		}
		return initRuntime(cmd)
	},
}

// Execute runs the CLI. Called by main().
func Execute() {
	// Show banner before every help screen
	origHelp := rootCmd.HelpFunc()
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		pprint.PrintBanner(commands.Version, commands.BuildDate)
		origHelp(cmd, args)
	})

	if err := rootCmd.Execute(); err != nil {
		pprint.Error("%s", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&globalFlags.configFile, "config", "c", "", "Path to autodoc.yaml (defaults to auto-discovery)")
	rootCmd.PersistentFlags().BoolVar(&globalFlags.debug, "debug", false, "Enable debug-level logging")
	rootCmd.PersistentFlags().BoolVar(&globalFlags.jsonOutput, "json", false, "Output in machine-readable JSON")
	rootCmd.PersistentFlags().BoolVar(&globalFlags.dryRun, "dry-run", false, "Print planned actions without executing")

	// Register all subcommands
	rootCmd.AddCommand(
		commands.NewInitCmd(),
		commands.NewSetupCmd(),
		commands.NewUpCmd(),
		commands.NewDownCmd(),
		commands.NewRestartCmd(),
		commands.NewPsCmd(),
		commands.NewLogsCmd(),
		commands.NewBuildCmd(),
		commands.NewPullCmd(),
		commands.NewCleanCmd(),
		commands.NewStatusCmd(),
		commands.NewServeCmd(),
		commands.NewGitHubSyncCmd(),
		commands.NewMonitorCmd(),
		commands.NewUICmd(),
		commands.NewVersionCmd(),
	)
	rootCmd.AddCommand(commands.NewScanCmds()...)
}

// initRuntime loads config, logger, and state before each command runs.
func initRuntime(cmd *cobra.Command) error {
	// Load config
	cfg, err := config.Load(globalFlags.configFile)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	// Initialise logger
	home := config.Home()
	logFile := filepath.Join(home, "logs", "autodoc.log")
	if err := os.MkdirAll(filepath.Dir(logFile), 0750); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}

	log, err := logger.Init(cfg.Log.Level, cfg.Log.Format, logFile, home, globalFlags.debug)
	if err != nil {
		return fmt.Errorf("logger init: %w", err)
	}

	// Open state DB
	dbPath := filepath.Join(home, "state.db")
	if err := os.MkdirAll(home, 0750); err != nil {
		return fmt.Errorf("create autodoc home: %w", err)
	}
	db, err := state.Open(dbPath)
	if err != nil {
		return fmt.Errorf("state db: %w", err)
	}

	// Store in command context
	cmd.SetContext(commands.NewContext(cmd.Context(), &commands.Runtime{
		Config: cfg,
		Log:    log,
		State:  db,
		Flags: commands.GlobalFlags{
			Debug:      globalFlags.debug,
			JSONOutput: globalFlags.jsonOutput,
			DryRun:     globalFlags.dryRun,
		},
	}))

	return nil
}
