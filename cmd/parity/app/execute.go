package app

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentstation/parity/cmd/parity/cmd/check"
	streamscmd "github.com/agentstation/parity/cmd/parity/cmd/streams"
	waiverscmd "github.com/agentstation/parity/cmd/parity/cmd/waivers"
	"github.com/agentstation/parity/internal/cmd/globals"
	"github.com/agentstation/parity/internal/cmd/output"
)

// Execute runs the parity CLI application with the given arguments.
func (a *App) Execute(ctx context.Context, args []string) error {
	rootCmd := a.createRootCommand()
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}

// createRootCommand creates the root cobra command with all subcommands.
func (a *App) createRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "parity",
		Short:   "Replication parity checker",
		Version: a.version,
		Long: `Parity checks that a replication pipeline reproduced every record and
every field of its source of truth.

Expected records are read per stream from a directory, actual records from
the pipeline's captured output, and each stream is reconciled by identity
key with known discrepancies waived.`,
		PersistentPreRunE: a.setupCommand,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	rootCmd.PersistentFlags().StringVar(&a.config.ConfigFile, "config", "", "config file (default is $HOME/.parity.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: trace, debug, info, warn, error (overrides -v/-q)")
	globals.AddFlags(rootCmd)

	rootCmd.SetVersionTemplate("parity {{.Version}}\n")

	a.registerCommands(rootCmd)
	return rootCmd
}

// setupCommand is called before any command runs.
func (a *App) setupCommand(cmd *cobra.Command, _ []string) error {
	if cmd.Flags().Changed("config") {
		config, err := LoadConfigFrom(a.config.ConfigFile)
		if err != nil {
			return err
		}
		a.config = config
	}

	flags, err := globals.Parse(cmd)
	if err != nil {
		return err
	}
	if _, err := output.ParseFormat(flags.Output); err != nil {
		return err
	}
	a.config.UpdateFromFlags(flags.Verbose, flags.Quiet, flags.NoColor, flags.Output, mustGetString(cmd, "log-level"))

	logger := NewLogger(a.config)
	a.logger = &logger
	return nil
}

// registerCommands registers all subcommands with the root command.
func (a *App) registerCommands(rootCmd *cobra.Command) {
	rootCmd.AddCommand(check.NewCommand(a))
	rootCmd.AddCommand(waiverscmd.NewCommand(a))
	rootCmd.AddCommand(streamscmd.NewCommand(a))
	rootCmd.AddCommand(a.newVersionCommand())
}

// versionInfo is the structured form of the version command's output.
type versionInfo struct {
	Version string `json:"version" yaml:"version"`
	Commit  string `json:"commit" yaml:"commit"`
	Date    string `json:"date" yaml:"date"`
	BuiltBy string `json:"built_by" yaml:"built_by"`
}

func (a *App) newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := versionInfo{Version: a.version, Commit: a.commit, Date: a.date, BuiltBy: a.builtBy}
			format := output.Format(a.config.Format)
			if format.IsTable() && !a.config.Verbose {
				cmd.Printf("parity %s\n", a.version)
				return nil
			}
			return output.NewFormatter(format).Format(cmd.OutOrStdout(), info)
		},
	}
}

// ExitOnError prints an error and exits with status 1.
func ExitOnError(err error) {
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}

// mustGetString retrieves a string flag value or panics if the flag doesn't exist.
func mustGetString(cmd *cobra.Command, name string) string {
	val, err := cmd.Flags().GetString(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return val
}
