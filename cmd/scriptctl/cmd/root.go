package cmd

import (
	heredoc "github.com/MakeNowJust/heredoc/v2"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	dimStyle     = lipgloss.NewStyle().Faint(true)
)

// logger is the process-wide operational logger, separate from the
// Diagnostics a parse/apply run reports to the user. nil until
// PersistentPreRunE builds it.
var logger *zap.Logger

var verbose bool

// NewRootCommand builds the scriptctl command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "scriptctl",
		Short: "Inspect and apply output of the Script Ingestion Pipeline",
		Long: heredoc.Doc(`
			scriptctl is the operator-facing front door onto the Script
			Ingestion Pipeline's entry points: parse screenplay and tabular
			script sources, preview tabular column auto-detection, and apply
			a parsed bundle to a project's sqlite-backed role/conflict store.
		`),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if logger != nil {
				return nil
			}
			cfg := zap.NewProductionConfig()
			if verbose {
				cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			built, err := cfg.Build()
			if err != nil {
				return err
			}
			logger = built
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}

	root.PersistentFlags().String("config", "", "rules YAML file to overlay on the built-in defaults")
	root.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable debug-level operational logging")
	_ = viper.BindPFlag("config", root.PersistentFlags().Lookup("config"))

	root.AddCommand(newParseCommand())
	root.AddCommand(newColumnsCommand())
	root.AddCommand(newApplyCommand())

	return root
}
