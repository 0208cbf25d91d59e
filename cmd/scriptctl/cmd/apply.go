package cmd

import (
	"fmt"

	heredoc "github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/castingdb/scriptpipeline/merge"
	"github.com/castingdb/scriptpipeline/schema"
	"github.com/castingdb/scriptpipeline/scriptpipeline"
	"github.com/castingdb/scriptpipeline/sqlitestore"
)

func newApplyCommand() *cobra.Command {
	var project, dbPath string

	cmd := &cobra.Command{
		Use:   "apply <file>...",
		Short: "Parse and apply a bundle to a project's sqlite database",
		Long: heredoc.Doc(`
			apply decodes and parses the given files, then applies the
			resulting bundle to the role/conflict schema in a
			modernc.org/sqlite database at --db, creating the project_roles/
			role_conflicts/role_castings tables if they don't already exist.

			Running apply twice over the same input is a no-op the second
			time: roles and conflicts are upserted, not duplicated.
		`),
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(cmd, args, project, dbPath)
		},
	}

	cmd.Flags().StringVar(&project, "project", "", "project id to apply the bundle to (required)")
	cmd.Flags().StringVar(&dbPath, "db", "", "path to the sqlite database file (required)")
	_ = cmd.MarkFlagRequired("project")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runApply(cmd *cobra.Command, args []string, project, dbPath string) error {
	ctx := cmd.Context()

	rules, err := rulesFromFlags()
	if err != nil {
		return err
	}
	input, err := decodeFiles(args)
	if err != nil {
		return err
	}

	bundle, diags := scriptpipeline.ParseScript(input, scriptpipeline.ParseOptions{Rules: rules})
	out := cmd.OutOrStdout()
	for _, d := range diags.All() {
		fmt.Fprintf(out, "  [%s] %s: %s\n", d.Severity, d.Code, d.Message)
	}
	if diags.HasErrors() {
		return fmt.Errorf("parse completed with errors, refusing to apply")
	}

	if logger != nil {
		logger.Debug("opening database", zap.String("path", dbPath), zap.String("project", project))
	}
	db, err := sqlitestore.Open(ctx, dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	store := sqlitestore.New(tx)

	var applyDiags schema.Diagnostics
	if err := merge.ApplyBundle(ctx, store, project, bundle, "script", &applyDiags); err != nil {
		_ = tx.Rollback()
		if logger != nil {
			logger.Error("apply failed, rolled back", zap.Error(err), zap.String("project", project))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	if logger != nil {
		logger.Info("applied bundle",
			zap.String("project", project),
			zap.Int("characters", len(bundle.Characters)),
			zap.Int("conflicts", len(bundle.Conflicts)),
		)
	}

	fmt.Fprintln(out, headingStyle.Render("Applied"))
	fmt.Fprintf(out, "  project=%s characters=%d conflicts=%d\n", project, len(bundle.Characters), len(bundle.Conflicts))
	return nil
}
