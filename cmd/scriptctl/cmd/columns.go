package cmd

import (
	"fmt"

	heredoc "github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/castingdb/scriptpipeline/ast"
	"github.com/castingdb/scriptpipeline/scriptpipeline"
)

func newColumnsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "columns <file>",
		Short: "Preview tabular column auto-detection for a single file",
		Long: heredoc.Doc(`
			columns decodes a single tabular file (".csv") and runs
			auto_detect_columns against its headers, printing the resulting
			field -> header mapping without parsing any rows.
		`),
		Args: cobra.ExactArgs(1),
		RunE: runColumns,
	}
}

func runColumns(cmd *cobra.Command, args []string) error {
	rules, err := rulesFromFlags()
	if err != nil {
		return err
	}
	input, err := decodeFile(args[0])
	if err != nil {
		return err
	}
	if input.Kind != ast.TableInputKind {
		return fmt.Errorf("%s does not look like a tabular file (expected .csv)", args[0])
	}

	mapping := scriptpipeline.AutoDetectColumns(input.Table.Headers, rules)

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, headingStyle.Render("Column mapping"))
	fmt.Fprintf(out, "  role_name   -> %q\n", mapping.RoleName)
	fmt.Fprintf(out, "  timecode    -> %q\n", mapping.Timecode)
	fmt.Fprintf(out, "  source_text -> %q\n", mapping.SourceText)
	fmt.Fprintf(out, "  translation -> %q\n", mapping.Translation)
	fmt.Fprintf(out, "  rec_status  -> %q\n", mapping.RecStatus)
	fmt.Fprintf(out, "  notes       -> %q\n", mapping.Notes)
	return nil
}
