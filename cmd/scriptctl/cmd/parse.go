package cmd

import (
	"fmt"

	heredoc "github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/castingdb/scriptpipeline/schema"
	"github.com/castingdb/scriptpipeline/scriptpipeline"
)

func newParseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "parse <file>...",
		Short: "Detect type, parse, and summarize one or more script files",
		Long: heredoc.Doc(`
			parse decodes the given files, runs detect_content_type and
			parse_script over them, and prints a styled summary of the
			resulting bundle: characters, conflicts, and diagnostics.

			Exits non-zero if any error-severity diagnostic was raised.
		`),
		Args: cobra.MinimumNArgs(1),
		RunE: runParse,
	}
}

func runParse(cmd *cobra.Command, args []string) error {
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
	fmt.Fprintln(out, headingStyle.Render("Characters"))
	for _, c := range bundle.OrderedCharacters() {
		fmt.Fprintf(out, "  %-20s %-8s replicas=%-4d scenes=%v\n", c.DisplayName, c.Kind, c.ReplicaCount, c.SortedScenes())
	}

	fmt.Fprintln(out, headingStyle.Render("Conflicts"))
	for _, p := range bundle.OrderedConflicts() {
		fmt.Fprintf(out, "  %s <-> %s  scenes=%v\n", p.A, p.B, p.SortedScenes())
	}

	fmt.Fprintln(out, headingStyle.Render("Diagnostics"))
	for _, d := range diags.All() {
		line := fmt.Sprintf("  [%s] %s: %s", d.Severity, d.Code, d.Message)
		if d.Severity == schema.Error {
			fmt.Fprintln(out, errStyle.Render(line))
		} else {
			fmt.Fprintln(out, warnStyle.Render(line))
		}
	}
	fmt.Fprintln(out, dimStyle.Render(fmt.Sprintf("total_replicas=%d warnings=%d", bundle.Metadata.TotalReplicas, bundle.Metadata.Warnings)))

	if diags.HasErrors() {
		return fmt.Errorf("parse completed with errors")
	}
	return nil
}
