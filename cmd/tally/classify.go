package main

import (
	"fmt"

	"github.com/Veraticus/tally/internal/cli"
	"github.com/spf13/cobra"
)

func classifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Tag every transaction in the book",
		Long: `Run the classification cascade over the transaction book.

Manually tagged transactions are never touched.

Examples:
  tally classify          # Tag using existing tags as a hint
  tally classify --force  # Drop existing tags and start over
  tally classify --fix    # Only repair tags that no longer validate`,
		RunE: runClassify,
	}

	cmd.Flags().Bool("force", false, "Drop existing non-manual tags before classifying")
	cmd.Flags().Bool("fix", false, "Only re-tag transactions whose tag fails validation")
	cmd.MarkFlagsMutuallyExclusive("force", "fix")

	return cmd
}

func runClassify(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	force, _ := cmd.Flags().GetBool("force")
	fix, _ := cmd.Flags().GetBool("fix")

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	switch {
	case fix:
		n := a.engine.FixAllTagAssignments(ctx)
		fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Fixed %d tags", n)))
	case force:
		n := a.engine.ForceReevaluateAll(ctx)
		fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Re-evaluated %d transactions", n)))
	default:
		n := a.engine.ApplyTags(ctx)
		fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Tagged %d transactions", n)))
	}
	return nil
}
