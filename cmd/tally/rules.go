package main

import (
	"fmt"
	"os"

	"github.com/Veraticus/tally/internal/cli"
	"github.com/spf13/cobra"
)

func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect and manage learned rules",
		Long: `Learned rules are synthesized from your manual tag corrections. Use these
commands to inspect them, back them up, move them between machines, or start over.`,
	}

	cmd.AddCommand(rulesListCmd())
	cmd.AddCommand(rulesExportCmd())
	cmd.AddCommand(rulesImportCmd())
	cmd.AddCommand(rulesClearCmd())

	return cmd
}

func rulesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List learned rules and learning statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, cli.RenderStatistics(a.coordinator.Statistics()))

			snapshot := a.coordinator.Snapshot()
			if len(snapshot.Rules) == 0 {
				fmt.Fprintln(out, cli.FormatInfo("No learned rules yet. Tag a few transactions with `tally tag`."))
				return nil
			}
			return cli.RenderRules(out, snapshot.Rules)
		},
	}
}

func rulesExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "Export learned rules, assignments and statistics as JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			data, err := a.coordinator.ExportLearnedRules()
			if err != nil {
				return err
			}

			if len(args) == 0 {
				_, err = cmd.OutOrStdout().Write(append(data, '\n'))
				return err
			}
			if err := os.WriteFile(args[0], data, 0o600); err != nil {
				return fmt.Errorf("failed to write export: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Exported learning state to "+args[0]))
			return nil
		},
	}
}

func rulesImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace all learning state with an export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read import: %w", err)
			}

			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.coordinator.ImportLearnedRules(cmd.Context(), data); err != nil {
				return err
			}
			snapshot := a.coordinator.Snapshot()
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Imported %d learned rules", len(snapshot.Rules))))
			return nil
		},
	}
}

func rulesClearCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all learned rules, assignments and statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			yes, _ := cmd.Flags().GetBool("yes")
			if !yes {
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatWarning("This deletes all learning state. Re-run with --yes to confirm."))
				return nil
			}

			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			a.coordinator.ClearLearnedData(cmd.Context())
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Cleared learning state"))
			return nil
		},
	}
	cmd.Flags().BoolP("yes", "y", false, "Confirm deletion")
	return cmd
}
