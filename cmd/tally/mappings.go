package main

import (
	"fmt"
	"os"

	"github.com/Veraticus/tally/internal/cli"
	"github.com/spf13/cobra"
)

func mappingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mappings",
		Short: "Manage category to tag mappings",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the merged mapping table",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			return cli.RenderMappings(cmd.OutOrStdout(), a.mappings.Entries())
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <category> <subcategory> <tag>",
		Short: "Map a category/subcategory pair to a tag",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.mappings.Set(cmd.Context(), args[0], args[1], args[2]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("%s / %s → %s", args[0], args[1], args[2])))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Import mappings from a YAML file",
		Long: `Import mappings from a YAML document of the form:

  mappings:
    - category: Housing
      subcategory: Mortgage
      tag: Savings`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open mappings: %w", err)
			}
			defer f.Close()

			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.mappings.ImportYAML(cmd.Context(), f)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Imported %d mappings", n)))
			return nil
		},
	})

	return cmd
}
