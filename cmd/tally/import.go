package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Veraticus/tally/internal/cli"
	"github.com/Veraticus/tally/internal/importer"
	"github.com/Veraticus/tally/internal/model"
	"github.com/spf13/cobra"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import [files...]",
		Short: "Import transactions from CSV, JSON or OFX/QFX files",
		Long: `Import transactions exported from your bank and tag them.

The format is detected from the file extension unless --format is given.
Transactions already in the book are skipped.

Examples:
  tally import ~/Downloads/statement.csv
  tally import ~/Downloads/*.qfx
  tally import --format json export.txt`,
		Args: cobra.MinimumNArgs(1),
		RunE: runImport,
	}

	cmd.Flags().StringP("format", "f", "", "Input format (csv, json, ofx); detected from the extension when empty")
	cmd.Flags().Bool("dry-run", false, "Parse files without saving")
	cmd.Flags().Bool("no-classify", false, "Import without tagging")

	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	formatFlag, _ := cmd.Flags().GetString("format")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	noClassify, _ := cmd.Flags().GetBool("no-classify")

	files, err := collectFiles(args)
	if err != nil {
		return err
	}

	var forced importer.Format
	if formatFlag != "" {
		if forced, err = importer.ParseFormat(formatFlag); err != nil {
			return err
		}
	}

	imp := importer.New()
	var all []model.Transaction
	for _, path := range files {
		txns, err := importFile(ctx, imp, path, forced)
		if err != nil {
			slog.Error("Failed to import file", "file", path, "error", err)
			continue
		}
		slog.Info("Parsed file", "file", filepath.Base(path), "transactions", len(txns))
		all = append(all, txns...)
	}

	if len(all) == 0 {
		slog.Warn("No transactions found in any file")
		return nil
	}

	out := cmd.OutOrStdout()
	if dryRun {
		fmt.Fprintln(out, cli.FormatWarning("Dry run mode - not saving"))
		return cli.RenderTransactions(out, all)
	}

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	added := a.engine.Add(ctx, all...)
	fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Imported %d new transactions (%d duplicates skipped)", added, len(all)-added)))

	if noClassify || added == 0 {
		return nil
	}

	tagged := a.engine.ApplyTags(ctx)
	fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Tagged %d transactions", tagged)))
	return nil
}

func importFile(ctx context.Context, imp *importer.Importer, path string, forced importer.Format) ([]model.Transaction, error) {
	format := forced
	if format == "" {
		detected, err := importer.DetectFormat(path)
		if err != nil {
			return nil, err
		}
		format = detected
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	return imp.Import(ctx, f, format)
}

// collectFiles expands globs, keeping literal paths that exist.
func collectFiles(patterns []string) ([]string, error) {
	var files []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %s: %w", pattern, err)
		}
		if len(matches) > 0 {
			files = append(files, matches...)
			continue
		}
		if _, err := os.Stat(pattern); err == nil {
			files = append(files, pattern)
		} else {
			slog.Warn("No files found matching pattern", "pattern", pattern)
		}
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("no files found to import")
	}
	return files, nil
}
