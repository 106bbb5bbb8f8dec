package main

import (
	"fmt"
	"strings"

	"github.com/Veraticus/tally/internal/cli"
	"github.com/Veraticus/tally/internal/common"
	"github.com/Veraticus/tally/internal/model"
	"github.com/spf13/cobra"
)

func listCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions in the book",
		RunE:  runList,
	}

	cmd.Flags().StringP("tag", "t", "", "Only show transactions with this tag")
	cmd.Flags().IntP("limit", "n", 0, "Show at most n transactions (0 = all)")

	return cmd
}

func runList(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	tagFilter, _ := cmd.Flags().GetString("tag")
	limit, _ := cmd.Flags().GetInt("limit")

	if tagFilter != "" {
		canonical, ok := model.NormalizeTag(tagFilter)
		if !ok {
			return common.NewUserError(fmt.Sprintf("unknown tag %q (expected one of %s)", tagFilter, strings.Join(model.Tags(), ", ")), common.ErrInvalidTag)
		}
		tagFilter = canonical
	}

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	var txns []model.Transaction
	for _, txn := range a.engine.Transactions() {
		if tagFilter != "" && txn.Tag != tagFilter {
			continue
		}
		txns = append(txns, txn)
	}
	if limit > 0 && len(txns) > limit {
		txns = txns[:limit]
	}

	out := cmd.OutOrStdout()
	if len(txns) == 0 {
		fmt.Fprintln(out, cli.FormatInfo("No transactions"))
		return nil
	}
	return cli.RenderTransactions(out, txns)
}
