package main

import (
	"fmt"
	"strings"

	"github.com/Veraticus/tally/internal/cli"
	"github.com/Veraticus/tally/internal/common"
	"github.com/Veraticus/tally/internal/model"
	"github.com/spf13/cobra"
)

func tagCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tag <transaction-id> <tag>",
		Short: "Manually tag a transaction",
		Long: `Override the tag of one transaction. The correction is remembered and
feeds rule learning, so similar transactions get the same tag in future runs.`,
		Args: cobra.ExactArgs(2),
		RunE: runTag,
	}

	cmd.Flags().StringP("reason", "r", "", "Why the tag was changed")

	return cmd
}

func runTag(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	id, tag := args[0], args[1]
	reason, _ := cmd.Flags().GetString("reason")

	canonical, ok := model.NormalizeTag(tag)
	if !ok {
		return common.NewUserError(fmt.Sprintf("unknown tag %q (expected one of %s)", tag, strings.Join(model.Tags(), ", ")), common.ErrInvalidTag)
	}

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if !a.engine.UpdateTransactionTag(ctx, id, canonical, reason) {
		return common.NewUserError(fmt.Sprintf("transaction %q not found", id), common.ErrNotFound)
	}

	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Tagged %s as %s", id, cli.FormatTag(canonical))))
	if n := len(a.coordinator.Snapshot().Rules); n > 0 {
		fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo(fmt.Sprintf("%d learned rules active", n)))
	}
	return nil
}
