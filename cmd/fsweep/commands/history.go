package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fsweep/fsweep/pkg/errors"
	"github.com/fsweep/fsweep/pkg/history"
)

func newHistoryCmd(configPath *string) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: MsgHistoryShort,
	}
	historyCmd.AddCommand(newHistoryListCmd(configPath))
	historyCmd.AddCommand(newHistoryUndoCmd(configPath))
	historyCmd.AddCommand(newHistoryRedoCmd(configPath))
	historyCmd.AddCommand(newHistoryDeleteCmd(configPath))
	return historyCmd
}

func newHistoryListCmd(configPath *string) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: MsgHistoryListShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.close()

			entries, err := a.store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No history entries.")
				return nil
			}
			renderEntries(cmd.OutOrStdout(), entries)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, MsgFlagLimit)
	return cmd
}

func newHistoryUndoCmd(configPath *string) *cobra.Command {
	var (
		chain       bool
		confirmCopy bool
	)

	cmd := &cobra.Command{
		Use:   "undo <entry-id>",
		Short: MsgHistoryUndoShort,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.close()

			opts := history.UndoOptions{ConfirmCopyDeletion: confirmCopy}
			var result *history.UndoResult
			if chain {
				result, err = a.ledger.ChainUndo(cmd.Context(), args[0], opts)
			} else {
				result, err = a.ledger.Undo(cmd.Context(), args[0], opts)
			}
			if err != nil {
				if errors.IsErrorCode(err, errors.ErrConfirmRequired) {
					fmt.Fprintln(cmd.OutOrStdout(), MsgConfirmCopyAsk)
				}
				return err
			}

			out := cmd.OutOrStdout()
			if result.RequiresChainUndo {
				fmt.Fprintln(out, MsgChainRequired)
				fmt.Fprintf(out, "  %s\n", strings.Join(result.ConflictEntries, "\n  "))
				return nil
			}

			fmt.Fprintf(out, "Reverted %d operation(s) across %d entr(ies).\n",
				len(result.Reverted), len(result.UndoneEntries))
			renderFailures(out, result.Failed)
			return nil
		},
	}
	cmd.Flags().BoolVar(&chain, "chain", false, MsgFlagChain)
	cmd.Flags().BoolVar(&confirmCopy, "confirm-copy-deletion", false, MsgFlagConfirmCopy)
	return cmd
}

func newHistoryRedoCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "redo <entry-id>",
		Short: MsgHistoryRedoShort,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.close()

			result, err := a.ledger.Redo(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Reapplied %d operation(s).\n", len(result.Reapplied))
			renderFailures(out, result.Failed)
			return nil
		},
	}
}

func newHistoryDeleteCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <entry-id>",
		Short: MsgHistoryDeleteShort,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.store.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted history entry %s.\n", args[0])
			return nil
		},
	}
}
