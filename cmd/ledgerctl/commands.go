package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"ledger/internal/core"
	"ledger/internal/ledger"
)

// errOperationFailed marks a command whose result was an error envelope.
// The envelope itself has already been printed.
var errOperationFailed = errors.New("operation failed")

// serviceOpener builds the ledger service for one command run.
type serviceOpener func(ctx context.Context) (svc *ledger.Service, cleanup func() error, err error)

type app struct {
	open serviceOpener
	out  io.Writer
}

func newRootCmd(open serviceOpener, out io.Writer) *cobra.Command {
	a := &app{open: open, out: out}

	rootCmd := &cobra.Command{
		Use:           "ledgerctl",
		Short:         "Manage the expense ledger from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(out)

	rootCmd.AddCommand(
		a.addCmd(),
		a.listCmd(),
		a.summarizeCmd(),
		a.deleteCmd(),
		a.updateCmd(),
		a.categoriesCmd(),
	)
	return rootCmd
}

func (a *app) addCmd() *cobra.Command {
	var in ledger.AddExpenseInput
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a new expense",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd.Context(), func(ctx context.Context, svc *ledger.Service) ledger.Response {
				return svc.AddExpense(ctx, in)
			})
		},
	}
	cmd.Flags().StringVar(&in.Date, "date", "", "expense date (YYYY-MM-DD)")
	cmd.Flags().Float64Var(&in.Amount, "amount", 0, "expense amount")
	cmd.Flags().StringVar(&in.Category, "category", "", "expense category")
	cmd.Flags().StringVar(&in.Subcategory, "subcategory", "", "optional subcategory")
	cmd.Flags().StringVar(&in.Note, "note", "", "optional note")
	_ = cmd.MarkFlagRequired("date")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("category")
	return cmd
}

func (a *app) listCmd() *cobra.Command {
	var start, end string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List expenses in an inclusive date range, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd.Context(), func(ctx context.Context, svc *ledger.Service) ledger.Response {
				return svc.ListExpenses(ctx, start, end)
			})
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "end date (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

func (a *app) summarizeCmd() *cobra.Command {
	var start, end, category string
	cmd := &cobra.Command{
		Use:   "summarize",
		Short: "Total expenses per category in an inclusive date range",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd.Context(), func(ctx context.Context, svc *ledger.Service) ledger.Response {
				return svc.Summarize(ctx, start, end, category)
			})
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "end date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&category, "category", "", "only this category")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

func (a *app) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete an expense by ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.run(cmd.Context(), func(ctx context.Context, svc *ledger.Service) ledger.Response {
				return svc.DeleteExpense(ctx, id)
			})
		},
	}
}

func (a *app) updateCmd() *cobra.Command {
	var (
		date, category, subcategory, note string
		amount                            float64
	)
	cmd := &cobra.Command{
		Use:   "update [id]",
		Short: "Update the given fields of an expense",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			var patch core.ExpensePatch
			flags := cmd.Flags()
			if flags.Changed("date") {
				patch.Date = &date
			}
			if flags.Changed("amount") {
				patch.Amount = &amount
			}
			if flags.Changed("category") {
				patch.Category = &category
			}
			if flags.Changed("subcategory") {
				patch.Subcategory = &subcategory
			}
			if flags.Changed("note") {
				patch.Note = &note
			}

			return a.run(cmd.Context(), func(ctx context.Context, svc *ledger.Service) ledger.Response {
				return svc.UpdateExpense(ctx, id, patch)
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "new date (YYYY-MM-DD)")
	cmd.Flags().Float64Var(&amount, "amount", 0, "new amount")
	cmd.Flags().StringVar(&category, "category", "", "new category")
	cmd.Flags().StringVar(&subcategory, "subcategory", "", "new subcategory")
	cmd.Flags().StringVar(&note, "note", "", "new note")
	return cmd
}

func (a *app) categoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "Print the expense categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			doc := ledger.CategoryList{Categories: core.Categories()}
			_, err := fmt.Fprintln(a.out, doc.JSON())
			return err
		},
	}
}

// run opens the service, executes op and prints its result as JSON.
func (a *app) run(ctx context.Context, op func(context.Context, *ledger.Service) ledger.Response) error {
	if ctx == nil {
		ctx = context.Background()
	}
	svc, cleanup, err := a.open(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	resp := op(ctx, svc)
	out, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	if _, err := fmt.Fprintln(a.out, string(out)); err != nil {
		return err
	}
	if resp.Error {
		return errOperationFailed
	}
	return nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid expense id %q", s)
	}
	return id, nil
}
