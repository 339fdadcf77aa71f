package http

import (
	"context"
	"errors"
	"fmt"

	"ledger/internal/core"
	"ledger/internal/ledger"
)

// ErrUnknownTool is returned by Toolbox.Call for unregistered names.
var ErrUnknownTool = errors.New("unknown tool")

// Tool describes one callable tool in tools/list.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

type toolFunc func(ctx context.Context, svc *ledger.Service, args Arguments) (ledger.Response, error)

type toolDef struct {
	Tool
	call toolFunc
}

// Toolbox maps tool names onto ledger operations.
type Toolbox struct {
	svc    *ledger.Service
	defs   []toolDef
	byName map[string]toolDef
}

func NewToolbox(svc *ledger.Service) *Toolbox {
	defs := []toolDef{
		{
			Tool: Tool{
				Name:        "add_expense",
				Description: "Add a new expense entry to the database.",
				InputSchema: objectSchema([]string{"date", "amount", "category"}, map[string]any{
					"date":        prop("string", "Date in YYYY-MM-DD format"),
					"amount":      prop("number", "Expense amount"),
					"category":    prop("string", "Expense category"),
					"subcategory": propDefault("string", "Optional subcategory", ""),
					"note":        propDefault("string", "Optional note or description", ""),
				}),
			},
			call: callAddExpense,
		},
		{
			Tool: Tool{
				Name:        "list_expenses",
				Description: "List expense entries within an inclusive date range.",
				InputSchema: objectSchema([]string{"start_date", "end_date"}, map[string]any{
					"start_date": prop("string", "Start date in YYYY-MM-DD format"),
					"end_date":   prop("string", "End date in YYYY-MM-DD format"),
				}),
			},
			call: callListExpenses,
		},
		{
			Tool: Tool{
				Name:        "summarize",
				Description: "Summarize expenses by category within an inclusive date range.",
				InputSchema: objectSchema([]string{"start_date", "end_date"}, map[string]any{
					"start_date": prop("string", "Start date in YYYY-MM-DD format"),
					"end_date":   prop("string", "End date in YYYY-MM-DD format"),
					"category":   prop("string", "Optional category to filter by"),
				}),
			},
			call: callSummarize,
		},
		{
			Tool: Tool{
				Name:        "delete_expense",
				Description: "Delete an expense entry by ID.",
				InputSchema: objectSchema([]string{"expense_id"}, map[string]any{
					"expense_id": prop("integer", "The ID of the expense to delete"),
				}),
			},
			call: callDeleteExpense,
		},
		{
			Tool: Tool{
				Name:        "update_expense",
				Description: "Update an existing expense entry. Only supplied fields are changed.",
				InputSchema: objectSchema([]string{"expense_id"}, map[string]any{
					"expense_id":  prop("integer", "The ID of the expense to update"),
					"date":        prop("string", "New date (optional)"),
					"amount":      prop("number", "New amount (optional)"),
					"category":    prop("string", "New category (optional)"),
					"subcategory": prop("string", "New subcategory (optional)"),
					"note":        prop("string", "New note (optional)"),
				}),
			},
			call: callUpdateExpense,
		},
	}

	byName := make(map[string]toolDef, len(defs))
	for _, d := range defs {
		byName[d.Name] = d
	}
	return &Toolbox{svc: svc, defs: defs, byName: byName}
}

// List returns the tool descriptors in registration order.
func (t *Toolbox) List() []Tool {
	out := make([]Tool, len(t.defs))
	for i, d := range t.defs {
		out[i] = d.Tool
	}
	return out
}

// Call runs the named tool. The error is ErrUnknownTool or an
// *ArgumentError; operation failures are error envelopes in the Response.
func (t *Toolbox) Call(ctx context.Context, name string, args Arguments) (ledger.Response, error) {
	def, ok := t.byName[name]
	if !ok {
		return ledger.Response{}, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	if args == nil {
		args = Arguments{}
	}
	return def.call(ctx, t.svc, args)
}

func callAddExpense(ctx context.Context, svc *ledger.Service, args Arguments) (ledger.Response, error) {
	var (
		in  ledger.AddExpenseInput
		err error
	)
	if in.Date, err = args.RequiredString("date"); err != nil {
		return ledger.Response{}, err
	}
	if in.Amount, err = args.RequiredFloat("amount"); err != nil {
		return ledger.Response{}, err
	}
	if in.Category, err = args.RequiredString("category"); err != nil {
		return ledger.Response{}, err
	}
	if in.Subcategory, err = args.OptionalString("subcategory"); err != nil {
		return ledger.Response{}, err
	}
	if in.Note, err = args.OptionalString("note"); err != nil {
		return ledger.Response{}, err
	}
	return svc.AddExpense(ctx, in), nil
}

func callListExpenses(ctx context.Context, svc *ledger.Service, args Arguments) (ledger.Response, error) {
	start, err := args.RequiredString("start_date")
	if err != nil {
		return ledger.Response{}, err
	}
	end, err := args.RequiredString("end_date")
	if err != nil {
		return ledger.Response{}, err
	}
	return svc.ListExpenses(ctx, start, end), nil
}

func callSummarize(ctx context.Context, svc *ledger.Service, args Arguments) (ledger.Response, error) {
	start, err := args.RequiredString("start_date")
	if err != nil {
		return ledger.Response{}, err
	}
	end, err := args.RequiredString("end_date")
	if err != nil {
		return ledger.Response{}, err
	}
	category, err := args.OptionalString("category")
	if err != nil {
		return ledger.Response{}, err
	}
	return svc.Summarize(ctx, start, end, category), nil
}

func callDeleteExpense(ctx context.Context, svc *ledger.Service, args Arguments) (ledger.Response, error) {
	id, err := args.RequiredInt64("expense_id")
	if err != nil {
		return ledger.Response{}, err
	}
	return svc.DeleteExpense(ctx, id), nil
}

func callUpdateExpense(ctx context.Context, svc *ledger.Service, args Arguments) (ledger.Response, error) {
	id, err := args.RequiredInt64("expense_id")
	if err != nil {
		return ledger.Response{}, err
	}

	var patch core.ExpensePatch
	if patch.Date, err = args.StringPtr("date"); err != nil {
		return ledger.Response{}, err
	}
	if patch.Amount, err = args.FloatPtr("amount"); err != nil {
		return ledger.Response{}, err
	}
	if patch.Category, err = args.StringPtr("category"); err != nil {
		return ledger.Response{}, err
	}
	if patch.Subcategory, err = args.StringPtr("subcategory"); err != nil {
		return ledger.Response{}, err
	}
	if patch.Note, err = args.StringPtr("note"); err != nil {
		return ledger.Response{}, err
	}
	return svc.UpdateExpense(ctx, id, patch), nil
}

func objectSchema(required []string, properties map[string]any) map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": properties,
		"required":   required,
	}
}

func prop(typ, description string) map[string]any {
	return map[string]any{"type": typ, "description": description}
}

func propDefault(typ, description string, def any) map[string]any {
	p := prop(typ, description)
	p["default"] = def
	return p
}
