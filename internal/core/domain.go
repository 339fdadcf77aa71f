package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the only accepted calendar date format (YYYY-MM-DD).
const DateLayout = "2006-01-02"

type (
	// Expense is a stored ledger entry. CreatedAt is nil when the row was
	// read through a projection that omits it.
	Expense struct {
		ID          int64      `json:"id"`
		Date        string     `json:"date"`
		Amount      float64    `json:"amount"`
		Category    string     `json:"category"`
		Subcategory string     `json:"subcategory"`
		Note        string     `json:"note"`
		CreatedAt   *time.Time `json:"created_at,omitempty"`
	}

	// NewExpense holds the caller-supplied fields of an expense about to be inserted.
	NewExpense struct {
		Date        string
		Amount      float64
		Category    string
		Subcategory string
		Note        string
	}

	// ExpensePatch is a partial update. A nil field is left untouched;
	// a non-nil pointer to "" clears the field.
	ExpensePatch struct {
		Date        *string
		Amount      *float64
		Category    *string
		Subcategory *string
		Note        *string
	}

	// DateRange is an inclusive [Start, End] filter on the date column.
	DateRange struct {
		Start string
		End   string
	}

	// PatchField is a single column assignment produced by ExpensePatch.Fields.
	PatchField struct {
		Column string
		Value  any
	}
)

var (
	ErrInvalidDate = errors.New("invalid date")
	ErrNoFields    = errors.New("no fields to update")
)

// ValidateDate reports whether s is a real calendar date in YYYY-MM-DD form.
func ValidateDate(s string) error {
	if _, err := time.Parse(DateLayout, s); err != nil {
		return fmt.Errorf("%w: %q does not match format %q", ErrInvalidDate, s, "%Y-%m-%d")
	}
	return nil
}

func (e NewExpense) Validate() error {
	return ValidateDate(e.Date)
}

// IsEmpty reports whether the patch carries no field at all.
func (p ExpensePatch) IsEmpty() bool {
	return p.Date == nil && p.Amount == nil && p.Category == nil && p.Subcategory == nil && p.Note == nil
}

func (p ExpensePatch) Validate() error {
	if p.IsEmpty() {
		return ErrNoFields
	}
	if p.Date != nil {
		return ValidateDate(*p.Date)
	}
	return nil
}

// Fields returns the supplied assignments in column order.
func (p ExpensePatch) Fields() []PatchField {
	var out []PatchField
	if p.Date != nil {
		out = append(out, PatchField{Column: "date", Value: *p.Date})
	}
	if p.Amount != nil {
		out = append(out, PatchField{Column: "amount", Value: *p.Amount})
	}
	if p.Category != nil {
		out = append(out, PatchField{Column: "category", Value: *p.Category})
	}
	if p.Subcategory != nil {
		out = append(out, PatchField{Column: "subcategory", Value: *p.Subcategory})
	}
	if p.Note != nil {
		out = append(out, PatchField{Column: "note", Value: *p.Note})
	}
	return out
}

// Columns lists the names of the supplied fields.
func (p ExpensePatch) Columns() []string {
	fields := p.Fields()
	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = f.Column
	}
	return cols
}

// Apply returns e with the patch applied.
func (p ExpensePatch) Apply(e Expense) Expense {
	if p.Date != nil {
		e.Date = *p.Date
	}
	if p.Amount != nil {
		e.Amount = *p.Amount
	}
	if p.Category != nil {
		e.Category = *p.Category
	}
	if p.Subcategory != nil {
		e.Subcategory = *p.Subcategory
	}
	if p.Note != nil {
		e.Note = *p.Note
	}
	return e
}

// Contains reports whether date falls within the range. Comparison is
// lexical, which matches chronological order for YYYY-MM-DD strings.
func (r DateRange) Contains(date string) bool {
	return strings.Compare(date, r.Start) >= 0 && strings.Compare(date, r.End) <= 0
}
