package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

// Field limits mirror the backend column widths.
const (
	MaxCategoryNameLen = 100
	MaxDescriptionLen  = 500
)

type (
	TransactionType string

	// Date is a calendar date. The time-of-day is always midnight UTC.
	Date struct {
		time.Time
	}

	Transaction struct {
		ID          int64           `json:"id"`
		Date        Date            `json:"date"`
		Description string          `json:"description"`
		Category    *string         `json:"category"` // big category name, nil when uncategorised
		Amount      decimal.Decimal `json:"amount"`
		Type        TransactionType `json:"type"`
	}

	Category struct {
		ID           int64           `json:"id"`
		BigCategory  string          `json:"big_category"`
		SubCategory  string          `json:"sub_category"`
		ItemCategory *string         `json:"item_category"`
		Spending     decimal.Decimal `json:"spending"`
	}

	CategoryDraft struct {
		BigCategory  string  `json:"big_category"`
		SubCategory  string  `json:"sub_category"`
		ItemCategory *string `json:"item_category,omitempty"`
	}

	TransactionDraft struct {
		Date        Date            `json:"date"`
		Description string          `json:"description"`
		Amount      decimal.Decimal `json:"amount"`
		Type        TransactionType `json:"type"`
	}
)

var (
	ErrEmptyBigCategory = errors.New("big category is required")
	ErrEmptySubCategory = errors.New("sub category is required")
	ErrEmptyDescription = errors.New("description is required")
	ErrInvalidAmount    = errors.New("amount must be non-zero")
	ErrInvalidDate      = errors.New("date is required")
)

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar date in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate accepts a bare date, a naive ISO timestamp or RFC3339.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DateOf(t), nil
		}
	}
	return Date{}, fmt.Errorf("parse date %q: unsupported format", s)
}

// String renders the date as YYYY-MM-DD, or "" for the zero date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format("2006-01-02")
}

// Before reports whether d falls on an earlier calendar day than o.
func (d Date) Before(o Date) bool { return d.Time.Before(o.Time) }

// After reports whether d falls on a later calendar day than o.
func (d Date) After(o Date) bool { return d.Time.After(o.Time) }

// SameMonth reports whether d and o share year and month.
func (d Date) SameMonth(o Date) bool {
	return d.Year() == o.Year() && d.Month() == o.Month()
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// UnmarshalJSON fills in the type from the amount sign when the backend
// omits it.
func (t *Transaction) UnmarshalJSON(b []byte) error {
	type wire Transaction
	var w wire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*t = Transaction(w)
	if t.Type != Income && t.Type != Expense {
		t.Type = TypeFromAmount(t.Amount)
	}
	return nil
}

// TypeFromAmount classifies negative amounts as expenses.
func TypeFromAmount(amount decimal.Decimal) TransactionType {
	if amount.IsNegative() {
		return Expense
	}
	return Income
}

// CategoryName returns the category or "" when the transaction has none.
func (t Transaction) CategoryName() string {
	if t.Category == nil {
		return ""
	}
	return *t.Category
}

// Label joins the category levels for display, e.g. "Food / Groceries".
func (c Category) Label() string {
	parts := []string{c.BigCategory, c.SubCategory}
	if c.ItemCategory != nil && *c.ItemCategory != "" {
		parts = append(parts, *c.ItemCategory)
	}
	return strings.Join(parts, " / ")
}

func (d CategoryDraft) Validate() error {
	big := strings.TrimSpace(d.BigCategory)
	sub := strings.TrimSpace(d.SubCategory)
	if big == "" {
		return &ValidationError{Field: "big_category", Err: ErrEmptyBigCategory}
	}
	if sub == "" {
		return &ValidationError{Field: "sub_category", Err: ErrEmptySubCategory}
	}
	if len(big) > MaxCategoryNameLen {
		return &ValidationError{Field: "big_category", Err: fmt.Errorf("too long (max %d characters)", MaxCategoryNameLen)}
	}
	if len(sub) > MaxCategoryNameLen {
		return &ValidationError{Field: "sub_category", Err: fmt.Errorf("too long (max %d characters)", MaxCategoryNameLen)}
	}
	if d.ItemCategory != nil && len(*d.ItemCategory) > MaxCategoryNameLen {
		return &ValidationError{Field: "item_category", Err: fmt.Errorf("too long (max %d characters)", MaxCategoryNameLen)}
	}
	return nil
}

// Normalized trims every field and drops an empty item category.
func (d CategoryDraft) Normalized() CategoryDraft {
	out := CategoryDraft{
		BigCategory: strings.TrimSpace(d.BigCategory),
		SubCategory: strings.TrimSpace(d.SubCategory),
	}
	if d.ItemCategory != nil {
		if item := strings.TrimSpace(*d.ItemCategory); item != "" {
			out.ItemCategory = &item
		}
	}
	return out
}

func (d TransactionDraft) Validate() error {
	if d.Date.IsZero() {
		return &ValidationError{Field: "date", Err: ErrInvalidDate}
	}
	desc := strings.TrimSpace(d.Description)
	if desc == "" {
		return &ValidationError{Field: "description", Err: ErrEmptyDescription}
	}
	if len(desc) > MaxDescriptionLen {
		return &ValidationError{Field: "description", Err: fmt.Errorf("too long (max %d characters)", MaxDescriptionLen)}
	}
	if d.Amount.IsZero() {
		return &ValidationError{Field: "amount", Err: ErrInvalidAmount}
	}
	if d.Type != "" && d.Type != Income && d.Type != Expense {
		return &ValidationError{Field: "type", Err: fmt.Errorf("unknown type %q", d.Type)}
	}
	return nil
}
