package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// Summary is the backend's dashboard digest.
type Summary struct {
	TotalIncome        decimal.Decimal     `json:"total_income"`
	TotalExpenses      decimal.Decimal     `json:"total_expenses"`
	Balance            decimal.Decimal     `json:"balance"`
	RecentTransactions []RecentTransaction `json:"recent_transactions"`
}

type RecentTransaction struct {
	ID          int64           `json:"id"`
	Date        Date            `json:"date"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

// UploadResult is the backend's response to a statement upload.
type UploadResult struct {
	Status        string              `json:"status"`
	RowsProcessed int                 `json:"rows_processed"`
	Columns       []string            `json:"columns"`
	Preview       []map[string]string `json:"data,omitempty"`
	Message       string              `json:"message,omitempty"`
}

// Overview holds the headline figures computed from the transaction list.
type Overview struct {
	Total         decimal.Decimal
	Count         int
	Average       decimal.Decimal
	MonthTotal    decimal.Decimal
	CategoryCount int
}

// NewOverview computes headline figures. Month figures use the calendar
// month containing now.
func NewOverview(transactions []Transaction, categories []Category, now time.Time) Overview {
	ov := Overview{
		Total:         decimal.Zero,
		Average:       decimal.Zero,
		MonthTotal:    decimal.Zero,
		Count:         len(transactions),
		CategoryCount: len(categories),
	}
	today := DateOf(now)
	for _, t := range transactions {
		ov.Total = ov.Total.Add(t.Amount)
		if t.Date.SameMonth(today) {
			ov.MonthTotal = ov.MonthTotal.Add(t.Amount)
		}
	}
	if ov.Count > 0 {
		ov.Average = ov.Total.Div(decimal.NewFromInt(int64(ov.Count)))
	}
	return ov
}
