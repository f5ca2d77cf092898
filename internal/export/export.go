// Package export serializes the transaction list into downloadable
// artifacts and stores them in a sink.
package export

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"cashboard/internal/core"
)

// Format of an export artifact.
type Format string

const (
	JSON Format = "json"
	XLSX Format = "xlsx"
)

const sheetName = "Transactions"

// ParseFormat maps "", "json" and "xlsx" (any case) to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(JSON):
		return JSON, nil
	case string(XLSX):
		return XLSX, nil
	default:
		return "", &core.ValidationError{Field: "format", Err: fmt.Errorf("unsupported export format %q", s)}
	}
}

// ContentType returns the MIME type served for the format.
func (f Format) ContentType() string {
	if f == XLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "application/json"
}

// Artifact is a named, typed blob ready to download or upload.
type Artifact struct {
	Name        string
	ContentType string
	Data        []byte
}

// FileName returns expense-data-<YYYY-MM-DD>.<ext> for the UTC date of now.
func FileName(now time.Time, f Format) string {
	return fmt.Sprintf("expense-data-%s.%s", now.UTC().Format("2006-01-02"), f)
}

// Build serializes transactions in the requested format.
func Build(f Format, transactions []core.Transaction, now time.Time) (Artifact, error) {
	var (
		data []byte
		err  error
	)
	switch f {
	case JSON:
		data, err = EncodeJSON(transactions)
	case XLSX:
		data, err = EncodeXLSX(transactions)
	default:
		return Artifact{}, &core.ValidationError{Field: "format", Err: fmt.Errorf("unsupported export format %q", f)}
	}
	if err != nil {
		return Artifact{}, &core.SerializationError{Op: "export " + string(f), Err: err}
	}
	return Artifact{Name: FileName(now, f), ContentType: f.ContentType(), Data: data}, nil
}

type record struct {
	ID          int64                `json:"id"`
	Date        core.Date            `json:"date"`
	Description string               `json:"description"`
	Category    *string              `json:"category"`
	Amount      json.Number          `json:"amount"`
	Type        core.TransactionType `json:"type"`
}

// EncodeJSON renders transactions as a JSON array indented by two spaces.
// Amounts are emitted as JSON numbers.
func EncodeJSON(transactions []core.Transaction) ([]byte, error) {
	records := make([]record, 0, len(transactions))
	for _, t := range transactions {
		records = append(records, record{
			ID:          t.ID,
			Date:        t.Date,
			Description: t.Description,
			Category:    t.Category,
			Amount:      json.Number(t.Amount.String()),
			Type:        t.Type,
		})
	}
	return json.MarshalIndent(records, "", "  ")
}

// EncodeXLSX renders a single "Transactions" sheet with a header row.
func EncodeXLSX(transactions []core.Transaction) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	header := []any{"Date", "Description", "Category", "Amount", "Type"}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E7FF"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}
	if err := f.SetCellStyle(sheetName, "A1", "E1", headerStyle); err != nil {
		return nil, fmt.Errorf("apply header style: %w", err)
	}

	for i, t := range transactions {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := []any{t.Date.String(), t.Description, t.CategoryName(), t.Amount.InexactFloat64(), string(t.Type)}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.SetColWidth(sheetName, "A", "A", 12); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(sheetName, "B", "B", 40); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
