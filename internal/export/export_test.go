package export

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"cashboard/internal/core"
)

func strp(s string) *string { return &s }

func sampleTransactions() []core.Transaction {
	return []core.Transaction{
		{ID: 1, Date: core.NewDate(2024, 3, 1), Description: "Lunch", Category: strp("Food"), Amount: decimal.NewFromInt(-8500), Type: core.Expense},
		{ID: 2, Date: core.NewDate(2024, 3, 2), Description: "Salary", Amount: decimal.RequireFromString("2000.5"), Type: core.Income},
	}
}

func TestFileName(t *testing.T) {
	now := time.Date(2024, 3, 1, 23, 30, 0, 0, time.FixedZone("KST", 9*3600))
	assert.Equal(t, "expense-data-2024-03-01.json", FileName(now, JSON))
	assert.Equal(t, "expense-data-2024-03-01.xlsx", FileName(now, XLSX))
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, JSON, f)
	f, err = ParseFormat("XLSX")
	require.NoError(t, err)
	assert.Equal(t, XLSX, f)
	_, err = ParseFormat("pdf")
	assert.Equal(t, core.KindValidation, core.Kind(err))
}

func TestEncodeJSON(t *testing.T) {
	data, err := EncodeJSON(sampleTransactions())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "[\n  {\n    \"id\": 1,"))
	assert.Contains(t, string(data), `"amount": -8500`)
	assert.Contains(t, string(data), `"amount": 2000.5`)
	assert.Contains(t, string(data), `"category": null`)

	var back []core.Transaction
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, "2024-03-01", back[0].Date.String())

	empty, err := EncodeJSON(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(empty))
}

func TestBuildXLSX(t *testing.T) {
	now := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	a, err := Build(XLSX, sampleTransactions(), now)
	require.NoError(t, err)
	assert.Equal(t, "expense-data-2024-03-05.xlsx", a.Name)
	assert.Equal(t, XLSX.ContentType(), a.ContentType)

	f, err := excelize.OpenReader(bytes.NewReader(a.Data))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Date", "Description", "Category", "Amount", "Type"}, rows[0])
	assert.Equal(t, "Lunch", rows[1][1])
	assert.Equal(t, "Food", rows[1][2])
	assert.Equal(t, "-8500", rows[1][3])
	assert.Equal(t, "income", rows[2][4])
}

func TestFileSink(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")
	loc, err := FileSink{Dir: dir}.Put(context.Background(), Artifact{Name: "expense-data-2024-03-05.json", Data: []byte("[]")})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "expense-data-2024-03-05.json"), loc)
	data, err := os.ReadFile(loc)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestObjectName(t *testing.T) {
	assert.Equal(t, "a.json", objectName("", "a.json"))
	assert.Equal(t, "exports/2024/a.json", objectName("/exports/2024/", "a.json"))
}
