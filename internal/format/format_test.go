package format

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cashboard/internal/core"
)

func TestMoneyFormatKRW(t *testing.T) {
	m, err := NewMoney("ko-KR", "KRW")
	require.NoError(t, err)

	assert.Equal(t, "₩85,500", m.Format(decimal.NewFromInt(85500)))
	assert.Equal(t, "-₩1,234", m.Format(decimal.NewFromInt(-1234)))
	assert.Equal(t, "₩0", m.Format(decimal.Zero))
	assert.Equal(t, "₩1,235", m.Format(decimal.RequireFromString("1234.6")))
	assert.Equal(t, "+₩2,000", m.Signed(decimal.NewFromInt(2000)))
	assert.Equal(t, "KRW", m.Currency())
}

func TestMoneyFormatEUR(t *testing.T) {
	m, err := NewMoney("en-US", "EUR")
	require.NoError(t, err)

	assert.Equal(t, "€1,234.50", m.Format(decimal.RequireFromString("1234.5")))
	assert.Equal(t, "-€0.99", m.Format(decimal.RequireFromString("-0.99")))
}

func TestNewMoneyRejectsUnknown(t *testing.T) {
	_, err := NewMoney("ko-KR", "XYZW")
	assert.Error(t, err)
	_, err = NewMoney("not a locale!", "KRW")
	assert.Error(t, err)
}

func TestDate(t *testing.T) {
	d := core.NewDate(2024, 3, 1)
	assert.Equal(t, "2024. 3. 1.", MustMoney("ko-KR", "KRW").Date(d))
	assert.Equal(t, "3/1/2024", MustMoney("en-US", "USD").Date(d))
	assert.Equal(t, "2024-03-01", MustMoney("it-IT", "EUR").Date(d))
	assert.Equal(t, "", MustMoney("ko-KR", "KRW").Date(core.Date{}))
}

func TestPercentAndBytes(t *testing.T) {
	assert.Equal(t, "60.0%", Percent(60))
	assert.Equal(t, "33.3%", Percent(100.0/3))
	assert.Equal(t, "16 MiB", Bytes(16<<20))
	assert.Equal(t, "0 B", Bytes(-1))
}
