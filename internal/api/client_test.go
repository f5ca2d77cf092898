package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cashboard/internal/core"
)

func newTestServer(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/api/", WithTimeout(2*time.Second))
}

func TestListTransactions(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/transactions", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[{"id":1,"date":"2024-03-01T00:00:00","description":"Lunch","amount":-8500.0,"type":"expense","category":"Food"}]`)
	})

	txs, err := c.ListTransactions(context.Background())
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "Lunch", txs[0].Description)
	assert.Equal(t, "Food", txs[0].CategoryName())
	assert.True(t, txs[0].Amount.Equal(decimal.NewFromInt(-8500)))
	assert.Equal(t, "2024-03-01", txs[0].Date.String())
}

func TestListCategoriesEmptyIsNotNil(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `null`)
	})
	cats, err := c.ListCategories(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, cats)
	assert.Empty(t, cats)
}

func TestErrorStatusBecomesTransportError(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"error":"database is down"}`)
	})

	_, err := c.ListTransactions(context.Background())
	var te *core.TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, http.StatusInternalServerError, te.StatusCode)
	assert.Contains(t, err.Error(), "database is down")
	assert.Equal(t, core.KindTransport, core.Kind(err))
}

func TestNetworkFailureBecomesTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(url).ListCategories(context.Background())
	var te *core.TransportError
	require.True(t, errors.As(err, &te))
	assert.Zero(t, te.StatusCode)
}

func TestMalformedBodyIsTransportError(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"not":"a list"`)
	})
	_, err := c.ListTransactions(context.Background())
	assert.Equal(t, core.KindTransport, core.Kind(err))
}

func TestCreateCategory(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/categories", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Food", body["big_category"])
		assert.Equal(t, "Groceries", body["sub_category"])
		_, _ = io.WriteString(w, `{"status":"success","id":42}`)
	})

	cat, err := c.CreateCategory(context.Background(), core.CategoryDraft{BigCategory: "Food", SubCategory: "Groceries"})
	require.NoError(t, err)
	assert.Equal(t, int64(42), cat.ID)
	assert.Equal(t, "Food / Groceries", cat.Label())
}

func TestCreateTransactionDerivesType(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "2024-03-05", body["date"])
		assert.Equal(t, "expense", body["type"])
		_, _ = io.WriteString(w, `{"status":"success","id":7}`)
	})

	tx, err := c.CreateTransaction(context.Background(), core.TransactionDraft{
		Date:        core.NewDate(2024, 3, 5),
		Description: "Taxi",
		Amount:      decimal.NewFromInt(-12000),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), tx.ID)
	assert.Equal(t, core.Expense, tx.Type)
}

func TestUploadSendsMultipart(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/upload", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "1", r.FormValue("user_id"))
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		data, _ := io.ReadAll(file)
		assert.Equal(t, "march.csv", header.Filename)
		assert.Equal(t, "date,amount\n", string(data))
		_, _ = io.WriteString(w, `{"status":"success","rows_processed":0,"columns":["date","amount"],"data":[]}`)
	})

	res, err := c.Upload(context.Background(), core.File{Name: "march.csv", ContentType: "text/csv", Size: 12, Data: []byte("date,amount\n")}, "1")
	require.NoError(t, err)
	assert.Equal(t, []string{"date", "amount"}, res.Columns)
}

func TestUploadStatusErrorIsFailure(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"status":"error","message":"bad encoding"}`)
	})
	_, err := c.Upload(context.Background(), core.File{Name: "a.csv", Data: []byte("x")}, "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad encoding")
}

func TestSummary(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/dashboard/summary", r.URL.Path)
		_, _ = io.WriteString(w, `{"total_income":2000,"total_expenses":8000,"balance":-6000,
			"recent_transactions":[{"id":3,"date":"2024-03-02","description":"Pay","amount":2000}]}`)
	})
	s, err := c.Summary(context.Background())
	require.NoError(t, err)
	assert.True(t, s.Balance.Equal(decimal.NewFromInt(-6000)))
	require.Len(t, s.RecentTransactions, 1)
	assert.Equal(t, "Pay", s.RecentTransactions[0].Description)
}

func TestDefaultBaseURL(t *testing.T) {
	assert.Equal(t, DefaultBaseURL, NewClient("").BaseURL())
	assert.Equal(t, "http://x/api", NewClient("http://x/api/").BaseURL())
}
