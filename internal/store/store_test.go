package store

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cashboard/internal/core"
	"cashboard/internal/export"
)

type reply struct {
	txs []core.Transaction
	err error
}

type fakeBackend struct {
	mu      sync.Mutex
	txs     []core.Transaction
	txErr   error
	cats    []core.Category
	catErr  error
	upErr   error
	gate    chan chan reply
	txCalls int
	uploads []core.File
	newCats []core.CategoryDraft
	newTxs  []core.TransactionDraft
}

func (f *fakeBackend) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	f.mu.Lock()
	f.txCalls++
	gate := f.gate
	txs, err := f.txs, f.txErr
	f.mu.Unlock()
	if gate != nil {
		ch := make(chan reply)
		gate <- ch
		r := <-ch
		return r.txs, r.err
	}
	return txs, err
}

func (f *fakeBackend) ListCategories(ctx context.Context) ([]core.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cats, f.catErr
}

func (f *fakeBackend) Summary(ctx context.Context) (core.Summary, error) {
	return core.Summary{Balance: decimal.NewFromInt(-6000)}, nil
}

func (f *fakeBackend) CreateCategory(ctx context.Context, d core.CategoryDraft) (core.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.newCats = append(f.newCats, d)
	return core.Category{ID: 9, BigCategory: d.BigCategory, SubCategory: d.SubCategory}, nil
}

func (f *fakeBackend) CreateTransaction(ctx context.Context, d core.TransactionDraft) (core.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.newTxs = append(f.newTxs, d)
	return core.Transaction{ID: 5, Date: d.Date, Description: d.Description, Amount: d.Amount, Type: core.TypeFromAmount(d.Amount)}, nil
}

func (f *fakeBackend) Upload(ctx context.Context, file core.File, ownerID string) (core.UploadResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, file)
	if f.upErr != nil {
		return core.UploadResult{}, f.upErr
	}
	return core.UploadResult{Status: "success", RowsProcessed: 2}, nil
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func tx(id int64, desc string, amount int64) core.Transaction {
	return core.Transaction{ID: id, Date: core.NewDate(2024, 3, 1), Description: desc, Amount: decimal.NewFromInt(amount), Type: core.TypeFromAmount(decimal.NewFromInt(amount))}
}

func newStore(b *fakeBackend) (*Store, *clock) {
	c := &clock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	return New(b, WithClock(c.Now)), c
}

func TestInitialSnapshotIsEmpty(t *testing.T) {
	s, _ := newStore(&fakeBackend{})
	snap := s.Snapshot()
	assert.NotNil(t, snap.Transactions)
	assert.Empty(t, snap.Transactions)
	assert.False(t, snap.Loading)
	assert.Nil(t, snap.Failure)
}

func TestFetchTransactionsReplacesList(t *testing.T) {
	b := &fakeBackend{txs: []core.Transaction{tx(1, "Lunch", -8500)}}
	s, _ := newStore(b)

	require.NoError(t, s.FetchTransactions(context.Background()))
	assert.Len(t, s.Snapshot().Transactions, 1)

	b.txs = []core.Transaction{tx(2, "Rent", -500000), tx(3, "Pay", 2000000)}
	require.NoError(t, s.FetchTransactions(context.Background()))
	snap := s.Snapshot()
	require.Len(t, snap.Transactions, 2)
	assert.Equal(t, "Rent", snap.Transactions[0].Description)
}

func TestFetchFailureKeepsListAndSetsError(t *testing.T) {
	b := &fakeBackend{txs: []core.Transaction{tx(1, "Lunch", -8500)}}
	s, c := newStore(b)
	require.NoError(t, s.FetchTransactions(context.Background()))

	b.txErr = &core.TransportError{Op: "list transactions", StatusCode: 500, Err: errors.New("db down")}
	err := s.FetchTransactions(context.Background())
	require.Error(t, err)

	snap := s.Snapshot()
	assert.Len(t, snap.Transactions, 1)
	require.NotNil(t, snap.Failure)
	assert.Equal(t, core.KindTransport, snap.Failure.Kind)
	assert.Contains(t, snap.Failure.Message, "db down")
	assert.Equal(t, c.Now(), snap.Failure.At)
	assert.False(t, snap.Loading)
}

func TestSuccessClearsFailure(t *testing.T) {
	b := &fakeBackend{catErr: errors.New("boom")}
	s, _ := newStore(b)
	require.Error(t, s.FetchCategories(context.Background()))
	require.NotNil(t, s.Snapshot().Failure)

	b.catErr = nil
	require.NoError(t, s.FetchCategories(context.Background()))
	assert.Nil(t, s.Snapshot().Failure)
}

func TestActiveFailureExpires(t *testing.T) {
	b := &fakeBackend{txErr: errors.New("boom")}
	s, c := newStore(b)
	_ = s.FetchTransactions(context.Background())

	c.Advance(4 * time.Second)
	assert.NotNil(t, s.ActiveFailure(c.Now()))
	c.Advance(time.Second)
	assert.Nil(t, s.ActiveFailure(c.Now()))
}

func TestDismissError(t *testing.T) {
	b := &fakeBackend{txErr: errors.New("boom")}
	s, _ := newStore(b)
	_ = s.FetchTransactions(context.Background())

	_, err := s.Dispatch(context.Background(), DismissErrorIntent{})
	require.NoError(t, err)
	assert.Nil(t, s.Snapshot().Failure)
}

func TestLoadingWhileInFlight(t *testing.T) {
	gate := make(chan chan reply)
	b := &fakeBackend{gate: gate}
	s, _ := newStore(b)

	done := make(chan error)
	go func() { done <- s.FetchTransactions(context.Background()) }()
	r := <-gate

	snap := s.Snapshot()
	assert.True(t, snap.Loading)
	assert.Equal(t, 1, snap.InFlight)

	r <- reply{txs: []core.Transaction{tx(1, "Lunch", -8500)}}
	require.NoError(t, <-done)
	assert.False(t, s.Snapshot().Loading)
}

func TestStaleResponseIsDiscarded(t *testing.T) {
	gate := make(chan chan reply)
	b := &fakeBackend{gate: gate}
	s, _ := newStore(b)
	ctx := context.Background()

	first := make(chan error)
	go func() { first <- s.FetchTransactions(ctx) }()
	older := <-gate

	second := make(chan error)
	go func() { second <- s.FetchTransactions(ctx) }()
	newer := <-gate

	newer <- reply{txs: []core.Transaction{tx(2, "new", -1)}}
	require.NoError(t, <-second)

	older <- reply{txs: []core.Transaction{tx(1, "old", -1)}}
	require.NoError(t, <-first)

	snap := s.Snapshot()
	require.Len(t, snap.Transactions, 1)
	assert.Equal(t, "new", snap.Transactions[0].Description)
	assert.Equal(t, 0, snap.InFlight)
}

func TestStaleErrorIsDiscarded(t *testing.T) {
	gate := make(chan chan reply)
	b := &fakeBackend{gate: gate}
	s, _ := newStore(b)
	ctx := context.Background()

	first := make(chan error)
	go func() { first <- s.FetchTransactions(ctx) }()
	older := <-gate
	second := make(chan error)
	go func() { second <- s.FetchTransactions(ctx) }()
	newer := <-gate

	newer <- reply{txs: []core.Transaction{tx(2, "new", -1)}}
	require.NoError(t, <-second)
	older <- reply{err: errors.New("late failure")}
	<-first

	assert.Nil(t, s.Snapshot().Failure)
	assert.Equal(t, "new", s.Snapshot().Transactions[0].Description)
}

func TestRefreshLoadsBoth(t *testing.T) {
	b := &fakeBackend{
		txs:  []core.Transaction{tx(1, "Lunch", -8500)},
		cats: []core.Category{{ID: 1, BigCategory: "Food", SubCategory: "Lunch"}},
	}
	s, _ := newStore(b)
	require.NoError(t, s.Refresh(context.Background()))
	snap := s.Snapshot()
	assert.Len(t, snap.Transactions, 1)
	assert.Len(t, snap.Categories, 1)
}

func TestRefreshPartialFailure(t *testing.T) {
	b := &fakeBackend{
		txErr: errors.New("boom"),
		cats:  []core.Category{{ID: 1, BigCategory: "Food", SubCategory: "Lunch"}},
	}
	s, _ := newStore(b)
	require.Error(t, s.Refresh(context.Background()))
	assert.Len(t, s.Snapshot().Categories, 1)
}

func TestUploadInvalidFileSkipsBackend(t *testing.T) {
	b := &fakeBackend{}
	s, _ := newStore(b)

	_, err := s.UploadFile(context.Background(), core.File{Name: "notes.txt", ContentType: "text/plain", Size: 4, Data: []byte("abcd")}, "1")
	require.Error(t, err)
	assert.Equal(t, core.KindValidation, core.Kind(err))
	assert.Empty(t, b.uploads)
	require.NotNil(t, s.Snapshot().Failure)
	assert.Equal(t, core.KindValidation, s.Snapshot().Failure.Kind)
}

func TestUploadRefetchesTransactions(t *testing.T) {
	b := &fakeBackend{txs: []core.Transaction{tx(1, "Imported", -100)}}
	s, _ := newStore(b)

	res, err := s.UploadFile(context.Background(), core.File{Name: "march.csv", ContentType: "text/csv", Size: 4, Data: []byte("a,b\n")}, "1")
	require.NoError(t, err)
	assert.Equal(t, 2, res.RowsProcessed)
	assert.Len(t, b.uploads, 1)
	assert.Equal(t, 1, b.txCalls)
	assert.Len(t, s.Snapshot().Transactions, 1)
}

func TestUploadFailureLeavesState(t *testing.T) {
	b := &fakeBackend{upErr: &core.TransportError{Op: "upload file", StatusCode: 200, Err: errors.New("bad encoding")}}
	s, _ := newStore(b)

	_, err := s.UploadFile(context.Background(), core.File{Name: "march.csv", Size: 1, Data: []byte("x")}, "1")
	require.Error(t, err)
	assert.Zero(t, b.txCalls)
	assert.Contains(t, s.Snapshot().Failure.Message, "bad encoding")
}

func TestAddCategory(t *testing.T) {
	b := &fakeBackend{cats: []core.Category{{ID: 9, BigCategory: "Food", SubCategory: "Snacks"}}}
	s, _ := newStore(b)

	_, err := s.AddCategory(context.Background(), core.CategoryDraft{BigCategory: "  "})
	require.Error(t, err)
	assert.Empty(t, b.newCats)

	out, err := s.Dispatch(context.Background(), AddCategoryIntent{Draft: core.CategoryDraft{BigCategory: " Food ", SubCategory: "Snacks"}})
	require.NoError(t, err)
	require.NotNil(t, out.Category)
	assert.Equal(t, int64(9), out.Category.ID)
	assert.Equal(t, "Food", b.newCats[0].BigCategory)
	assert.Len(t, s.Snapshot().Categories, 1)
}

func TestAddTransaction(t *testing.T) {
	b := &fakeBackend{txs: []core.Transaction{tx(5, "Taxi", -12000)}}
	s, _ := newStore(b)

	created, err := s.AddTransaction(context.Background(), core.TransactionDraft{
		Date: core.NewDate(2024, 3, 5), Description: "Taxi", Amount: decimal.NewFromInt(-12000),
	})
	require.NoError(t, err)
	assert.Equal(t, core.Expense, created.Type)
	assert.Equal(t, 1, b.txCalls)

	_, err = s.AddTransaction(context.Background(), core.TransactionDraft{Description: "no date"})
	assert.Equal(t, core.KindValidation, core.Kind(err))
}

func TestExportFromMemory(t *testing.T) {
	b := &fakeBackend{txs: []core.Transaction{tx(1, "Lunch", -8500)}}
	s, _ := newStore(b)
	require.NoError(t, s.FetchTransactions(context.Background()))
	calls := b.txCalls

	out, err := s.Dispatch(context.Background(), ExportIntent{Format: export.JSON})
	require.NoError(t, err)
	require.NotNil(t, out.Artifact)
	assert.Equal(t, "expense-data-2024-03-01.json", out.Artifact.Name)
	assert.True(t, strings.HasPrefix(string(out.Artifact.Data), "[\n  {"))
	assert.Equal(t, calls, b.txCalls)
}

func TestExportFailureIsReported(t *testing.T) {
	s, _ := newStore(&fakeBackend{})
	_, err := s.Export(export.Format("pdf"))
	require.Error(t, err)
	f := s.Snapshot().Failure
	require.NotNil(t, f)
	assert.True(t, strings.HasPrefix(f.Message, "Failed to export data"))
}

func TestSummaryDoesNotTouchLists(t *testing.T) {
	s, _ := newStore(&fakeBackend{})
	v := s.Snapshot().Version
	sum, err := s.FetchSummary(context.Background())
	require.NoError(t, err)
	assert.True(t, sum.Balance.Equal(decimal.NewFromInt(-6000)))
	assert.Greater(t, s.Snapshot().Version, v)
	assert.Empty(t, s.Snapshot().Transactions)
}

func TestSubscribeDeliversLatest(t *testing.T) {
	b := &fakeBackend{txs: []core.Transaction{tx(1, "Lunch", -8500)}}
	s, _ := newStore(b)

	ch, cancel := s.Subscribe()
	defer cancel()

	require.NoError(t, s.FetchTransactions(context.Background()))
	got := <-ch
	assert.Equal(t, s.Snapshot().Version, got.Version)
	assert.Len(t, got.Transactions, 1)

	cancel()
	require.NoError(t, s.FetchTransactions(context.Background()))
	select {
	case <-ch:
		require.FailNow(t, "cancelled subscriber received a snapshot")
	default:
	}
}

type bogusIntent struct{}

func (bogusIntent) intent() {}

func TestDispatchUnknownIntent(t *testing.T) {
	s, _ := newStore(&fakeBackend{})
	_, err := s.Dispatch(context.Background(), bogusIntent{})
	assert.Error(t, err)
}
