// Package store owns the dashboard's data: the transaction and category
// lists, the in-flight counter and the error slot. Views read immutable
// Snapshots and mutate state only through Store operations.
package store

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"cashboard/internal/core"
	"cashboard/internal/export"
	"cashboard/internal/log"
)

// DefaultErrorDisplay is how long a failure stays visible.
const DefaultErrorDisplay = 5 * time.Second

// Backend is the remote API the store reads from and writes to.
// *api.Client satisfies it.
type Backend interface {
	ListTransactions(ctx context.Context) ([]core.Transaction, error)
	ListCategories(ctx context.Context) ([]core.Category, error)
	Summary(ctx context.Context) (core.Summary, error)
	CreateCategory(ctx context.Context, d core.CategoryDraft) (core.Category, error)
	CreateTransaction(ctx context.Context, d core.TransactionDraft) (core.Transaction, error)
	Upload(ctx context.Context, f core.File, ownerID string) (core.UploadResult, error)
}

// Failure is the most recent operation error.
type Failure struct {
	Kind    core.ErrorKind
	Op      string
	Message string
	At      time.Time
}

// Snapshot is a point-in-time view of the store. Its slices are shared
// and must not be modified.
type Snapshot struct {
	Version      uint64
	Transactions []core.Transaction
	Categories   []core.Category
	InFlight     int
	Loading      bool
	Failure      *Failure
}

// ActiveFailure returns the failure if it was raised less than display ago.
func (s Snapshot) ActiveFailure(now time.Time, display time.Duration) *Failure {
	if s.Failure == nil {
		return nil
	}
	if now.Sub(s.Failure.At) >= display {
		return nil
	}
	return s.Failure
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l.WithComponent(log.ComponentStore)
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithErrorDisplay sets how long failures stay active.
func WithErrorDisplay(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.errorDisplay = d
		}
	}
}

// sequence orders concurrent fetches of one list.
type sequence struct {
	issued  uint64
	applied uint64
}

func (q *sequence) next() uint64 {
	q.issued++
	return q.issued
}

// accept reports whether a response tagged seq is newer than the last
// applied one, and records it if so.
func (q *sequence) accept(seq uint64) bool {
	if seq <= q.applied {
		return false
	}
	q.applied = seq
	return true
}

type Store struct {
	backend      Backend
	logger       *log.Logger
	now          func() time.Time
	errorDisplay time.Duration

	mu           sync.Mutex
	version      uint64
	transactions []core.Transaction
	categories   []core.Category
	inFlight     int
	failure      *Failure
	txSeq        sequence
	catSeq       sequence
	subs         map[int]chan Snapshot
	nextSub      int
}

func New(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend:      backend,
		logger:       log.Nop(),
		now:          time.Now,
		errorDisplay: DefaultErrorDisplay,
		transactions: []core.Transaction{},
		categories:   []core.Category{},
		subs:         make(map[int]chan Snapshot),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ErrorDisplay returns the configured failure visibility window.
func (s *Store) ErrorDisplay() time.Duration { return s.errorDisplay }

// Snapshot returns the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// ActiveFailure returns the current failure while it is within the
// display window.
func (s *Store) ActiveFailure(now time.Time) *Failure {
	return s.Snapshot().ActiveFailure(now, s.errorDisplay)
}

// Subscribe returns a channel that receives the current snapshot and then
// the latest snapshot after every change. Slow readers only miss
// intermediate versions. Call cancel to stop delivery.
func (s *Store) Subscribe() (<-chan Snapshot, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	ch := make(chan Snapshot, 1)
	ch <- s.snapshotLocked()
	s.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
	return ch, cancel
}

// FetchTransactions replaces the transaction list with the backend's.
// On failure the list is left as it was and the error slot is set.
func (s *Store) FetchTransactions(ctx context.Context) error {
	s.mu.Lock()
	seq := s.txSeq.next()
	s.beginLocked()
	s.mu.Unlock()

	txs, err := s.backend.ListTransactions(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight--
	if !s.txSeq.accept(seq) {
		s.logger.DebugContext(ctx, "Discarding stale transactions response", log.FieldSeq, seq)
		s.publishLocked()
		return err
	}
	if err != nil {
		s.failLocked(ctx, log.OpFetchTransactions, err, "")
		return err
	}
	s.transactions = txs
	s.failure = nil
	s.publishLocked()
	s.logger.DebugContext(ctx, "Transactions loaded", log.FieldCount, len(txs))
	return nil
}

// FetchCategories replaces the category list with the backend's.
func (s *Store) FetchCategories(ctx context.Context) error {
	s.mu.Lock()
	seq := s.catSeq.next()
	s.beginLocked()
	s.mu.Unlock()

	cats, err := s.backend.ListCategories(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight--
	if !s.catSeq.accept(seq) {
		s.logger.DebugContext(ctx, "Discarding stale categories response", log.FieldSeq, seq)
		s.publishLocked()
		return err
	}
	if err != nil {
		s.failLocked(ctx, log.OpFetchCategories, err, "")
		return err
	}
	s.categories = cats
	s.failure = nil
	s.publishLocked()
	s.logger.DebugContext(ctx, "Categories loaded", log.FieldCount, len(cats))
	return nil
}

// Refresh fetches both lists concurrently. It returns the first error;
// each failed fetch has already updated the error slot. One failing fetch
// does not cancel the other.
func (s *Store) Refresh(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error { return s.FetchTransactions(ctx) })
	g.Go(func() error { return s.FetchCategories(ctx) })
	return g.Wait()
}

// FetchSummary reads the dashboard digest. It does not change the lists.
func (s *Store) FetchSummary(ctx context.Context) (core.Summary, error) {
	var summary core.Summary
	err := s.track(ctx, log.OpFetchSummary, func() error {
		var err error
		summary, err = s.backend.Summary(ctx)
		return err
	})
	return summary, err
}

// UploadFile validates f, uploads it and refetches transactions. A file
// that fails validation never reaches the backend.
func (s *Store) UploadFile(ctx context.Context, f core.File, ownerID string) (core.UploadResult, error) {
	if err := core.ValidateFile(f); err != nil {
		s.fail(ctx, log.OpUpload, err)
		return core.UploadResult{}, err
	}

	var res core.UploadResult
	err := s.track(ctx, log.OpUpload, func() error {
		var err error
		res, err = s.backend.Upload(ctx, f, ownerID)
		return err
	})
	if err != nil {
		return res, err
	}
	s.logger.InfoContext(ctx, "File uploaded",
		log.NewFields().WithFile(f.Name, f.Size).WithOperation(log.OpUpload).ToSlice()...)
	_ = s.FetchTransactions(ctx)
	return res, nil
}

// AddCategory validates and creates a category, then refetches categories.
func (s *Store) AddCategory(ctx context.Context, d core.CategoryDraft) (core.Category, error) {
	if err := d.Validate(); err != nil {
		s.fail(ctx, log.OpAddCategory, err)
		return core.Category{}, err
	}
	d = d.Normalized()

	var created core.Category
	err := s.track(ctx, log.OpAddCategory, func() error {
		var err error
		created, err = s.backend.CreateCategory(ctx, d)
		return err
	})
	if err != nil {
		return core.Category{}, err
	}
	s.logger.InfoContext(ctx, "Category created", log.FieldCategory, created.Label())
	_ = s.FetchCategories(ctx)
	return created, nil
}

// AddTransaction validates and creates a transaction, then refetches
// transactions.
func (s *Store) AddTransaction(ctx context.Context, d core.TransactionDraft) (core.Transaction, error) {
	if err := d.Validate(); err != nil {
		s.fail(ctx, log.OpAddTransaction, err)
		return core.Transaction{}, err
	}

	var created core.Transaction
	err := s.track(ctx, log.OpAddTransaction, func() error {
		var err error
		created, err = s.backend.CreateTransaction(ctx, d)
		return err
	})
	if err != nil {
		return core.Transaction{}, err
	}
	s.logger.InfoContext(ctx, "Transaction created", log.FieldAmount, created.Amount.String())
	_ = s.FetchTransactions(ctx)
	return created, nil
}

// Export serializes the transactions currently held in memory.
func (s *Store) Export(format export.Format) (export.Artifact, error) {
	snap := s.Snapshot()
	a, err := export.Build(format, snap.Transactions, s.now())
	if err != nil {
		s.mu.Lock()
		s.failLocked(context.Background(), log.OpExport, err, "Failed to export data: "+err.Error())
		s.mu.Unlock()
		return export.Artifact{}, err
	}
	return a, nil
}

// DismissError clears the error slot.
func (s *Store) DismissError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failure == nil {
		return
	}
	s.failure = nil
	s.publishLocked()
}

// track runs call as an in-flight operation and records its outcome.
func (s *Store) track(ctx context.Context, op string, call func() error) error {
	s.mu.Lock()
	s.beginLocked()
	s.mu.Unlock()

	err := call()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight--
	if err != nil {
		s.failLocked(ctx, op, err, "")
		return err
	}
	s.failure = nil
	s.publishLocked()
	return nil
}

func (s *Store) beginLocked() {
	s.inFlight++
	s.publishLocked()
}

func (s *Store) fail(ctx context.Context, op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failLocked(ctx, op, err, "")
}

// failLocked sets the error slot. An empty message uses err's text.
func (s *Store) failLocked(ctx context.Context, op string, err error, message string) {
	if message == "" {
		message = err.Error()
	}
	kind := core.Kind(err)
	s.failure = &Failure{Kind: kind, Op: op, Message: message, At: s.now()}
	s.publishLocked()

	fields := log.NewFields().WithOperation(op).WithError(err).WithErrorKind(string(kind))
	if kind == core.KindValidation {
		s.logger.WarnContext(ctx, "Operation rejected", fields.ToSlice()...)
		return
	}
	s.logger.ErrorContext(ctx, "Operation failed", fields.ToSlice()...)
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		Version:      s.version,
		Transactions: s.transactions,
		Categories:   s.categories,
		InFlight:     s.inFlight,
		Loading:      s.inFlight > 0,
		Failure:      s.failure,
	}
}

func (s *Store) publishLocked() {
	s.version++
	snap := s.snapshotLocked()
	for _, ch := range s.subs {
		deliver(ch, snap)
	}
}

// deliver replaces any undelivered snapshot in ch with snap. Only the
// store sends on ch, so the loop ends after at most one drain.
func deliver(ch chan Snapshot, snap Snapshot) {
	for {
		select {
		case ch <- snap:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}
