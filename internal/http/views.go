package http

import (
	"html/template"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"cashboard/internal/chart"
	"cashboard/internal/core"
	"cashboard/internal/filter"
	"cashboard/internal/session"
	"cashboard/internal/store"
	"cashboard/internal/upload"
)

// paneTitles names the carousel panes in display order.
var paneTitles = [...]string{"Overview", "Top categories", "Recent activity"}

// CarouselPanes is the number of carousel panes the dashboard renders.
const CarouselPanes = len(paneTitles)

const (
	recentLimit       = 5
	topCategoryLimit  = 5
	defaultPageTitle  = "Cashboard"
	formDateLayout    = "2006-01-02"
	errorPollInterval = time.Second
)

type overviewView struct {
	Overview core.Overview
	Loading  bool
}

type errorView struct {
	Failure   *store.Failure
	Remaining time.Duration
	Poll      time.Duration
}

type transactionsView struct {
	Rows       []core.Transaction
	Total      int
	Filter     filter.Filter
	Categories []string
	Invalid    []string
	Loading    bool
	Query      string
	Sum        decimal.Decimal
}

type chartView struct {
	Frame   chart.Frame
	SVG     template.HTML
	Loading bool
}

type carouselView struct {
	Index    int
	Panes    []string
	Title    string
	Running  bool
	Overview core.Overview
	Top      []chart.Point
	Recent   []core.Transaction
}

type uploadView struct {
	upload.View
	MaxSize int64
	// Poll is set while an outcome is on screen so the widget returns to
	// idle without user action.
	Poll bool
}

type categoriesView struct {
	Categories []core.Category
	Message    string
	Draft      core.CategoryDraft
}

type transactionFormView struct {
	Message string
	Today   string
}

type pageView struct {
	Title        string
	Currency     string
	Overview     overviewView
	Error        errorView
	Transactions transactionsView
	Chart        chartView
	Carousel     carouselView
	Upload       uploadView
	Categories   categoriesView
	TxForm       transactionFormView
}

func (s *Server) overviewData(snap store.Snapshot) overviewView {
	return overviewView{
		Overview: core.NewOverview(snap.Transactions, snap.Categories, s.now()),
		Loading:  snap.Loading,
	}
}

func (s *Server) errorData(snap store.Snapshot) errorView {
	now := s.now()
	f := snap.ActiveFailure(now, s.store.ErrorDisplay())
	v := errorView{Failure: f, Poll: errorPollInterval}
	if f != nil {
		v.Remaining = s.store.ErrorDisplay() - now.Sub(f.At)
	}
	return v
}

func (s *Server) transactionsData(sess *session.Session, snap store.Snapshot, invalid []string) transactionsView {
	f := sess.Filter()
	rows := f.Apply(snap.Transactions)
	return transactionsView{
		Rows:       rows,
		Sum:        sumAmounts(rows),
		Total:      len(snap.Transactions),
		Filter:     f,
		Categories: filter.Categories(snap.Categories),
		Invalid:    invalid,
		Loading:    snap.Loading,
		Query:      f.Values().Encode(),
	}
}

func (s *Server) chartData(sess *session.Session, snap store.Snapshot) chartView {
	frame := sess.Chart.Frame(snap.Categories, chart.Total(snap.Categories))
	return chartView{
		Frame:   frame,
		SVG:     chart.SVG(frame.Slices, chart.DefaultGeometry, sess.Chart.Selected()),
		Loading: snap.Loading,
	}
}

func (s *Server) carouselData(sess *session.Session, snap store.Snapshot) carouselView {
	idx := sess.Carousel.Index()
	ov := core.NewOverview(snap.Transactions, snap.Categories, s.now())
	top := chart.Aggregate(snap.Categories, chart.Total(snap.Categories), nil)
	if len(top) > topCategoryLimit {
		top = top[:topCategoryLimit]
	}
	v := carouselView{
		Index:    idx,
		Panes:    paneTitles[:],
		Running:  sess.Carousel.Running(),
		Overview: ov,
		Top:      top,
		Recent:   recentTransactions(snap.Transactions, recentLimit),
	}
	if idx >= 0 && idx < len(paneTitles) {
		v.Title = paneTitles[idx]
	}
	return v
}

func (s *Server) uploadData(sess *session.Session) uploadView {
	v := sess.Upload.View()
	return uploadView{
		View:    v,
		MaxSize: core.MaxUploadSize,
		Poll:    v.State == upload.Succeeded || v.State == upload.Failed,
	}
}

func (s *Server) categoriesData(snap store.Snapshot, message string, draft core.CategoryDraft) categoriesView {
	cats := make([]core.Category, len(snap.Categories))
	copy(cats, snap.Categories)
	sort.SliceStable(cats, func(i, j int) bool { return cats[i].Label() < cats[j].Label() })
	return categoriesView{Categories: cats, Message: message, Draft: draft}
}

func (s *Server) pageData(sess *session.Session) pageView {
	snap := s.store.Snapshot()
	return pageView{
		Title:        defaultPageTitle,
		Currency:     s.money.Currency(),
		Overview:     s.overviewData(snap),
		Error:        s.errorData(snap),
		Transactions: s.transactionsData(sess, snap, nil),
		Chart:        s.chartData(sess, snap),
		Carousel:     s.carouselData(sess, snap),
		Upload:       s.uploadData(sess),
		Categories:   s.categoriesData(snap, "", core.CategoryDraft{}),
		TxForm:       transactionFormView{Today: s.now().Format(formDateLayout)},
	}
}

// recentTransactions returns the n newest transactions, newest first.
func recentTransactions(txs []core.Transaction, n int) []core.Transaction {
	out := make([]core.Transaction, len(txs))
	copy(out, txs)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Time.Equal(out[j].Date.Time) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID > out[j].ID
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// sumAmounts totals the amounts of txs.
func sumAmounts(txs []core.Transaction) decimal.Decimal {
	sum := decimal.Zero
	for _, t := range txs {
		sum = sum.Add(t.Amount)
	}
	return sum
}
