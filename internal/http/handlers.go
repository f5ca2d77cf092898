package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"cashboard/internal/chart"
	"cashboard/internal/core"
	"cashboard/internal/filter"
	"cashboard/internal/log"
)

// render writes b, logging template failures.
func (s *Server) render(w http.ResponseWriter, r *http.Request, b *HTMXResponseBuilder) {
	if err := b.RenderError(); err != nil {
		s.appMetrics.renderErrors.Add(1)
		log.NewStructuredLogger(s.reqLog(r)).LogError(r.Context(), "Template rendering failed", err,
			log.ComponentTemplate, log.OpRender, log.NewFields().WithErrorKind(log.ErrorTypeInternal))
	}
	b.Write(w)
}

func (s *Server) partial(w http.ResponseWriter, r *http.Request, name string, data any) {
	s.render(w, r, NewHTMXResponse().HTML(s.templates, name, data))
}

// Pages

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Load(w, r)
	s.partial(w, r, "index.html", s.pageData(sess))
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	s.partial(w, r, "overview.html", s.overviewData(s.store.Snapshot()))
}

type summaryView struct {
	Summary core.Summary
	Error   string
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), backendTimeout)
	defer cancel()

	sum, err := s.store.FetchSummary(ctx)
	if err != nil {
		s.render(w, r, NewHTMXResponse().
			HTML(s.templates, "summary.html", summaryView{Error: userMessage(err)}).
			TriggerErrorNotification(userMessage(err)))
		return
	}
	s.partial(w, r, "summary.html", summaryView{Summary: sum})
}

func (s *Server) handleError(w http.ResponseWriter, r *http.Request) {
	s.partial(w, r, "error.html", s.errorData(s.store.Snapshot()))
}

func (s *Server) handleDismissError(w http.ResponseWriter, r *http.Request) {
	s.store.DismissError()
	s.partial(w, r, "error.html", s.errorData(s.store.Snapshot()))
}

// Transactions

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Load(w, r)
	var invalid []string
	if q := r.URL.Query(); len(q) > 0 {
		var f filter.Filter
		f, invalid = filter.Parse(q)
		sess.SetFilter(f)
	}
	s.partial(w, r, "transactions.html", s.transactionsData(sess, s.store.Snapshot(), invalid))
}

func (s *Server) handleResetFilter(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Load(w, r)
	sess.ResetFilter()
	s.partial(w, r, "transactions.html", s.transactionsData(sess, s.store.Snapshot(), nil))
}

// Chart

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Load(w, r)
	if v := r.URL.Query().Get("view"); v != "" {
		sess.Chart.SetView(chart.ParseView(v))
	}
	s.partial(w, r, "chart.html", s.chartData(sess, s.store.Snapshot()))
}

func (s *Server) handleToggleHidden(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	sess := s.sessions.Load(w, r)
	sess.Chart.ToggleHidden(id)
	s.partial(w, r, "chart.html", s.chartData(sess, s.store.Snapshot()))
}

func (s *Server) handleSelectCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	sess := s.sessions.Load(w, r)
	sess.Chart.Select(id)
	s.partial(w, r, "chart.html", s.chartData(sess, s.store.Snapshot()))
}

// Carousel

func (s *Server) handleCarousel(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Load(w, r)
	s.partial(w, r, "carousel.html", s.carouselData(sess, s.store.Snapshot()))
}

func (s *Server) handleCarouselMove(delta int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := s.sessions.Load(w, r)
		var idx int
		if delta < 0 {
			idx = sess.Carousel.Prev()
		} else {
			idx = sess.Carousel.Next()
		}
		s.render(w, r, NewHTMXResponse().
			HTML(s.templates, "carousel.html", s.carouselData(sess, s.store.Snapshot())).
			TriggerCarouselChanged(idx))
	}
}

func (s *Server) handleCarouselJump(w http.ResponseWriter, r *http.Request) {
	idx, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || idx < 0 || idx >= CarouselPanes {
		BadRequestError("Unknown carousel pane").Write(w)
		return
	}
	sess := s.sessions.Load(w, r)
	idx = sess.Carousel.Jump(idx)
	s.render(w, r, NewHTMXResponse().
		HTML(s.templates, "carousel.html", s.carouselData(sess, s.store.Snapshot())).
		TriggerCarouselChanged(idx))
}

// Categories

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	s.partial(w, r, "categories.html", s.categoriesData(s.store.Snapshot(), "", core.CategoryDraft{}))
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		BadRequestError("Invalid form data").Write(w)
		return
	}
	draft := core.CategoryDraft{
		BigCategory:  formValue(r, "big_category"),
		SubCategory:  formValue(r, "sub_category"),
		ItemCategory: optionalFormValue(r, "item_category"),
	}

	ctx, cancel := context.WithTimeout(r.Context(), backendTimeout)
	defer cancel()

	cat, err := s.store.AddCategory(ctx, draft)
	if err != nil {
		s.render(w, r, NewHTMXResponse().
			Status(statusFor(err)).
			HTML(s.templates, "categories.html", s.categoriesData(s.store.Snapshot(), userMessage(err), draft)).
			TriggerErrorNotification(userMessage(err)))
		return
	}
	s.appMetrics.categoriesCreated.Add(1)
	s.reqLog(r).InfoContext(r.Context(), "Category created",
		log.FieldOperation, log.OpAddCategory,
		log.FieldCategory, cat.Label())

	snap := s.store.Snapshot()
	s.render(w, r, NewHTMXResponse().
		HTML(s.templates, "categories.html", s.categoriesData(snap, "", core.CategoryDraft{})).
		TriggerCategoriesChanged(len(snap.Categories)).
		TriggerFormReset().
		TriggerSuccessNotification("Category "+cat.Label()+" added"))
}

// Transactions form

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		BadRequestError("Invalid form data").Write(w)
		return
	}
	form := transactionFormView{Today: s.now().Format(formDateLayout)}

	draft, err := parseTransactionForm(r)
	if err == nil {
		ctx, cancel := context.WithTimeout(r.Context(), backendTimeout)
		defer cancel()
		var tx core.Transaction
		tx, err = s.store.AddTransaction(ctx, draft)
		if err == nil {
			s.appMetrics.transactionsCreated.Add(1)
			s.reqLog(r).InfoContext(r.Context(), "Transaction created",
				log.FieldOperation, log.OpAddTransaction,
				log.FieldAmount, tx.Amount.String())
			s.render(w, r, NewHTMXResponse().
				HTML(s.templates, "transaction_form.html", form).
				TriggerTransactionsChanged(len(s.store.Snapshot().Transactions)).
				TriggerFormReset().
				TriggerSuccessNotification("Transaction added"))
			return
		}
	}

	form.Message = userMessage(err)
	s.render(w, r, NewHTMXResponse().
		Status(statusFor(err)).
		HTML(s.templates, "transaction_form.html", form).
		TriggerErrorNotification(form.Message))
}

func parseTransactionForm(r *http.Request) (core.TransactionDraft, error) {
	var d core.TransactionDraft
	date, err := core.ParseDate(formValue(r, "date"))
	if err != nil {
		return d, &core.ValidationError{Field: "date", Err: err}
	}
	amount, err := core.ParseAmount(formValue(r, "amount"))
	if err != nil {
		return d, &core.ValidationError{Field: "amount", Err: err}
	}
	d.Date = date
	d.Amount = amount
	d.Description = formValue(r, "description")
	if t := core.TransactionType(formValue(r, "type")); t == core.Income || t == core.Expense {
		d.Type = t
	}
	return d, nil
}

// Refresh

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), backendTimeout)
	defer cancel()

	err := s.store.Refresh(ctx)
	if !isHTMX(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	snap := s.store.Snapshot()
	b := NewHTMXResponse().
		HTML(s.templates, "error.html", s.errorData(snap)).
		TriggerTransactionsChanged(len(snap.Transactions)).
		TriggerCategoriesChanged(len(snap.Categories))
	if err != nil {
		b.TriggerErrorNotification(userMessage(err))
	} else {
		b.TriggerSuccessNotification("Data refreshed")
	}
	s.render(w, r, b)
}
