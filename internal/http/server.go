package http

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"cashboard/internal/chart"
	"cashboard/internal/core"
	"cashboard/internal/export"
	"cashboard/internal/format"
	"cashboard/internal/log"
	"cashboard/internal/middleware/ratelimit"
	"cashboard/internal/middleware/security"
	"cashboard/internal/middleware/trace"
	"cashboard/internal/session"
	"cashboard/internal/store"
	appweb "cashboard/web"
)

// backendTimeout bounds every backend call made while serving a request.
const backendTimeout = 7 * time.Second

// uploadTimeout bounds a statement upload, which the backend parses inline.
const uploadTimeout = 60 * time.Second

// Pinger checks backend reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options wires the server to its collaborators.
type Options struct {
	Addr               string
	Store              *store.Store
	Sessions           *session.Manager
	Money              *format.Money
	Sink               export.Sink
	Backend            Pinger
	Logger             *log.Logger
	RateLimitPerMinute int
	Now                func() time.Time
}

type Server struct {
	http.Server
	templates *template.Template
	store     *store.Store
	sessions  *session.Manager
	money     *format.Money
	sink      export.Sink
	backend   Pinger
	logger    *log.Logger
	now       func() time.Time

	limiter  *ratelimit.Limiter
	tracer   *trace.Middleware
	detector *security.Detector

	appMetrics   *appMetrics
	shutdownOnce sync.Once
}

// NewServer parses the embedded templates and builds the router.
func NewServer(opts Options) (*Server, error) {
	if opts.Store == nil || opts.Sessions == nil {
		return nil, fmt.Errorf("http server: store and sessions are required")
	}
	if opts.Logger == nil {
		opts.Logger = log.Nop()
	}
	if opts.Money == nil {
		opts.Money = format.MustMoney("ko-KR", "KRW")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &Server{
		store:      opts.Store,
		sessions:   opts.Sessions,
		money:      opts.Money,
		sink:       opts.Sink,
		backend:    opts.Backend,
		logger:     opts.Logger.WithComponent(log.ComponentHTTP),
		now:        opts.Now,
		appMetrics: newAppMetrics(opts.Now()),
	}

	t, err := template.New("").Funcs(s.templateFuncs()).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	s.templates = t

	s.detector = security.NewDetector(opts.Logger)
	s.tracer = trace.NewMiddleware(opts.Logger, s.detector.ExtractClientIP)
	s.limiter = ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute})

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       2 * time.Minute,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       2 * time.Minute,
	}
	return s, nil
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.tracer.Middleware)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(s.detector.Middleware)
	r.Use(s.limiter.Middleware(s.detector.ExtractClientIP, s.onRateLimit, false))
	r.Use(middleware.Compress(5, "text/html", "text/css", "application/javascript", "application/json", "text/plain"))

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", s.handleMetrics)

	static, err := fs.Sub(appweb.StaticFS, "static")
	if err == nil {
		r.With(security.StaticAssetMiddleware(3600)).
			Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))
	}

	r.Group(func(r chi.Router) {
		r.Use(security.NoStore)

		r.Get("/", s.handleIndex)

		r.Route("/ui", func(r chi.Router) {
			r.Get("/overview", s.handleOverview)
			r.Get("/summary", s.handleSummary)
			r.Get("/error", s.handleError)
			r.Post("/error/dismiss", s.handleDismissError)

			r.Get("/transactions", s.handleTransactions)
			r.Post("/transactions/reset", s.handleResetFilter)

			r.Get("/chart", s.handleChart)
			r.Post("/chart/hidden/{id}", s.handleToggleHidden)
			r.Post("/chart/selected/{id}", s.handleSelectCategory)

			r.Get("/carousel", s.handleCarousel)
			r.Post("/carousel/prev", s.handleCarouselMove(-1))
			r.Post("/carousel/next", s.handleCarouselMove(1))
			r.Post("/carousel/jump/{index}", s.handleCarouselJump)

			r.Get("/upload", s.handleUploadView)
			r.Post("/upload/select", s.handleUploadSelect)
			r.Post("/upload/submit", s.handleUploadSubmit)
			r.Post("/upload/clear", s.handleUploadClear)

			r.Get("/categories", s.handleCategories)
		})

		r.Post("/categories", s.handleCreateCategory)
		r.Post("/transactions", s.handleCreateTransaction)
		r.Post("/refresh", s.handleRefresh)
		r.Get("/export", s.handleExportDownload)
		r.Post("/export", s.handleExportToSink)
	})

	return r
}

func (s *Server) onRateLimit(w http.ResponseWriter, r *http.Request) {
	s.reqLog(r).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.detector.ExtractClientIP(r),
		log.FieldPath, r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, "Too many requests, slow down").
		TriggerErrorNotification("Too many requests, please wait a moment").
		Write(w)
}

// Shutdown stops background work and drains HTTP connections.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
		s.sessions.Close()
	})
	return err
}

func (s *Server) templateFuncs() template.FuncMap {
	return template.FuncMap{
		"money":    s.money.Format,
		"signed":   s.money.Signed,
		"number":   s.money.Number,
		"date":     s.money.Date,
		"percent":  format.Percent,
		"bytes":    format.Bytes,
		"isoDate":  func(d core.Date) string { return d.String() },
		"add":      func(a, b int) int { return a + b },
		"millis":   func(d time.Duration) int64 { return d.Milliseconds() },
		"colorFor": chart.ColorFor,
	}
}
