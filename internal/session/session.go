// Package session keeps per-browser dashboard state: the transaction
// filter, chart view, upload widget and carousel.
package session

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"cashboard/internal/cache"
	"cashboard/internal/carousel"
	"cashboard/internal/chart"
	"cashboard/internal/filter"
	"cashboard/internal/log"
	"cashboard/internal/upload"
)

// CookieName is the cookie holding the session ID.
const CookieName = "cashboard_session"

// Config holds session configuration
type Config struct {
	TTL                 time.Duration
	Max                 int
	OwnerID             string
	UploadStatusDisplay time.Duration
	CarouselPanes       int
	CarouselInterval    time.Duration
	CarouselAutoplay    bool
	// Secure marks the cookie HTTPS-only.
	Secure bool
}

// Session is one browser's view state.
type Session struct {
	ID       string
	Chart    *chart.Session
	Upload   *upload.Widget
	Carousel *carousel.Carousel

	mu     sync.Mutex
	filter filter.Filter
}

// Filter returns the current transaction filter.
func (s *Session) Filter() filter.Filter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter
}

// SetFilter replaces the transaction filter.
func (s *Session) SetFilter(f filter.Filter) {
	s.mu.Lock()
	s.filter = f
	s.mu.Unlock()
}

// ResetFilter restores the default filter.
func (s *Session) ResetFilter() {
	s.SetFilter(filter.Reset())
}

// Manager creates sessions on demand and expires idle ones.
type Manager struct {
	cfg      Config
	logger   *log.Logger
	sessions *cache.LRUCache[*Session]
	ctx      context.Context
	cancel   context.CancelFunc

	created int64
	evicted int64
}

func NewManager(cfg Config, logger *log.Logger) *Manager {
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * time.Minute
	}
	if cfg.Max <= 0 {
		cfg.Max = 500
	}
	if logger == nil {
		logger = log.Nop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		cfg:    cfg,
		logger: logger.WithComponent(log.ComponentSession),
		ctx:    ctx,
		cancel: cancel,
	}
	m.sessions = cache.NewLRUCache[*Session](cfg.Max, cfg.TTL, cache.WithOnEvict(m.onEvict))
	return m
}

func (m *Manager) onEvict(id string, s *Session) {
	s.Carousel.Stop()
	atomic.AddInt64(&m.evicted, 1)
	m.logger.Debug("Session evicted", log.FieldSessionID, id)
}

// Cleaner exposes the session cache for periodic expiry.
func (m *Manager) Cleaner() cache.Cleaner { return m.sessions }

// Load returns the session named by the request cookie, creating one and
// setting the cookie when it is missing, malformed or expired.
func (m *Manager) Load(w http.ResponseWriter, r *http.Request) *Session {
	if c, err := r.Cookie(CookieName); err == nil {
		if _, err := uuid.Parse(c.Value); err == nil {
			if s, ok := m.sessions.Get(c.Value); ok {
				return s
			}
		}
	}

	s := m.create()
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    s.ID,
		Path:     "/",
		MaxAge:   int(m.cfg.TTL.Seconds()),
		HttpOnly: true,
		Secure:   m.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return s
}

// Lookup returns an existing session without creating one.
func (m *Manager) Lookup(id string) (*Session, bool) {
	return m.sessions.Get(id)
}

func (m *Manager) create() *Session {
	s := &Session{
		ID:     uuid.NewString(),
		Chart:  chart.NewSession(),
		Upload: upload.NewWidget(m.cfg.OwnerID, upload.WithStatusDisplay(m.cfg.UploadStatusDisplay)),
		Carousel: carousel.New(carousel.Config{
			Panes:    m.cfg.CarouselPanes,
			Autoplay: m.cfg.CarouselAutoplay,
			Interval: m.cfg.CarouselInterval,
		}),
		filter: filter.Reset(),
	}
	s.Carousel.Start(m.ctx)
	m.sessions.Set(s.ID, s)
	atomic.AddInt64(&m.created, 1)
	m.logger.Debug("Session created", log.FieldSessionID, s.ID)
	return s
}

// Stats reports session counters.
type Stats struct {
	Active  int
	Created int64
	Evicted int64
}

func (m *Manager) Stats() Stats {
	return Stats{
		Active:  m.sessions.Size(),
		Created: atomic.LoadInt64(&m.created),
		Evicted: atomic.LoadInt64(&m.evicted),
	}
}

// Close drops every session and stops their carousels.
func (m *Manager) Close() {
	m.sessions.Clear()
	m.cancel()
}
