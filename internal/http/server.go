package http

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"graphfi/internal/cache"
	"graphfi/internal/chart"
	"graphfi/internal/config"
	"graphfi/internal/log"
	"graphfi/internal/middleware/ratelimit"
	"graphfi/internal/middleware/security"
	"graphfi/internal/middleware/trace"
	"graphfi/internal/session"
	"graphfi/internal/store"
	appweb "graphfi/web"
)

const (
	maxPreviewScale  = 4
	maxDownloads     = 256
	cacheCleanupTick = time.Minute
)

// Options wires the server. Zero values fall back to the defaults of
// config.FromEnv.
type Options struct {
	Addr                string
	SessionTTL          time.Duration
	MaxSessions         int
	SecureCookie        bool
	ExportScale         float64
	ExportTimeout       time.Duration
	DownloadTTL         time.Duration
	ExportRatePerMinute int
	// TrustedProxies are CIDR ranges, beyond the private ones, whose
	// forwarding headers are believed.
	TrustedProxies []string

	// Renderer draws chart rasters; nil means the go-chart PNG renderer.
	Renderer chart.Renderer
	// NewStore builds the workspace of a new session; nil seeds the default breakdown.
	NewStore func() *store.Store
}

// OptionsFromConfig maps validated configuration onto server options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Addr:                cfg.Addr(),
		SessionTTL:          cfg.SessionTTL,
		MaxSessions:         cfg.MaxSessions,
		SecureCookie:        cfg.SecureCookie,
		ExportScale:         cfg.ExportScale,
		ExportTimeout:       cfg.ExportTimeout,
		DownloadTTL:         cfg.DownloadTTL,
		ExportRatePerMinute: cfg.ExportRatePerMinute,
		TrustedProxies:      cfg.TrustedProxies,
	}
}

func (o Options) withDefaults() Options {
	d := config.FromEnv()
	if o.Addr == "" {
		o.Addr = d.Addr()
	}
	if o.SessionTTL <= 0 {
		o.SessionTTL = d.SessionTTL
	}
	if o.MaxSessions <= 0 {
		o.MaxSessions = d.MaxSessions
	}
	if o.ExportScale <= 0 {
		o.ExportScale = d.ExportScale
	}
	if o.ExportTimeout <= 0 {
		o.ExportTimeout = d.ExportTimeout
	}
	if o.DownloadTTL <= 0 {
		o.DownloadTTL = d.DownloadTTL
	}
	if o.ExportRatePerMinute <= 0 {
		o.ExportRatePerMinute = d.ExportRatePerMinute
	}
	if o.Renderer == nil {
		o.Renderer = chart.PNGRenderer{}
	}
	return o
}

// pendingDownload is an exported chart waiting to be fetched by its session.
type pendingDownload struct {
	sessionID string
	export    chart.Export
}

type appMetrics struct {
	started        time.Time
	generated      int64
	generateFailed int64
	exports        int64
	exportFailures int64
	downloads      int64
}

type Server struct {
	http.Server
	templates *template.Template
	logger    *log.Logger

	sessions  *session.Registry
	renderer  chart.Renderer
	preview   chart.Options
	exporter  *chart.Exporter
	downloads *cache.LRUCache[pendingDownload]
	caches    *cache.Manager

	limiter         *ratelimit.Limiter
	ipResolver      *security.IPResolver
	traceMiddleware *trace.Middleware

	appMetrics   appMetrics
	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run server.
func NewServer(opts Options, logger *log.Logger) (*Server, error) {
	opts = opts.withDefaults()
	if logger == nil {
		logger = log.Nop()
	}
	httpLogger := logger.WithComponent(log.ComponentHTTP)

	t, err := parseTemplates()
	if err != nil {
		return nil, err
	}
	ipResolver := security.NewIPResolver()
	for _, cidr := range opts.TrustedProxies {
		if err := ipResolver.AddTrustedProxy(cidr); err != nil {
			return nil, fmt.Errorf("trusted proxies: %w", err)
		}
	}

	s := &Server{
		templates: t,
		logger:    httpLogger,
		sessions: session.NewRegistry(opts.MaxSessions, opts.SessionTTL,
			session.WithStoreFactory(opts.NewStore),
			session.WithSecureCookie(opts.SecureCookie),
			session.WithLogger(logger)),
		renderer: opts.Renderer,
		preview:  chart.DefaultOptions(),
		exporter: chart.NewExporter(opts.Renderer,
			chart.WithScale(opts.ExportScale),
			chart.WithTimeout(opts.ExportTimeout),
			chart.WithLogger(logger.WithComponent(log.ComponentExport))),
		downloads:  cache.NewLRUCache[pendingDownload](maxDownloads, opts.DownloadTTL),
		caches:     cache.NewManager(logger),
		limiter:    ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.ExportRatePerMinute}),
		ipResolver: ipResolver,
		appMetrics: appMetrics{started: time.Now()},
	}
	s.traceMiddleware = trace.NewMiddleware(logger, s.ipResolver.ClientIP)

	s.caches.Register("sessions", s.sessions.Cleaner())
	s.caches.Register("downloads", s.downloads)
	s.caches.StartCleanup(cacheCleanupTick)

	mux := http.NewServeMux()
	s.routes(mux)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	s.Server = http.Server{
		Addr:    opts.Addr,
		Handler: s.traceMiddleware.Middleware(headers.Middleware(mux)),
	}
	return s, nil
}

func parseTemplates() (*template.Template, error) {
	t, err := template.New("").ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return t, nil
}

func (s *Server) routes(mux *http.ServeMux) {
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /ui/workspace", s.handleWorkspace)
	mux.HandleFunc("POST /entries", s.handleAddEntry)
	mux.HandleFunc("POST /entries/{id}", s.handleEditEntry)
	mux.HandleFunc("DELETE /entries/{id}", s.handleRemoveEntry)
	mux.HandleFunc("POST /generate", s.handleGenerate)
	mux.HandleFunc("POST /reset", s.handleReset)

	mux.HandleFunc("GET /ui/chart", s.handleChartPartial)
	mux.HandleFunc("GET /chart.png", s.handleChartImage)
	mux.Handle("POST /chart/export", s.limiter.Middleware(s.rateLimitKey, s.handleRateLimited)(
		http.HandlerFunc(s.handleExport)))
	mux.HandleFunc("GET /chart/download/{token}", s.handleDownload)
}

// rateLimitKey limits exports per session, or per client IP before a
// session exists.
func (s *Server) rateLimitKey(r *http.Request) string {
	if c, err := r.Cookie(session.CookieName); err == nil {
		if _, ok := s.sessions.Lookup(c.Value); ok {
			return "session:" + c.Value
		}
	}
	return "ip:" + s.ipResolver.ClientIP(r)
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldPath, r.URL.Path,
		log.FieldOperation, log.OpExport)
	ErrorResponse(http.StatusTooManyRequests, "Too many downloads. Please wait a moment and try again.").Write(w)
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.caches.Stop()
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// render executes a named template into a buffer so a failure never
// leaves a half-written response.
func (s *Server) render(r *http.Request, name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Template execution failed",
			log.FieldError, err,
			log.FieldTemplate, name)
		return nil, err
	}
	return buf.Bytes(), nil
}
