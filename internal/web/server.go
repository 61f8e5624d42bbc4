// Package web serves the bookmark popup as server-rendered HTML plus a small
// JSON API for browser-extension clients.
package web

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/hpungsan/repovault/internal/config"
	"github.com/hpungsan/repovault/internal/gateway"
	"github.com/hpungsan/repovault/internal/logger"
	"github.com/hpungsan/repovault/internal/vault"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

// extensionOrigins are always allowed so an extension popup can call the API.
var extensionOrigins = []string{"chrome-extension://*", "moz-extension://*"}

// Options configures the HTTP server.
type Options struct {
	Version string
	Bind    string
	Port    int
	Logger  logger.Logger
	Now     func() time.Time
}

// NewServer creates and configures the HTTP server for the RepoVault web UI.
func NewServer(store *vault.Store, gw gateway.Gateway, cfg *config.Config, opts Options) (*http.Server, error) {
	log := opts.Logger
	if log == nil {
		log = logger.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	templateSub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		return nil, fmt.Errorf("template sub-FS: %w", err)
	}
	staticSub, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("static sub-FS: %w", err)
	}

	h := &Handlers{
		store:    store,
		gw:       gw,
		renderer: NewRenderer(templateSub, opts.Version, log),
		now:      now,
	}

	guard, err := crossOriginGuard(cfg, log)
	if err != nil {
		return nil, err
	}

	logEvents(store, log)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLog(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: append(append([]string{}, extensionOrigins...), cfg.CORSOrigins...),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "HX-Request", "HX-Target"},
		MaxAge:         300,
	}))
	r.Use(guard)
	r.Use(securityHeaders)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/bookmarks", http.StatusFound)
	})

	r.Route("/bookmarks", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Post("/", h.HandleAdd)
		r.Get("/export", h.HandleExport)
		r.Post("/import", h.HandleImport)
		r.Post("/clear", h.HandleClear)
		r.Delete("/{id}", h.HandleDelete)
		r.Post("/{id}/delete", h.HandleDelete)
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/bookmarks", h.HandleAPIList)
		r.Get("/categories", h.HandleAPICategories)
		r.Post("/messages", h.HandleAPIMessage)
	})

	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServerFS(staticSub)))

	return &http.Server{
		Addr:              fmt.Sprintf("%s:%d", opts.Bind, opts.Port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}, nil
}

// crossOriginGuard rejects cross-site state-changing requests so another page
// cannot submit the clear, delete or import forms. Extension origins and
// configured CORS origins are trusted.
func crossOriginGuard(cfg *config.Config, log logger.Logger) (func(http.Handler) http.Handler, error) {
	protection := http.NewCrossOriginProtection()
	for _, origin := range cfg.CORSOrigins {
		if strings.Contains(origin, "*") {
			log.Warn("wildcard CORS origin is not trusted for form submissions", logger.String("origin", origin))
			continue
		}
		if err := protection.AddTrustedOrigin(origin); err != nil {
			return nil, fmt.Errorf("cors origin %q: %w", origin, err)
		}
	}
	protection.SetDenyHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Warn("cross-origin request rejected",
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.String("origin", r.Header.Get("Origin")),
		)
		http.Error(w, "cross-origin request rejected", http.StatusForbidden)
	}))

	return func(next http.Handler) http.Handler {
		protected := protection.Handler(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isExtensionOrigin(r.Header.Get("Origin")) {
				next.ServeHTTP(w, r)
				return
			}
			protected.ServeHTTP(w, r)
		})
	}, nil
}

func isExtensionOrigin(origin string) bool {
	for _, pattern := range extensionOrigins {
		if strings.HasPrefix(origin, strings.TrimSuffix(pattern, "*")) {
			return true
		}
	}
	return false
}

// securityHeaders adds security-related HTTP headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self'; style-src 'self'")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		next.ServeHTTP(w, r)
	})
}

// statusWriter captures status code and bytes written.
type statusWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

// requestLog logs one line per HTTP request.
func requestLog(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &statusWriter{ResponseWriter: w}

			next.ServeHTTP(ww, r)

			log.Info("http_request",
				logger.String("method", r.Method),
				logger.String("path", r.URL.Path),
				logger.Int("status", ww.status),
				logger.Int("bytes", ww.bytes),
				logger.Duration("duration", time.Since(start)),
				logger.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}

// logEvents records store mutations in the server log.
func logEvents(store *vault.Store, log logger.Logger) {
	listener := func(e vault.Event) error {
		switch ev := e.(type) {
		case vault.AddedEvent:
			log.Info(e.Kind().String(),
				logger.Int64("id", ev.Record.ID),
				logger.String("repo", ev.Record.FullName()),
			)
		case vault.DeletedEvent:
			log.Info(e.Kind().String(), logger.Int64("id", ev.ID), logger.Bool("removed", ev.Removed))
		case vault.ClearedEvent:
			log.Info(e.Kind().String(), logger.Int("removed", ev.Removed))
		case vault.ImportedEvent:
			log.Info(e.Kind().String(), logger.Int("added", ev.Added), logger.Int("skipped", ev.Skipped))
		}
		return nil
	}
	for _, kind := range []vault.EventKind{vault.OnAdded, vault.OnDeleted, vault.OnCleared, vault.OnImported} {
		store.Subscribe(kind, listener)
	}
}

// Run starts the HTTP server and handles graceful shutdown on SIGINT/SIGTERM.
func Run(srv *http.Server, log logger.Logger) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	log.Infof("RepoVault UI running at http://%s", srv.Addr)

	if strings.Contains(srv.Addr, "0.0.0.0") || strings.Contains(srv.Addr, "::") {
		log.Warn("server is binding to all interfaces and may be accessible from the network")
	}

	select {
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	case <-sigCh:
		log.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}
