package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gofrs/flock"

	"photodup/internal/config"
	"photodup/internal/index"
	"photodup/internal/logging"
	"photodup/internal/trash"
)

//go:embed static
var staticFS embed.FS

// Server serves the review API and UI for one photo root.
type Server struct {
	bind      string
	root      string
	pageSize  int
	permanent bool
	catalog   *index.Catalog
	bin       *trash.Bin
	logger    *slog.Logger

	lockPath string
	lock     *flock.Flock

	listener net.Listener
	server   *http.Server
}

// New constructs a server bound to the configured address.
func New(cfg *config.Config, catalog *index.Catalog, bin *trash.Bin, logger *slog.Logger) (*Server, error) {
	if cfg == nil || catalog == nil || bin == nil {
		return nil, errors.New("server requires config, catalog, and trash bin")
	}

	lockPath := cfg.LockPath()
	srv := &Server{
		bind:      cfg.Paths.APIBind,
		root:      cfg.Paths.Root,
		pageSize:  cfg.Review.PageSize,
		permanent: cfg.Review.PermanentDelete,
		catalog:   catalog,
		bin:      bin,
		logger:   logging.WithComponent(logger, "server"),
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}

	static, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("embedded static assets: %w", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/pairs", srv.handlePairs)
	mux.HandleFunc("/api/current", srv.handleCurrent)
	mux.HandleFunc("/api/skip", srv.handleSkip)
	mux.HandleFunc("/api/delete", srv.handleDelete)
	mux.HandleFunc("/api/undo", srv.handleUndo)
	mux.HandleFunc("/api/subfolders", srv.handleSubfolders)
	mux.HandleFunc("/api/set-subfolder", srv.handleSetSubfolder)
	mux.HandleFunc("/api/status", srv.handleStatus)
	mux.HandleFunc("/img/", srv.handleImage)
	mux.Handle("/", http.FileServer(http.FS(static)))

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

// Handler exposes the routed handler for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start acquires the reviewer lock, binds the listener, and serves until ctx
// is cancelled.
func (s *Server) Start(ctx context.Context) error {
	ok, err := s.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("another reviewer already holds %s", s.lockPath)
	}

	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		_ = s.lock.Unlock()
		return fmt.Errorf("listen %s: %w", s.bind, err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("review server listening",
		logging.String("address", listener.Addr().String()),
		logging.String("lock", s.lockPath),
	)
	return nil
}

// Addr returns the bound listener address, or "" before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts the server down and releases the reviewer lock.
func (s *Server) Stop() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.server.Shutdown(shutdownCtx)
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
	if err := s.lock.Unlock(); err != nil {
		s.logger.Warn("failed to release reviewer lock", logging.Error(err))
	}
}
