// Package api provides the HTTP server for Stocker.
//
// It exposes the stock collection endpoints used by the browser UI and a
// WebSocket channel that streams refresh progress.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/seenimoa/stocker/internal/config"
	"github.com/seenimoa/stocker/internal/enrich"
	"github.com/seenimoa/stocker/internal/recorder"
	"github.com/seenimoa/stocker/internal/store"
	"github.com/seenimoa/stocker/pkg/models"
)

// Client-facing messages.
const (
	msgMissingSymbol  = "Ingen aktiesymbol angiven"
	msgNoHistory      = "Historisk data inte tillgänglig. Försök igen senare."
	msgFetchFailed    = "Failed to fetch stock data."
	msgSaveFailed     = "Failed to save stock data."
	msgNotFound       = "Stock data not found"
	msgListFailed     = "Something went wrong when getting stocks"
	msgStockAdded     = "Stock added/updated"
	msgUpdateFailed   = "Failed to update stocks."
	msgFolderOpened   = "Folder opened successfully"
	msgFolderOpenFail = "Folder opened, but command returned an error."
)

// StockService is the collection behaviour the handlers depend on.
type StockService interface {
	All(ctx context.Context) (store.Collection, error)
	Add(ctx context.Context, symbol, market string) (*models.StockRecord, error)
	RefreshAll(ctx context.Context, sink store.ProgressSink) (*store.RefreshReport, error)
	RecentRuns(ctx context.Context, limit int) ([]recorder.Run, error)
}

// FolderOpener reveals a directory in the desktop file manager.
type FolderOpener interface {
	Open(ctx context.Context, dir string) error
}

// Options wires a Server.
type Options struct {
	Config  config.APIConfig
	Stocks  StockService
	Opener  FolderOpener
	DataDir string // directory revealed by open-json
	Logger  *zap.Logger
	Version string
}

// Server is the HTTP API server.
type Server struct {
	router  chi.Router
	cfg     config.APIConfig
	stocks  StockService
	opener  FolderOpener
	dataDir string
	log     *zap.Logger
	version string
	wsHub   *WSHub
}

// NewServer creates a configured API server with all routes and middleware.
func NewServer(opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		cfg:     opts.Config,
		stocks:  opts.Stocks,
		opener:  opts.Opener,
		dataDir: opts.DataDir,
		log:     log,
		version: opts.Version,
		wsHub:   NewWSHub(log),
	}
	s.router = s.buildRouter()
	return s
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// Hub returns the WebSocket hub.
func (s *Server) Hub() *WSHub {
	return s.wsHub
}

// ListenAndServe runs the hub and the HTTP server until ctx is done, then
// shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpSrv := &http.Server{
		Addr:        addr,
		Handler:     s.router,
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go s.wsHub.Run(hubCtx)

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", zap.String("addr", addr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	s.log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.log))
	r.Use(middleware.Recoverer)

	// CORS
	origins := []string{"*"}
	if len(s.cfg.CORSOrigins) > 0 {
		origins = s.cfg.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	timeout := s.cfg.RequestTimeout()
	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(timeout))

		r.Get("/health", s.handleHealth)

		r.Get("/api/stocks", s.handleGetStocks)
		r.Post("/api/stocks/add", s.handleAddStock)
		r.Get("/api/stocks/open-json", s.handleOpenJSON)
		r.Get("/api/stocks/refreshes", s.handleRefreshes)
	})

	// Refresh runs to completion regardless of the client, so no timeout.
	r.Post("/api/stocks/update", s.handleUpdateStocks)

	r.Get("/ws", s.handleWebSocket)

	if s.cfg.StaticDir != "" {
		s.mountSPA(r, os.DirFS(s.cfg.StaticDir))
	}

	return r
}

// mountSPA serves a static single-page UI. Unknown paths fall back to
// index.html for client-side routing.
func (s *Server) mountSPA(r chi.Router, distFS fs.FS) {
	fileServer := http.FileServerFS(distFS)

	r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
		rPath := strings.TrimPrefix(r.URL.Path, "/")
		if rPath == "" {
			rPath = "index.html"
		}

		f, err := distFS.Open(rPath)
		if err != nil {
			serveIndexHTML(w, distFS)
			return
		}
		f.Close()

		if rPath == "index.html" || strings.HasSuffix(rPath, ".html") {
			w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		}
		fileServer.ServeHTTP(w, r)
	})
}

func serveIndexHTML(w http.ResponseWriter, distFS fs.FS) {
	data, err := fs.ReadFile(distFS, "index.html")
	if err != nil {
		http.Error(w, "web UI not available", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.WriteHeader(http.StatusOK)
	w.Write(data) //nolint:errcheck
}

// ============================================================
// Request / Response types
// ============================================================

// AddStockRequest is the body for POST /api/stocks/add.
type AddStockRequest struct {
	Symbol string `json:"symbol" validate:"required"`
	Market string `json:"market,omitempty"` // "se" appends .ST
}

var validate = validator.New()

// Validate trims the symbol and checks required fields.
func (r *AddStockRequest) Validate() error {
	r.Symbol = strings.TrimSpace(r.Symbol)
	return validate.Struct(r)
}

// AddStockResponse is returned on a successful add.
type AddStockResponse struct {
	Message string              `json:"message"`
	Stock   *models.StockRecord `json:"stock"`
}

// UpdateResponse is returned by POST /api/stocks/update.
type UpdateResponse struct {
	Message string               `json:"message"`
	Error   string               `json:"error,omitempty"`
	Report  *store.RefreshReport `json:"report,omitempty"`
}

// MessageResponse carries a message and an optional error.
type MessageResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Clients int    `json:"clients"`
}

// ============================================================
// Handlers
// ============================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: s.version,
		Clients: s.wsHub.ClientCount(),
	})
}

func (s *Server) handleGetStocks(w http.ResponseWriter, r *http.Request) {
	c, err := s.stocks.All(r.Context())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, msgNotFound)
			return
		}
		s.log.Error("list stocks failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, MessageResponse{Message: msgListFailed})
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleAddStock(w http.ResponseWriter, r *http.Request) {
	var req AddStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Validate() != nil {
		writeError(w, http.StatusBadRequest, msgMissingSymbol)
		return
	}

	rec, err := s.stocks.Add(r.Context(), req.Symbol, req.Market)
	if err != nil {
		status, msg := addErrorStatus(err)
		s.log.Warn("add stock failed",
			zap.String("symbol", req.Symbol),
			zap.Int("status", status),
			zap.Error(err))
		writeError(w, status, msg)
		return
	}

	writeJSON(w, http.StatusOK, AddStockResponse{Message: msgStockAdded, Stock: rec})
}

// addErrorStatus maps an Add failure to a status code and safe message.
func addErrorStatus(err error) (int, string) {
	var (
		ve *enrich.ValidationError
		we *store.StorageWriteError
	)
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, msgMissingSymbol
	case errors.Is(err, enrich.ErrNoHistory):
		return http.StatusInternalServerError, msgNoHistory
	case errors.As(err, &we):
		return http.StatusInternalServerError, msgSaveFailed
	default:
		return http.StatusInternalServerError, msgFetchFailed
	}
}

func (s *Server) handleUpdateStocks(w http.ResponseWriter, r *http.Request) {
	ctx := context.WithoutCancel(r.Context())

	report, err := s.stocks.RefreshAll(ctx, s.wsHub)
	if err != nil {
		s.log.Error("stock update aborted", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, UpdateResponse{
			Message: msgUpdateFailed,
			Error:   msgSaveFailed,
			Report:  report,
		})
		return
	}
	writeJSON(w, http.StatusOK, UpdateResponse{Message: report.Summary(), Report: report})
}

func (s *Server) handleOpenJSON(w http.ResponseWriter, r *http.Request) {
	if s.opener == nil {
		writeJSON(w, http.StatusOK, MessageResponse{Message: msgFolderOpenFail, Error: "no folder opener configured"})
		return
	}
	if err := s.opener.Open(r.Context(), s.dataDir); err != nil {
		s.log.Warn("open data folder failed", zap.String("dir", s.dataDir), zap.Error(err))
		writeJSON(w, http.StatusOK, MessageResponse{Message: msgFolderOpenFail, Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: msgFolderOpened})
}

func (s *Server) handleRefreshes(w http.ResponseWriter, r *http.Request) {
	limit := recorder.DefaultRecentLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	runs, err := s.stocks.RecentRuns(r.Context(), limit)
	if err != nil {
		s.log.Error("list refreshes failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load refresh history")
		return
	}
	if runs == nil {
		runs = []recorder.Run{}
	}
	writeJSON(w, http.StatusOK, runs)
}

// ============================================================
// Helpers
// ============================================================

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("failed to write JSON response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// requestLogger logs one line per request after it completes.
func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}
				log.Info("http request",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", status),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("duration", time.Since(start)),
					zap.String("request_id", middleware.GetReqID(r.Context())))
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
