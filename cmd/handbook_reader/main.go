package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/siddu015/Camply/dbopen"
	"github.com/siddu015/Camply/handbook_ingester"
	"github.com/siddu015/Camply/handbook_reader"
	"github.com/siddu015/Camply/handbook_store"
	"github.com/siddu015/Camply/idgen"
	"github.com/siddu015/Camply/kit"
	"github.com/siddu015/Camply/observability"
)

func main() {
	cfgPath := env("CONFIG", "handbook_reader.yaml")
	logLevel := env("LOG_LEVEL", "info")
	mcpTransport := env("MCP_TRANSPORT", "")

	// Logging.
	var lvl slog.Level
	switch logLevel {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)

	cfg, err := handbook_ingester.LoadConfig(cfgPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			slog.Error("config", "error", err)
			os.Exit(1)
		}
		slog.Warn("config file missing, using defaults", "path", cfgPath)
		cfg = handbook_ingester.DefaultConfig()
	}

	// Signal context.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Handbook DB.
	store, err := handbook_store.Open(cfg.DBPath)
	if err != nil {
		slog.Error("handbook db", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	// Observability DB (separate from app DB to avoid write contention).
	obsDB, err := dbopen.Open(cfg.ObservabilityDBPath, dbopen.WithMkdirAll())
	if err != nil {
		slog.Error("observability db", "error", err)
		os.Exit(1)
	}
	defer obsDB.Close()
	if err := observability.Init(obsDB); err != nil {
		slog.Error("observability schema", "error", err)
		os.Exit(1)
	}

	metrics := observability.NewMetricsManager(obsDB, 100, 5*time.Second)
	defer metrics.Close()
	events := observability.NewEventLogger(obsDB,
		observability.WithEventIDGenerator(idgen.Prefixed("evt_", idgen.Default)),
	)

	// Ingester.
	ing := handbook_ingester.NewIngester(cfg, store,
		handbook_ingester.NewFileStorage(cfg.StorageRoot),
		handbook_ingester.WithLogger(logger),
		handbook_ingester.WithMetrics(metrics),
		handbook_ingester.WithEventLogger(events),
	)

	// Crash recovery: fail rows stuck in processing by a previous run.
	if err := ing.RecoverStaleRuns(); err != nil {
		slog.Error("recovery", "error", err)
		os.Exit(1)
	}

	// Optional MCP stdio transport for conversational clients.
	if mcpTransport == "stdio" {
		mcpSrv := mcp.NewServer(&mcp.Implementation{
			Name:    "handbook-reader",
			Version: "1.0.0",
		}, nil)
		ing.RegisterMCP(mcpSrv)
		go func() {
			if err := mcpSrv.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
				slog.Error("mcp stdio", "error", err)
			}
		}()
	}

	requestIDGen := idgen.Prefixed("req_", idgen.Default)

	r := chi.NewRouter()
	r.Use(requestIDMiddleware(requestIDGen))

	r.Get("/v1/health", func(w http.ResponseWriter, _ *http.Request) {
		stats, err := store.Stats()
		if err != nil {
			writeError(w, 500, err)
			return
		}
		writeJSON(w, 200, map[string]any{"status": "ok", "handbooks": stats})
	})

	r.Route("/v1/handbooks", func(r chi.Router) {
		r.Post("/process", func(w http.ResponseWriter, req *http.Request) {
			var ur handbook_ingester.UploadRequest
			if err := json.NewDecoder(req.Body).Decode(&ur); err != nil {
				writeError(w, 400, err)
				return
			}
			resp, err := ing.StartProcessing(req.Context(), ur)
			if err != nil {
				if errors.Is(err, handbook_ingester.ErrInvalidRequest) {
					writeError(w, 400, err)
					return
				}
				writeError(w, 500, err)
				return
			}
			code := http.StatusAccepted
			if resp.Duplicate {
				code = http.StatusOK
			}
			writeJSON(w, code, resp)
		})

		r.Post("/{handbookID}/process", func(w http.ResponseWriter, req *http.Request) {
			resp, err := ing.ProcessExisting(req.Context(), chi.URLParam(req, "handbookID"))
			if err != nil {
				writeIngestError(w, err)
				return
			}
			writeJSON(w, http.StatusAccepted, resp)
		})

		r.Get("/{handbookID}/status", func(w http.ResponseWriter, req *http.Request) {
			resp, err := ing.PollStatus(req.Context(), chi.URLParam(req, "handbookID"))
			if err != nil {
				writeIngestError(w, err)
				return
			}
			writeJSON(w, 200, resp)
		})

		r.Get("/{handbookID}/sections/{category}", func(w http.ResponseWriter, req *http.Request) {
			id := chi.URLParam(req, "handbookID")
			category, ok := handbook_reader.ParseCategory(chi.URLParam(req, "category"))
			if !ok {
				writeJSON(w, 400, map[string]string{"error": "unknown category"})
				return
			}
			if code, err := requireCompleted(store, id); err != nil {
				writeJSON(w, code, map[string]string{"error": err.Error()})
				return
			}
			section, err := store.GetSection(id, category)
			if err != nil {
				writeError(w, 500, err)
				return
			}
			if section == nil {
				writeJSON(w, 404, map[string]string{"error": "not found"})
				return
			}
			writeJSON(w, 200, section)
		})

		r.Get("/{handbookID}/stats", func(w http.ResponseWriter, req *http.Request) {
			id := chi.URLParam(req, "handbookID")
			if code, err := requireCompleted(store, id); err != nil {
				writeJSON(w, code, map[string]string{"error": err.Error()})
				return
			}
			stats, err := store.HandbookStats(id)
			if err != nil {
				writeError(w, 500, err)
				return
			}
			if stats == nil {
				writeJSON(w, 404, map[string]string{"error": "not found"})
				return
			}
			writeJSON(w, 200, stats)
		})

		r.Get("/{handbookID}/search", func(w http.ResponseWriter, req *http.Request) {
			id := chi.URLParam(req, "handbookID")
			query := req.URL.Query().Get("q")
			if query == "" {
				writeJSON(w, 400, map[string]string{"error": "q is required"})
				return
			}
			if code, err := requireCompleted(store, id); err != nil {
				writeJSON(w, code, map[string]string{"error": err.Error()})
				return
			}
			results, err := store.Search(id, query, queryInt(req, "limit", 5))
			if err != nil {
				writeError(w, 500, err)
				return
			}
			writeJSON(w, 200, map[string]any{"results": results, "count": len(results)})
		})

		r.Delete("/{handbookID}", func(w http.ResponseWriter, req *http.Request) {
			id := chi.URLParam(req, "handbookID")
			h, err := store.GetHandbook(id)
			if err != nil {
				writeError(w, 500, err)
				return
			}
			if h == nil {
				writeJSON(w, 404, map[string]string{"error": "not found"})
				return
			}
			if err := store.DeleteHandbook(id); err != nil {
				writeError(w, 500, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})
	})

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "listen", cfg.Listen)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown", "error", err)
	}
	ing.Wait()
	slog.Info("server stopped")
}

// requireCompleted maps the state machine to HTTP codes for query routes.
func requireCompleted(store *handbook_store.Store, id string) (int, error) {
	h, err := store.GetHandbook(id)
	if err != nil {
		return 500, err
	}
	if h == nil {
		return 404, errors.New("handbook not found")
	}
	if h.ProcessingStatus != handbook_store.StatusCompleted {
		return 409, errors.New("handbook is " + string(h.ProcessingStatus) + ", not completed")
	}
	return 0, nil
}

func writeIngestError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, handbook_ingester.ErrHandbookNotFound):
		writeJSON(w, 404, map[string]string{"error": err.Error()})
	case errors.Is(err, handbook_ingester.ErrAlreadyProcessing),
		errors.Is(err, handbook_ingester.ErrAlreadyCompleted):
		writeJSON(w, 409, map[string]string{"error": err.Error()})
	default:
		writeError(w, 500, err)
	}
}

// requestIDMiddleware tags every request for log correlation.
func requestIDMiddleware(gen idgen.Generator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := gen()
			ctx := kit.WithRequestID(r.Context(), reqID)
			ctx = kit.WithTransport(ctx, "http")
			w.Header().Set("X-Request-ID", reqID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// --- Helpers ---

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func queryInt(r *http.Request, key string, def int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def
	}
	var v int
	for _, c := range s {
		if c < '0' || c > '9' {
			return def
		}
		v = v*10 + int(c-'0')
	}
	return v
}
