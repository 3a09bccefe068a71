package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/envisage-news/envisage-cli/internal/docstore"
	"github.com/envisage-news/envisage-cli/internal/model"
	"github.com/envisage-news/envisage-cli/internal/window"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the generated web documents over a read-only HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		store, err := docstore.Open(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		r := chi.NewRouter()
		r.Use(middleware.RequestID)
		r.Use(middleware.Recoverer)
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{http.MethodGet},
		}))

		r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Get("/api/windows", func(w http.ResponseWriter, req *http.Request) {
			windows, err := store.ListWindows(req.Context(), docstore.CollectionWeb)
			if err != nil {
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "list windows"})
				return
			}
			writeJSON(w, http.StatusOK, windows)
		})

		r.Get("/api/webview/{window}", func(w http.ResponseWriter, req *http.Request) {
			id, err := window.Parse(chi.URLParam(req, "window"))
			if err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad window id"})
				return
			}
			var doc model.WebDoc
			found, err := store.Get(req.Context(), docstore.CollectionWeb, docstore.WebKey(id), &doc)
			if err != nil {
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "load web view"})
				return
			}
			if !found {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "window not found"})
				return
			}
			writeJSON(w, http.StatusOK, doc)
		})

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
		}

		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("serving web documents", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
