package main

import (
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
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/collectorvault/appraise/internal/model"
	"github.com/collectorvault/appraise/internal/store"
	"github.com/collectorvault/appraise/internal/valuation"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the valuation HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEngine(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		r := chi.NewRouter()
		r.Use(middleware.RequestID)
		r.Use(middleware.RealIP)
		r.Use(middleware.Recoverer)
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
		}))

		r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Route("/api/items", func(r chi.Router) {
			r.Post("/", handleCreateItem(env.Store))
			r.Get("/", handleListItems(env.Store))
			r.Post("/{id}/value", handleRefresh(env.Engine))
			r.Get("/{id}/value", handleConsolidated(env.Engine))
			r.Post("/{id}/link", handleLink(env.Engine))
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func handleCreateItem(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Title     string `json:"title"`
			Category  string `json:"category"`
			Condition string `json:"condition"`
			CatalogID string `json:"catalog_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Title == "" {
			writeError(w, http.StatusBadRequest, "title is required")
			return
		}

		item, err := st.CreateItem(r.Context(), model.Item{
			Title:     req.Title,
			Category:  model.ParseCategory(req.Category),
			Condition: model.ParseCondition(req.Condition),
			CatalogID: req.CatalogID,
		})
		if err != nil {
			zap.L().Error("create item failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "create failed")
			return
		}
		writeJSON(w, http.StatusCreated, item)
	}
}

func handleListItems(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := store.ItemFilter{}
		if c := r.URL.Query().Get("category"); c != "" {
			filter.Category = model.ParseCategory(c)
		}
		items, err := st.ListItems(r.Context(), filter)
		if err != nil {
			zap.L().Error("list items failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "list failed")
			return
		}
		writeJSON(w, http.StatusOK, items)
	}
}

func handleRefresh(engine *valuation.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID := chi.URLParam(r, "id")
		result, err := engine.RefreshValuation(r.Context(), itemID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				writeError(w, http.StatusNotFound, "item not found")
				return
			}
			zap.L().Error("refresh valuation failed", zap.String("item", itemID), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "valuation failed")
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func handleConsolidated(engine *valuation.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID := chi.URLParam(r, "id")
		result, err := engine.GetConsolidatedValuation(r.Context(), itemID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				writeError(w, http.StatusNotFound, "item not found")
				return
			}
			zap.L().Error("get valuation failed", zap.String("item", itemID), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "valuation failed")
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func handleLink(engine *valuation.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID := chi.URLParam(r, "id")
		var req struct {
			CatalogID     string `json:"catalog_id"`
			Name          string `json:"name"`
			SecondaryName string `json:"secondary_name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.CatalogID == "" {
			writeError(w, http.StatusBadRequest, "catalog_id is required")
			return
		}

		err := engine.LinkCatalogEntry(r.Context(), itemID, req.CatalogID, req.Name, req.SecondaryName)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				writeError(w, http.StatusNotFound, "item not found")
				return
			}
			zap.L().Error("link failed", zap.String("item", itemID), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "link failed")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "linked", "catalog_id": req.CatalogID})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
