package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/importer-intel/internal/export"
	"github.com/sells-group/importer-intel/internal/intel"
	"github.com/sells-group/importer-intel/internal/model"
	"github.com/sells-group/importer-intel/internal/scrape"
	"github.com/sells-group/importer-intel/internal/session"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the importer intelligence HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx, "serve")
		if err != nil {
			return err
		}
		defer env.Close()

		if n, err := env.Store.DeleteExpiredProfiles(ctx); err != nil {
			zap.L().Warn("prune profile cache failed", zap.Error(err))
		} else if n > 0 {
			zap.L().Info("pruned expired profiles", zap.Int("deleted", n))
		}

		router := buildRouter(routerDeps{
			Controller:  env.Controller,
			Breakers:    env.Aggregator.BreakerStates,
			Scrape:      scrape.NewHandler(newPortExaminer(cfg)),
			CORSOrigins: cfg.Server.CORSOrigins,
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			env.Controller.Cancel()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// routerDeps is what buildRouter mounts. Breakers and Scrape may be nil.
type routerDeps struct {
	Controller  *session.Controller
	Breakers    func() map[string]string
	Scrape      http.Handler
	CORSOrigins []string
}

func buildRouter(d routerDeps) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: d.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	h := &apiHandler{ctrl: d.Controller}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		body := map[string]any{"status": "ok"}
		if d.Breakers != nil {
			body["scrapeSources"] = d.Breakers()
		}
		writeJSON(w, http.StatusOK, body)
	})
	if d.Scrape != nil {
		r.Method(http.MethodGet, "/scrape", d.Scrape)
	}

	r.Route("/search", func(r chi.Router) {
		r.Get("/", h.snapshot)
		r.Post("/", h.submit)
		r.Post("/cancel", h.cancel)
		r.Get("/export", h.exportResults)
	})
	r.Post("/importers/{name}/details", h.viewDetails)
	r.Post("/importers/{name}/refresh", h.refreshDetails)
	r.Get("/profile", h.profile)
	r.Get("/profile/export", h.exportProfile)

	r.Get("/subscriptions", h.subscriptions)
	r.Post("/subscriptions", h.subscribe)
	r.Get("/notifications", h.notifications)
	r.Delete("/notifications", h.clearNotifications)
	r.Delete("/notifications/{id}", h.deleteNotification)

	return r
}

type apiHandler struct {
	ctrl *session.Controller
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Debug("write response failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func (h *apiHandler) snapshot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.ctrl.Snapshot())
}

func (h *apiHandler) submit(w http.ResponseWriter, r *http.Request) {
	var f model.SearchFilters
	if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	_, err := h.ctrl.Submit(r.Context(), f)
	switch {
	case errors.Is(err, intel.ErrValidation):
		writeError(w, http.StatusBadRequest, session.MessageValidation)
		return
	case errors.Is(err, session.ErrBusy):
		writeError(w, http.StatusConflict, "a search is already running")
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, session.MessageNetwork)
		return
	}

	snap := h.ctrl.Snapshot()
	writeJSON(w, http.StatusAccepted, map[string]any{
		"status":     "accepted",
		"generation": snap.Generation,
	})
}

func (h *apiHandler) cancel(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"cancelled": h.ctrl.Cancel()})
}

func (h *apiHandler) exportResults(w http.ResponseWriter, r *http.Request) {
	f, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	snap := h.ctrl.Snapshot()
	results := snap.Results
	if r.URL.Query().Get("set") == "similar" {
		results = snap.Similar
	}

	w.Header().Set("Content-Type", f.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "importers."+string(f)))
	if err := export.WriteSummaries(w, f, results); err != nil {
		zap.L().Error("export results failed", zap.Error(err))
	}
}

func importerParam(r *http.Request) (string, bool) {
	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil || name == "" {
		return "", false
	}
	return name, true
}

func (h *apiHandler) viewDetails(w http.ResponseWriter, r *http.Request) {
	name, ok := importerParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid importer name")
		return
	}
	result, err := h.ctrl.ViewDetails(r.Context(), name)
	switch {
	case errors.Is(err, session.ErrUnknownImporter):
		writeError(w, http.StatusNotFound, "importer not in current results")
		return
	case err != nil:
		writeError(w, http.StatusBadGateway, session.MessageProfileFailed)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *apiHandler) refreshDetails(w http.ResponseWriter, r *http.Request) {
	name, ok := importerParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid importer name")
		return
	}
	result, err := h.ctrl.RefreshDetails(r.Context(), name)
	if err != nil {
		writeError(w, http.StatusBadGateway, session.MessageProfileFailed)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *apiHandler) profile(w http.ResponseWriter, _ *http.Request) {
	p := h.ctrl.Profile()
	if p == nil {
		writeError(w, http.StatusNotFound, "no importer selected")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *apiHandler) exportProfile(w http.ResponseWriter, r *http.Request) {
	f, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	p := h.ctrl.Profile()
	if p == nil {
		writeError(w, http.StatusNotFound, "no importer selected")
		return
	}

	w.Header().Set("Content-Type", f.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", f.Filename(p.ParsedData.ImporterName)))
	if err := export.WriteProfile(w, f, *p); err != nil {
		zap.L().Error("export profile failed", zap.String("importer", p.ParsedData.ImporterName), zap.Error(err))
	}
}

func (h *apiHandler) subscriptions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.ctrl.Subscriptions())
}

func (h *apiHandler) subscribe(w http.ResponseWriter, r *http.Request) {
	var req model.Subscription
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	sub, err := h.ctrl.Subscribe(r.Context(), req.CompanyName, req.Email)
	switch {
	case errors.Is(err, intel.ErrValidation):
		writeError(w, http.StatusBadRequest, "companyName and a valid email are required")
		return
	case err != nil:
		zap.L().Error("subscribe failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not save subscription")
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

func (h *apiHandler) notifications(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.ctrl.Notifications())
}

func (h *apiHandler) clearNotifications(w http.ResponseWriter, r *http.Request) {
	if err := h.ctrl.ClearNotifications(r.Context()); err != nil {
		zap.L().Error("clear notifications failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not clear notifications")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *apiHandler) deleteNotification(w http.ResponseWriter, r *http.Request) {
	removed, err := h.ctrl.DeleteNotification(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		zap.L().Error("delete notification failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not delete notification")
		return
	}
	if !removed {
		writeError(w, http.StatusNotFound, "notification not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
