package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nadlan-labs/shuma-cli/internal/fetch"
	"github.com/nadlan-labs/shuma-cli/internal/ingest"
	"github.com/nadlan-labs/shuma-cli/internal/model"
	"github.com/nadlan-labs/shuma-cli/internal/parse"
	"github.com/nadlan-labs/shuma-cli/internal/search"
	"github.com/nadlan-labs/shuma-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		registry, err := initRegistry()
		if err != nil {
			return err
		}

		chain := buildChain(st)
		fetcher := fetch.NewHTTPFetcher(registry, cfg.Fetch.RatePerSec)
		pipeline := ingest.NewPipeline(fetcher, chain, st)
		svc := search.NewService(st)

		r := chi.NewRouter()
		r.Use(middleware.RequestID)
		r.Use(middleware.Recoverer)
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
		}))

		r.Get("/health", handleHealth(chain))
		r.Get("/api/search", handleSearch(svc))
		r.Get("/api/stats", handleStats(st))
		r.Post("/api/ingest", handleIngest(ctx, pipeline))

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
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

func handleHealth(chain *parse.Chain) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":               "ok",
			"strategies":           chain.Stats(),
			"last_winner":          chain.LastWinner(),
			"alert_active":         chain.Monitor().AlertActive(),
			"consecutive_failures": chain.Monitor().ConsecutiveFailures(),
		})
	}
}

func handleSearch(svc *search.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		opts := search.Options{
			Terms:     q["term"],
			Window:    intParam(q.Get("window")),
			Limit:     intParam(q.Get("limit")),
			Year:      intParam(q.Get("year")),
			Appraiser: q.Get("appraiser"),
			CaseType:  q.Get("case_type"),
		}
		if s := q.Get("source"); s != "" {
			source, err := model.ParseSourceCategory(s)
			if err != nil {
				writeError(w, http.StatusBadRequest, err)
				return
			}
			opts.Source = source
		}
		if len(opts.Terms) == 0 {
			writeError(w, http.StatusBadRequest, eris.New("term parameter is required"))
			return
		}

		res, err := svc.Run(r.Context(), opts)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func handleStats(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var filter store.DecisionFilter
		if s := r.URL.Query().Get("source"); s != "" {
			source, err := model.ParseSourceCategory(s)
			if err != nil {
				writeError(w, http.StatusBadRequest, err)
				return
			}
			filter.Source = source
		}

		decisions, err := st.ListDecisions(r.Context(), filter)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"total": len(decisions)})
	}
}

// handleIngest starts an ingest run in the background and returns 202. The
// server context, not the request context, bounds the run.
func handleIngest(ctx context.Context, pipeline *ingest.Pipeline) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Source   string `json:"source"`
			MaxPages int    `json:"max_pages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, eris.Wrap(err, "invalid request body"))
			return
		}
		source, err := model.ParseSourceCategory(req.Source)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		go func() {
			res, err := pipeline.Run(ctx, ingest.Options{Source: source, MaxPages: req.MaxPages})
			if err != nil {
				zap.L().Error("background ingest failed",
					zap.String("source", string(source)),
					zap.Error(err))
				return
			}
			zap.L().Info("background ingest complete",
				zap.String("source", string(source)),
				zap.Int("saved", res.Saved))
		}()

		writeJSON(w, http.StatusAccepted, map[string]string{
			"status": "accepted",
			"source": string(source),
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func intParam(s string) int {
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
