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
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/coverage-cli/internal/arcgis"
	"github.com/sells-group/coverage-cli/internal/coverage"
	"github.com/sells-group/coverage-cli/internal/region"
	"github.com/sells-group/coverage-cli/internal/render"
)

var servePort int

type regionCountJSON struct {
	FIPS   string `json:"fips"`
	Abbr   string `json:"abbr"`
	Name   string `json:"name"`
	Count  int    `json:"count"`
	Failed bool   `json:"failed"`
}

type coverageResponseJSON struct {
	Status  string            `json:"status"`
	Summary coverage.Summary  `json:"summary"`
	Regions []regionCountJSON `json:"regions"`
}

func targetFromRequest(r *http.Request) (arcgis.QueryTarget, error) {
	serviceURL := r.URL.Query().Get("service_url")
	if serviceURL == "" {
		return arcgis.QueryTarget{}, errors.New("service_url is required")
	}
	return arcgis.TargetFor(serviceURL, r.URL.Query().Get("layer_id")), nil
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg}) //nolint:errcheck
}

// analyzeForRequest runs the analyzer and maps its error taxonomy onto
// HTTP: bad input 400, boundary failure 502, superseded 409.
func analyzeForRequest(w http.ResponseWriter, r *http.Request, analyzer *coverage.Analyzer) (coverage.BatchResult, bool) {
	target, err := targetFromRequest(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}

	batch, err := analyzer.Analyze(r.Context(), target, nil)
	if err != nil {
		var bfe *region.BoundaryFetchError
		switch {
		case errors.Is(err, coverage.ErrSuperseded):
			writeJSONError(w, http.StatusConflict, "superseded by a newer analysis")
		case errors.As(err, &bfe):
			writeJSONError(w, http.StatusBadGateway, "state boundaries unavailable, analysis cannot proceed")
		default:
			zap.L().Error("coverage analysis failed", zap.Error(err))
			writeJSONError(w, http.StatusInternalServerError, "analysis failed")
		}
		return nil, false
	}
	return batch, true
}

func newRouter(analyzer *coverage.Analyzer) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet},
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"}) //nolint:errcheck
	})

	r.Get("/api/coverage", func(w http.ResponseWriter, r *http.Request) {
		batch, ok := analyzeForRequest(w, r, analyzer)
		if !ok {
			return
		}

		resp := coverageResponseJSON{
			Status:  render.StatusLine(batch.Summary()),
			Summary: batch.Summary(),
			Regions: make([]regionCountJSON, 0, len(batch)),
		}
		for _, res := range batch {
			resp.Regions = append(resp.Regions, regionCountJSON{
				FIPS:   res.Region.FIPS,
				Abbr:   res.Region.Abbr,
				Name:   res.Region.Name,
				Count:  res.Count,
				Failed: res.Failed(),
			})
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp) //nolint:errcheck
	})

	r.Get("/api/coverage/map.svg", func(w http.ResponseWriter, r *http.Request) {
		batch, ok := analyzeForRequest(w, r, analyzer)
		if !ok {
			return
		}

		out := render.Render(batch)
		w.Header().Set("Content-Type", "image/svg+xml")
		fmt.Fprint(w, out.SVG) //nolint:errcheck
	})

	return r
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve coverage analyses over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initApp(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           newRouter(env.analyzer),
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(context.Background()) //nolint:errcheck
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
