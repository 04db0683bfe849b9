package main

import (
	"encoding/json"
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

	"github.com/sells-group/fieldsight/internal/report"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the resolution reports over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		r := buildRouter(newEngine(st))

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
		}

		// Graceful shutdown
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

func buildRouter(engine *report.Engine) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet},
	}))

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/reports/{kind}", func(w http.ResponseWriter, req *http.Request) {
		serveReport(w, req, engine)
	})
	return r
}

func serveReport(w http.ResponseWriter, req *http.Request, engine *report.Engine) {
	ctx := req.Context()
	kind := chi.URLParam(req, "kind")

	var (
		payload any
		err     error
	)
	switch kind {
	case "sales":
		payload, err = engine.SalesBySalesperson(ctx)
	case "customers":
		payload, err = engine.CustomerTransactions(ctx)
	case "products":
		payload, err = engine.ProductSales(ctx)
	case "plans":
		payload, err = engine.PlansBySalesperson(ctx)
	case "visits":
		payload, err = engine.ReportsBySalesperson(ctx)
	case "customer-visits":
		payload, err = engine.VisitsByCustomer(ctx)
	case "clinic-visits":
		payload, err = engine.VisitsByClinic(ctx)
	case "scorecard":
		payload, err = engine.Scorecard(ctx)
	case "best":
		var from, to time.Time
		if from, to, err = queryRange(req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		payload, err = engine.BestPerformers(ctx, from, to)
	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown report " + kind})
		return
	}

	if err != nil {
		zap.L().Error("report pass failed",
			zap.String("kind", kind),
			zap.String("request_id", middleware.GetReqID(ctx)),
			zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "report failed"})
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

func queryRange(req *http.Request) (from, to time.Time, err error) {
	if v := req.URL.Query().Get("from"); v != "" {
		if from, err = time.Parse(time.DateOnly, v); err != nil {
			return from, to, eris.Wrap(err, "parse from")
		}
	}
	if v := req.URL.Query().Get("to"); v != "" {
		if to, err = time.Parse(time.DateOnly, v); err != nil {
			return from, to, eris.Wrap(err, "parse to")
		}
	}
	return from, to, nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
