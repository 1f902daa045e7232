package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/sells-group/fedreturn/internal/config"
	"github.com/sells-group/fedreturn/internal/report"
	"github.com/sells-group/fedreturn/internal/spending"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve reports over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		port := resolvePort(servePort, cfg.Server.Port)
		cfg.Server.Port = port
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		env, err := initEnv(cfg, false)
		if err != nil {
			return err
		}

		return startServer(ctx, newRouter(env, cfg), port)
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// resolvePort prefers the flag value over the configured port.
func resolvePort(flagPort, cfgPort int) int {
	if flagPort != 0 {
		return flagPort
	}
	return cfgPort
}

const requestIDHeader = "X-Request-ID"

// requestID stamps each request and response with a uuid, keeping one
// supplied by the caller.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
			r.Header.Set(requestIDHeader, id)
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

// reportHandler serves report runs. Runs hold mu for their full duration;
// identical requests that arrive while a run is in flight share its result.
// A shared run is detached from the request that started it, so one client
// disconnecting does not fail the others; the upstream timeout still bounds it.
type reportHandler struct {
	env    *appEnv
	cfg    *config.Config
	mu     sync.Mutex
	flight singleflight.Group
}

func (h *reportHandler) run(ctx context.Context, req report.Request) (*report.Report, bool, error) {
	key := req.District.ID + "|" + req.District.State + "|" + req.Period.String()
	runCtx := context.WithoutCancel(ctx)
	ch := h.flight.DoChan(key, func() (any, error) {
		h.mu.Lock()
		defer h.mu.Unlock()
		return h.env.Runner.Run(runCtx, req)
	})

	select {
	case res := <-ch:
		rep, _ := res.Val.(*report.Report)
		return rep, res.Shared, res.Err
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
}

func newRouter(env *appEnv, c *config.Config) http.Handler {
	h := &reportHandler{env: env, cfg: c}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/districts", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, env.Districts.All())
	})
	r.Get("/report", h.serveReport)
	if env.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", env.Metrics.Handler())
	}

	return r
}

func (h *reportHandler) serveReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req, err := resolveRequest(h.env.Districts, requestParams{
		District: firstNonEmpty(q.Get("district"), h.cfg.District.ID),
		State:    q.Get("state"),
		Start:    firstNonEmpty(q.Get("start"), h.cfg.Period.StartDate),
		End:      firstNonEmpty(q.Get("end"), h.cfg.Period.EndDate),
	})
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	rep, shared, err := h.run(r.Context(), req)

	log := zap.L().With(
		zap.String("request_id", r.Header.Get(requestIDHeader)),
		zap.Bool("shared", shared),
	)

	var fe *spending.FetchError
	var empty *report.EmptyResultError
	switch {
	case errors.Is(err, context.Canceled) && r.Context().Err() != nil:
		log.Info("client went away before report finished")
	case err == nil:
		var buf bytes.Buffer
		if err := report.Render(&buf, report.FormatJSON, rep); err != nil {
			log.Error("render report failed", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "render failed"})
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(buf.Bytes())
	case errors.As(err, &empty):
		writeJSON(w, http.StatusOK, map[string]string{
			"status":  "no_data",
			"message": report.NoDataMessage(req.District.DisplayName()),
		})
	case errors.As(err, &fe):
		log.Warn("report fetch failed", zap.Error(err))
		writeJSON(w, http.StatusBadGateway, map[string]string{
			"error":         fe.Error(),
			"response_body": fe.ResponseText(),
		})
	default:
		log.Error("report failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// startServer serves handler on port until ctx is cancelled.
func startServer(ctx context.Context, handler http.Handler, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		<-ctx.Done()
		zap.L().Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	zap.L().Info("starting server", zap.Int("port", port))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return eris.Wrap(err, "server listen")
	}

	return nil
}
