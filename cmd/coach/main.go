package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/FELMONON/ai-speech-coach/internal/clientws"
	"github.com/FELMONON/ai-speech-coach/internal/config"
	"github.com/FELMONON/ai-speech-coach/internal/health"
	"github.com/FELMONON/ai-speech-coach/internal/history"
	"github.com/FELMONON/ai-speech-coach/internal/session"
)

func main() {
	// Load .env file if present (ignored if missing)
	_ = godotenv.Load()

	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var recorder history.Recorder = history.Noop{}
	var db health.Pinger
	if cfg.Database.URL != "" {
		pg, err := history.NewPostgresRecorder(ctx, cfg.Database.URL)
		if err != nil {
			log.Printf("[main] database unavailable, continuing without persistence: %v", err)
		} else {
			recorder = pg
			db = pg
		}
	}

	reg := session.NewRegistry()
	wss := clientws.NewServer(cfg, reg, recorder)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", health.Handler(cfg, db))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("/ws/session/{session_id}", wss.HandleSessionWS)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           logMiddleware(mux),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("[main] listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Printf("[main] shutdown signal received; draining")
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(sctx)
		recorder.Close()
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Println("server error:", err)
		os.Exit(1)
	}
}

func logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}
