package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nvr-ai/go-detect/app"
	"github.com/nvr-ai/go-detect/config"
	"github.com/nvr-ai/go-detect/server"
)

func main() {
	os.Exit(run())
}

// run serves until a shutdown signal and returns the process exit code.
func run() int {
	a, err := app.New(config.Load())
	if err != nil {
		logrus.WithError(err).Error("Failed to start server")
		return 1
	}
	defer a.Close()

	srv := server.New(a.Service, a.Log)
	httpSrv := &http.Server{
		Addr: a.Config.Addr(),
		Handler: srv.Handler(server.Options{
			CORSOrigins: a.Config.CORSOrigins,
			Metrics:     a.Metrics.Handler(),
			Logger:      a.Log,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown on Ctrl-C / SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(shutdownCtx)
	}()

	a.Log.WithField("addr", httpSrv.Addr).Info("Server started")
	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		a.Log.WithError(err).Error("Server error")
		return 1
	}
	return 0
}
