package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"

	"github.com/nvr-ai/go-detect/app"
	"github.com/nvr-ai/go-detect/config"
	"github.com/nvr-ai/go-detect/server"
)

func main() {
	os.Exit(run())
}

// run serves NATS requests until a shutdown signal and returns the process
// exit code.
func run() int {
	a, err := app.New(config.Load())
	if err != nil {
		logrus.WithError(err).Error("Failed to start worker")
		return 1
	}
	defer a.Close()

	a.Log.WithField("url", a.Config.NATSURL).Info("Connecting to nats-server...")
	nc, err := nats.Connect(a.Config.NATSURL, nats.Name("detect-worker"))
	if err != nil {
		a.Log.WithError(err).Error("NATS connect failed")
		return 1
	}
	defer nc.Drain()

	svc, err := server.AddNATSService(nc, a.Config.NATSSubject, a.Service, a.Log)
	if err != nil {
		a.Log.WithError(err).Error("NATS service registration failed")
		return 1
	}
	defer svc.Stop()

	a.Log.WithField("subject", a.Config.NATSSubject).Info("Listening for detection requests")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	a.Log.Info("Shutting down")
	return 0
}
