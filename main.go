package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/example/forum28/config"
	"github.com/example/forum28/logging"
	"github.com/example/forum28/modules/api"
	"github.com/example/forum28/modules/audit"
	"github.com/example/forum28/modules/auth"
	"github.com/example/forum28/modules/forum"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
	"github.com/sirupsen/logrus"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Log)

	// Framework logs stay quiet unless the service logs at info or below.
	monoLevel := mono.LogLevelInfo
	if logger.GetLevel() <= logrus.WarnLevel {
		monoLevel = mono.LogLevelError
	}

	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(shutdownTimeout),
		mono.WithLogLevel(monoLevel),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		logger.WithError(err).Fatal("failed to create application")
	}

	// Order: independent modules first, then dependent modules
	app.Register(auth.NewModule(cfg, logger))
	app.Register(audit.NewModule(logger))
	app.Register(forum.NewModule(cfg, logger))
	app.Register(api.NewModule(cfg, logger))

	if err := app.Start(context.Background()); err != nil {
		logger.WithError(err).Fatal("failed to start application")
	}

	logger.WithFields(logrus.Fields{
		"addr":      cfg.Addr(),
		"db_driver": cfg.Database.Driver,
	}).Info("forum service started")

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				logger.Info("graceful shutdown initiated")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	logger.WithField("exit_code", exitCode).Info("application exited")
	os.Exit(exitCode)
}
