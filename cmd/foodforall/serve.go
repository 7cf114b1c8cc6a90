package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"foodforall/internal/payments"
	"foodforall/internal/server"
	"foodforall/internal/storage"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var serveCommand = &cli.Command{
	Name:   "serve",
	Usage:  "Start the HTTP server",
	Action: serve,
}

func serve(cCtx *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	config, err := loadConfig(cCtx.String("env-prefix"))
	if err != nil {
		return err
	}

	if !config.IsProduction() {
		logger.SetLevel(logrus.DebugLevel)
	}

	if config.CookieHashKey == "" {
		logger.Warn("COOKIE_HASH_KEY is not set; identity cookies will not survive a restart")
	}

	repos, err := openStores(ctx, config, logger)
	if err != nil {
		return err
	}
	defer repos.close()

	var images server.ImageStore
	if config.ImageBucket != "" {
		awsConfig, err := loadAWSConfig(ctx)
		if err != nil {
			return err
		}
		images = storage.NewS3Storage(s3.NewFromConfig(awsConfig), config.ImageBucket, config.ImagePublicBaseURL)
		logger.WithField("bucket", config.ImageBucket).Info("image uploads enabled")
	}

	var donations server.PaymentProvider
	if config.StripeSecretKey != "" {
		donations = payments.NewStripeProvider(config.StripeSecretKey, config.DonationCurrency)
		logger.WithField("currency", config.DonationCurrency).Info("donations enabled")
	}

	srv, err := server.New(
		config,
		logger,
		repos.foods,
		repos.requests,
		repos.users,
		images,
		donations,
	)
	if err != nil {
		return err
	}

	go func() {
		logger.WithFields(logrus.Fields{
			"port":   config.ServerPort,
			"driver": config.StoreDriver,
		}).Infof("server starting http://localhost:%d", config.ServerPort)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Stop(shutdownCtx)
}
