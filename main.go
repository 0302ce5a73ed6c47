package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/getsentry/sentry-go"

	"github.com/finlake/warehouse-transfer/clients/mongodb"
	"github.com/finlake/warehouse-transfer/clients/postgres"
	"github.com/finlake/warehouse-transfer/clients/redshift"
	"github.com/finlake/warehouse-transfer/lib/awslib"
	"github.com/finlake/warehouse-transfer/lib/config"
	"github.com/finlake/warehouse-transfer/lib/logger"
	"github.com/finlake/warehouse-transfer/processes/pipeline"
	"github.com/finlake/warehouse-transfer/sources/trades"
	"github.com/finlake/warehouse-transfer/sources/transactions"
)

func main() {
	settings, err := config.ParseArgs(os.Args[1:], true)
	if err != nil {
		log.Fatalf("Failed to load settings, err: %v", err)
	}

	var sentryDSN string
	if settings.Config.Reporting.Sentry != nil {
		sentryDSN = settings.Config.Reporting.Sentry.DSN
	}

	_logger, usingSentry := logger.NewLogger(settings.VerboseLogging, sentryDSN)
	slog.SetDefault(_logger)
	if usingSentry {
		defer sentry.Flush(2 * time.Second)
	}

	ctx := context.Background()
	cfg := settings.Config

	awsCfg, err := buildAWSConfig(ctx, cfg.S3)
	if err != nil {
		logger.Fatal("Failed to load AWS config", slog.Any("err", err))
	}

	s3Client := awslib.NewS3Client(awsCfg)

	warehouse, err := redshift.LoadStore(cfg.Redshift)
	if err != nil {
		logger.Fatal("Failed to connect to the warehouse", slog.Any("err", err))
	}

	defer warehouse.Close()

	var datasets []pipeline.Dataset
	if settings.Dataset == "" || settings.Dataset == "transactions" {
		relationalStore, err := postgres.LoadStore(cfg.Postgres)
		if err != nil {
			logger.Fatal("Failed to connect to postgres", slog.Any("err", err))
		}

		defer relationalStore.Close()
		datasets = append(datasets, transactions.New(relationalStore, s3Client, cfg.Transactions))
	}

	if settings.Dataset == "" || settings.Dataset == "trades" {
		documentStore, err := mongodb.LoadStore(ctx, cfg.MongoDB)
		if err != nil {
			logger.Fatal("Failed to connect to mongodb", slog.Any("err", err))
		}

		defer documentStore.Close(ctx)
		datasets = append(datasets, trades.New(documentStore, s3Client, cfg.Trades))
	}

	// One dataset at a time; the merge takes no table lock.
	for _, dataset := range datasets {
		if err = pipeline.Run(ctx, warehouse, dataset); err != nil {
			logger.Fatal("Pipeline failed", slog.String("dataset", dataset.Name()), slog.Any("err", err))
		}
	}

	slog.Info("All datasets merged")
}

func buildAWSConfig(ctx context.Context, cfg config.S3) (aws.Config, error) {
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		return awslib.NewStaticCredentialsConfig(ctx, cfg.Region, cfg.AccessKeyID, cfg.SecretAccessKey)
	}

	return awslib.NewDefaultConfig(ctx, cfg.Region)
}
