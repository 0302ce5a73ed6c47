package transactions

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/google/uuid"

	"github.com/finlake/warehouse-transfer/clients/postgres"
	"github.com/finlake/warehouse-transfer/clients/redshift"
	"github.com/finlake/warehouse-transfer/lib/awslib"
	"github.com/finlake/warehouse-transfer/lib/batch"
	"github.com/finlake/warehouse-transfer/lib/config"
	"github.com/finlake/warehouse-transfer/lib/csvwriter"
)

// columnRenames maps the bank-export headers the source table carries over to
// warehouse-friendly names.
var columnRenames = map[string]string{
	"Account No":          "account_no",
	"DATE":                "date",
	"TRANSACTION DETAILS": "transaction_details",
	"CHIP USED":           "chip_used",
	"VALUE DATE":          "value_date",
	" WITHDRAWAL AMT ":    "withdrawal_amt",
	" DEPOSIT AMT ":       "deposit_amt",
	"BALANCE AMT":         "balance_amt",
}

var (
	dateColumns  = []string{"date", "value_date"}
	moneyColumns = []string{"withdrawal_amt", "deposit_amt", "balance_amt"}
)

// Dataset moves transaction rows from the relational store into the warehouse.
type Dataset struct {
	store    *postgres.Store
	s3Client awslib.S3Client
	cfg      config.Transactions
}

func New(store *postgres.Store, s3Client awslib.S3Client, cfg config.Transactions) *Dataset {
	return &Dataset{
		store:    store,
		s3Client: s3Client,
		cfg:      cfg,
	}
}

func (d *Dataset) Name() string {
	return "transactions"
}

func (d *Dataset) Extract(ctx context.Context) (*batch.Batch, error) {
	transactionsBatch, err := d.store.ReadTable(ctx, d.cfg.SourceSchema, d.cfg.SourceTable)
	if err != nil {
		return nil, err
	}

	if err = Clean(transactionsBatch); err != nil {
		return nil, fmt.Errorf("failed to clean transactions: %w", err)
	}

	return transactionsBatch, nil
}

// Clean renames the bank-export headers, normalizes date columns to ISO and
// strips formatting from money columns. Renames only apply to columns the
// batch actually has, so a source table that was already cleaned passes
// through untouched.
func Clean(transactionsBatch *batch.Batch) error {
	applicableRenames := make(map[string]string)
	columns := transactionsBatch.Columns()
	for oldName, newName := range columnRenames {
		if slices.Contains(columns, oldName) {
			applicableRenames[oldName] = newName
		}
	}

	if err := transactionsBatch.RenameColumns(applicableRenames); err != nil {
		return err
	}

	columns = transactionsBatch.Columns()
	for _, column := range dateColumns {
		if !slices.Contains(columns, column) {
			continue
		}

		if err := transactionsBatch.TransformColumn(column, normalizeDate); err != nil {
			return err
		}
	}

	for _, column := range moneyColumns {
		if !slices.Contains(columns, column) {
			continue
		}

		if err := transactionsBatch.TransformColumn(column, normalizeMoney); err != nil {
			return err
		}
	}

	return nil
}

var dateLayouts = []string{"2-Jan-06", "2006-01-02", time.RFC3339}

func normalizeDate(value any) (any, error) {
	switch castValue := value.(type) {
	case nil:
		return nil, nil
	case time.Time:
		return castValue.UTC().Format(time.DateOnly), nil
	case string:
		trimmed := strings.TrimSpace(castValue)
		if trimmed == "" {
			return nil, nil
		}

		for _, layout := range dateLayouts {
			if parsed, err := time.Parse(layout, trimmed); err == nil {
				return parsed.UTC().Format(time.DateOnly), nil
			}
		}

		return nil, fmt.Errorf("unparseable date: %q", castValue)
	default:
		return nil, fmt.Errorf("unsupported date type %T", value)
	}
}

// normalizeMoney strips whitespace and thousands separators, then round-trips
// the value through a decimal so malformed amounts fail here instead of at
// load time.
func normalizeMoney(value any) (any, error) {
	switch castValue := value.(type) {
	case nil:
		return nil, nil
	case float64, int64:
		return castValue, nil
	case string:
		cleaned := strings.ReplaceAll(strings.TrimSpace(castValue), ",", "")
		if cleaned == "" || cleaned == "nan" {
			return nil, nil
		}

		decimal, _, err := apd.NewFromString(cleaned)
		if err != nil {
			return nil, fmt.Errorf("unparseable amount: %q", castValue)
		}

		return decimal, nil
	default:
		return nil, fmt.Errorf("unsupported amount type %T", value)
	}
}

// Stage serializes the batch as gzipped CSV with a header row, uploads it to
// the staging bucket, and returns the merge directive pointing at the staged
// object.
func (d *Dataset) Stage(ctx context.Context, transactionsBatch *batch.Batch) (redshift.MergeDirective, error) {
	fp := filepath.Join(os.TempDir(), fmt.Sprintf("transactions_%s.csv.gz", uuid.NewString()))
	writer, err := csvwriter.NewGzipWriter(fp)
	if err != nil {
		return redshift.MergeDirective{}, err
	}

	defer func() {
		if removeErr := os.RemoveAll(fp); removeErr != nil {
			slog.Warn("Failed to delete local staging file", slog.Any("err", removeErr), slog.String("filePath", fp))
		}
	}()

	if err = writer.Write(transactionsBatch.Columns()); err != nil {
		_ = writer.Close()
		return redshift.MergeDirective{}, fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, row := range transactionsBatch.Rows() {
		renderedRow := make([]string, len(row))
		for i, value := range row {
			if renderedRow[i], err = batch.Render(value); err != nil {
				_ = writer.Close()
				return redshift.MergeDirective{}, fmt.Errorf("failed to render value: %w", err)
			}
		}

		if err = writer.Write(renderedRow); err != nil {
			_ = writer.Close()
			return redshift.MergeDirective{}, fmt.Errorf("failed to write csv: %w", err)
		}
	}

	if err = writer.Flush(); err != nil {
		_ = writer.Close()
		return redshift.MergeDirective{}, err
	}

	if err = writer.Close(); err != nil {
		return redshift.MergeDirective{}, err
	}

	stageURI, err := d.s3Client.UploadLocalFileToS3(ctx, d.cfg.Bucket, time.Now().UTC().Format("2006-01-02"), fp)
	if err != nil {
		return redshift.MergeDirective{}, fmt.Errorf("failed to upload staged transactions: %w", err)
	}

	return redshift.MergeDirective{
		Schema:        d.cfg.Schema,
		Table:         d.cfg.Table,
		PrimaryKey:    d.cfg.PrimaryKey,
		StageURI:      stageURI,
		FormatOptions: "DELIMITER ',' IGNOREHEADER 1 EMPTYASNULL GZIP",
		InsertOnly:    d.cfg.InsertOnly,
	}, nil
}

// SweepStaging deletes every staged transactions object.
func (d *Dataset) SweepStaging(ctx context.Context) (int, error) {
	return d.s3Client.SweepBucket(ctx, d.cfg.Bucket, "")
}
