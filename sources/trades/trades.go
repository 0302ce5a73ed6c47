package trades

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/finlake/warehouse-transfer/clients/mongodb"
	"github.com/finlake/warehouse-transfer/clients/redshift"
	"github.com/finlake/warehouse-transfer/lib/awslib"
	"github.com/finlake/warehouse-transfer/lib/batch"
	"github.com/finlake/warehouse-transfer/lib/config"
	"github.com/finlake/warehouse-transfer/lib/jsonwriter"
)

// Dataset moves trade documents from the document store into the warehouse.
type Dataset struct {
	store    *mongodb.Store
	s3Client awslib.S3Client
	cfg      config.Trades
}

func New(store *mongodb.Store, s3Client awslib.S3Client, cfg config.Trades) *Dataset {
	return &Dataset{
		store:    store,
		s3Client: s3Client,
		cfg:      cfg,
	}
}

func (d *Dataset) Name() string {
	return "trades"
}

// Extract fetches every trade document and flattens the nested payloads into
// one batch. Column order is the sorted union of flattened keys; rows missing
// a key carry nil there.
func (d *Dataset) Extract(ctx context.Context) (*batch.Batch, error) {
	documents, err := d.store.Find(ctx, d.cfg.Collection, nil)
	if err != nil {
		return nil, err
	}

	var rows []map[string]any
	for _, document := range documents {
		payload, isOk := document["data"].(bson.A)
		if !isOk {
			slog.Warn("Trade document has no data payload, skipping", slog.Any("id", document["_id"]))
			continue
		}

		for _, entry := range payload {
			castEntry, isOk := entry.(bson.M)
			if !isOk {
				return nil, fmt.Errorf("unexpected payload entry type %T", entry)
			}

			rows = append(rows, Flatten(castEntry))
		}
	}

	columnSet := make(map[string]bool)
	for _, row := range rows {
		for column := range row {
			columnSet[column] = true
		}
	}

	columns := make([]string, 0, len(columnSet))
	for column := range columnSet {
		columns = append(columns, column)
	}

	slices.Sort(columns)

	tradesBatch, err := batch.New(columns)
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		values := make([]any, len(columns))
		for i, column := range columns {
			values[i] = row[column]
		}

		if err = tradesBatch.Append(values); err != nil {
			return nil, err
		}
	}

	return tradesBatch, nil
}

// Flatten collapses nested documents into a single level, joining key paths
// with underscores. Arrays are left as-is.
func Flatten(document map[string]any) map[string]any {
	flattened := make(map[string]any)
	for key, value := range document {
		if nested, isOk := value.(bson.M); isOk {
			for nestedKey, nestedValue := range Flatten(nested) {
				flattened[fmt.Sprintf("%s_%s", key, nestedKey)] = nestedValue
			}
		} else {
			flattened[key] = value
		}
	}

	return flattened
}

// Stage serializes the batch as gzipped NDJSON, uploads it to the staging
// bucket, and returns the merge directive pointing at the staged object.
func (d *Dataset) Stage(ctx context.Context, tradesBatch *batch.Batch) (redshift.MergeDirective, error) {
	fp := filepath.Join(os.TempDir(), fmt.Sprintf("trades_%s.json.gz", uuid.NewString()))
	writer, err := jsonwriter.NewGzipWriter(fp)
	if err != nil {
		return redshift.MergeDirective{}, err
	}

	defer func() {
		// Remove the local file regardless of outcome to avoid fs build up.
		if removeErr := os.RemoveAll(fp); removeErr != nil {
			slog.Warn("Failed to delete local staging file", slog.Any("err", removeErr), slog.String("filePath", fp))
		}
	}()

	for rowIdx := range tradesBatch.NumRows() {
		if err = writer.Write(tradesBatch.RowAsMap(rowIdx)); err != nil {
			_ = writer.Close()
			return redshift.MergeDirective{}, fmt.Errorf("failed to write ndjson: %w", err)
		}
	}

	if err = writer.Close(); err != nil {
		return redshift.MergeDirective{}, err
	}

	stageURI, err := d.s3Client.UploadLocalFileToS3(ctx, d.cfg.Bucket, time.Now().UTC().Format("2006-01-02"), fp)
	if err != nil {
		return redshift.MergeDirective{}, fmt.Errorf("failed to upload staged trades: %w", err)
	}

	return redshift.MergeDirective{
		Schema:        d.cfg.Schema,
		Table:         d.cfg.Table,
		PrimaryKey:    d.cfg.PrimaryKey,
		StageURI:      stageURI,
		FormatOptions: "JSON 'auto' GZIP",
		InsertOnly:    d.cfg.InsertOnly,
	}, nil
}

// SweepStaging deletes every staged trades object.
func (d *Dataset) SweepStaging(ctx context.Context) (int, error) {
	return d.s3Client.SweepBucket(ctx, d.cfg.Bucket, "")
}
