package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/finlake/warehouse-transfer/clients/redshift"
	"github.com/finlake/warehouse-transfer/lib/batch"
)

// Dataset is one source-to-warehouse movement: extract into a batch, stage it
// in the object store, and describe the merge.
type Dataset interface {
	Name() string
	Extract(ctx context.Context) (*batch.Batch, error)
	Stage(ctx context.Context, extracted *batch.Batch) (redshift.MergeDirective, error)
	SweepStaging(ctx context.Context) (int, error)
}

// Run moves one dataset end to end. The merge runs in a single transaction
// owned here; on any merge failure the transaction is rolled back and the
// staged objects are left in place for inspection. Datasets are expected to be
// run one at a time per target table, since the merge takes no table lock.
func Run(ctx context.Context, warehouse *redshift.Store, dataset Dataset) error {
	extracted, err := dataset.Extract(ctx)
	if err != nil {
		return fmt.Errorf("failed to extract %s: %w", dataset.Name(), err)
	}

	if len(extracted.Columns()) == 0 {
		slog.Info("Nothing extracted, skipping", slog.String("dataset", dataset.Name()))
		return nil
	}

	slog.Info("Extracted dataset",
		slog.String("dataset", dataset.Name()),
		slog.Int("rows", extracted.NumRows()),
		slog.Int("columns", len(extracted.Columns())),
	)

	directive, err := dataset.Stage(ctx, extracted)
	if err != nil {
		return fmt.Errorf("failed to stage %s: %w", dataset.Name(), err)
	}

	tx, err := warehouse.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start tx for %s: %w", dataset.Name(), err)
	}

	if err = warehouse.Merge(ctx, tx, directive, extracted.Columns()); err != nil {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			slog.Warn("Unable to rollback", slog.Any("err", rollbackErr))
		}

		return fmt.Errorf("failed to merge %s: %w", dataset.Name(), err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit merge for %s: %w", dataset.Name(), err)
	}

	slog.Info("Merged dataset", slog.String("dataset", dataset.Name()), slog.String("stageURI", directive.StageURI))

	// The merge is committed; a failed sweep only leaves stale staged objects.
	deleted, err := dataset.SweepStaging(ctx)
	if err != nil {
		slog.Warn("Failed to sweep staging bucket", slog.String("dataset", dataset.Name()), slog.Any("err", err))
		return nil
	}

	slog.Info("Swept staging bucket", slog.String("dataset", dataset.Name()), slog.Int("deleted", deleted))
	return nil
}
