package redshift

import (
	"context"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finlake/warehouse-transfer/lib/db"
)

const stagingTablePattern = `"transactions_staging_[0-9a-f]{12}"`

func newMergeTestStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })
	return NewStore(db.NewStore(mockDB), "IAM_ROLE 'arn:aws:iam::123:role/copy'"), mock
}

func testDirective() MergeDirective {
	return MergeDirective{
		Schema:        "public",
		Table:         "transactions",
		PrimaryKey:    "account_no",
		StageURI:      "s3://finlake-transactions/transactions.csv.gz",
		FormatOptions: "DELIMITER ',' IGNOREHEADER 1 GZIP",
	}
}

func TestMergeDirective_Validate(t *testing.T) {
	assert.NoError(t, testDirective().Validate())

	{
		directive := testDirective()
		directive.Schema = ""
		assert.ErrorContains(t, directive.Validate(), "schema is required")
	}
	{
		directive := testDirective()
		directive.Table = ""
		assert.ErrorContains(t, directive.Validate(), "table is required")
	}
	{
		directive := testDirective()
		directive.PrimaryKey = ""
		assert.ErrorContains(t, directive.Validate(), "primary key is required")
	}
	{
		directive := testDirective()
		directive.StageURI = ""
		assert.ErrorContains(t, directive.Validate(), "stage URI is required")
	}
}

func TestStore_Merge(t *testing.T) {
	store, mock := newMergeTestStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(fmt.Sprintf(`^CREATE TEMPORARY TABLE %s \(LIKE public\."transactions"\);$`, stagingTablePattern)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(fmt.Sprintf(`^COPY %s \("account_no", "date", "balance_amt"\) FROM 's3://finlake-transactions/transactions\.csv\.gz' IAM_ROLE 'arn:aws:iam::123:role/copy' DELIMITER ',' IGNOREHEADER 1 GZIP;$`, stagingTablePattern)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(fmt.Sprintf(`^UPDATE public\."transactions" AS t SET "date" = s\."date", "balance_amt" = s\."balance_amt" FROM %s AS s WHERE t\."account_no" = s\."account_no";$`, stagingTablePattern)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(fmt.Sprintf(`^INSERT INTO public\."transactions" SELECT s\.\* FROM %s AS s LEFT JOIN public\."transactions" AS t ON s\."account_no" = t\."account_no" WHERE t\."account_no" IS NULL;$`, stagingTablePattern)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := store.BeginTx(context.Background(), nil)
	require.NoError(t, err)
	assert.NoError(t, store.Merge(context.Background(), tx, testDirective(), []string{"account_no", "date", "balance_amt"}))
	assert.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Merge_InsertOnly(t *testing.T) {
	store, mock := newMergeTestStore(t)

	// No UPDATE statement is issued.
	mock.ExpectBegin()
	mock.ExpectExec(`^CREATE TEMPORARY TABLE`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`^COPY`).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`^INSERT INTO`).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	directive := testDirective()
	directive.InsertOnly = true

	tx, err := store.BeginTx(context.Background(), nil)
	require.NoError(t, err)
	assert.NoError(t, store.Merge(context.Background(), tx, directive, []string{"account_no", "date", "balance_amt"}))
	assert.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Merge_KeyOnlyBatch(t *testing.T) {
	store, mock := newMergeTestStore(t)

	// A batch holding only the key column skips the UPDATE even when
	// insert-only is not set.
	mock.ExpectBegin()
	mock.ExpectExec(`^CREATE TEMPORARY TABLE`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`^COPY`).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`^INSERT INTO`).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	tx, err := store.BeginTx(context.Background(), nil)
	require.NoError(t, err)
	assert.NoError(t, store.Merge(context.Background(), tx, testDirective(), []string{"account_no"}))
	assert.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Merge_Rerun(t *testing.T) {
	store, mock := newMergeTestStore(t)

	// Merging the same staged data a second time updates the rows in place
	// and the anti-join inserts nothing.
	for _, inserted := range []int64{2, 0} {
		mock.ExpectBegin()
		mock.ExpectExec(`^CREATE TEMPORARY TABLE`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`^COPY`).WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectExec(`^UPDATE`).WillReturnResult(sqlmock.NewResult(0, 2-inserted))
		mock.ExpectExec(`^INSERT INTO`).WillReturnResult(sqlmock.NewResult(0, inserted))
		mock.ExpectCommit()

		tx, err := store.BeginTx(context.Background(), nil)
		require.NoError(t, err)
		assert.NoError(t, store.Merge(context.Background(), tx, testDirective(), []string{"account_no", "date", "balance_amt"}))
		assert.NoError(t, tx.Commit())
	}

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Merge_EmptyStage(t *testing.T) {
	store, mock := newMergeTestStore(t)

	// A staged file with a header but no rows still runs every step; the two
	// DML statements just touch nothing.
	mock.ExpectBegin()
	mock.ExpectExec(`^CREATE TEMPORARY TABLE`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`^COPY`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`^UPDATE`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`^INSERT INTO`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	tx, err := store.BeginTx(context.Background(), nil)
	require.NoError(t, err)
	assert.NoError(t, store.Merge(context.Background(), tx, testDirective(), []string{"account_no", "date", "balance_amt"}))
	assert.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Merge_Invalid(t *testing.T) {
	store, mock := newMergeTestStore(t)

	mock.ExpectBegin()
	tx, err := store.BeginTx(context.Background(), nil)
	require.NoError(t, err)

	{
		directive := testDirective()
		directive.PrimaryKey = ""
		assert.ErrorContains(t, store.Merge(context.Background(), tx, directive, []string{"account_no"}), "invalid merge directive")
	}
	{
		assert.ErrorContains(t, store.Merge(context.Background(), tx, testDirective(), nil), "batch has no columns")
	}
}

func TestStore_Merge_CopyFailure(t *testing.T) {
	store, mock := newMergeTestStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`^CREATE TEMPORARY TABLE`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`^COPY`).WillReturnError(fmt.Errorf(`ERROR: Load into table "transactions_staging_abc" failed. Check 'stl_load_errors' system table for details`))
	mock.ExpectRollback()

	tx, err := store.BeginTx(context.Background(), nil)
	require.NoError(t, err)

	mergeErr := store.Merge(context.Background(), tx, testDirective(), []string{"account_no", "date"})
	assert.ErrorContains(t, mergeErr, "failed to copy staged data")
	assert.True(t, IsLoadFormatError(mergeErr))

	// The caller owns the rollback.
	assert.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}
