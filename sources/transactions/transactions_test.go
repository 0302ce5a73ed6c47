package transactions

import (
	"testing"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finlake/warehouse-transfer/lib/batch"
)

func TestClean(t *testing.T) {
	transactionsBatch, err := batch.New([]string{
		"Account No", "DATE", "TRANSACTION DETAILS", "CHIP USED", "VALUE DATE",
		" WITHDRAWAL AMT ", " DEPOSIT AMT ", "BALANCE AMT",
	})
	require.NoError(t, err)
	require.NoError(t, transactionsBatch.Append([]any{
		"409000611074", "29-Jun-17", "TRF FROM Indiaforensic SERVICES", "Y", "29-Jun-17",
		nil, " 1,000,000.00 ", " 1,000,000.00 ",
	}))

	require.NoError(t, Clean(transactionsBatch))

	assert.Equal(t, []string{
		"account_no", "date", "transaction_details", "chip_used", "value_date",
		"withdrawal_amt", "deposit_amt", "balance_amt",
	}, transactionsBatch.Columns())

	row := transactionsBatch.Rows()[0]
	assert.Equal(t, "2017-06-29", row[1])
	assert.Nil(t, row[5])

	deposit, isOk := row[6].(*apd.Decimal)
	require.True(t, isOk)
	assert.Equal(t, "1000000.00", deposit.Text('f'))
}

func TestClean_AlreadyCleanedColumns(t *testing.T) {
	// A source table with warehouse-friendly names passes through.
	transactionsBatch, err := batch.New([]string{"account_no", "date", "balance_amt"})
	require.NoError(t, err)
	require.NoError(t, transactionsBatch.Append([]any{"409000611074", "2017-06-29", "85.07"}))

	require.NoError(t, Clean(transactionsBatch))
	assert.Equal(t, []string{"account_no", "date", "balance_amt"}, transactionsBatch.Columns())
	assert.Equal(t, "2017-06-29", transactionsBatch.Rows()[0][1])
}

func TestNormalizeDate(t *testing.T) {
	{
		value, err := normalizeDate(nil)
		assert.NoError(t, err)
		assert.Nil(t, value)
	}
	{
		value, err := normalizeDate("29-Jun-17")
		assert.NoError(t, err)
		assert.Equal(t, "2017-06-29", value)
	}
	{
		value, err := normalizeDate(time.Date(2017, time.June, 29, 10, 30, 0, 0, time.UTC))
		assert.NoError(t, err)
		assert.Equal(t, "2017-06-29", value)
	}
	{
		value, err := normalizeDate("  ")
		assert.NoError(t, err)
		assert.Nil(t, value)
	}
	{
		_, err := normalizeDate("not a date")
		assert.ErrorContains(t, err, `unparseable date: "not a date"`)
	}
	{
		_, err := normalizeDate(12345)
		assert.ErrorContains(t, err, "unsupported date type int")
	}
}

func TestNormalizeMoney(t *testing.T) {
	{
		value, err := normalizeMoney(nil)
		assert.NoError(t, err)
		assert.Nil(t, value)
	}
	{
		value, err := normalizeMoney(" 1,000,000.00 ")
		require.NoError(t, err)
		decimal, isOk := value.(*apd.Decimal)
		require.True(t, isOk)
		assert.Equal(t, "1000000.00", decimal.Text('f'))
	}
	{
		// Pandas-style NaN strings become NULL.
		value, err := normalizeMoney("nan")
		assert.NoError(t, err)
		assert.Nil(t, value)
	}
	{
		value, err := normalizeMoney(85.07)
		assert.NoError(t, err)
		assert.Equal(t, 85.07, value)
	}
	{
		_, err := normalizeMoney("1,0,0x")
		assert.ErrorContains(t, err, `unparseable amount: "1,0,0x"`)
	}
}
