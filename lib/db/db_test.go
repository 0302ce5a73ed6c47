package db

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSleepWithContext(t *testing.T) {
	{
		// A cancelled context cuts the backoff short.
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		start := time.Now()
		assert.ErrorIs(t, sleepWithContext(ctx, time.Minute), context.Canceled)
		assert.Less(t, time.Since(start), time.Second)
	}
	{
		assert.NoError(t, sleepWithContext(context.Background(), time.Millisecond))
	}
}
