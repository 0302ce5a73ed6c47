package batch

import (
	"testing"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/stretchr/testify/assert"
)

func TestRender(t *testing.T) {
	{
		value, err := Render(nil)
		assert.NoError(t, err)
		assert.Empty(t, value)
	}
	{
		value, err := Render("foo")
		assert.NoError(t, err)
		assert.Equal(t, "foo", value)
	}
	{
		value, err := Render(int64(42))
		assert.NoError(t, err)
		assert.Equal(t, "42", value)
	}
	{
		value, err := Render(1234.5)
		assert.NoError(t, err)
		assert.Equal(t, "1234.5", value)
	}
	{
		value, err := Render(true)
		assert.NoError(t, err)
		assert.Equal(t, "true", value)
	}
	{
		ts := time.Date(2023, time.September, 25, 17, 22, 44, 0, time.UTC)
		value, err := Render(ts)
		assert.NoError(t, err)
		assert.Equal(t, "2023-09-25T17:22:44Z", value)
	}
	{
		decimal, _, err := apd.NewFromString("1000.50")
		assert.NoError(t, err)

		value, err := Render(decimal)
		assert.NoError(t, err)
		assert.Equal(t, "1000.50", value)
	}
	{
		_, err := Render(struct{}{})
		assert.ErrorContains(t, err, "unsupported value type")
	}
}
