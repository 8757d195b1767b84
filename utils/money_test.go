package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToCents(t *testing.T) {
	assert.EqualValues(t, 30000, ToCents(300))
	assert.EqualValues(t, 12346, ToCents(123.456))
	assert.EqualValues(t, 10, ToCents(0.1))
	assert.EqualValues(t, 0, ToCents(0))
	assert.EqualValues(t, -250, ToCents(-2.5))
}

func TestFromCents(t *testing.T) {
	assert.Equal(t, 285.0, FromCents(28500))
	assert.Equal(t, 0.01, FromCents(1))
	assert.Equal(t, 0.0, FromCents(0))
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 857.14, Round2(857.142857))
	assert.Equal(t, 29.69, Round2(29.689999999999998))
	assert.Equal(t, 100.0, Round2(100))
}

func TestSplitCommission(t *testing.T) {
	commission, net := SplitCommission(30000, 0.05)
	assert.EqualValues(t, 1500, commission)
	assert.EqualValues(t, 28500, net)

	t.Run("parts always sum to revenue", func(t *testing.T) {
		rates := []float64{0, 0.05, 0.07, 0.1, 0.15, 0.333, 1}
		for revenue := int64(0); revenue <= 10007; revenue += 97 {
			for _, rate := range rates {
				c, n := SplitCommission(revenue, rate)
				assert.Equal(t, revenue, c+n, "revenue=%d rate=%v", revenue, rate)
				assert.GreaterOrEqual(t, c, int64(0))
				assert.GreaterOrEqual(t, n, int64(0))
			}
		}
	})

	t.Run("rate above one keeps the net at zero", func(t *testing.T) {
		c, n := SplitCommission(10000, 1.5)
		assert.EqualValues(t, 10000, c)
		assert.EqualValues(t, 0, n)
	})

	t.Run("negative rate keeps the commission at zero", func(t *testing.T) {
		c, n := SplitCommission(10000, -0.05)
		assert.EqualValues(t, 0, c)
		assert.EqualValues(t, 10000, n)
	})
}
