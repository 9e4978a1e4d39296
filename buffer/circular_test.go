package buffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCircularFill(t *testing.T) {
	assert := assert.New(t)

	c := NewCircularFloat(4)
	assert.Equal(4, c.BufSize)
	assert.False(c.Full())
	assert.Nil(c.FirstHalf())
	assert.Nil(c.SecondHalf())

	_, _, ok := c.HalfMeans()
	assert.False(ok)

	for i := 1; i <= 4; i++ {
		c.Add(float64(i))
	}
	assert.True(c.Full())
	assert.Equal(int64(4), c.TotalSeen)
	assert.Equal(4, c.Count)

	first := []float64{}
	for it := c.FirstHalf(); it.Next(); {
		first = append(first, it.Value())
	}
	assert.Equal([]float64{1, 2}, first)

	second := []float64{}
	for it := c.SecondHalf(); it.Next(); {
		second = append(second, it.Value())
	}
	assert.Equal([]float64{3, 4}, second)
}

func TestCircularWrap(t *testing.T) {
	assert := assert.New(t)

	c := NewCircularFloat(4)
	for i := 1; i <= 7; i++ {
		c.Add(float64(i))
	}

	// Oldest surviving entries are 4,5; newest are 6,7
	f, s, ok := c.HalfMeans()
	assert.True(ok)
	assert.InDelta(4.5, f, 1e-12)
	assert.InDelta(6.5, s, 1e-12)

	assert.Equal(int64(7), c.TotalSeen)
	assert.Equal(4, c.Count)
}

func TestCircularOddSize(t *testing.T) {
	assert := assert.New(t)

	// Odd sizes round down to an even window
	c := NewCircularFloat(5)
	assert.Equal(4, c.BufSize)
}
