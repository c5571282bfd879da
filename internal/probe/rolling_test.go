package probe

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRollingAverageMatchesArithmeticMean(t *testing.T) {
	r := NewRollingAverage(3)
	r.Enqueue(10)
	r.Enqueue(20)
	r.Enqueue(30)
	assert.Equal(t, 20.0, r.Average())

	// a fourth sample evicts the oldest (10), window becomes 20,30,40
	r.Enqueue(40)
	assert.Equal(t, 30.0, r.Average())
	assert.Equal(t, 3, r.Len())
}

func TestRollingAverageEmpty(t *testing.T) {
	r := NewRollingAverage(5)
	assert.Equal(t, 0.0, r.Average())
	assert.Equal(t, 0, r.Len())
}
