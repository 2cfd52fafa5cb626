package fixed

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func points(values ...float64) []Point {
	out := make([]Point, 0, len(values))
	for _, v := range values {
		out = append(out, FromFloat64(v))
	}
	return out
}

func TestFixedMath_Mean(t *testing.T) {
	assert.True(t, Mean(nil).IsZero())
	assert.Equal(t, "2", Mean(points(1, 2, 3)).String())
}
