package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTimeDecayRatio(t *testing.T) {
	ratio, _ := TimeDecay(0)
	assert.InDelta(t, 1.0, ratio, 1e-9)

	ratio, _ = TimeDecay(45)
	assert.InDelta(t, 0.5, ratio, 1e-9)

	ratio, _ = TimeDecay(90)
	assert.Equal(t, 0.0, ratio)

	// acréscimos não produzem ratio negativo
	ratio, _ = TimeDecay(95)
	assert.Equal(t, 0.0, ratio)
}

func TestTimeDecayIntensity(t *testing.T) {
	cases := []struct {
		minute int
		want   float64
	}{
		{10, 1.0},
		{40, 1.0},
		{41, 1.1},
		{45, 1.1},
		{46, 1.0},
		{60, 1.0},
		{75, 1.0},
		{76, 1.2},
		{90, 1.2},
	}
	for _, c := range cases {
		_, intensity := TimeDecay(c.minute)
		assert.Equal(t, c.want, intensity, "minute %d", c.minute)
	}
}
