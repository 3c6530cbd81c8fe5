package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFairOdds(t *testing.T) {
	assert.InDelta(t, 2.0, FairOdds(0.5), 1e-9)
	assert.InDelta(t, 4.0, FairOdds(0.25), 1e-9)
	assert.InDelta(t, 1.25, FairOdds(0.8), 1e-9)
}

func TestFairOddsBounds(t *testing.T) {
	assert.Equal(t, MaxFairOdds, FairOdds(0))
	assert.Equal(t, MaxFairOdds, FairOdds(-0.2))
	assert.Equal(t, MaxFairOdds, FairOdds(0.001))
	assert.Equal(t, MinFairOdds, FairOdds(0.9999))
	assert.Equal(t, MinFairOdds, FairOdds(1.0))
}
