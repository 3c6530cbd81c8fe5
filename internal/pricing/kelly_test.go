package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var staking = Staking{Fraction: 0.25, MaxStake: 0.05}

func TestStakeFractionZeroWithoutEdge(t *testing.T) {
	// odds justas para a probabilidade: edge implícito zero
	assert.Equal(t, 0.0, staking.StakeFraction(0.5, 2.0))

	// odds abaixo do justo: edge negativo
	assert.Equal(t, 0.0, staking.StakeFraction(0.5, 1.8))
}

func TestStakeFractionDegenerateInputs(t *testing.T) {
	assert.Equal(t, 0.0, staking.StakeFraction(0.5, 1.0))
	assert.Equal(t, 0.0, staking.StakeFraction(0.5, 1.01))
	assert.Equal(t, 0.0, staking.StakeFraction(0, 2.5))
	assert.Equal(t, 0.0, staking.StakeFraction(-0.1, 2.5))
	assert.Equal(t, 0.0, staking.StakeFraction(1.0, 2.5))
}

func TestStakeFractionFractionalKelly(t *testing.T) {
	// p=0.55, odds 2.0: Kelly cheio = (1*0.55 - 0.45)/1 = 0.10; 25% => 0.025
	assert.InDelta(t, 0.025, staking.StakeFraction(0.55, 2.0), 1e-9)
}

func TestStakeFractionCap(t *testing.T) {
	// edge enorme estoura o teto de 5%
	got := staking.StakeFraction(0.9, 3.0)
	assert.Equal(t, 0.05, got)
}

func TestStakeFractionMonotonicInProbability(t *testing.T) {
	const odds = 2.4
	prev := 0.0
	for p := 0.05; p < 1.0; p += 0.01 {
		cur := staking.StakeFraction(p, odds)
		assert.GreaterOrEqual(t, cur, prev, "p=%v", p)
		prev = cur
	}
}
