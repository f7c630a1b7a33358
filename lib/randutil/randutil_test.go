package randutil

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRandomSwitch(t *testing.T) {
	pick, err := RandomSwitch(2, 3, 5)
	require.NoError(t, err)

	rndm := rand.New(rand.NewSource(1))
	counts := make([]int, 3)
	const total = 100000
	for range total {
		counts[pick(rndm)]++
	}

	expect := []float64{0.2, 0.3, 0.5}
	for i, count := range counts {
		require.InDelta(t, expect[i], float64(count)/total, 0.01, "index %d", i)
	}
}

func TestRandomSwitchSingle(t *testing.T) {
	pick, err := RandomSwitch(7)
	require.NoError(t, err)
	rndm := rand.New(rand.NewSource(1))
	for range 10 {
		require.Equal(t, 0, pick(rndm))
	}
}

func TestRandomSwitchInvalid(t *testing.T) {
	_, err := RandomSwitch()
	require.Error(t, err)
	_, err = RandomSwitch(1, 0)
	require.Error(t, err)
	_, err = RandomSwitch(1, -2)
	require.Error(t, err)
}
