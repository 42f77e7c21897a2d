package ingest

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateTick_RequiresSymbol(t *testing.T) {
	err := validateTick(&Tick{Symbol: "", Price: 1, Volume: 1})
	require.Error(t, err)
	require.Contains(t, err.Error(), "symbol is required")
}

func TestValidateTick_RejectsNegativePriceAndVolume(t *testing.T) {
	err := validateTick(&Tick{Symbol: "600000.SH", Price: -1, Volume: -1})
	require.Error(t, err)
	require.Contains(t, err.Error(), "price must be >= 0")
	require.Contains(t, err.Error(), "volume must be >= 0")
}

func TestValidateTick_AcceptsWellFormedTick(t *testing.T) {
	err := validateTick(&Tick{Symbol: "600000.SH", Price: 10.5, Volume: 100})
	require.NoError(t, err)
}
