package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTierFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		deposit       int64
		wantTier      string
		wantNext      string
		wantRemaining int64
		wantPercent   int64
	}{
		{"no deposits", 0, "Hero", "Noble", 50000, 0},
		{"halfway to noble", 25000, "Hero", "Noble", 25000, 50},
		{"just below noble", 49000, "Hero", "Noble", 1000, 98},
		{"exactly noble", 50000, "Noble", "Monarch", 100000, 33},
		{"exactly monarch", 150000, "Monarch", "", 0, 100},
		{"beyond monarch", 1000000, "Monarch", "", 0, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			status := TierFor(tt.deposit)
			assert.Equal(t, tt.wantTier, status.Current.Name)
			assert.Equal(t, tt.wantRemaining, status.Remaining)
			assert.Equal(t, tt.wantPercent, status.ProgressPercent())

			if tt.wantNext == "" {
				assert.True(t, status.IsTopTier())
				assert.Nil(t, status.Next)
				return
			}
			require.NotNil(t, status.Next)
			assert.Equal(t, tt.wantNext, status.Next.Name)
			assert.False(t, status.IsTopTier())
		})
	}
}

func TestTierFor_Monotonic(t *testing.T) {
	t.Parallel()

	rank := map[string]int{"Hero": 0, "Noble": 1, "Monarch": 2}
	prev := 0
	for deposit := int64(0); deposit <= 200000; deposit += 2500 {
		got := rank[TierFor(deposit).Current.Name]
		assert.GreaterOrEqual(t, got, prev, "deposit %d", deposit)
		prev = got
	}
}

func TestLoyaltyTiers_ReturnsCopy(t *testing.T) {
	t.Parallel()

	tiers := LoyaltyTiers()
	require.Len(t, tiers, 3)
	assert.Equal(t, int64(0), tiers[0].Threshold)

	tiers[0].Name = "changed"
	assert.Equal(t, "Hero", LoyaltyTiers()[0].Name)
}
