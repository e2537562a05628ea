package entities

import "github.com/shopspring/decimal"

// LoyaltyTier is a benefit level unlocked by cumulative deposits
type LoyaltyTier struct {
	Name      string
	Threshold int64
	Benefits  []string
}

// Tiers ordered by threshold. The first tier must start at 0 so every
// deposit amount maps to a tier.
var loyaltyTiers = []LoyaltyTier{
	{
		Name:      "Hero",
		Threshold: 0,
		Benefits:  []string{"auction access", "full refund on lost auctions"},
	},
	{
		Name:      "Noble",
		Threshold: 50000,
		Benefits:  []string{"auction access", "full refund on lost auctions", "priority support"},
	},
	{
		Name:      "Monarch",
		Threshold: 150000,
		Benefits:  []string{"auction access", "full refund on lost auctions", "priority support", "early access to new lots"},
	},
}

// LoyaltyTiers returns a copy of the tier table
func LoyaltyTiers() []LoyaltyTier {
	out := make([]LoyaltyTier, len(loyaltyTiers))
	copy(out, loyaltyTiers)
	return out
}

// TierStatus is a user's position in the tier table
type TierStatus struct {
	Current   LoyaltyTier
	Next      *LoyaltyTier
	Remaining int64
	// Progress toward Next in [0,1]. 1 at the top tier.
	Progress float64
}

// IsTopTier returns true when there is no further tier to reach
func (s TierStatus) IsTopTier() bool {
	return s.Next == nil
}

// ProgressPercent returns progress as a whole percentage
func (s TierStatus) ProgressPercent() int64 {
	return decimal.NewFromFloat(s.Progress).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// TierFor derives the loyalty tier for a lifetime deposit amount
func TierFor(lifetimeDeposit int64) TierStatus {
	current := loyaltyTiers[0]
	var next *LoyaltyTier

	for i := range loyaltyTiers {
		tier := loyaltyTiers[i]
		if tier.Threshold <= lifetimeDeposit {
			current = tier
			continue
		}
		next = &tier
		break
	}

	if next == nil {
		return TierStatus{Current: current, Progress: 1}
	}

	return TierStatus{
		Current:   current,
		Next:      next,
		Remaining: next.Threshold - lifetimeDeposit,
		Progress:  tierProgress(lifetimeDeposit, next.Threshold),
	}
}

func tierProgress(deposit, threshold int64) float64 {
	if threshold <= 0 {
		return 1
	}
	ratio := decimal.NewFromInt(deposit).Div(decimal.NewFromInt(threshold))
	if ratio.IsNegative() {
		ratio = decimal.Zero
	}
	if ratio.GreaterThan(decimal.NewFromInt(1)) {
		ratio = decimal.NewFromInt(1)
	}
	f, _ := ratio.Round(4).Float64()
	return f
}
