package services

// Point-buy cost schedule. Health is flat; stamina is a progressive
// five-tier schedule where every tier of five points costs more per point
// than the one before it.
const (
	HealthPointCost = 200
	StaminaTierSize = 5
)

// StaminaTierRates are points-per-stamina-point for tiers 1-5, 6-10, 11-15,
// 16-20 and 21+. Lower tiers are always fully accounted first.
var StaminaTierRates = []int{100, 200, 300, 400, 500}

// Rank thresholds: cumulative status_spent required before rank-up.
var RankThresholds = map[int]int{ // rank → max spent
	1: 5000,
	2: 10000,
	3: 15000,
	4: 20000,
}

// HealthCost returns the status cost of the given health allocation.
func HealthCost(health int) int {
	if health < 0 {
		return 0
	}
	return health * HealthPointCost
}

// StaminaCost returns the status cost of the given stamina allocation.
// Piecewise linear with strictly increasing marginal cost:
// StaminaCost(12) = 5*100 + 5*200 + 2*300 = 2100.
func StaminaCost(stamina int) int {
	cost := 0
	for tier, rate := range StaminaTierRates {
		lower := tier * StaminaTierSize
		if stamina <= lower {
			break
		}
		inTier := stamina - lower
		if tier < len(StaminaTierRates)-1 && inTier > StaminaTierSize {
			inTier = StaminaTierSize
		}
		cost += inTier * rate
	}
	return cost
}

// BuildCost is the full recomputed cost of a character build. skillCosts is
// the catalog cost of each selected skill — the recomputation always starts
// from an empty skill set, so duplicates never double-charge.
func BuildCost(health, stamina int, skillCosts []int) int {
	total := HealthCost(health) + StaminaCost(stamina)
	for _, c := range skillCosts {
		total += c
	}
	return total
}

// RankForSpent maps cumulative spent status to a rank tier 1..5. Rank is
// driven by status_spent only; ledger grants move total_status and leave
// rank untouched.
func RankForSpent(spent int) int {
	for rank := 1; rank <= 4; rank++ {
		if spent <= RankThresholds[rank] {
			return rank
		}
	}
	return 5
}
