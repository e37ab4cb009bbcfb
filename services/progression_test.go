package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHealthCost(t *testing.T) {
	assert.Equal(t, 0, HealthCost(0))
	assert.Equal(t, 200, HealthCost(1))
	assert.Equal(t, 400, HealthCost(2))
	assert.Equal(t, 0, HealthCost(-3))
}

func TestStaminaCost(t *testing.T) {
	cases := []struct {
		stamina int
		want    int
	}{
		{0, 0},
		{1, 100},
		{5, 500},
		{6, 700},
		{8, 1100},
		{10, 1500},
		{12, 2100},
		{15, 3000},
		{16, 3400},
		{20, 5000},
		{21, 5500},
		{25, 7500},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, StaminaCost(tc.stamina), "stamina=%d", tc.stamina)
	}
}

func TestStaminaCostMonotonic(t *testing.T) {
	prev := 0
	for stamina := 1; stamina <= 40; stamina++ {
		cost := StaminaCost(stamina)
		assert.Greater(t, cost, prev, "cost must strictly increase at stamina=%d", stamina)
		prev = cost
	}
}

func TestBuildCost(t *testing.T) {
	// health 2 = 400, stamina 8 = 1100, one 1000-point skill
	assert.Equal(t, 2500, BuildCost(2, 8, []int{1000}))
	assert.Equal(t, 0, BuildCost(0, 0, nil))
}

func TestRankForSpent(t *testing.T) {
	cases := []struct {
		spent int
		want  int
	}{
		{0, 1},
		{5000, 1},
		{5001, 2},
		{10000, 2},
		{10001, 3},
		{15000, 3},
		{15001, 4},
		{20000, 4},
		{20001, 5},
		{100000, 5},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, RankForSpent(tc.spent), "spent=%d", tc.spent)
	}
}
