package utils

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sysu-ecnc-dev/tournament-scheduler/backend/internal/domain"
)

func TestShortNameFromChineseName(t *testing.T) {
	assert.Equal(t, "GZMH", ShortNameFromChineseName("广州猛虎"))
	assert.Equal(t, "", ShortNameFromChineseName("abc"))
}

func TestGenerateRandomTeams(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	teams := GenerateRandomTeams(rng, 30)
	require.Len(t, teams, 30)

	names := make(map[string]bool)
	for i, team := range teams {
		assert.Equal(t, int64(i+1), team.TeamID)
		assert.False(t, names[team.TeamName], "队名重复: %s", team.TeamName)
		names[team.TeamName] = true
		assert.NotEmpty(t, team.ShortName)
	}
}

func TestGenerateRandomTeamsBeyondNameCombinations(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	n := len(cityNames)*len(mascotNames) + 5

	teams := GenerateRandomTeams(rng, n)
	require.Len(t, teams, n)

	names := make(map[string]bool)
	for _, team := range teams {
		assert.False(t, names[team.TeamName])
		names[team.TeamName] = true
	}
}

func TestGenerateRandomConstraints(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	c := GenerateRandomConstraints(rng, ConstraintsOptions{Teams: 6, Venues: 2, Days: 3, TimeSlots: 2, Weeks: 4})
	assert.Len(t, c.Teams, 6)
	assert.Len(t, c.Venues, 2)
	assert.Len(t, c.Days, 3)
	assert.Len(t, c.TimeSlots, 2)
	assert.Equal(t, []string{"第1周", "第2周", "第3周", "第4周"}, c.Weeks)
	require.NotNil(t, c.RestPeriods)
	require.NotNil(t, c.RestPeriods.MinimumHours)
	assert.Contains(t, []float64{24, 48, 72}, *c.RestPeriods.MinimumHours)
	assert.NoError(t, ValidateConstraintLabels(c))

	// 星期保持原有顺序
	last := -1
	for _, day := range c.Days {
		idx := indexOf(weekdayNames, day)
		require.GreaterOrEqual(t, idx, 0)
		assert.Greater(t, idx, last)
		last = idx
	}
}

func TestGenerateRandomConstraintsClampsOptions(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	c := GenerateRandomConstraints(rng, ConstraintsOptions{Days: 100})
	assert.Len(t, c.Teams, 2)
	assert.Len(t, c.Venues, 1)
	assert.Equal(t, weekdayNames, c.Days)
	assert.Len(t, c.TimeSlots, 1)
	assert.Len(t, c.Weeks, 1)
}

func TestGenerateRandomRunParameters(t *testing.T) {
	rng := rand.New(rand.NewSource(3))

	for range 50 {
		p := GenerateRandomRunParameters(rng)
		assert.GreaterOrEqual(t, p.PopulationSize, 20)
		assert.LessOrEqual(t, p.PopulationSize, 100)
		assert.LessOrEqual(t, p.EliteSize, p.PopulationSize)
		assert.GreaterOrEqual(t, p.TournamentSize, 2)
		assert.GreaterOrEqual(t, p.SelectionPressure, 1.0)
		assert.LessOrEqual(t, p.SelectionPressure, 2.0)
		assert.Equal(t, domain.PenaltyWeights{Venue: 1, Rest: 1, Time: 1}, p.Weights)
	}
}

func indexOf(items []string, v string) int {
	for i, item := range items {
		if item == v {
			return i
		}
	}
	return -1
}
