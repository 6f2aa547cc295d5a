package scheduler

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sysu-ecnc-dev/tournament-scheduler/backend/internal/domain"
)

func runScheduler(t *testing.T, c domain.Constraints, p Parameters) *Result {
	t.Helper()
	s, err := New(c, p)
	require.NoError(t, err)
	result, err := s.Run(context.Background())
	require.NoError(t, err)
	return result
}

func TestRunFourTeams(t *testing.T) {
	result := runScheduler(t, fourTeamConstraints(), scenarioAParameters())

	// 休息 3 天时四支队伍都要在周一比赛，必然有场馆冲突，永远达不到 0 分
	assert.Equal(t, StopMaxGenerations, result.StopReason)
	assert.Equal(t, 50, result.Generations)
	require.Len(t, result.FitnessTrend, 51)
	assert.Len(t, result.Best, 6)

	for i := 1; i < len(result.FitnessTrend); i++ {
		assert.GreaterOrEqual(t, result.FitnessTrend[i], result.FitnessTrend[i-1])
	}
	assert.Equal(t, result.FitnessTrend[len(result.FitnessTrend)-1], result.Evaluation.Score)
	assert.Less(t, result.Evaluation.Score, 0.0)
	assert.False(t, result.Evaluation.Feasible())
}

func TestRunTwoTeamsAllOperators(t *testing.T) {
	for _, selection := range []SelectionMethod{SelectionTournament, SelectionRankBased} {
		for _, crossover := range []CrossoverMethod{CrossoverOrder, CrossoverPMX} {
			for _, mutation := range []MutationMethod{MutationSwap, MutationAttributeLevel} {
				for _, survivor := range []SurvivorStrategy{SurvivorElitism, SurvivorGenitor} {
					name := fmt.Sprintf("%s/%s/%s/%s", selection, crossover, mutation, survivor)
					t.Run(name, func(t *testing.T) {
						p := DefaultParameters()
						p.PopulationSize = 4
						p.GenerationsSize = 10
						p.TournamentSize = 2
						p.EliteSize = 1
						p.Selection = selection
						p.Crossover = crossover
						p.Mutation = mutation
						p.Survivor = survivor

						result := runScheduler(t, twoTeamConstraints(), p)

						assert.Equal(t, 0.0, result.Evaluation.Score)
						assert.Equal(t, StopOptimal, result.StopReason)
						assert.Equal(t, 0, result.Generations)
						assert.Equal(t, []float64{0}, result.FitnessTrend)
						assert.Len(t, result.Schedule(), 1)
						assert.Contains(t, []int64{1, 2}, result.Schedule()[0].VenueID)
					})
				}
			}
		}
	}
}

// 两支队伍时任何场馆、时间的组合都是 0 分，重新抽取属性会用到两个场馆
func TestTwoTeamsAttributeResamplingStaysOptimal(t *testing.T) {
	cc := mustContext(t, twoTeamConstraints())
	rng := newRand(7)

	ind := randomInitIndividual(rng, cc)
	venues := make(map[int]bool)
	for range 100 {
		ind = attributeLevelMutation(rng, ind, cc, 1)
		require.NoError(t, cc.checkIndividual(ind))
		assert.Equal(t, 0.0, Evaluate(ind, cc).Score)
		venues[ind[0].Venue] = true
	}
	assert.Len(t, venues, 2)
}

func TestRunIsDeterministic(t *testing.T) {
	p := DefaultParameters()
	p.PopulationSize = 30
	p.GenerationsSize = 40
	p.Seed = 1234
	p.Selection = SelectionRankBased
	p.Crossover = CrossoverPMX
	p.Mutation = MutationAttributeLevel

	first := runScheduler(t, largerConstraints(), p)
	second := runScheduler(t, largerConstraints(), p)

	assert.Equal(t, first.Best, second.Best)
	assert.Equal(t, first.FitnessTrend, second.FitnessTrend)
	assert.Equal(t, first.Evaluation, second.Evaluation)
}

func TestRunZeroSeedUsesDefault(t *testing.T) {
	p := scenarioAParameters()
	zero := runScheduler(t, fourTeamConstraints(), p)

	p.Seed = defaultSeed
	explicit := runScheduler(t, fourTeamConstraints(), p)

	assert.Equal(t, zero.Best, explicit.Best)
	assert.Equal(t, zero.FitnessTrend, explicit.FitnessTrend)
}

func TestRunParallelMatchesSequential(t *testing.T) {
	p := DefaultParameters()
	p.PopulationSize = 25
	p.GenerationsSize = 30
	p.Seed = 99

	sequential := runScheduler(t, largerConstraints(), p)

	p.Workers = 4
	parallel := runScheduler(t, largerConstraints(), p)

	assert.Equal(t, sequential.Best, parallel.Best)
	assert.Equal(t, sequential.FitnessTrend, parallel.FitnessTrend)
}

func TestRunKeepsPairsEveryGeneration(t *testing.T) {
	p := DefaultParameters()
	p.PopulationSize = 15
	p.GenerationsSize = 20
	p.Crossover = CrossoverPMX
	p.Mutation = MutationAttributeLevel
	p.MutationRate = 0.5

	s, err := New(largerConstraints(), p)
	require.NoError(t, err)

	generations := 0
	s.OnProgress(func(generation int, bestFitness float64) error {
		generations++
		assert.Equal(t, generations, generation)
		assert.LessOrEqual(t, bestFitness, 0.0)
		return nil
	})

	result, err := s.Run(context.Background())
	require.NoError(t, err)
	require.NoError(t, s.Context().checkIndividual(result.Best))
	assert.Equal(t, result.Generations, generations)
}

func TestRunOddPopulation(t *testing.T) {
	p := scenarioAParameters()
	p.PopulationSize = 7
	p.TournamentSize = 3
	p.EliteSize = 1

	result := runScheduler(t, fourTeamConstraints(), p)
	assert.Len(t, result.FitnessTrend, 51)
}

func TestRunStagnation(t *testing.T) {
	p := scenarioAParameters()
	p.GenerationsSize = 10000
	p.Stagnation = 5
	p.Survivor = SurvivorGenitor

	result := runScheduler(t, fourTeamConstraints(), p)

	assert.Equal(t, StopStagnation, result.StopReason)
	assert.Less(t, result.Generations, 10000)
	tail := result.FitnessTrend[len(result.FitnessTrend)-6:]
	for _, v := range tail {
		assert.Equal(t, tail[0], v)
	}
}

func TestRunZeroGenerations(t *testing.T) {
	p := scenarioAParameters()
	p.GenerationsSize = 0

	result := runScheduler(t, fourTeamConstraints(), p)

	assert.Equal(t, StopMaxGenerations, result.StopReason)
	assert.Len(t, result.FitnessTrend, 1)
}

func TestRunCancelled(t *testing.T) {
	s, err := New(fourTeamConstraints(), scenarioAParameters())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	s.OnProgress(func(generation int, _ float64) error {
		if generation == 3 {
			cancel()
		}
		return nil
	})

	result, err := s.Run(ctx)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunProgressError(t *testing.T) {
	s, err := New(fourTeamConstraints(), scenarioAParameters())
	require.NoError(t, err)

	stop := errors.New("stop")
	s.OnProgress(func(int, float64) error { return stop })

	_, err = s.Run(context.Background())
	assert.ErrorIs(t, err, stop)
}

func TestNewRejectsBadParameters(t *testing.T) {
	tests := []struct {
		name   string
		modify func(p *Parameters)
		target error
	}{
		{"tournament larger than population", func(p *Parameters) { p.TournamentSize = 21 }, ErrConfiguration},
		{"tournament zero", func(p *Parameters) { p.TournamentSize = 0 }, ErrConfiguration},
		{"pressure too high", func(p *Parameters) {
			p.Selection = SelectionRankBased
			p.SelectionPressure = 2.5
		}, ErrConfiguration},
		{"pressure too low", func(p *Parameters) {
			p.Selection = SelectionRankBased
			p.SelectionPressure = 0.5
		}, ErrConfiguration},
		{"elite larger than population", func(p *Parameters) { p.EliteSize = 21 }, ErrConfiguration},
		{"empty population", func(p *Parameters) { p.PopulationSize = 0 }, ErrConfiguration},
		{"negative generations", func(p *Parameters) { p.GenerationsSize = -1 }, ErrConfiguration},
		{"mutation rate", func(p *Parameters) { p.MutationRate = 1.5 }, ErrConfiguration},
		{"zero weight", func(p *Parameters) { p.Weights.Rest = 0 }, ErrConfiguration},
		{"zero threshold", func(p *Parameters) { p.ImbalanceThreshold = 0 }, ErrConfiguration},
		{"unset selection", func(p *Parameters) { p.Selection = 0 }, ErrUnknownStrategy},
		{"unset crossover", func(p *Parameters) { p.Crossover = 0 }, ErrUnknownStrategy},
		{"unset mutation", func(p *Parameters) { p.Mutation = 0 }, ErrUnknownStrategy},
		{"unset survivor", func(p *Parameters) { p.Survivor = 0 }, ErrUnknownStrategy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := scenarioAParameters()
			tt.modify(&p)
			_, err := New(fourTeamConstraints(), p)
			assert.ErrorIs(t, err, tt.target)
		})
	}
}

func TestNewRejectsBadConstraints(t *testing.T) {
	c := fourTeamConstraints()
	c.Venues = nil

	_, err := New(c, scenarioAParameters())
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestParametersFromRun(t *testing.T) {
	rp := domain.RunParameters{
		PopulationSize:    20,
		GenerationsSize:   50,
		SelectionMethod:   "tournament_selection",
		CrossoverMethod:   "PMX_Crossover",
		MutationMethod:    "attribute_level_mutation",
		SurvivorStrategy:  "genitor",
		TournamentSize:    5,
		SelectionPressure: 1.2,
		MutationRate:      0.1,
		Weights:           domain.PenaltyWeights{Venue: 1, Rest: 2, Time: 3},
	}

	p, err := ParametersFromRun(rp)
	require.NoError(t, err)
	assert.Equal(t, SelectionTournament, p.Selection)
	assert.Equal(t, CrossoverPMX, p.Crossover)
	assert.Equal(t, MutationAttributeLevel, p.Mutation)
	assert.Equal(t, SurvivorGenitor, p.Survivor)
	assert.Equal(t, Weights{Venue: 1, Rest: 2, Time: 3}, p.Weights)

	for _, modify := range []func(rp *domain.RunParameters){
		func(rp *domain.RunParameters) { rp.SelectionMethod = "roulette" },
		func(rp *domain.RunParameters) { rp.CrossoverMethod = "uniform" },
		func(rp *domain.RunParameters) { rp.MutationMethod = "" },
		func(rp *domain.RunParameters) { rp.SurvivorStrategy = "steady_state" },
	} {
		bad := rp
		modify(&bad)
		_, err := ParametersFromRun(bad)
		assert.ErrorIs(t, err, ErrUnknownStrategy)
	}
}

func TestParseStrategyNames(t *testing.T) {
	for _, name := range []string{"order", "order_crossover"} {
		m, err := ParseCrossoverMethod(name)
		require.NoError(t, err)
		assert.Equal(t, CrossoverOrder, m)
		assert.Equal(t, "order", m.String())
	}

	s, err := ParseSelectionMethod("rank_based_selection")
	require.NoError(t, err)
	assert.Equal(t, "rank_based", s.String())

	assert.Equal(t, "SurvivorStrategy(0)", SurvivorStrategy(0).String())
}
