package scheduler

import (
	"fmt"

	"github.com/sysu-ecnc-dev/tournament-scheduler/backend/internal/domain"
)

// ParametersFromRun 把持久化的任务参数解析成算法参数，算子名称只在这里解析一次
func ParametersFromRun(rp domain.RunParameters) (Parameters, error) {
	selection, err := ParseSelectionMethod(rp.SelectionMethod)
	if err != nil {
		return Parameters{}, err
	}
	crossover, err := ParseCrossoverMethod(rp.CrossoverMethod)
	if err != nil {
		return Parameters{}, err
	}
	mutation, err := ParseMutationMethod(rp.MutationMethod)
	if err != nil {
		return Parameters{}, err
	}
	survivor, err := ParseSurvivorStrategy(rp.SurvivorStrategy)
	if err != nil {
		return Parameters{}, err
	}

	return Parameters{
		PopulationSize:    rp.PopulationSize,
		GenerationsSize:   rp.GenerationsSize,
		Selection:         selection,
		Crossover:         crossover,
		Mutation:          mutation,
		Survivor:          survivor,
		EliteSize:         rp.EliteSize,
		TournamentSize:    rp.TournamentSize,
		SelectionPressure: rp.SelectionPressure,
		MutationRate:      rp.MutationRate,
		Seed:              rp.Seed,
		Stagnation:        rp.Stagnation,
		Weights: Weights{
			Venue: rp.Weights.Venue,
			Rest:  rp.Weights.Rest,
			Time:  rp.Weights.Time,
		},
		ImbalanceThreshold:  rp.ImbalanceThreshold,
		VenueConflictsByDay: rp.VenueConflictsByDay,
	}, nil
}

func validateParameters(p Parameters) error {
	switch {
	case p.PopulationSize < 1:
		return fmt.Errorf("%w: 种群大小 %d 必须大于 0", ErrConfiguration, p.PopulationSize)
	case p.GenerationsSize < 0:
		return fmt.Errorf("%w: 迭代次数 %d 不能为负数", ErrConfiguration, p.GenerationsSize)
	case p.MutationRate < 0 || p.MutationRate > 1:
		return fmt.Errorf("%w: 变异概率 %v 不在 [0, 1] 范围内", ErrConfiguration, p.MutationRate)
	case p.Stagnation < 0:
		return fmt.Errorf("%w: 停滞代数 %d 不能为负数", ErrConfiguration, p.Stagnation)
	case p.ImbalanceThreshold < 1:
		return fmt.Errorf("%w: 时段不均衡阈值 %d 必须大于 0", ErrConfiguration, p.ImbalanceThreshold)
	case p.Weights.Venue <= 0 || p.Weights.Rest <= 0 || p.Weights.Time <= 0:
		// 权重为 0 时有违规的赛程也能得到 0 分
		return fmt.Errorf("%w: 惩罚权重必须大于 0 %+v", ErrConfiguration, p.Weights)
	case p.Workers < 0:
		return fmt.Errorf("%w: 并行数 %d 不能为负数", ErrConfiguration, p.Workers)
	}

	switch p.Selection {
	case SelectionTournament:
		if p.TournamentSize < 1 || p.TournamentSize > p.PopulationSize {
			return fmt.Errorf("%w: 锦标赛规模 %d 不在 [1, %d] 范围内", ErrConfiguration, p.TournamentSize, p.PopulationSize)
		}
	case SelectionRankBased:
		if p.SelectionPressure < 1 || p.SelectionPressure > 2 {
			return fmt.Errorf("%w: 选择压力 %v 不在 [1.0, 2.0] 范围内", ErrConfiguration, p.SelectionPressure)
		}
	}

	if p.Survivor == SurvivorElitism && (p.EliteSize < 0 || p.EliteSize > p.PopulationSize) {
		return fmt.Errorf("%w: 精英数量 %d 不在 [0, %d] 范围内", ErrConfiguration, p.EliteSize, p.PopulationSize)
	}

	return nil
}
