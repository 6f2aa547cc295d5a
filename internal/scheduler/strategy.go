package scheduler

import (
	"fmt"
	"math/rand"
)

type SelectionMethod int

const (
	SelectionTournament SelectionMethod = iota + 1
	SelectionRankBased
)

type CrossoverMethod int

const (
	CrossoverOrder CrossoverMethod = iota + 1
	CrossoverPMX
)

type MutationMethod int

const (
	MutationSwap MutationMethod = iota + 1
	MutationAttributeLevel
)

type SurvivorStrategy int

const (
	SurvivorElitism SurvivorStrategy = iota + 1
	SurvivorGenitor
)

// 同时接受新旧两套名称，旧名称来自最早的排班脚本
func ParseSelectionMethod(name string) (SelectionMethod, error) {
	switch name {
	case "tournament", "tournament_selection":
		return SelectionTournament, nil
	case "rank_based", "rank_based_selection":
		return SelectionRankBased, nil
	}
	return 0, fmt.Errorf("%w: 选择方式 %q", ErrUnknownStrategy, name)
}

func ParseCrossoverMethod(name string) (CrossoverMethod, error) {
	switch name {
	case "order", "order_crossover":
		return CrossoverOrder, nil
	case "pmx", "PMX", "PMX_Crossover":
		return CrossoverPMX, nil
	}
	return 0, fmt.Errorf("%w: 交叉方式 %q", ErrUnknownStrategy, name)
}

func ParseMutationMethod(name string) (MutationMethod, error) {
	switch name {
	case "swap", "swap_mutation":
		return MutationSwap, nil
	case "attribute_level", "attribute_level_mutation":
		return MutationAttributeLevel, nil
	}
	return 0, fmt.Errorf("%w: 变异方式 %q", ErrUnknownStrategy, name)
}

func ParseSurvivorStrategy(name string) (SurvivorStrategy, error) {
	switch name {
	case "elitism":
		return SurvivorElitism, nil
	case "genitor":
		return SurvivorGenitor, nil
	}
	return 0, fmt.Errorf("%w: 幸存者选择方式 %q", ErrUnknownStrategy, name)
}

func (m SelectionMethod) String() string {
	switch m {
	case SelectionTournament:
		return "tournament"
	case SelectionRankBased:
		return "rank_based"
	}
	return fmt.Sprintf("SelectionMethod(%d)", int(m))
}

func (m CrossoverMethod) String() string {
	switch m {
	case CrossoverOrder:
		return "order"
	case CrossoverPMX:
		return "pmx"
	}
	return fmt.Sprintf("CrossoverMethod(%d)", int(m))
}

func (m MutationMethod) String() string {
	switch m {
	case MutationSwap:
		return "swap"
	case MutationAttributeLevel:
		return "attribute_level"
	}
	return fmt.Sprintf("MutationMethod(%d)", int(m))
}

func (s SurvivorStrategy) String() string {
	switch s {
	case SurvivorElitism:
		return "elitism"
	case SurvivorGenitor:
		return "genitor"
	}
	return fmt.Sprintf("SurvivorStrategy(%d)", int(s))
}

type (
	selectFunc    func(rng *rand.Rand, pop Population, fitness []float64) (Population, error)
	crossoverFunc func(rng *rand.Rand, p1, p2 Individual) (Individual, Individual, error)
	mutateFunc    func(rng *rand.Rand, ind Individual) Individual
	surviveFunc   func(rng *rand.Rand, old, off Population, fitOld, fitOff []float64) (Population, []float64, error)
)

// strategies 是在任务开始时就确定下来的一组算子，循环内部不再做任何名称比较
type strategies struct {
	selectParents selectFunc
	crossover     crossoverFunc
	mutate        mutateFunc
	survive       surviveFunc
}

func bindStrategies(p Parameters, cc *ConstraintContext) (strategies, error) {
	var st strategies

	switch p.Selection {
	case SelectionTournament:
		k := p.TournamentSize
		st.selectParents = func(rng *rand.Rand, pop Population, fitness []float64) (Population, error) {
			return tournamentSelection(rng, pop, fitness, k)
		}
	case SelectionRankBased:
		s := p.SelectionPressure
		st.selectParents = func(rng *rand.Rand, pop Population, fitness []float64) (Population, error) {
			return rankBasedSelection(rng, pop, fitness, s)
		}
	default:
		return st, fmt.Errorf("%w: 选择方式 %s", ErrUnknownStrategy, p.Selection)
	}

	switch p.Crossover {
	case CrossoverOrder:
		st.crossover = orderCrossover
	case CrossoverPMX:
		st.crossover = pmxCrossover
	default:
		return st, fmt.Errorf("%w: 交叉方式 %s", ErrUnknownStrategy, p.Crossover)
	}

	rate := p.MutationRate
	switch p.Mutation {
	case MutationSwap:
		st.mutate = func(rng *rand.Rand, ind Individual) Individual {
			return swapMutation(rng, ind, rate)
		}
	case MutationAttributeLevel:
		st.mutate = func(rng *rand.Rand, ind Individual) Individual {
			return attributeLevelMutation(rng, ind, cc, rate)
		}
	default:
		return st, fmt.Errorf("%w: 变异方式 %s", ErrUnknownStrategy, p.Mutation)
	}

	switch p.Survivor {
	case SurvivorElitism:
		elite := p.EliteSize
		st.survive = func(rng *rand.Rand, old, off Population, fitOld, fitOff []float64) (Population, []float64, error) {
			return elitism(rng, old, off, fitOld, fitOff, elite)
		}
	case SurvivorGenitor:
		st.survive = func(_ *rand.Rand, old, off Population, fitOld, fitOff []float64) (Population, []float64, error) {
			return genitor(old, off, fitOld, fitOff)
		}
	default:
		return st, fmt.Errorf("%w: 幸存者选择方式 %s", ErrUnknownStrategy, p.Survivor)
	}

	return st, nil
}
