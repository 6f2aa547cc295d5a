package scheduler

import (
	"context"
	"fmt"
	"math/rand"

	"golang.org/x/sync/errgroup"

	"github.com/sysu-ecnc-dev/tournament-scheduler/backend/internal/domain"
)

// 种子为 0 时使用的默认种子，保证不传种子时结果同样可以复现
const defaultSeed int64 = 42

// ProgressFunc 在每一代结束后调用，返回错误会中止排班
type ProgressFunc func(generation int, bestFitness float64) error

type Scheduler struct {
	parameters Parameters
	context    *ConstraintContext
	strategies strategies
	progress   ProgressFunc
}

type Result struct {
	Best         Individual
	Evaluation   Evaluation
	FitnessTrend []float64 // 第 0 项是初始种群，之后每一代一项，单调不减
	Generations  int
	StopReason   StopReason

	context *ConstraintContext
}

func New(constraints domain.Constraints, parameters Parameters) (*Scheduler, error) {
	cc, err := NewConstraintContext(constraints)
	if err != nil {
		return nil, err
	}

	st, err := bindStrategies(parameters, cc)
	if err != nil {
		return nil, err
	}
	if err := validateParameters(parameters); err != nil {
		return nil, err
	}

	cc.Weights = parameters.Weights
	cc.ImbalanceThreshold = parameters.ImbalanceThreshold
	cc.VenueConflictsByDay = parameters.VenueConflictsByDay

	return &Scheduler{
		parameters: parameters,
		context:    cc,
		strategies: st,
	}, nil
}

func (s *Scheduler) OnProgress(fn ProgressFunc) {
	s.progress = fn
}

func (s *Scheduler) Context() *ConstraintContext {
	return s.context
}

// Run 执行遗传算法，直到达到最大迭代次数、找到 0 分的赛程或者停滞
// 取消只在两代之间检查，被取消时不返回任何结果
func (s *Scheduler) Run(ctx context.Context) (*Result, error) {
	seed := s.parameters.Seed
	if seed == 0 {
		seed = defaultSeed
	}
	rng := rand.New(rand.NewSource(seed))
	size := s.parameters.PopulationSize

	// 生成初始种群
	pop := initPopulation(rng, s.context, size)
	if err := s.checkPopulation(pop); err != nil {
		return nil, err
	}
	fitness, err := s.evaluatePopulation(pop)
	if err != nil {
		return nil, err
	}

	bestIndex := argmax(fitness)
	best := pop[bestIndex]
	bestFitness := fitness[bestIndex]
	trend := []float64{bestFitness}
	stagnant := 0
	generation := 0

	var reason StopReason
	for {
		switch {
		case generation >= s.parameters.GenerationsSize:
			reason = StopMaxGenerations
		case bestFitness == 0:
			reason = StopOptimal
		case s.parameters.Stagnation > 0 && stagnant >= s.parameters.Stagnation:
			reason = StopStagnation
		}
		if reason != "" {
			break
		}

		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("排班在第 %d 代被中止: %w", generation, err)
		}

		pop, fitness, err = s.nextGeneration(rng, pop, fitness)
		if err != nil {
			return nil, err
		}
		generation++

		// 找到本代最佳样本
		genBestIndex := argmax(fitness)
		if fitness[genBestIndex] > bestFitness {
			best = pop[genBestIndex]
			bestFitness = fitness[genBestIndex]
			stagnant = 0
		} else {
			stagnant++
		}
		trend = append(trend, bestFitness)

		if s.progress != nil {
			if err := s.progress(generation, bestFitness); err != nil {
				return nil, err
			}
		}
	}

	return &Result{
		Best:         best,
		Evaluation:   Evaluate(best, s.context),
		FitnessTrend: trend,
		Generations:  generation,
		StopReason:   reason,
		context:      s.context,
	}, nil
}

// nextGeneration: 选择 -> 两两交叉 -> 变异 -> 评估 -> 幸存者选择
func (s *Scheduler) nextGeneration(rng *rand.Rand, pop Population, fitness []float64) (Population, []float64, error) {
	size := len(pop)

	parents, err := s.strategies.selectParents(rng, pop, fitness)
	if err != nil {
		return nil, nil, err
	}

	// 按 (0, 1), (2, 3), ... 配对；种群大小为奇数时最后一个和第一个配对，只保留第一个子代
	offspring := make(Population, 0, size)
	for i := 0; i < size; i += 2 {
		p1 := parents[i]
		p2 := parents[0]
		if i+1 < size {
			p2 = parents[i+1]
		}

		c1, c2, err := s.strategies.crossover(rng, p1, p2)
		if err != nil {
			return nil, nil, err
		}
		offspring = append(offspring, c1)
		if len(offspring) < size {
			offspring = append(offspring, c2)
		}
	}

	for i := range offspring {
		offspring[i] = s.strategies.mutate(rng, offspring[i])
	}
	if err := s.checkPopulation(offspring); err != nil {
		return nil, nil, err
	}

	offspringFitness, err := s.evaluatePopulation(offspring)
	if err != nil {
		return nil, nil, err
	}

	return s.strategies.survive(rng, pop, offspring, fitness, offspringFitness)
}

func (s *Scheduler) checkPopulation(pop Population) error {
	for i, ind := range pop {
		if err := s.context.checkIndividual(ind); err != nil {
			return fmt.Errorf("第 %d 个个体: %w", i, err)
		}
	}
	return nil
}

// evaluatePopulation 计算整个种群的适应度
// 每个结果写入自己的下标，不消耗随机数，因此并行与串行的结果完全一致
func (s *Scheduler) evaluatePopulation(pop Population) ([]float64, error) {
	fitness := make([]float64, len(pop))

	workers := s.parameters.Workers
	if workers <= 1 || len(pop) < 2 {
		for i, ind := range pop {
			fitness[i] = Evaluate(ind, s.context).Score
		}
		return fitness, nil
	}

	chunk := (len(pop) + workers - 1) / workers
	var g errgroup.Group
	g.SetLimit(workers)
	for start := 0; start < len(pop); start += chunk {
		end := min(start+chunk, len(pop))
		g.Go(func() error {
			for i := start; i < end; i++ {
				fitness[i] = Evaluate(pop[i], s.context).Score
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return fitness, nil
}

func argmax(values []float64) int {
	best := 0
	for i := 1; i < len(values); i++ {
		if values[i] > values[best] {
			best = i
		}
	}
	return best
}
