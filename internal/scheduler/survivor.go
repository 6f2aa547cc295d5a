package scheduler

import (
	"fmt"
	"math/rand"
	"slices"
)

type scoredIndividual struct {
	individual Individual
	fitness    float64
}

// mergeSorted 合并父代与子代，并按适应度从高到低稳定排序
func mergeSorted(old, off Population, fitOld, fitOff []float64) ([]scoredIndividual, error) {
	if len(old) != len(fitOld) || len(off) != len(fitOff) {
		return nil, fmt.Errorf("%w: 种群与适应度数量不一致", ErrConfiguration)
	}
	if len(old) != len(off) {
		return nil, fmt.Errorf("%w: 父代数量 %d 与子代数量 %d 不一致", ErrConfiguration, len(old), len(off))
	}

	merged := make([]scoredIndividual, 0, len(old)+len(off))
	for i, ind := range old {
		merged = append(merged, scoredIndividual{individual: ind, fitness: fitOld[i]})
	}
	for i, ind := range off {
		merged = append(merged, scoredIndividual{individual: ind, fitness: fitOff[i]})
	}

	slices.SortStableFunc(merged, func(a, b scoredIndividual) int {
		switch {
		case a.fitness > b.fitness:
			return -1
		case a.fitness < b.fitness:
			return 1
		}
		return 0
	})

	return merged, nil
}

func unzip(scored []scoredIndividual) (Population, []float64) {
	pop := make(Population, len(scored))
	fitness := make([]float64, len(scored))
	for i, s := range scored {
		pop[i] = s.individual
		fitness[i] = s.fitness
	}
	return pop, fitness
}

// elitism 保留最好的 eliteSize 个个体，剩余名额从其他个体中无放回地均匀抽取
func elitism(rng *rand.Rand, old, off Population, fitOld, fitOff []float64, eliteSize int) (Population, []float64, error) {
	size := len(old)
	if eliteSize < 0 || eliteSize > size {
		return nil, nil, fmt.Errorf("%w: 精英数量 %d 不在 [0, %d] 范围内", ErrConfiguration, eliteSize, size)
	}

	merged, err := mergeSorted(old, off, fitOld, fitOff)
	if err != nil {
		return nil, nil, err
	}

	survivors := make([]scoredIndividual, 0, size)
	survivors = append(survivors, merged[:eliteSize]...)

	rest := merged[eliteSize:]
	for i := 0; len(survivors) < size; i++ {
		r := i + rng.Intn(len(rest)-i)
		rest[i], rest[r] = rest[r], rest[i]
		survivors = append(survivors, rest[i])
	}

	pop, fitness := unzip(survivors)
	return pop, fitness, nil
}

// genitor 只保留父代与子代中最好的 P 个个体
func genitor(old, off Population, fitOld, fitOff []float64) (Population, []float64, error) {
	merged, err := mergeSorted(old, off, fitOld, fitOff)
	if err != nil {
		return nil, nil, err
	}

	pop, fitness := unzip(merged[:len(old)])
	return pop, fitness, nil
}
