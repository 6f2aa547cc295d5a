package scheduler

import (
	"fmt"
	"math/rand"
	"slices"
	"sort"
)

// tournamentSelection 进行 P 次锦标赛，每次无放回地抽取 k 个个体，保留适应度最高的
func tournamentSelection(rng *rand.Rand, pop Population, fitness []float64, k int) (Population, error) {
	n := len(pop)
	if len(fitness) != n {
		return nil, fmt.Errorf("%w: 种群大小 %d 与适应度数量 %d 不一致", ErrConfiguration, n, len(fitness))
	}
	if k < 1 || k > n {
		return nil, fmt.Errorf("%w: 锦标赛规模 %d 不在 [1, %d] 范围内", ErrConfiguration, k, n)
	}

	// idx 始终是 0..n-1 的一个排列，在它上面做部分 Fisher-Yates 就能得到 k 个不重复的下标
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}

	parents := make(Population, n)
	for i := 0; i < n; i++ {
		best := -1
		for j := 0; j < k; j++ {
			r := j + rng.Intn(n-j)
			idx[j], idx[r] = idx[r], idx[j]
			if best == -1 || fitness[idx[j]] > fitness[best] {
				best = idx[j]
			}
		}
		parents[i] = pop[best]
	}

	return parents, nil
}

// RankProbabilities 返回按适应度从高到低排名后每个名次被选中的概率
// 概率公式为 (2-s)/n + 2(r-1)(s-1)/(n(n-1))，其中最好的个体取 r = n，最差的取 r = 1，
// 因此最好的个体概率为 s/n，最差的为 (2-s)/n；s = 1 时退化为均匀分布
func RankProbabilities(n int, s float64) ([]float64, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: 种群大小必须大于 0", ErrConfiguration)
	}
	if s < 1 || s > 2 {
		return nil, fmt.Errorf("%w: 选择压力 %v 不在 [1.0, 2.0] 范围内", ErrConfiguration, s)
	}
	if n == 1 {
		return []float64{1}, nil
	}

	probs := make([]float64, n)
	fn := float64(n)
	for rank := 1; rank <= n; rank++ {
		r := float64(n - rank + 1)
		probs[rank-1] = (2-s)/fn + 2*(r-1)*(s-1)/(fn*(fn-1))
	}
	return probs, nil
}

// rankBasedSelection 按排名概率有放回地抽取 P 个父代
func rankBasedSelection(rng *rand.Rand, pop Population, fitness []float64, s float64) (Population, error) {
	n := len(pop)
	if len(fitness) != n {
		return nil, fmt.Errorf("%w: 种群大小 %d 与适应度数量 %d 不一致", ErrConfiguration, n, len(fitness))
	}

	probs, err := RankProbabilities(n, s)
	if err != nil {
		return nil, err
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	// 稳定排序，适应度相同的个体保持原有顺序，保证可复现
	slices.SortStableFunc(order, func(a, b int) int {
		switch {
		case fitness[a] > fitness[b]:
			return -1
		case fitness[a] < fitness[b]:
			return 1
		}
		return 0
	})

	cumulative := make([]float64, n)
	sum := 0.0
	for i, p := range probs {
		sum += p
		cumulative[i] = sum
	}

	parents := make(Population, n)
	for i := 0; i < n; i++ {
		u := rng.Float64() * sum
		pick := sort.Search(n, func(j int) bool { return cumulative[j] > u })
		if pick == n {
			// 浮点误差导致的越界
			pick = n - 1
		}
		parents[i] = pop[order[pick]]
	}

	return parents, nil
}
