package scheduler

import "math/rand"

// canonicalPairs 按队伍顺序生成所有 (i, j), i < j 的组合
func canonicalPairs(n int) [][2]int {
	pairs := make([][2]int, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			pairs = append(pairs, [2]int{i, j})
		}
	}
	return pairs
}

// randomInitIndividual 随机初始化一份赛程
// 打乱的是各对球队抽取属性的顺序，球队在赛程中的位置保持不变
// 生成时不做任何冲突规避，冲突交给后续的选择压力去消除
func randomInitIndividual(rng *rand.Rand, cc *ConstraintContext) Individual {
	ind := make(Individual, len(cc.pairs))
	for i, pair := range cc.pairs {
		ind[i].TeamA = pair[0]
		ind[i].TeamB = pair[1]
	}

	for _, pos := range rng.Perm(len(ind)) {
		ind[pos].Slot = cc.randomSlot(rng)
	}

	return ind
}

func initPopulation(rng *rand.Rand, cc *ConstraintContext, size int) Population {
	pop := make(Population, size)
	for i := range pop {
		pop[i] = randomInitIndividual(rng, cc)
	}
	return pop
}
