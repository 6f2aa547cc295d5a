package scheduler

import "math/rand"

// swapMutation 交换变异
// 每个位置以 rate 的概率触发一次交换：随机选出两个不同的位置，交换它们的全部属性
// 只是重新分配已有的属性组合，不会产生新的属性
func swapMutation(rng *rand.Rand, ind Individual, rate float64) Individual {
	child := ind.Clone()
	n := len(child)
	if n < 2 {
		return child
	}

	for i := 0; i < n; i++ {
		if rng.Float64() >= rate {
			continue
		}
		a := rng.Intn(n)
		b := rng.Intn(n - 1)
		if b >= a {
			b++
		}
		child[a].Slot, child[b].Slot = child[b].Slot, child[a].Slot
	}

	return child
}

// attributeLevelMutation 属性级变异
// 每个位置以 rate 的概率重新随机抽取场馆、日、时段和周，队伍不变
func attributeLevelMutation(rng *rand.Rand, ind Individual, cc *ConstraintContext, rate float64) Individual {
	child := ind.Clone()
	for i := range child {
		if rng.Float64() >= rate {
			continue
		}
		child[i].Slot = cc.randomSlot(rng)
	}
	return child
}
