package scheduler

import (
	"fmt"
	"math/rand"
)

// cutPoints 随机选出 0 <= start < end <= n
func cutPoints(rng *rand.Rand, n int) (int, int) {
	start := rng.Intn(n)
	end := start + 1 + rng.Intn(n-start)
	return start, end
}

// orderCrossover 顺序交叉（OX）
// 子代 1 保留父代 1 在 [start, end) 内的属性，其余位置从 end 开始循环，
// 依次填入父代 2 中尚未出现过的属性（整条属性完全相同才视为重复）；子代 2 对称
func orderCrossover(rng *rand.Rand, p1, p2 Individual) (Individual, Individual, error) {
	if len(p1) != len(p2) {
		return nil, nil, fmt.Errorf("%w: 父代长度不一致 (%d != %d)", ErrConfiguration, len(p1), len(p2))
	}
	if len(p1) == 0 {
		return p1.Clone(), p2.Clone(), nil
	}

	start, end := cutPoints(rng, len(p1))
	return oxChild(p1, p2, start, end), oxChild(p2, p1, start, end), nil
}

func oxChild(own, donor Individual, start, end int) Individual {
	n := len(own)
	child := own.Clone()
	filled := make([]bool, n)
	present := make(map[Slot]bool, n)

	for i := start; i < end; i++ {
		filled[i] = true
		present[own[i].Slot] = true
	}

	remaining := n - (end - start)
	pos := end % n
	for k := 0; k < n && remaining > 0; k++ {
		slot := donor[(end+k)%n].Slot
		if present[slot] {
			continue
		}
		for filled[pos] {
			pos = (pos + 1) % n
		}
		child[pos].Slot = slot
		filled[pos] = true
		present[slot] = true
		remaining--
	}

	// 属性可以重复，父代 2 的不同属性可能不够填满，剩下的位置沿用父代 2 同位置的属性
	if remaining > 0 {
		for i := range child {
			if !filled[i] {
				child[i].Slot = donor[i].Slot
			}
		}
	}

	return child
}

// pmxCrossover 部分映射交叉（PMX）
// 子代 1 的 [start, end) 换成父代 2 的属性，其余位置保留父代 1 的属性；
// 如果保留的属性和换入的片段重复，就沿着 父代 2 -> 父代 1 的映射一直找到不重复的属性为止
func pmxCrossover(rng *rand.Rand, p1, p2 Individual) (Individual, Individual, error) {
	if len(p1) != len(p2) {
		return nil, nil, fmt.Errorf("%w: 父代长度不一致 (%d != %d)", ErrConfiguration, len(p1), len(p2))
	}
	if len(p1) == 0 {
		return p1.Clone(), p2.Clone(), nil
	}

	start, end := cutPoints(rng, len(p1))
	return pmxChild(p1, p2, start, end), pmxChild(p2, p1, start, end), nil
}

func pmxChild(own, donor Individual, start, end int) Individual {
	child := own.Clone()

	mapping := make(map[Slot]Slot, end-start)
	for i := start; i < end; i++ {
		child[i].Slot = donor[i].Slot
		if _, exists := mapping[donor[i].Slot]; !exists {
			mapping[donor[i].Slot] = own[i].Slot
		}
	}

	for i := range child {
		if i >= start && i < end {
			continue
		}

		candidate := own[i].Slot
		resolved := false
		// 属性可以重复，映射链可能成环，最多走片段长度那么多步
		for step := 0; step <= end-start; step++ {
			next, collides := mapping[candidate]
			if !collides {
				resolved = true
				break
			}
			candidate = next
		}
		if !resolved {
			candidate = own[i].Slot
		}
		child[i].Slot = candidate
	}

	return child
}
