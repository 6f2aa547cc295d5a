package scheduler

// Slot: 一场比赛可以被改写的属性，均为 ConstraintContext 中对应列表的下标
type Slot struct {
	Venue    int
	Day      int
	Timeslot int
	Week     int
}

// Match: 一场比赛，TeamA < TeamB，生成之后不再修改
type Match struct {
	TeamA int
	TeamB int
	Slot
}

// Individual: 一份完整的赛程，第 i 个位置在同一个 ConstraintContext 下总是同一对球队
type Individual []Match

type Population []Individual

func (ind Individual) Clone() Individual {
	c := make(Individual, len(ind))
	copy(c, ind)
	return c
}

// 遗传算法参数
type Parameters struct {
	PopulationSize      int              // 种群大小
	GenerationsSize     int              // 最大迭代次数
	Selection           SelectionMethod  // 父代选择方式
	Crossover           CrossoverMethod  // 交叉方式
	Mutation            MutationMethod   // 变异方式
	Survivor            SurvivorStrategy // 幸存者选择方式
	EliteSize           int              // 精英数量，仅 elitism 使用
	TournamentSize      int              // 锦标赛规模，仅 tournament 使用
	SelectionPressure   float64          // 选择压力，仅 rank_based 使用，取值 [1, 2]
	MutationRate        float64          // 每个位置的变异概率
	Seed                int64            // 随机种子，0 表示使用默认种子
	Stagnation          int              // 连续多少代没有进步就提前结束，0 表示不启用
	Weights             Weights          // 各类违规的惩罚权重
	ImbalanceThreshold  int              // 同一队伍使用同一时段超过该次数即视为不均衡
	VenueConflictsByDay bool             // 为 true 时场馆冲突按天统计，不区分时段
	Workers             int              // 并行计算适应度的 goroutine 数量，<= 1 表示串行
}

func DefaultParameters() Parameters {
	return Parameters{
		PopulationSize:     100,
		GenerationsSize:    200,
		Selection:          SelectionTournament,
		Crossover:          CrossoverOrder,
		Mutation:           MutationSwap,
		Survivor:           SurvivorElitism,
		EliteSize:          2,
		TournamentSize:     3,
		SelectionPressure:  1.2,
		MutationRate:       0.1,
		Weights:            DefaultWeights(),
		ImbalanceThreshold: 3,
		Workers:            1,
	}
}

type Weights struct {
	Venue float64
	Rest  float64
	Time  float64
}

func DefaultWeights() Weights {
	return Weights{Venue: 1, Rest: 1, Time: 1}
}

type StopReason string

const (
	StopMaxGenerations StopReason = "max_generations"
	StopOptimal        StopReason = "optimal"
	StopStagnation     StopReason = "stagnation"
)
