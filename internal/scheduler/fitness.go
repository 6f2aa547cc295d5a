package scheduler

import (
	"cmp"
	"slices"
)

type VenueViolation struct {
	Venue    int
	Week     int
	Day      int
	Timeslot int // 按天统计时为 -1
	Count    int
}

type RestViolation struct {
	Team    int
	PrevDay int
	NextDay int
	Gap     int
}

type TimeViolation struct {
	Team     int
	Timeslot int
	Count    int
}

// Evaluation 是一份赛程的评分结果，Score <= 0，为 0 当且仅当没有任何违规
type Evaluation struct {
	Score           float64
	VenuePenalty    int
	RestPenalty     int
	TimePenalty     int
	VenueViolations []VenueViolation
	RestViolations  []RestViolation
	TimeViolations  []TimeViolation
}

func (e Evaluation) Feasible() bool {
	return len(e.VenueViolations) == 0 && len(e.RestViolations) == 0 && len(e.TimeViolations) == 0
}

/**
 * 计算赛程的适应度
 * score = -(Wv * venuePenalty + Wr * restPenalty + Wt * timePenalty)
 * 其中:
 * 		1. venuePenalty 为场馆冲突惩罚：同一场馆同一周同一天（同一时段）每多一场比赛记 1
 * 		2. restPenalty 为休息不足惩罚：同一队伍相邻两场比赛间隔小于 MinRestDays 天记 1
 * 		3. timePenalty 为时段不均衡惩罚：同一队伍使用某个时段超过 ImbalanceThreshold 次，记 (次数 - 1)
 * 纯函数，不修改输入
 */
func Evaluate(ind Individual, cc *ConstraintContext) Evaluation {
	var e Evaluation

	e.VenuePenalty, e.VenueViolations = venueConflicts(ind, cc)
	e.RestPenalty, e.RestViolations = restViolations(ind, cc)
	e.TimePenalty, e.TimeViolations = timeImbalances(ind, cc)

	total := cc.Weights.Venue*float64(e.VenuePenalty) +
		cc.Weights.Rest*float64(e.RestPenalty) +
		cc.Weights.Time*float64(e.TimePenalty)
	if total > 0 {
		e.Score = -total
	}

	return e
}

func venueConflicts(ind Individual, cc *ConstraintContext) (int, []VenueViolation) {
	type key struct {
		venue, week, day, timeslot int
	}

	counts := make(map[key]int)
	for _, m := range ind {
		k := key{venue: m.Venue, week: m.Week, day: m.Day, timeslot: m.Timeslot}
		if cc.VenueConflictsByDay {
			k.timeslot = -1
		}
		counts[k]++
	}

	penalty := 0
	var violations []VenueViolation
	for k, count := range counts {
		if count <= 1 {
			continue
		}
		penalty += count - 1
		violations = append(violations, VenueViolation{
			Venue:    k.venue,
			Week:     k.week,
			Day:      k.day,
			Timeslot: k.timeslot,
			Count:    count,
		})
	}

	// map 的遍历顺序是随机的，排序保证结果可复现
	slices.SortFunc(violations, func(a, b VenueViolation) int {
		return cmp.Or(
			cmp.Compare(a.Venue, b.Venue),
			cmp.Compare(a.Week, b.Week),
			cmp.Compare(a.Day, b.Day),
			cmp.Compare(a.Timeslot, b.Timeslot),
		)
	})

	return penalty, violations
}

func restViolations(ind Individual, cc *ConstraintContext) (int, []RestViolation) {
	teamDays := make([][]int, len(cc.Teams))
	for _, m := range ind {
		day := cc.absoluteDay(m.Slot)
		teamDays[m.TeamA] = append(teamDays[m.TeamA], day)
		teamDays[m.TeamB] = append(teamDays[m.TeamB], day)
	}

	var violations []RestViolation
	for team, days := range teamDays {
		slices.Sort(days)
		for i := 1; i < len(days); i++ {
			gap := days[i] - days[i-1]
			if float64(gap) < cc.MinRestDays {
				violations = append(violations, RestViolation{
					Team:    team,
					PrevDay: days[i-1],
					NextDay: days[i],
					Gap:     gap,
				})
			}
		}
	}

	return len(violations), violations
}

func timeImbalances(ind Individual, cc *ConstraintContext) (int, []TimeViolation) {
	counts := make([][]int, len(cc.Teams))
	for i := range counts {
		counts[i] = make([]int, len(cc.TimeSlots))
	}
	for _, m := range ind {
		counts[m.TeamA][m.Timeslot]++
		counts[m.TeamB][m.Timeslot]++
	}

	penalty := 0
	var violations []TimeViolation
	for team, perSlot := range counts {
		for timeslot, count := range perSlot {
			if count > cc.ImbalanceThreshold {
				penalty += count - 1
				violations = append(violations, TimeViolation{
					Team:     team,
					Timeslot: timeslot,
					Count:    count,
				})
			}
		}
	}

	return penalty, violations
}
