package scheduler

import (
	"fmt"

	"github.com/sysu-ecnc-dev/tournament-scheduler/backend/internal/domain"
)

// Schedule 返回最优赛程，顺序与个体中的顺序一致
func (r *Result) Schedule() []domain.MatchRecord {
	return r.context.MatchRecords(r.Best)
}

// Report 把结果转换成对外的格式，RunID 与 CreatedAt 由调用方填写
func (r *Result) Report() *domain.SchedulingRunResult {
	venue, rest, time := r.context.ViolationRecords(r.Evaluation)
	return &domain.SchedulingRunResult{
		BestScore:       r.Evaluation.Score,
		Generations:     r.Generations,
		StopReason:      string(r.StopReason),
		FitnessTrend:    r.FitnessTrend,
		Matches:         r.Schedule(),
		VenueViolations: venue,
		RestViolations:  rest,
		TimeViolations:  time,
	}
}

func (cc *ConstraintContext) MatchRecords(ind Individual) []domain.MatchRecord {
	records := make([]domain.MatchRecord, len(ind))
	for i, m := range ind {
		teamA, teamB, venue := cc.Teams[m.TeamA], cc.Teams[m.TeamB], cc.Venues[m.Venue]
		records[i] = domain.MatchRecord{
			TeamAID:   teamA.TeamID,
			TeamAName: teamA.TeamName,
			TeamBID:   teamB.TeamID,
			TeamBName: teamB.TeamName,
			VenueID:   venue.VenueID,
			VenueName: venue.VenueName,
			Day:       cc.Days[m.Day],
			TimeSlot:  cc.TimeSlots[m.Timeslot],
			Week:      cc.Weeks[m.Week],
		}
	}
	return records
}

func (cc *ConstraintContext) ViolationRecords(e Evaluation) ([]domain.VenueViolation, []domain.RestViolation, []domain.TimeViolation) {
	venue := make([]domain.VenueViolation, 0, len(e.VenueViolations))
	for _, v := range e.VenueViolations {
		record := domain.VenueViolation{
			VenueID:   cc.Venues[v.Venue].VenueID,
			VenueName: cc.Venues[v.Venue].VenueName,
			Week:      cc.Weeks[v.Week],
			Day:       cc.Days[v.Day],
			Count:     v.Count,
		}
		if v.Timeslot >= 0 {
			record.TimeSlot = cc.TimeSlots[v.Timeslot]
		}
		venue = append(venue, record)
	}

	rest := make([]domain.RestViolation, 0, len(e.RestViolations))
	for _, v := range e.RestViolations {
		rest = append(rest, domain.RestViolation{
			TeamID:   cc.Teams[v.Team].TeamID,
			TeamName: cc.Teams[v.Team].TeamName,
			PrevDay:  v.PrevDay,
			NextDay:  v.NextDay,
			Gap:      v.Gap,
		})
	}

	time := make([]domain.TimeViolation, 0, len(e.TimeViolations))
	for _, v := range e.TimeViolations {
		time = append(time, domain.TimeViolation{
			TeamID:   cc.Teams[v.Team].TeamID,
			TeamName: cc.Teams[v.Team].TeamName,
			TimeSlot: cc.TimeSlots[v.Timeslot],
			Count:    v.Count,
		})
	}

	return venue, rest, time
}

// IndividualFromRecords 把外部提交的赛程还原成个体，每对球队必须恰好出现一次
func (cc *ConstraintContext) IndividualFromRecords(records []domain.MatchRecord) (Individual, error) {
	if len(records) != len(cc.pairs) {
		return nil, fmt.Errorf("%w: 比赛数量为 %d，应为 %d", ErrInvariantViolation, len(records), len(cc.pairs))
	}

	teamIndex := make(map[int64]int, len(cc.Teams))
	for i, team := range cc.Teams {
		teamIndex[team.TeamID] = i
	}
	venueIndex := make(map[int64]int, len(cc.Venues))
	for i, venue := range cc.Venues {
		venueIndex[venue.VenueID] = i
	}
	dayIndex := labelIndex(cc.Days)
	timeslotIndex := labelIndex(cc.TimeSlots)
	weekIndex := labelIndex(cc.Weeks)

	// 第 i 对球队在个体中的位置
	pairPosition := make(map[[2]int]int, len(cc.pairs))
	for i, pair := range cc.pairs {
		pairPosition[pair] = i
	}

	ind := make(Individual, len(cc.pairs))
	seen := make([]bool, len(cc.pairs))
	for i, record := range records {
		a, okA := teamIndex[record.TeamAID]
		b, okB := teamIndex[record.TeamBID]
		if !okA || !okB || a == b {
			return nil, fmt.Errorf("%w: 第 %d 场比赛的队伍 (%d, %d) 无效", ErrConfiguration, i+1, record.TeamAID, record.TeamBID)
		}
		if a > b {
			a, b = b, a
		}

		var slot Slot
		var ok bool
		if slot.Venue, ok = venueIndex[record.VenueID]; !ok {
			return nil, fmt.Errorf("%w: 第 %d 场比赛的场馆 %d 不存在", ErrConfiguration, i+1, record.VenueID)
		}
		if slot.Day, ok = dayIndex[record.Day]; !ok {
			return nil, fmt.Errorf("%w: 第 %d 场比赛的日期 %q 不存在", ErrConfiguration, i+1, record.Day)
		}
		if slot.Timeslot, ok = timeslotIndex[record.TimeSlot]; !ok {
			return nil, fmt.Errorf("%w: 第 %d 场比赛的时段 %q 不存在", ErrConfiguration, i+1, record.TimeSlot)
		}
		if slot.Week, ok = weekIndex[record.Week]; !ok {
			return nil, fmt.Errorf("%w: 第 %d 场比赛的周 %q 不存在", ErrConfiguration, i+1, record.Week)
		}

		pos := pairPosition[[2]int{a, b}]
		if seen[pos] {
			return nil, fmt.Errorf("%w: 队伍 %d 与 %d 的比赛重复", ErrInvariantViolation, record.TeamAID, record.TeamBID)
		}
		seen[pos] = true
		ind[pos] = Match{TeamA: a, TeamB: b, Slot: slot}
	}

	return ind, nil
}

func labelIndex(labels []string) map[string]int {
	index := make(map[string]int, len(labels))
	for i, label := range labels {
		if _, exists := index[label]; !exists {
			index[label] = i
		}
	}
	return index
}

// EvaluationReport 把评分结果转换成对外的格式
func (cc *ConstraintContext) EvaluationReport(e Evaluation) domain.ScheduleEvaluation {
	venue, rest, time := cc.ViolationRecords(e)
	return domain.ScheduleEvaluation{
		Score:           e.Score,
		Feasible:        e.Feasible(),
		VenuePenalty:    e.VenuePenalty,
		RestPenalty:     e.RestPenalty,
		TimePenalty:     e.TimePenalty,
		VenueViolations: venue,
		RestViolations:  rest,
		TimeViolations:  time,
	}
}
