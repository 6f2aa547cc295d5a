package scheduler

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/sysu-ecnc-dev/tournament-scheduler/backend/internal/domain"
)

const (
	defaultMinRestDays = 3.0
	daysPerWeek        = 7
)

var weekdayIndex = map[string]int{
	"monday": 0, "mon": 0,
	"tuesday": 1, "tue": 1,
	"wednesday": 2, "wed": 2,
	"thursday": 3, "thu": 3,
	"friday": 4, "fri": 4,
	"saturday": 5, "sat": 5,
	"sunday": 6, "sun": 6,
}

// ConstraintContext 是一次排班任务只读的约束，所有 Match 中的属性都是这里各个列表的下标
type ConstraintContext struct {
	Teams     []domain.Team
	Venues    []domain.Venue
	Days      []string
	TimeSlots []string
	Weeks     []string

	MinRestDays         float64 // 可以是小数，例如 36 小时为 1.5 天
	ImbalanceThreshold  int
	Weights             Weights
	VenueConflictsByDay bool

	pairs      [][2]int
	dayOffsets []int // 每个 day 在一周内的偏移
	weekStride int
}

// NewConstraintContext 校验约束的必填字段，评分相关的设置使用默认值
func NewConstraintContext(c domain.Constraints) (*ConstraintContext, error) {
	switch {
	case len(c.Teams) < 2:
		return nil, fmt.Errorf("%w: 至少需要两支队伍", ErrConfiguration)
	case len(c.Venues) == 0:
		return nil, fmt.Errorf("%w: 缺少 venues", ErrConfiguration)
	case len(c.Days) == 0:
		return nil, fmt.Errorf("%w: 缺少 days", ErrConfiguration)
	case len(c.TimeSlots) == 0:
		return nil, fmt.Errorf("%w: 缺少 time_slots", ErrConfiguration)
	case len(c.Weeks) == 0:
		return nil, fmt.Errorf("%w: 缺少 weeks", ErrConfiguration)
	}

	seenTeams := make(map[int64]bool, len(c.Teams))
	for _, team := range c.Teams {
		if seenTeams[team.TeamID] {
			return nil, fmt.Errorf("%w: 队伍 %d 重复", ErrConfiguration, team.TeamID)
		}
		seenTeams[team.TeamID] = true
	}

	seenVenues := make(map[int64]bool, len(c.Venues))
	for _, venue := range c.Venues {
		if seenVenues[venue.VenueID] {
			return nil, fmt.Errorf("%w: 场馆 %d 重复", ErrConfiguration, venue.VenueID)
		}
		seenVenues[venue.VenueID] = true
	}

	minRestDays := defaultMinRestDays
	if c.RestPeriods != nil && c.RestPeriods.MinimumHours != nil {
		hours := *c.RestPeriods.MinimumHours
		if hours < 0 {
			return nil, fmt.Errorf("%w: rest_periods.minimum_hours 不能为负数", ErrConfiguration)
		}
		minRestDays = hours / 24
	}

	cc := &ConstraintContext{
		Teams:              c.Teams,
		Venues:             c.Venues,
		Days:               c.Days,
		TimeSlots:          c.TimeSlots,
		Weeks:              c.Weeks,
		MinRestDays:        minRestDays,
		ImbalanceThreshold: 3,
		Weights:            DefaultWeights(),
		pairs:              canonicalPairs(len(c.Teams)),
	}
	cc.dayOffsets, cc.weekStride = dayOffsets(c.Days)

	return cc, nil
}

// 星期名称使用其在一周中的位置，其他名称（如 "Day 1"）使用在列表中的位置
func dayOffsets(days []string) ([]int, int) {
	offsets := make([]int, len(days))
	stride := daysPerWeek
	if len(days) > daysPerWeek {
		stride = len(days)
	}

	for i, day := range days {
		if idx, ok := weekdayIndex[strings.ToLower(strings.TrimSpace(day))]; ok && stride == daysPerWeek {
			offsets[i] = idx
		} else {
			offsets[i] = i
		}
	}
	return offsets, stride
}

// NumMatches 返回单循环赛的比赛场数 N*(N-1)/2
func (cc *ConstraintContext) NumMatches() int {
	return len(cc.pairs)
}

// absoluteDay 返回比赛所在的绝对日序号
func (cc *ConstraintContext) absoluteDay(s Slot) int {
	return s.Week*cc.weekStride + cc.dayOffsets[s.Day]
}

func (cc *ConstraintContext) randomSlot(rng *rand.Rand) Slot {
	return Slot{
		Venue:    rng.Intn(len(cc.Venues)),
		Day:      rng.Intn(len(cc.Days)),
		Timeslot: rng.Intn(len(cc.TimeSlots)),
		Week:     rng.Intn(len(cc.Weeks)),
	}
}

func (cc *ConstraintContext) validSlot(s Slot) bool {
	return s.Venue >= 0 && s.Venue < len(cc.Venues) &&
		s.Day >= 0 && s.Day < len(cc.Days) &&
		s.Timeslot >= 0 && s.Timeslot < len(cc.TimeSlots) &&
		s.Week >= 0 && s.Week < len(cc.Weeks)
}

// checkIndividual 检查赛程的结构：长度为 M，第 i 个位置是第 i 对球队，属性都在范围内
func (cc *ConstraintContext) checkIndividual(ind Individual) error {
	if len(ind) != len(cc.pairs) {
		return fmt.Errorf("%w: 比赛数量为 %d，应为 %d", ErrInvariantViolation, len(ind), len(cc.pairs))
	}
	for i, m := range ind {
		if m.TeamA != cc.pairs[i][0] || m.TeamB != cc.pairs[i][1] {
			return fmt.Errorf("%w: 第 %d 场比赛的队伍为 (%d, %d)，应为 (%d, %d)",
				ErrInvariantViolation, i, m.TeamA, m.TeamB, cc.pairs[i][0], cc.pairs[i][1])
		}
		if !cc.validSlot(m.Slot) {
			return fmt.Errorf("%w: 第 %d 场比赛的属性越界 %+v", ErrInvariantViolation, i, m.Slot)
		}
	}
	return nil
}
