package utils

import (
	"fmt"

	"github.com/sysu-ecnc-dev/tournament-scheduler/backend/internal/domain"
)

// ValidateConstraintLabels 检查日、时段、周的名称是否重复，重复的名称无法还原成唯一的下标
func ValidateConstraintLabels(c domain.Constraints) error {
	for _, labels := range []struct {
		field  string
		values []string
	}{
		{"days", c.Days},
		{"time_slots", c.TimeSlots},
		{"weeks", c.Weeks},
	} {
		seen := make(map[string]bool, len(labels.values))
		for _, v := range labels.values {
			if seen[v] {
				return fmt.Errorf("%s 中存在重复的名称 %q", labels.field, v)
			}
			seen[v] = true
		}
	}
	return nil
}

// ValidateRoundRobin 检查赛程是否为完整的单循环：每对队伍恰好比赛一次，场馆、日、时段、周都存在
func ValidateRoundRobin(c domain.Constraints, matches []domain.MatchRecord) error {
	teams := make(map[int64]bool, len(c.Teams))
	for _, team := range c.Teams {
		teams[team.TeamID] = true
	}
	venues := make(map[int64]bool, len(c.Venues))
	for _, venue := range c.Venues {
		venues[venue.VenueID] = true
	}
	days := toSet(c.Days)
	timeSlots := toSet(c.TimeSlots)
	weeks := toSet(c.Weeks)

	type pair struct{ a, b int64 }
	seen := make(map[pair]bool, len(matches))

	for i, m := range matches {
		if !teams[m.TeamAID] || !teams[m.TeamBID] {
			return fmt.Errorf("第 %d 场比赛中存在未知队伍 (%d, %d)", i+1, m.TeamAID, m.TeamBID)
		}
		if m.TeamAID == m.TeamBID {
			return fmt.Errorf("第 %d 场比赛是队伍 %d 与自己比赛", i+1, m.TeamAID)
		}
		if !venues[m.VenueID] {
			return fmt.Errorf("第 %d 场比赛的场馆 %d 不存在", i+1, m.VenueID)
		}
		if !days[m.Day] || !timeSlots[m.TimeSlot] || !weeks[m.Week] {
			return fmt.Errorf("第 %d 场比赛的时间 (%s, %s, %s) 不存在", i+1, m.Week, m.Day, m.TimeSlot)
		}

		p := pair{min(m.TeamAID, m.TeamBID), max(m.TeamAID, m.TeamBID)}
		if seen[p] {
			return fmt.Errorf("队伍 %d 与 %d 之间存在重复比赛", p.a, p.b)
		}
		seen[p] = true
	}

	n := len(c.Teams)
	if expected := n * (n - 1) / 2; len(seen) != expected {
		return fmt.Errorf("比赛数量为 %d，单循环应为 %d", len(seen), expected)
	}

	return nil
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}
