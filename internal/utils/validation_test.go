package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sysu-ecnc-dev/tournament-scheduler/backend/internal/domain"
)

func threeTeams() domain.Constraints {
	return domain.Constraints{
		Teams: []domain.Team{
			{TeamID: 1, TeamName: "A"},
			{TeamID: 2, TeamName: "B"},
			{TeamID: 3, TeamName: "C"},
		},
		Venues:    []domain.Venue{{VenueID: 1, VenueName: "Court 1"}},
		Days:      []string{"Monday", "Wednesday"},
		TimeSlots: []string{"10:00"},
		Weeks:     []string{"Week 1"},
	}
}

func match(a, b int64, day string) domain.MatchRecord {
	return domain.MatchRecord{TeamAID: a, TeamBID: b, VenueID: 1, Day: day, TimeSlot: "10:00", Week: "Week 1"}
}

func TestValidateRoundRobin(t *testing.T) {
	valid := []domain.MatchRecord{match(1, 2, "Monday"), match(1, 3, "Wednesday"), match(2, 3, "Monday")}
	assert.NoError(t, ValidateRoundRobin(threeTeams(), valid))

	// 主客顺序不影响
	swapped := []domain.MatchRecord{match(2, 1, "Monday"), match(3, 1, "Wednesday"), match(3, 2, "Monday")}
	assert.NoError(t, ValidateRoundRobin(threeTeams(), swapped))

	tests := []struct {
		name    string
		matches []domain.MatchRecord
	}{
		{"missing pair", []domain.MatchRecord{match(1, 2, "Monday"), match(1, 3, "Monday")}},
		{"duplicate pair", []domain.MatchRecord{match(1, 2, "Monday"), match(2, 1, "Monday"), match(2, 3, "Monday")}},
		{"self match", []domain.MatchRecord{match(1, 1, "Monday"), match(1, 3, "Monday"), match(2, 3, "Monday")}},
		{"unknown team", []domain.MatchRecord{match(1, 9, "Monday"), match(1, 3, "Monday"), match(2, 3, "Monday")}},
		{"unknown day", []domain.MatchRecord{match(1, 2, "Friday"), match(1, 3, "Monday"), match(2, 3, "Monday")}},
		{"unknown venue", func() []domain.MatchRecord {
			m := []domain.MatchRecord{match(1, 2, "Monday"), match(1, 3, "Monday"), match(2, 3, "Monday")}
			m[0].VenueID = 2
			return m
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, ValidateRoundRobin(threeTeams(), tt.matches))
		})
	}
}

func TestValidateConstraintLabels(t *testing.T) {
	assert.NoError(t, ValidateConstraintLabels(threeTeams()))

	c := threeTeams()
	c.Weeks = []string{"Week 1", "Week 1"}
	err := ValidateConstraintLabels(c)
	assert.ErrorContains(t, err, "weeks")
}
