package scheduler

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sysu-ecnc-dev/tournament-scheduler/backend/internal/domain"
)

var weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

func makeTeams(names ...string) []domain.Team {
	teams := make([]domain.Team, len(names))
	for i, name := range names {
		teams[i] = domain.Team{TeamID: int64(i + 1), TeamName: name}
	}
	return teams
}

// 四支队伍、一个场馆、一周七天、一个时段
func fourTeamConstraints() domain.Constraints {
	return domain.Constraints{
		Teams:     makeTeams("A", "B", "C", "D"),
		Venues:    []domain.Venue{{VenueID: 1, VenueName: "Court 1"}},
		Days:      weekdays,
		TimeSlots: []string{"10:00"},
		Weeks:     []string{"Week 1"},
	}
}

func twoTeamConstraints() domain.Constraints {
	return domain.Constraints{
		Teams:     makeTeams("A", "B"),
		Venues:    []domain.Venue{{VenueID: 1, VenueName: "Court 1"}, {VenueID: 2, VenueName: "Court 2"}},
		Days:      []string{"Monday"},
		TimeSlots: []string{"10:00"},
		Weeks:     []string{"Week 1"},
	}
}

func largerConstraints() domain.Constraints {
	return domain.Constraints{
		Teams:     makeTeams("A", "B", "C", "D", "E", "F"),
		Venues:    []domain.Venue{{VenueID: 1, VenueName: "Court 1"}, {VenueID: 2, VenueName: "Court 2"}},
		Days:      []string{"Monday", "Wednesday", "Friday"},
		TimeSlots: []string{"10:00", "14:00", "19:00"},
		Weeks:     []string{"Week 1", "Week 2", "Week 3"},
	}
}

func scenarioAParameters() Parameters {
	p := DefaultParameters()
	p.PopulationSize = 20
	p.GenerationsSize = 50
	p.TournamentSize = 5
	p.Crossover = CrossoverOrder
	p.Mutation = MutationSwap
	p.Survivor = SurvivorElitism
	p.EliteSize = 4
	return p
}

func mustContext(t *testing.T, c domain.Constraints) *ConstraintContext {
	t.Helper()
	cc, err := NewConstraintContext(c)
	require.NoError(t, err)
	return cc
}

// individualOnDays 按 canonical 顺序构造赛程，第 i 场比赛安排在 days[i]
func individualOnDays(cc *ConstraintContext, days ...int) Individual {
	ind := make(Individual, len(cc.pairs))
	for i, pair := range cc.pairs {
		ind[i] = Match{TeamA: pair[0], TeamB: pair[1], Slot: Slot{Day: days[i]}}
	}
	return ind
}

func slotsOf(ind Individual) []Slot {
	slots := make([]Slot, len(ind))
	for i, m := range ind {
		slots[i] = m.Slot
	}
	return slots
}

func newRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}
