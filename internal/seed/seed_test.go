package seed

import (
	"bytes"
	"context"
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sysu-ecnc-dev/tournament-scheduler/backend/internal/domain"
	"github.com/sysu-ecnc-dev/tournament-scheduler/backend/internal/scheduler"
	"github.com/sysu-ecnc-dev/tournament-scheduler/backend/internal/utils"
)

func TestWriteAndLoadConstraints(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	c := utils.GenerateRandomConstraints(rng, utils.ConstraintsOptions{Teams: 5, Venues: 2, Days: 3, TimeSlots: 2, Weeks: 2})

	path := filepath.Join(t.TempDir(), "constraints.json")
	require.NoError(t, WriteConstraints(path, c))

	loaded, err := LoadConstraints(path)
	require.NoError(t, err)
	assert.Equal(t, c, *loaded)
}

func TestLoadConstraintsRejectsInvalidFile(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not json", "teams: []"},
		{"one team", `{"teams":[{"TeamID":1,"TeamName":"A"}],"venues":[{"VenueID":1,"VenueName":"V"}],"days":["Monday"],"time_slots":["10:00"],"weeks":["W1"]}`},
		{"missing weeks", `{"teams":[{"TeamID":1,"TeamName":"A"},{"TeamID":2,"TeamName":"B"}],"venues":[{"VenueID":1,"VenueName":"V"}],"days":["Monday"],"time_slots":["10:00"]}`},
		{"duplicate day", `{"teams":[{"TeamID":1,"TeamName":"A"},{"TeamID":2,"TeamName":"B"}],"venues":[{"VenueID":1,"VenueName":"V"}],"days":["Monday","Monday"],"time_slots":["10:00"],"weeks":["W1"]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "constraints.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			_, err := LoadConstraints(path)
			assert.Error(t, err)
		})
	}
}

func TestLoadConstraintsMissingFile(t *testing.T) {
	_, err := LoadConstraints(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func smallRunParameters() domain.RunParameters {
	return domain.RunParameters{
		PopulationSize:     10,
		GenerationsSize:    5,
		SelectionMethod:    "tournament",
		CrossoverMethod:    "order",
		MutationMethod:     "swap",
		SurvivorStrategy:   "elitism",
		EliteSize:          2,
		TournamentSize:     3,
		SelectionPressure:  1.2,
		MutationRate:       0.1,
		Seed:               7,
		Weights:            domain.PenaltyWeights{Venue: 1, Rest: 1, Time: 1},
		ImbalanceThreshold: 3,
	}
}

func TestRunLocalAndWriteScheduleTable(t *testing.T) {
	c := domain.Constraints{
		Teams: []domain.Team{
			{TeamID: 1, TeamName: "广州猛虎"},
			{TeamID: 2, TeamName: "深圳雄狮"},
			{TeamID: 3, TeamName: "珠海飞鹰"},
		},
		Venues:    []domain.Venue{{VenueID: 1, VenueName: "东校区体育馆1号"}},
		Days:      []string{"Monday", "Wednesday", "Friday"},
		TimeSlots: []string{"19:00"},
		Weeks:     []string{"第1周"},
	}

	result, err := RunLocal(context.Background(), c, smallRunParameters(), 0)
	require.NoError(t, err)
	assert.Len(t, result.Schedule(), 3)
	assert.Equal(t, scheduler.StopMaxGenerations, result.StopReason)

	var buf bytes.Buffer
	require.NoError(t, WriteScheduleTable(&buf, result))
	assert.Contains(t, buf.String(), "广州猛虎")
	assert.Contains(t, buf.String(), "东校区体育馆1号")
	assert.Contains(t, buf.String(), "停止原因")
}

func TestRunLocalRejectsUnknownStrategy(t *testing.T) {
	rp := smallRunParameters()
	rp.CrossoverMethod = "uniform"

	_, err := RunLocal(context.Background(), domain.Constraints{}, rp, 0)
	assert.ErrorIs(t, err, scheduler.ErrUnknownStrategy)
}

type fakeStore struct {
	created []*domain.SchedulingRun
	updated []*domain.SchedulingRun
}

func (s *fakeStore) CreateSchedulingRun(run *domain.SchedulingRun) error {
	s.created = append(s.created, run)
	return nil
}

func (s *fakeStore) UpdateSchedulingRunStatus(run *domain.SchedulingRun) error {
	s.updated = append(s.updated, run)
	return nil
}

type fakePublisher struct {
	published []uuid.UUID
	failAfter int
}

func (p *fakePublisher) PublishRun(_ context.Context, runID uuid.UUID) error {
	if p.failAfter >= 0 && len(p.published) >= p.failAfter {
		return errors.New("channel closed")
	}
	p.published = append(p.published, runID)
	return nil
}

func TestSeedRandomRuns(t *testing.T) {
	store := &fakeStore{}
	publisher := &fakePublisher{failAfter: -1}
	rng := rand.New(rand.NewSource(1))

	cnt, err := SeedRandomRuns(context.Background(), store, publisher, rng, 3, utils.ConstraintsOptions{Teams: 4, Venues: 1, Days: 3, TimeSlots: 1, Weeks: 1}, "admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, 3, cnt)
	require.Len(t, store.created, 3)
	assert.Empty(t, store.updated)

	for i, run := range store.created {
		assert.Equal(t, publisher.published[i], run.ID)
		assert.Equal(t, domain.RunStatusPending, run.Status)
		assert.Equal(t, "admin@example.com", run.SubmitterEmail)

		// 随机生成的任务必须能通过引擎的参数检查
		parameters, err := scheduler.ParametersFromRun(run.Parameters)
		require.NoError(t, err)
		_, err = scheduler.New(run.Constraints, parameters)
		assert.NoError(t, err)
	}
}

func TestSeedRandomRunsPublishFailure(t *testing.T) {
	store := &fakeStore{}
	publisher := &fakePublisher{failAfter: 1}
	rng := rand.New(rand.NewSource(1))

	cnt, err := SeedRandomRuns(context.Background(), store, publisher, rng, 2, utils.ConstraintsOptions{Teams: 4}, "")
	assert.Error(t, err)
	assert.Equal(t, 1, cnt)
	require.Len(t, store.updated, 1)
	assert.Equal(t, domain.RunStatusFailed, store.updated[0].Status)
	assert.NotNil(t, store.updated[0].FinishedAt)
}
