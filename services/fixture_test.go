package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"sort"
	"sync"
	"testing"

	"github.com/Dosada05/stage-engine/brackets"
	"github.com/Dosada05/stage-engine/models"
	"github.com/Dosada05/stage-engine/repositories"
	"github.com/Dosada05/stage-engine/storage"
	"github.com/stretchr/testify/require"
)

type publishedEvent struct {
	TournamentID string
	Type         string
	Payload      interface{}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *recordingPublisher) Publish(tournamentID, eventType string, payload interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{TournamentID: tournamentID, Type: eventType, Payload: payload})
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

type recordingArchiver struct {
	snapshots []*storage.StageSnapshot
	err       error
}

func (a *recordingArchiver) Archive(ctx context.Context, snap *storage.StageSnapshot) (*storage.UploadResult, error) {
	if a.err != nil {
		return nil, a.err
	}
	a.snapshots = append(a.snapshots, snap)
	return &storage.UploadResult{Key: storage.SnapshotKey(snap.TournamentID, snap.GroupsStageID)}, nil
}

type fixture struct {
	ctx         context.Context
	store       *repositories.MemoryStore
	publisher   *recordingPublisher
	archiver    *recordingArchiver
	tournaments TournamentService
	groups      GroupStageService
	schedule    ScheduleService
	standings   StandingsService
	playoffs    PlayoffService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := repositories.NewMemoryStore()
	pub := &recordingPublisher{}
	arch := &recordingArchiver{}
	return &fixture{
		ctx:         context.Background(),
		store:       store,
		publisher:   pub,
		archiver:    arch,
		tournaments: NewTournamentService(store, logger),
		groups:      NewGroupStageService(store, pub, logger, rand.New(rand.NewSource(7))),
		schedule:    NewScheduleService(store, pub, logger),
		standings:   NewStandingsService(store, logger),
		playoffs:    NewPlayoffService(store, brackets.NewSingleEliminationGenerator(), arch, pub, logger),
	}
}

func teams(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("team-%02d", i+1)
	}
	return ids
}

// stageDefs is two groups of four, top two advance, crossed into a four team
// bracket: A1 vs B2 and B1 vs A2.
func stageDefs(liveDraw bool) []models.StageDefinition {
	return []models.StageDefinition{
		{
			ID: "gs", Name: "Groups", Type: models.StageTypeGroupsRoundRobin, Order: 1,
			Groups: &models.GroupsRoundRobinConfig{
				GroupCount:           2,
				TeamsPerGroup:        4,
				TeamsAdvancePerGroup: 2,
				MatchFormat:          "bo3",
				PointsPerWin:         3,
				PointsPerDraw:        1,
				Tiebreakers:          []models.Tiebreaker{models.TiebreakerPoints, models.TiebreakerRoundDiff, models.TiebreakerRoundsWon},
				UseLiveDraw:          liveDraw,
			},
		},
		{
			ID: "po", Name: "Playoffs", Type: models.StageTypePlayoffs, Order: 2,
			Playoffs: &models.PlayoffsConfig{
				TeamCount:   4,
				MatchFormat: "bo3",
				FixedRound1Pairings: []models.PairingTemplateEntry{
					{GroupA: "A", PlaceA: 1, GroupB: "B", PlaceB: 2},
					{GroupA: "B", PlaceA: 1, GroupB: "A", PlaceB: 2},
				},
			},
		},
	}
}

func (f *fixture) closedTournament(t *testing.T, teamCount int, liveDraw bool) *models.Tournament {
	t.Helper()
	tour, err := f.tournaments.CreateTournament(f.ctx, CreateTournamentInput{
		Name:    "Spring Cup",
		TeamIDs: teams(teamCount),
		Stages:  stageDefs(liveDraw),
	})
	require.NoError(t, err)
	tour, err = f.tournaments.CloseRegistration(f.ctx, tour.ID)
	require.NoError(t, err)
	return tour
}

// activeGroups returns a tournament whose groups stage is populated instantly.
func (f *fixture) activeGroups(t *testing.T) (*models.Tournament, *models.GroupRuntimeState) {
	t.Helper()
	tour := f.closedTournament(t, 8, false)
	state, err := f.groups.InitializeGroups(f.ctx, tour.ID, "gs")
	require.NoError(t, err)
	return tour, state
}

// playAll completes every open match; the lower team id always wins 2-0.
func (f *fixture) playAll(t *testing.T, tournamentID string) {
	t.Helper()
	matches, err := f.schedule.ListMatches(f.ctx, tournamentID, "gs", nil)
	require.NoError(t, err)
	for _, m := range matches {
		if m.IsComplete {
			continue
		}
		s1, s2 := 2, 0
		if m.Team2ID < m.Team1ID {
			s1, s2 = 0, 2
		}
		_, err := f.schedule.RecordResult(f.ctx, tournamentID, m.ID, s1, s2)
		require.NoError(t, err)
	}
}

func sortedTeams(g models.Group) []string {
	ids := append([]string(nil), g.TeamIDs...)
	sort.Strings(ids)
	return ids
}
