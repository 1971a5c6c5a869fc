package brackets

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Dosada05/stage-engine/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func teamIDs(prefix string, n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("%s%d", prefix, i+1)
	}
	return ids
}

func pairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "|" + b
}

// region RoundRobinPairings tests

func TestRoundRobinPairings_FourTeams(t *testing.T) {
	rounds, err := RoundRobinPairings([]string{"A", "B", "C", "D"})
	require.NoError(t, err)
	require.Len(t, rounds, 3)

	assert.Equal(t, []Pairing{{"A", "D"}, {"B", "C"}}, rounds[0].Pairings)

	seen := map[string]int{}
	for _, r := range rounds {
		for _, p := range r.Pairings {
			seen[pairKey(p.Team1ID, p.Team2ID)]++
		}
	}
	assert.Len(t, seen, 6)
	for k, count := range seen {
		assert.Equal(t, 1, count, "pair %s", k)
	}
}

func TestRoundRobinPairings_EveryPairExactlyOnce(t *testing.T) {
	for _, n := range []int{2, 4, 6, 8, 10, 16} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			ids := teamIDs("t", n)
			rounds, err := RoundRobinPairings(ids)
			require.NoError(t, err)
			require.Len(t, rounds, n-1)

			seen := map[string]int{}
			for ri, r := range rounds {
				assert.Equal(t, ri+1, r.Number)
				require.Len(t, r.Pairings, n/2)
				inRound := map[string]bool{}
				for _, p := range r.Pairings {
					assert.NotEqual(t, p.Team1ID, p.Team2ID)
					assert.False(t, inRound[p.Team1ID], "%s twice in round %d", p.Team1ID, r.Number)
					assert.False(t, inRound[p.Team2ID], "%s twice in round %d", p.Team2ID, r.Number)
					inRound[p.Team1ID] = true
					inRound[p.Team2ID] = true
					seen[pairKey(p.Team1ID, p.Team2ID)]++
				}
			}
			assert.Len(t, seen, n*(n-1)/2)
			for k, count := range seen {
				assert.Equal(t, 1, count, "pair %s", k)
			}
		})
	}
}

func TestRoundRobinPairings_Deterministic(t *testing.T) {
	ids := teamIDs("team-", 8)
	first, err := RoundRobinPairings(ids)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := RoundRobinPairings(ids)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestRoundRobinPairings_OrientationAlternates(t *testing.T) {
	rounds, err := RoundRobinPairings([]string{"A", "B", "C", "D"})
	require.NoError(t, err)
	// A is fixed at position 0 and only listed first on even rounds.
	assert.Equal(t, "A", rounds[0].Pairings[0].Team1ID)
	assert.Equal(t, "A", rounds[1].Pairings[0].Team2ID)
	assert.Equal(t, "A", rounds[2].Pairings[0].Team1ID)
}

func TestRoundRobinPairings_InvalidInput(t *testing.T) {
	cases := map[string][]string{
		"empty":     {},
		"single":    {"A"},
		"odd":       {"A", "B", "C"},
		"duplicate": {"A", "B", "A", "C"},
		"blank id":  {"A", ""},
	}
	for name, ids := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := RoundRobinPairings(ids)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

// endregion

// region RoundPairings tests

func TestRoundPairings_MatchesFullSchedule(t *testing.T) {
	ids := teamIDs("t", 6)
	rounds, err := RoundRobinPairings(ids)
	require.NoError(t, err)
	for _, r := range rounds {
		got, err := RoundPairings(ids, r.Number)
		require.NoError(t, err)
		assert.Equal(t, r.Pairings, got)
	}
}

func TestRoundPairings_OutOfRange(t *testing.T) {
	ids := teamIDs("t", 4)
	_, err := RoundPairings(ids, 0)
	assert.ErrorIs(t, err, ErrInvalidMatchday)
	_, err = RoundPairings(ids, 4)
	assert.ErrorIs(t, err, ErrInvalidMatchday)
}

// endregion

// region BuildMatchday tests

func twoGroupStage() (*models.StageDefinition, []models.Group) {
	stage := &models.StageDefinition{
		ID:           "stage-1",
		TournamentID: "tour-1",
		Name:         "Groups",
		Type:         models.StageTypeGroupsRoundRobin,
		Groups: &models.GroupsRoundRobinConfig{
			GroupCount:           2,
			TeamsPerGroup:        4,
			TeamsAdvancePerGroup: 2,
			MatchFormat:          "bo3",
			PointsPerWin:         3,
			PointsPerDraw:        1,
		},
	}
	groups := EmptyGroups(stage.ID, 2, 4)
	groups[0].TeamIDs = append(groups[0].TeamIDs, "A1", "A2", "A3", "A4")
	groups[1].TeamIDs = append(groups[1].TeamIDs, "B1", "B2", "B3", "B4")
	return stage, groups
}

func TestBuildMatchday_FirstMatchday(t *testing.T) {
	stage, groups := twoGroupStage()
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	matches, err := BuildMatchday(stage, groups, 1, now)
	require.NoError(t, err)
	require.Len(t, matches, 4)

	assert.Equal(t, "A1", matches[0].Team1ID)
	assert.Equal(t, "A4", matches[0].Team2ID)
	assert.Equal(t, "A2", matches[1].Team1ID)
	assert.Equal(t, "A3", matches[1].Team2ID)
	assert.Equal(t, "stage-1:B", matches[2].GroupID)

	for i, m := range matches {
		assert.Equal(t, i+1, m.MatchNumber)
		assert.Equal(t, 1, m.Matchday)
		assert.Equal(t, "tour-1", m.TournamentID)
		assert.Equal(t, "stage-1", m.StageID)
		assert.Equal(t, "bo3", m.MatchFormat)
		assert.False(t, m.IsComplete)
		assert.Nil(t, m.Team1Score)
		assert.Nil(t, m.Team2Score)
		assert.Equal(t, now, m.CreatedAt)
	}
}

func TestBuildMatchday_NumbersUniqueAcrossStage(t *testing.T) {
	stage, groups := twoGroupStage()
	seen := map[int]bool{}
	for r := 1; r <= stage.Groups.Matchdays(); r++ {
		matches, err := BuildMatchday(stage, groups, r, time.Now())
		require.NoError(t, err)
		for _, m := range matches {
			assert.False(t, seen[m.MatchNumber], "match number %d reused", m.MatchNumber)
			seen[m.MatchNumber] = true
		}
	}
	assert.Len(t, seen, 12)
	for n := 1; n <= 12; n++ {
		assert.True(t, seen[n])
	}
}

func TestBuildMatchday_InvalidMatchday(t *testing.T) {
	stage, groups := twoGroupStage()
	_, err := BuildMatchday(stage, groups, 0, time.Now())
	assert.ErrorIs(t, err, ErrInvalidMatchday)
	_, err = BuildMatchday(stage, groups, 4, time.Now())
	assert.ErrorIs(t, err, ErrInvalidMatchday)
}

func TestBuildMatchday_GroupNotFull(t *testing.T) {
	stage, groups := twoGroupStage()
	groups[1].TeamIDs = groups[1].TeamIDs[:3]

	matches, err := BuildMatchday(stage, groups, 1, time.Now())
	assert.Nil(t, matches)
	require.ErrorIs(t, err, ErrGroupNotFull)

	var ge *GroupError
	require.True(t, errors.As(err, &ge))
	assert.Equal(t, "stage-1:B", ge.GroupID)
}

func TestBuildMatchday_MissingGroup(t *testing.T) {
	stage, groups := twoGroupStage()
	_, err := BuildMatchday(stage, groups[:1], 1, time.Now())
	assert.ErrorIs(t, err, ErrGroupNotFull)
}

// endregion
