package brackets

import (
	"errors"
	"testing"

	"github.com/Dosada05/stage-engine/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func played(groupID, t1, t2 string, s1, s2 int) models.MatchRecord {
	return models.MatchRecord{
		GroupID:    groupID,
		Team1ID:    t1,
		Team2ID:    t2,
		Team1Score: &s1,
		Team2Score: &s2,
		IsComplete: true,
	}
}

func singleGroup() (*models.GroupsRoundRobinConfig, []models.Group) {
	cfg := groupsConfig(1, 4)
	groups := EmptyGroups("s1", 1, 4)
	groups[0].TeamIDs = append(groups[0].TeamIDs, "t1", "t2", "t3", "t4")
	return cfg, groups
}

// t1 and t2 both finish on 6 points. t1 has the better round difference,
// t2 won their direct match.
func headToHeadMatches() []models.MatchRecord {
	g := "s1:A"
	return []models.MatchRecord{
		played(g, "t2", "t1", 2, 1),
		played(g, "t1", "t3", 2, 0),
		played(g, "t1", "t4", 2, 0),
		played(g, "t3", "t2", 2, 0),
		played(g, "t2", "t4", 2, 0),
		played(g, "t3", "t4", 1, 1),
	}
}

func rowOrder(gs models.GroupStandings) []string {
	ids := make([]string, len(gs.Rows))
	for i, r := range gs.Rows {
		ids[i] = r.TeamID
	}
	return ids
}

// region CalculateStandings tests

func TestCalculateStandings_DefaultTiebreakers(t *testing.T) {
	cfg, groups := singleGroup()
	st, err := CalculateStandings("s1", cfg, groups, headToHeadMatches())
	require.NoError(t, err)
	require.Len(t, st.Groups, 1)

	g := st.Groups[0]
	assert.Equal(t, []string{"t1", "t2", "t3", "t4"}, rowOrder(g))

	t1 := g.Rows[0]
	assert.Equal(t, 1, t1.Rank)
	assert.Equal(t, 3, t1.Played)
	assert.Equal(t, 2, t1.Wins)
	assert.Equal(t, 1, t1.Losses)
	assert.Equal(t, 6, t1.Points)
	assert.Equal(t, 5, t1.RoundsFor)
	assert.Equal(t, 2, t1.RoundsAgainst)
	assert.Equal(t, 3, t1.RoundDiff)

	t3 := g.Rows[2]
	assert.Equal(t, 4, t3.Points)
	assert.Equal(t, 1, t3.Draws)

	assert.True(t, st.IsComplete)
	assert.Equal(t, 6, g.CompletedMatches)
	assert.Equal(t, 6, g.ExpectedMatches)
}

func TestCalculateStandings_HeadToHead(t *testing.T) {
	cfg, groups := singleGroup()
	cfg.Tiebreakers = []models.Tiebreaker{models.TiebreakerPoints, models.TiebreakerHeadToHead, models.TiebreakerRoundDiff}

	st, err := CalculateStandings("s1", cfg, groups, headToHeadMatches())
	require.NoError(t, err)
	assert.Equal(t, []string{"t2", "t1", "t3", "t4"}, rowOrder(st.Groups[0]))
}

func TestCalculateStandings_Conservation(t *testing.T) {
	cfg, groups := singleGroup()
	matches := headToHeadMatches()[:4]

	st, err := CalculateStandings("s1", cfg, groups, matches)
	require.NoError(t, err)

	var sumPlayed, sumFor, sumAgainst int
	for _, r := range st.Groups[0].Rows {
		sumPlayed += r.Played
		sumFor += r.RoundsFor
		sumAgainst += r.RoundsAgainst
	}
	assert.Equal(t, 2*len(matches), sumPlayed)
	assert.Equal(t, sumFor, sumAgainst)
}

func TestCalculateStandings_IgnoresIncompleteMatches(t *testing.T) {
	cfg, groups := singleGroup()
	matches := headToHeadMatches()
	matches[0].IsComplete = false
	matches[1].Team2Score = nil

	st, err := CalculateStandings("s1", cfg, groups, matches)
	require.NoError(t, err)
	assert.False(t, st.IsComplete)
	assert.Equal(t, 4, st.Groups[0].CompletedMatches)
}

func TestCalculateStandings_NoResultsFallsBackToTeamID(t *testing.T) {
	cfg := groupsConfig(1, 4)
	groups := EmptyGroups("s1", 1, 4)
	groups[0].TeamIDs = append(groups[0].TeamIDs, "delta", "alpha", "charlie", "bravo")

	st, err := CalculateStandings("s1", cfg, groups, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "bravo", "charlie", "delta"}, rowOrder(st.Groups[0]))
	for i, r := range st.Groups[0].Rows {
		assert.Equal(t, i+1, r.Rank)
	}
	assert.False(t, st.IsComplete)
}

func TestCalculateStandings_StrictTotalOrder(t *testing.T) {
	cfg, groups := singleGroup()
	g := "s1:A"
	// Every match drawn 1-1: all rows identical on every criterion.
	matches := []models.MatchRecord{
		played(g, "t1", "t4", 1, 1), played(g, "t2", "t3", 1, 1),
		played(g, "t4", "t3", 1, 1), played(g, "t1", "t2", 1, 1),
		played(g, "t2", "t4", 1, 1), played(g, "t3", "t1", 1, 1),
	}
	cfg.Tiebreakers = []models.Tiebreaker{models.TiebreakerPoints, models.TiebreakerHeadToHead, models.TiebreakerWins}

	st, err := CalculateStandings("s1", cfg, groups, matches)
	require.NoError(t, err)
	rows := st.Groups[0].Rows
	assert.Equal(t, []string{"t1", "t2", "t3", "t4"}, rowOrder(st.Groups[0]))
	for i := 1; i < len(rows); i++ {
		assert.NotEqual(t, rows[i-1].TeamID, rows[i].TeamID)
		assert.Equal(t, rows[i-1].Rank+1, rows[i].Rank)
	}
	assert.True(t, st.IsComplete)
}

func TestCalculateStandings_Recomputable(t *testing.T) {
	cfg, groups := singleGroup()
	matches := headToHeadMatches()
	a, err := CalculateStandings("s1", cfg, groups, matches)
	require.NoError(t, err)
	b, err := CalculateStandings("s1", cfg, groups, matches)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestCalculateStandings_UnsupportedTiebreaker(t *testing.T) {
	cfg, groups := singleGroup()
	cfg.Tiebreakers = []models.Tiebreaker{"coin_flip"}
	_, err := CalculateStandings("s1", cfg, groups, nil)
	assert.ErrorIs(t, err, ErrUnsupportedTiebreaker)
}

func TestCalculateStandings_TeamOutsideGroup(t *testing.T) {
	cfg, groups := singleGroup()
	_, err := CalculateStandings("s1", cfg, groups, []models.MatchRecord{played("s1:A", "t1", "x9", 1, 0)})
	require.ErrorIs(t, err, ErrInvalidInput)
	var ge *GroupError
	require.True(t, errors.As(err, &ge))
	assert.Equal(t, "s1:A", ge.GroupID)
}

func TestCalculateStandings_CustomPoints(t *testing.T) {
	cfg, groups := singleGroup()
	cfg.PointsPerWin, cfg.PointsPerDraw, cfg.PointsPerLoss = 2, 1, 1

	st, err := CalculateStandings("s1", cfg, groups, []models.MatchRecord{played("s1:A", "t3", "t4", 0, 2)})
	require.NoError(t, err)
	byID := map[string]models.StandingRow{}
	for _, r := range st.Groups[0].Rows {
		byID[r.TeamID] = r
	}
	assert.Equal(t, 2, byID["t4"].Points)
	assert.Equal(t, 1, byID["t3"].Points)
	assert.Equal(t, "t4", st.Groups[0].Rows[0].TeamID)
}

// endregion
