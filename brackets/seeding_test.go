package brackets

import (
	"errors"
	"testing"

	"github.com/Dosada05/stage-engine/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func finalStandings(letters ...string) *models.StageStandings {
	st := &models.StageStandings{StageID: "s1", IsComplete: true}
	for _, l := range letters {
		g := models.GroupStandings{GroupID: "s1:" + l, Letter: l, Name: "Group " + l}
		for place := 1; place <= 4; place++ {
			g.Rows = append(g.Rows, models.StandingRow{TeamID: l + string(rune('0'+place)), Rank: place})
		}
		st.Groups = append(st.Groups, g)
	}
	return st
}

// region SeedBracket tests

func TestSeedBracket_TwoGroupsCrossover(t *testing.T) {
	template := []models.PairingTemplateEntry{
		{GroupA: "A", PlaceA: 1, GroupB: "B", PlaceB: 2},
		{GroupA: "B", PlaceA: 1, GroupB: "A", PlaceB: 2},
	}
	seeds, err := SeedBracket(finalStandings("A", "B"), 2, template, 4)
	require.NoError(t, err)
	assert.Equal(t, []string{"A1", "B1", "A2", "B2"}, seeds)
}

func TestSeedBracket_MirroringMatchesTemplate(t *testing.T) {
	template := []models.PairingTemplateEntry{
		{GroupA: "A", PlaceA: 1, GroupB: "D", PlaceB: 2},
		{GroupA: "B", PlaceA: 1, GroupB: "C", PlaceB: 2},
		{GroupA: "C", PlaceA: 1, GroupB: "B", PlaceB: 2},
		{GroupA: "D", PlaceA: 1, GroupB: "A", PlaceB: 2},
	}
	seeds, err := SeedBracket(finalStandings("A", "B", "C", "D"), 2, template, 8)
	require.NoError(t, err)
	require.Len(t, seeds, 8)

	unique := map[string]bool{}
	for _, s := range seeds {
		unique[s] = true
	}
	assert.Len(t, unique, 8)

	for i, e := range template {
		assert.Equal(t, e.GroupA+string(rune('0'+e.PlaceA)), seeds[i])
		assert.Equal(t, e.GroupB+string(rune('0'+e.PlaceB)), seeds[len(seeds)-1-i])
	}
}

func TestSeedBracket_NotComplete(t *testing.T) {
	st := finalStandings("A", "B")
	st.IsComplete = false
	_, err := SeedBracket(st, 2, []models.PairingTemplateEntry{{GroupA: "A", PlaceA: 1, GroupB: "B", PlaceB: 2}, {GroupA: "B", PlaceA: 1, GroupB: "A", PlaceB: 2}}, 4)
	assert.ErrorIs(t, err, ErrStageNotComplete)
}

func TestSeedBracket_MissingGroup(t *testing.T) {
	template := []models.PairingTemplateEntry{{GroupA: "A", PlaceA: 1, GroupB: "C", PlaceB: 2}, {GroupA: "B", PlaceA: 1, GroupB: "A", PlaceB: 2}}
	_, err := SeedBracket(finalStandings("A", "B"), 2, template, 4)
	require.ErrorIs(t, err, ErrInvalidPairingMapping)

	var ge *GroupError
	require.True(t, errors.As(err, &ge))
	assert.Equal(t, "C", ge.GroupID)
}

func TestSeedBracket_PlaceBeyondAdvancing(t *testing.T) {
	template := []models.PairingTemplateEntry{{GroupA: "A", PlaceA: 1, GroupB: "B", PlaceB: 3}, {GroupA: "B", PlaceA: 1, GroupB: "A", PlaceB: 2}}
	_, err := SeedBracket(finalStandings("A", "B"), 2, template, 4)
	require.ErrorIs(t, err, ErrInvalidPairingMapping)

	var ge *GroupError
	require.True(t, errors.As(err, &ge))
	assert.Equal(t, "s1:B", ge.GroupID)
}

func TestSeedBracket_TemplateSizeMismatch(t *testing.T) {
	template := []models.PairingTemplateEntry{{GroupA: "A", PlaceA: 1, GroupB: "B", PlaceB: 2}}
	_, err := SeedBracket(finalStandings("A", "B"), 2, template, 4)
	assert.ErrorIs(t, err, ErrInvalidPairingMapping)
}

func TestSeedBracket_DuplicateTeam(t *testing.T) {
	template := []models.PairingTemplateEntry{{GroupA: "A", PlaceA: 1, GroupB: "B", PlaceB: 2}, {GroupA: "A", PlaceA: 1, GroupB: "B", PlaceB: 1}}
	seeds, err := SeedBracket(finalStandings("A", "B"), 2, template, 4)
	assert.Nil(t, seeds)
	assert.ErrorIs(t, err, ErrDuplicateTeamInBracket)
}

func TestSeedBracket_GroupTooSmall(t *testing.T) {
	st := finalStandings("A", "B")
	st.Groups[1].Rows = st.Groups[1].Rows[:1]
	_, err := SeedBracket(st, 2, []models.PairingTemplateEntry{{GroupA: "A", PlaceA: 1, GroupB: "B", PlaceB: 2}, {GroupA: "B", PlaceA: 1, GroupB: "A", PlaceB: 2}}, 4)
	assert.ErrorIs(t, err, ErrGroupNotFull)
}

// endregion
