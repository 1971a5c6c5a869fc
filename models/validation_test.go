package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validStages() []StageDefinition {
	return []StageDefinition{
		{
			Name:  "Groups",
			Type:  StageTypeGroupsRoundRobin,
			Order: 1,
			Groups: &GroupsRoundRobinConfig{
				GroupCount:           2,
				TeamsPerGroup:        4,
				TeamsAdvancePerGroup: 2,
				MatchFormat:          "bo3",
				PointsPerWin:         3,
				PointsPerDraw:        1,
				Tiebreakers:          []Tiebreaker{TiebreakerPoints, TiebreakerHeadToHead},
			},
		},
		{
			Name:  "Playoffs",
			Type:  StageTypePlayoffs,
			Order: 2,
			Playoffs: &PlayoffsConfig{
				TeamCount:   4,
				MatchFormat: "bo5",
				FixedRound1Pairings: []PairingTemplateEntry{
					{GroupA: "A", PlaceA: 1, GroupB: "B", PlaceB: 2},
					{GroupA: "B", PlaceA: 1, GroupB: "A", PlaceB: 2},
				},
			},
		},
	}
}

func TestValidateStages_Valid(t *testing.T) {
	require.NoError(t, ValidateStages(validStages()))
}

func TestValidateStage_UnsupportedTiebreaker(t *testing.T) {
	stages := validStages()
	stages[0].Groups.Tiebreakers = []Tiebreaker{TiebreakerPoints, "coin_flip"}
	err := ValidateStage(&stages[0])
	assert.ErrorIs(t, err, ErrUnsupportedTiebreaker)
	assert.Contains(t, err.Error(), "coin_flip")
}

func TestValidateStage_OddTeamsPerGroup(t *testing.T) {
	stages := validStages()
	stages[0].Groups.TeamsPerGroup = 5
	assert.ErrorIs(t, ValidateStage(&stages[0]), ErrInvalidConfig)
}

func TestValidateStage_AdvanceExceedsGroupSize(t *testing.T) {
	stages := validStages()
	stages[0].Groups.TeamsAdvancePerGroup = 6
	assert.ErrorIs(t, ValidateStage(&stages[0]), ErrInvalidConfig)
}

func TestValidateStage_WrongVariant(t *testing.T) {
	stages := validStages()
	stages[0].Playoffs = stages[1].Playoffs
	assert.ErrorIs(t, ValidateStage(&stages[0]), ErrInvalidConfig)

	stages = validStages()
	stages[1].Playoffs = nil
	assert.ErrorIs(t, ValidateStage(&stages[1]), ErrInvalidConfig)
}

func TestValidateStage_PairingCount(t *testing.T) {
	stages := validStages()
	stages[1].Playoffs.FixedRound1Pairings = stages[1].Playoffs.FixedRound1Pairings[:1]
	assert.ErrorIs(t, ValidateStage(&stages[1]), ErrInvalidConfig)
}

func TestValidateStage_PlayoffsTeamCountNotPowerOfTwo(t *testing.T) {
	stage := StageDefinition{
		Name:  "Playoffs",
		Type:  StageTypePlayoffs,
		Order: 2,
		Playoffs: &PlayoffsConfig{
			TeamCount:   6,
			MatchFormat: "bo3",
			FixedRound1Pairings: []PairingTemplateEntry{
				{GroupA: "A", PlaceA: 1, GroupB: "B", PlaceB: 2},
				{GroupA: "B", PlaceA: 1, GroupB: "C", PlaceB: 2},
				{GroupA: "C", PlaceA: 1, GroupB: "A", PlaceB: 2},
			},
		},
	}
	err := ValidateStage(&stage)
	require.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "pow2")

	for _, n := range []int{2, 4, 8, 16} {
		stage.Playoffs.TeamCount = n
		stage.Playoffs.FixedRound1Pairings = make([]PairingTemplateEntry, n/2)
		for i := range stage.Playoffs.FixedRound1Pairings {
			stage.Playoffs.FixedRound1Pairings[i] = PairingTemplateEntry{GroupA: "A", PlaceA: 1, GroupB: "B", PlaceB: 1}
		}
		assert.NoError(t, ValidateStage(&stage), "team count %d", n)
	}
}

func TestValidateStages_TemplateReferencesUnknownGroup(t *testing.T) {
	stages := validStages()
	stages[1].Playoffs.FixedRound1Pairings[0].GroupB = "C"
	err := ValidateStages(stages)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "unknown group C")
}

func TestValidateStages_TemplatePlaceNotAdvancing(t *testing.T) {
	stages := validStages()
	stages[1].Playoffs.FixedRound1Pairings[0].PlaceB = 3
	assert.ErrorIs(t, ValidateStages(stages), ErrInvalidConfig)
}

func TestValidateStages_PlayoffsTeamCountMismatch(t *testing.T) {
	stages := validStages()
	stages[0].Groups.TeamsAdvancePerGroup = 1
	assert.ErrorIs(t, ValidateStages(stages), ErrInvalidConfig)
}

func TestValidateStages_DuplicateOrder(t *testing.T) {
	stages := validStages()
	stages[1].Order = 1
	assert.ErrorIs(t, ValidateStages(stages), ErrInvalidConfig)
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(StageStatusNotStarted, StageStatusDrawing))
	assert.True(t, CanTransition(StageStatusNotStarted, StageStatusActive))
	assert.True(t, CanTransition(StageStatusDrawing, StageStatusActive))
	assert.True(t, CanTransition(StageStatusActive, StageStatusCompleted))

	assert.False(t, CanTransition(StageStatusNotStarted, StageStatusCompleted))
	assert.False(t, CanTransition(StageStatusActive, StageStatusDrawing))
	assert.False(t, CanTransition(StageStatusCompleted, StageStatusActive))
	assert.False(t, CanTransition(StageStatusDrawing, StageStatusCompleted))
}

func TestGroupRuntimeState_CloneIsDeep(t *testing.T) {
	revealed := "t9"
	s := &GroupRuntimeState{
		Groups: []Group{{ID: "g", TeamIDs: []string{"t1"}}},
		Draw:   &DrawState{RemainingPool: []string{"t2"}, RevealedTeamID: &revealed},
	}
	c := s.Clone()
	c.Groups[0].TeamIDs[0] = "x"
	c.Draw.RemainingPool[0] = "y"
	*c.Draw.RevealedTeamID = "z"

	assert.Equal(t, "t1", s.Groups[0].TeamIDs[0])
	assert.Equal(t, "t2", s.Draw.RemainingPool[0])
	assert.Equal(t, "t9", *s.Draw.RevealedTeamID)
}
