package brackets

import (
	"fmt"
	"math/rand"

	"github.com/Dosada05/stage-engine/models"
)

// Shuffle returns a Fisher-Yates shuffled copy of ids. The input is untouched.
func Shuffle(rng *rand.Rand, ids []string) []string {
	out := append([]string(nil), ids...)
	for i := len(out) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// GroupID is stable per stage and letter, so matches can reference a group
// before it has any teams.
func GroupID(stageID string, index int) string {
	return stageID + ":" + models.GroupLetter(index)
}

// EmptyGroups lays out groupCount groups named "Group A", "Group B", ...
func EmptyGroups(stageID string, groupCount, teamsPerGroup int) []models.Group {
	groups := make([]models.Group, groupCount)
	for i := range groups {
		letter := models.GroupLetter(i)
		groups[i] = models.Group{
			ID:      GroupID(stageID, i),
			Name:    "Group " + letter,
			Letter:  letter,
			TeamIDs: make([]string, 0, teamsPerGroup),
		}
	}
	return groups
}

func checkTeamCount(cfg *models.GroupsRoundRobinConfig, teamIDs []string) error {
	if cfg == nil {
		return fmt.Errorf("%w: stage has no groups config", ErrInvalidInput)
	}
	if len(teamIDs) != cfg.TotalTeams() {
		return fmt.Errorf("%w: %d registered, %d groups of %d need %d",
			ErrTeamCountMismatch, len(teamIDs), cfg.GroupCount, cfg.TeamsPerGroup, cfg.TotalTeams())
	}
	seen := make(map[string]struct{}, len(teamIDs))
	for _, id := range teamIDs {
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: team %s registered twice", ErrInvalidInput, id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

// InstantGroups shuffles every team once and slices the result into
// contiguous chunks of TeamsPerGroup, one chunk per group in letter order.
func InstantGroups(stageID string, cfg *models.GroupsRoundRobinConfig, teamIDs []string, rng *rand.Rand) ([]models.Group, error) {
	if err := checkTeamCount(cfg, teamIDs); err != nil {
		return nil, err
	}
	shuffled := Shuffle(rng, teamIDs)
	groups := EmptyGroups(stageID, cfg.GroupCount, cfg.TeamsPerGroup)
	for i := range groups {
		start := i * cfg.TeamsPerGroup
		groups[i].TeamIDs = append(groups[i].TeamIDs, shuffled[start:start+cfg.TeamsPerGroup]...)
	}
	return groups, nil
}

// StartDraw prepares a live draw: empty groups, a shuffled pool and the cursor
// on the first slot of Group A.
func StartDraw(stageID string, cfg *models.GroupsRoundRobinConfig, teamIDs []string, rng *rand.Rand, autoAssign bool) ([]models.Group, *models.DrawState, error) {
	if err := checkTeamCount(cfg, teamIDs); err != nil {
		return nil, nil, err
	}
	draw := &models.DrawState{
		RemainingPool: Shuffle(rng, teamIDs),
		Cursor:        models.DrawCursor{GroupIndex: 0, SlotIndex: 0},
		AutoAssign:    autoAssign,
	}
	return EmptyGroups(stageID, cfg.GroupCount, cfg.TeamsPerGroup), draw, nil
}

// RevealResult describes one reveal step.
type RevealResult struct {
	TeamID     string `json:"team_id"`
	GroupID    string `json:"group_id,omitempty"`
	GroupIndex int    `json:"group_index"`
	SlotIndex  int    `json:"slot_index"`
	Placed     bool   `json:"placed"`
	Remaining  int    `json:"remaining"`
	Completed  bool   `json:"completed"`
}

// RevealNext pops one team off the pool. With auto-assign it lands on the
// cursor slot and the cursor advances row-major (every slot of a group before
// the next group). Without auto-assign the team is held in RevealedTeamID and
// further reveals fail until it has been placed.
//
// When the pool is empty and every group is full the state becomes active and
// the draw sub-state is dropped.
func RevealNext(state *models.GroupRuntimeState, teamsPerGroup int) (*RevealResult, error) {
	if state == nil || state.Status != models.StageStatusDrawing || state.Draw == nil {
		return nil, ErrDrawNotInProgress
	}
	draw := state.Draw
	if draw.RevealedTeamID != nil {
		return nil, fmt.Errorf("%w: team %s", ErrRevealPending, *draw.RevealedTeamID)
	}
	if len(draw.RemainingPool) == 0 {
		return nil, fmt.Errorf("%w: pool is empty", ErrDrawNotInProgress)
	}
	cur := draw.Cursor
	if cur.GroupIndex >= len(state.Groups) {
		return nil, fmt.Errorf("%w: cursor %d/%d is past the last group", ErrInvalidInput, cur.GroupIndex, cur.SlotIndex)
	}

	teamID := draw.RemainingPool[0]
	draw.RemainingPool = draw.RemainingPool[1:]

	res := &RevealResult{
		TeamID:     teamID,
		GroupID:    state.Groups[cur.GroupIndex].ID,
		GroupIndex: cur.GroupIndex,
		SlotIndex:  cur.SlotIndex,
		Remaining:  len(draw.RemainingPool),
	}

	if !draw.AutoAssign {
		draw.RevealedTeamID = &teamID
		return res, nil
	}

	state.Groups[cur.GroupIndex].TeamIDs = append(state.Groups[cur.GroupIndex].TeamIDs, teamID)
	res.Placed = true

	draw.Cursor.SlotIndex++
	if draw.Cursor.SlotIndex == teamsPerGroup {
		draw.Cursor.SlotIndex = 0
		draw.Cursor.GroupIndex++
	}

	if len(draw.RemainingPool) == 0 && state.GroupsFull(teamsPerGroup) {
		state.Status = models.StageStatusActive
		state.Draw = nil
		res.Completed = true
	}
	return res, nil
}
