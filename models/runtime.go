package models

import "time"

// StageStatus is the lifecycle of a stage's runtime state.
type StageStatus string

const (
	StageStatusNotStarted StageStatus = "not_started"
	StageStatusDrawing    StageStatus = "drawing"
	StageStatusActive     StageStatus = "active"
	StageStatusCompleted  StageStatus = "completed"
)

var stageTransitions = map[StageStatus][]StageStatus{
	StageStatusNotStarted: {StageStatusDrawing, StageStatusActive},
	StageStatusDrawing:    {StageStatusActive},
	StageStatusActive:     {StageStatusCompleted},
	StageStatusCompleted:  {},
}

// CanTransition reports whether a stage may move from one status to the next.
// Transitions only go forward; "drawing" is the only optional step.
func CanTransition(from, to StageStatus) bool {
	for _, allowed := range stageTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// GroupRuntimeState is the live state of a groups stage. Both population modes
// share it: an instant shuffle goes straight to active with Draw nil, a live
// draw stays in drawing with Draw set until every slot is filled.
type GroupRuntimeState struct {
	StageID   string      `json:"stage_id" bson:"_id"`
	Status    StageStatus `json:"status" bson:"status"`
	Groups    []Group     `json:"groups" bson:"groups"`
	Draw      *DrawState  `json:"draw,omitempty" bson:"draw,omitempty"`
	UpdatedAt time.Time   `json:"updated_at" bson:"updated_at"`
}

type Group struct {
	ID      string   `json:"id" bson:"id"`
	Name    string   `json:"name" bson:"name"`
	Letter  string   `json:"letter" bson:"letter"`
	TeamIDs []string `json:"team_ids" bson:"team_ids"`
}

type DrawState struct {
	RemainingPool  []string   `json:"remaining_pool" bson:"remaining_pool"`
	RevealedTeamID *string    `json:"revealed_team_id,omitempty" bson:"revealed_team_id,omitempty"`
	Cursor         DrawCursor `json:"cursor" bson:"cursor"`
	AutoAssign     bool       `json:"auto_assign" bson:"auto_assign"`
}

type DrawCursor struct {
	GroupIndex int `json:"group_index" bson:"group_index"`
	SlotIndex  int `json:"slot_index" bson:"slot_index"`
}

// GroupsFull reports whether every group holds exactly teamsPerGroup teams.
func (s *GroupRuntimeState) GroupsFull(teamsPerGroup int) bool {
	if len(s.Groups) == 0 {
		return false
	}
	for _, g := range s.Groups {
		if len(g.TeamIDs) != teamsPerGroup {
			return false
		}
	}
	return true
}

// Clone returns a deep copy so callers can mutate without aliasing stored state.
func (s *GroupRuntimeState) Clone() *GroupRuntimeState {
	if s == nil {
		return nil
	}
	out := *s
	out.Groups = make([]Group, len(s.Groups))
	for i, g := range s.Groups {
		g.TeamIDs = append([]string(nil), g.TeamIDs...)
		out.Groups[i] = g
	}
	if s.Draw != nil {
		d := *s.Draw
		d.RemainingPool = append([]string(nil), s.Draw.RemainingPool...)
		if s.Draw.RevealedTeamID != nil {
			id := *s.Draw.RevealedTeamID
			d.RevealedTeamID = &id
		}
		out.Draw = &d
	}
	return &out
}

// PlayoffsRuntimeState is created once, when the groups stage is sealed.
type PlayoffsRuntimeState struct {
	StageID          string      `json:"stage_id" bson:"_id"`
	Status           StageStatus `json:"status" bson:"status"`
	AdvancingTeamIDs []string    `json:"advancing_team_ids" bson:"advancing_team_ids"`
	SeededAt         time.Time   `json:"seeded_at" bson:"seeded_at"`
}
