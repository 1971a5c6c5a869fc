package models

import "fmt"

type StageType string

const (
	StageTypeGroupsRoundRobin StageType = "groups_round_robin"
	StageTypePlayoffs         StageType = "playoffs"
)

// Tiebreaker names one ranking criterion applied after points are tied.
type Tiebreaker string

const (
	TiebreakerPoints     Tiebreaker = "points"
	TiebreakerRoundDiff  Tiebreaker = "round_diff"
	TiebreakerRoundsWon  Tiebreaker = "rounds_won"
	TiebreakerWins       Tiebreaker = "wins"
	TiebreakerHeadToHead Tiebreaker = "head_to_head"
)

var supportedTiebreakers = map[Tiebreaker]bool{
	TiebreakerPoints:     true,
	TiebreakerRoundDiff:  true,
	TiebreakerRoundsWon:  true,
	TiebreakerWins:       true,
	TiebreakerHeadToHead: true,
}

func (t Tiebreaker) IsSupported() bool {
	return supportedTiebreakers[t]
}

// DefaultTiebreakers is used when a groups stage declares no ranking order.
var DefaultTiebreakers = []Tiebreaker{TiebreakerPoints, TiebreakerRoundDiff, TiebreakerRoundsWon}

// StageDefinition is a named phase of a tournament. Exactly one of Groups or
// Playoffs is set, matching Type.
type StageDefinition struct {
	ID           string    `json:"id" bson:"_id" db:"id"`
	TournamentID string    `json:"tournament_id" bson:"tournament_id" db:"tournament_id"`
	Name         string    `json:"name" bson:"name" db:"name" validate:"required,max=100"`
	Type         StageType `json:"type" bson:"type" db:"type" validate:"required,oneof=groups_round_robin playoffs"`
	Order        int       `json:"order" bson:"order" db:"stage_order" validate:"gte=0"`

	Groups   *GroupsRoundRobinConfig `json:"groups,omitempty" bson:"groups,omitempty" db:"-"`
	Playoffs *PlayoffsConfig         `json:"playoffs,omitempty" bson:"playoffs,omitempty" db:"-"`
}

type GroupsRoundRobinConfig struct {
	GroupCount           int          `json:"group_count" bson:"group_count" validate:"required,gt=0,lte=26"`
	TeamsPerGroup        int          `json:"teams_per_group" bson:"teams_per_group" validate:"required,gte=2,even"`
	TeamsAdvancePerGroup int          `json:"teams_advance_per_group" bson:"teams_advance_per_group" validate:"required,gt=0,ltefield=TeamsPerGroup"`
	MatchFormat          string       `json:"match_format" bson:"match_format" validate:"required,oneof=bo1 bo2 bo3 bo5"`
	PointsPerWin         int          `json:"points_per_win" bson:"points_per_win" validate:"gte=0"`
	PointsPerDraw        int          `json:"points_per_draw" bson:"points_per_draw" validate:"gte=0"`
	PointsPerLoss        int          `json:"points_per_loss" bson:"points_per_loss" validate:"gte=0"`
	Tiebreakers          []Tiebreaker `json:"tiebreakers" bson:"tiebreakers" validate:"omitempty,unique,dive,tiebreaker"`
	UseLiveDraw          bool         `json:"use_live_draw" bson:"use_live_draw"`
}

// TotalTeams is the registration size the stage expects.
func (c *GroupsRoundRobinConfig) TotalTeams() int {
	return c.GroupCount * c.TeamsPerGroup
}

// Matchdays is the number of rounds in a full single round robin.
func (c *GroupsRoundRobinConfig) Matchdays() int {
	return c.TeamsPerGroup - 1
}

func (c *GroupsRoundRobinConfig) MatchesPerGroup() int {
	return c.TeamsPerGroup * (c.TeamsPerGroup - 1) / 2
}

func (c *GroupsRoundRobinConfig) RankingOrder() []Tiebreaker {
	if len(c.Tiebreakers) == 0 {
		return DefaultTiebreakers
	}
	return c.Tiebreakers
}

type PlayoffsConfig struct {
	TeamCount           int                    `json:"team_count" bson:"team_count" validate:"required,gte=2,pow2"`
	MatchFormat         string                 `json:"match_format" bson:"match_format" validate:"required,oneof=bo1 bo2 bo3 bo5"`
	FixedRound1Pairings []PairingTemplateEntry `json:"fixed_round1_pairings" bson:"fixed_round1_pairings" validate:"required,min=1,dive"`
}

// PairingTemplateEntry pairs the team finishing PlaceA in GroupA against the
// team finishing PlaceB in GroupB. Groups are referenced by letter.
type PairingTemplateEntry struct {
	GroupA string `json:"group_a" bson:"group_a" validate:"required,len=1,alpha,uppercase"`
	PlaceA int    `json:"place_a" bson:"place_a" validate:"required,gte=1"`
	GroupB string `json:"group_b" bson:"group_b" validate:"required,len=1,alpha,uppercase"`
	PlaceB int    `json:"place_b" bson:"place_b" validate:"required,gte=1"`
}

func (e PairingTemplateEntry) String() string {
	return fmt.Sprintf("%s%d vs %s%d", e.GroupA, e.PlaceA, e.GroupB, e.PlaceB)
}

// GroupLetter returns the letter for the group at index i (0 → "A").
func GroupLetter(i int) string {
	return string(rune('A' + i))
}
