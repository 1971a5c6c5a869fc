package models

import "time"

// MatchRecord is one group-stage match. Scores stay nil until the match-play
// subsystem reports a result.
type MatchRecord struct {
	ID           string    `json:"id" bson:"_id"`
	TournamentID string    `json:"tournament_id" bson:"tournament_id"`
	StageID      string    `json:"stage_id" bson:"stage_id"`
	GroupID      string    `json:"group_id" bson:"group_id"`
	Matchday     int       `json:"matchday" bson:"matchday"`
	MatchNumber  int       `json:"match_number" bson:"match_number"`
	Team1ID      string    `json:"team1_id" bson:"team1_id"`
	Team2ID      string    `json:"team2_id" bson:"team2_id"`
	Team1Score   *int      `json:"team1_score" bson:"team1_score"`
	Team2Score   *int      `json:"team2_score" bson:"team2_score"`
	IsComplete   bool      `json:"is_complete" bson:"is_complete"`
	MatchFormat  string    `json:"match_format" bson:"match_format"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
}

// Counted reports whether the match contributes to standings.
func (m *MatchRecord) Counted() bool {
	return m.IsComplete && m.Team1Score != nil && m.Team2Score != nil
}

// BracketMatch is a playoff match produced by the bracket generator. Teams are
// nil when the slot waits on the winner of SourceMatch1UID/SourceMatch2UID.
type BracketMatch struct {
	ID           string `json:"id" bson:"_id"`
	TournamentID string `json:"tournament_id" bson:"tournament_id"`
	StageID      string `json:"stage_id" bson:"stage_id"`
	UID          string `json:"uid" bson:"uid"`
	Round        int    `json:"round" bson:"round"`
	OrderInRound int    `json:"order_in_round" bson:"order_in_round"`
	MatchNumber  int    `json:"match_number" bson:"match_number"`
	MatchFormat  string `json:"match_format" bson:"match_format"`

	Team1ID *string `json:"team1_id,omitempty" bson:"team1_id,omitempty"`
	Team2ID *string `json:"team2_id,omitempty" bson:"team2_id,omitempty"`

	SourceMatch1UID *string `json:"source_match1_uid,omitempty" bson:"source_match1_uid,omitempty"`
	SourceMatch2UID *string `json:"source_match2_uid,omitempty" bson:"source_match2_uid,omitempty"`

	IsBye     bool    `json:"is_bye" bson:"is_bye"`
	ByeTeamID *string `json:"bye_team_id,omitempty" bson:"bye_team_id,omitempty"`
}
