package models

// StandingRow is derived from completed matches on every read and never stored
// as a source of truth.
type StandingRow struct {
	TeamID        string `json:"team_id"`
	Rank          int    `json:"rank"`
	Played        int    `json:"played"`
	Wins          int    `json:"wins"`
	Losses        int    `json:"losses"`
	Draws         int    `json:"draws"`
	Points        int    `json:"points"`
	RoundsFor     int    `json:"rounds_for"`
	RoundsAgainst int    `json:"rounds_against"`
	RoundDiff     int    `json:"round_diff"`
}

type GroupStandings struct {
	GroupID          string        `json:"group_id"`
	Letter           string        `json:"letter"`
	Name             string        `json:"name"`
	Rows             []StandingRow `json:"rows"`
	CompletedMatches int           `json:"completed_matches"`
	ExpectedMatches  int           `json:"expected_matches"`
}

type StageStandings struct {
	StageID    string           `json:"stage_id"`
	Groups     []GroupStandings `json:"groups"`
	IsComplete bool             `json:"is_complete"`
}

func (s *StageStandings) GroupByLetter(letter string) (*GroupStandings, bool) {
	for i := range s.Groups {
		if s.Groups[i].Letter == letter {
			return &s.Groups[i], true
		}
	}
	return nil, false
}
