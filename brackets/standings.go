package brackets

import (
	"fmt"
	"sort"

	"github.com/Dosada05/stage-engine/models"
)

// CalculateStandings rebuilds every group table from scratch out of the stage's
// matches. Only completed matches with both scores set are counted. Rows are
// ranked by cfg's tiebreaker order with team id as the last resort, so no two
// rows ever compare equal.
func CalculateStandings(stageID string, cfg *models.GroupsRoundRobinConfig, groups []models.Group, matches []models.MatchRecord) (*models.StageStandings, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: stage has no groups config", ErrInvalidInput)
	}
	order := cfg.RankingOrder()
	for _, tb := range order {
		if !tb.IsSupported() {
			return nil, fmt.Errorf("%w: %q", ErrUnsupportedTiebreaker, tb)
		}
	}

	type groupTable struct {
		rows    map[string]*models.StandingRow
		matches []*models.MatchRecord
	}
	tables := make(map[string]*groupTable, len(groups))
	for _, g := range groups {
		t := &groupTable{rows: make(map[string]*models.StandingRow, len(g.TeamIDs))}
		for _, teamID := range g.TeamIDs {
			t.rows[teamID] = &models.StandingRow{TeamID: teamID}
		}
		tables[g.ID] = t
	}

	for i := range matches {
		m := &matches[i]
		if !m.Counted() {
			continue
		}
		t, ok := tables[m.GroupID]
		if !ok {
			return nil, groupErr(m.GroupID, fmt.Errorf("%w: match %d references an unknown group", ErrInvalidInput, m.MatchNumber))
		}
		r1, ok1 := t.rows[m.Team1ID]
		r2, ok2 := t.rows[m.Team2ID]
		if !ok1 || !ok2 {
			return nil, groupErr(m.GroupID, fmt.Errorf("%w: match %d has a team outside the group", ErrInvalidInput, m.MatchNumber))
		}
		applyResult(cfg, r1, r2, *m.Team1Score, *m.Team2Score)
		t.matches = append(t.matches, m)
	}

	out := &models.StageStandings{
		StageID: stageID,
		Groups:  make([]models.GroupStandings, 0, len(groups)),
	}
	complete := len(groups) == cfg.GroupCount && len(groups) > 0
	for _, g := range groups {
		t := tables[g.ID]
		block := make([]*models.StandingRow, 0, len(t.rows))
		for _, teamID := range g.TeamIDs {
			row := t.rows[teamID]
			row.RoundDiff = row.RoundsFor - row.RoundsAgainst
			block = append(block, row)
		}
		ranked := rankBlock(block, order, cfg, t.matches)

		gs := models.GroupStandings{
			GroupID:          g.ID,
			Letter:           g.Letter,
			Name:             g.Name,
			Rows:             make([]models.StandingRow, len(ranked)),
			CompletedMatches: len(t.matches),
			ExpectedMatches:  cfg.MatchesPerGroup(),
		}
		for i, row := range ranked {
			row.Rank = i + 1
			gs.Rows[i] = *row
		}
		if len(g.TeamIDs) != cfg.TeamsPerGroup || gs.CompletedMatches != gs.ExpectedMatches {
			complete = false
		}
		out.Groups = append(out.Groups, gs)
	}
	out.IsComplete = complete
	return out, nil
}

func applyResult(cfg *models.GroupsRoundRobinConfig, r1, r2 *models.StandingRow, s1, s2 int) {
	r1.Played++
	r2.Played++
	r1.RoundsFor += s1
	r1.RoundsAgainst += s2
	r2.RoundsFor += s2
	r2.RoundsAgainst += s1
	switch {
	case s1 > s2:
		r1.Wins++
		r1.Points += cfg.PointsPerWin
		r2.Losses++
		r2.Points += cfg.PointsPerLoss
	case s2 > s1:
		r2.Wins++
		r2.Points += cfg.PointsPerWin
		r1.Losses++
		r1.Points += cfg.PointsPerLoss
	default:
		r1.Draws++
		r2.Draws++
		r1.Points += cfg.PointsPerDraw
		r2.Points += cfg.PointsPerDraw
	}
}

// rankBlock orders a block of rows by the first criterion, then recurses into
// every run that is still tied with the remaining criteria. Head-to-head keys
// depend on which teams are in the block.
func rankBlock(block []*models.StandingRow, criteria []models.Tiebreaker, cfg *models.GroupsRoundRobinConfig, matches []*models.MatchRecord) []*models.StandingRow {
	if len(block) <= 1 {
		return block
	}
	if len(criteria) == 0 {
		sort.Slice(block, func(i, j int) bool { return block[i].TeamID < block[j].TeamID })
		return block
	}

	keys := criterionKeys(criteria[0], block, cfg, matches)
	sort.SliceStable(block, func(i, j int) bool {
		return compareKeys(keys[block[i].TeamID], keys[block[j].TeamID]) > 0
	})

	out := make([]*models.StandingRow, 0, len(block))
	for start := 0; start < len(block); {
		end := start + 1
		for end < len(block) && compareKeys(keys[block[start].TeamID], keys[block[end].TeamID]) == 0 {
			end++
		}
		run := append([]*models.StandingRow(nil), block[start:end]...)
		out = append(out, rankBlock(run, criteria[1:], cfg, matches)...)
		start = end
	}
	return out
}

// criterionKeys returns a sort key per team; larger keys rank higher.
func criterionKeys(c models.Tiebreaker, block []*models.StandingRow, cfg *models.GroupsRoundRobinConfig, matches []*models.MatchRecord) map[string][]int {
	keys := make(map[string][]int, len(block))
	switch c {
	case models.TiebreakerPoints:
		for _, r := range block {
			keys[r.TeamID] = []int{r.Points}
		}
	case models.TiebreakerRoundDiff:
		for _, r := range block {
			keys[r.TeamID] = []int{r.RoundDiff}
		}
	case models.TiebreakerRoundsWon:
		for _, r := range block {
			keys[r.TeamID] = []int{r.RoundsFor}
		}
	case models.TiebreakerWins:
		for _, r := range block {
			keys[r.TeamID] = []int{r.Wins}
		}
	case models.TiebreakerHeadToHead:
		return headToHeadKeys(block, cfg, matches)
	}
	return keys
}

// headToHeadKeys is a mini league of the matches played between teams of the
// block: points first, then round difference.
func headToHeadKeys(block []*models.StandingRow, cfg *models.GroupsRoundRobinConfig, matches []*models.MatchRecord) map[string][]int {
	mini := make(map[string]*models.StandingRow, len(block))
	for _, r := range block {
		mini[r.TeamID] = &models.StandingRow{TeamID: r.TeamID}
	}
	for _, m := range matches {
		r1, ok1 := mini[m.Team1ID]
		r2, ok2 := mini[m.Team2ID]
		if !ok1 || !ok2 {
			continue
		}
		applyResult(cfg, r1, r2, *m.Team1Score, *m.Team2Score)
	}
	keys := make(map[string][]int, len(block))
	for id, r := range mini {
		keys[id] = []int{r.Points, r.RoundsFor - r.RoundsAgainst}
	}
	return keys
}

func compareKeys(a, b []int) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			if a[i] > b[i] {
				return 1
			}
			return -1
		}
	}
	return len(a) - len(b)
}
