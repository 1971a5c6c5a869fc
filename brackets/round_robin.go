package brackets

import (
	"fmt"
	"time"

	"github.com/Dosada05/stage-engine/models"
)

// Pairing is one match of a round. Team1 is listed first (home side).
type Pairing struct {
	Team1ID string `json:"team1_id"`
	Team2ID string `json:"team2_id"`
}

type Round struct {
	Number   int       `json:"number"`
	Pairings []Pairing `json:"pairings"`
}

// RoundRobinPairings builds a full single round robin with the circle method.
// The first team stays fixed while the other N-1 rotate one position per round,
// and position i meets position N-1-i. Orientation flips on every odd round so
// nobody is listed first in every match. Output depends only on the input order.
func RoundRobinPairings(teamIDs []string) ([]Round, error) {
	if err := checkRoundRobinInput(teamIDs); err != nil {
		return nil, err
	}
	n := len(teamIDs)
	rounds := make([]Round, 0, n-1)
	for r := 0; r < n-1; r++ {
		rounds = append(rounds, Round{Number: r + 1, Pairings: circleRound(teamIDs, r)})
	}
	return rounds, nil
}

// RoundPairings returns only round `round` (1-indexed) of RoundRobinPairings.
func RoundPairings(teamIDs []string, round int) ([]Pairing, error) {
	if err := checkRoundRobinInput(teamIDs); err != nil {
		return nil, err
	}
	if round < 1 || round > len(teamIDs)-1 {
		return nil, fmt.Errorf("%w: round %d, %d teams play %d rounds", ErrInvalidMatchday, round, len(teamIDs), len(teamIDs)-1)
	}
	return circleRound(teamIDs, round-1), nil
}

func checkRoundRobinInput(teamIDs []string) error {
	n := len(teamIDs)
	if n < 2 || n%2 != 0 {
		return fmt.Errorf("%w: round robin needs an even number of teams (at least 2), got %d", ErrInvalidInput, n)
	}
	seen := make(map[string]struct{}, n)
	for _, id := range teamIDs {
		if id == "" {
			return fmt.Errorf("%w: empty team id", ErrInvalidInput)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: team %s listed twice", ErrInvalidInput, id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

// circleRound computes round r (0-indexed) without building the earlier ones.
func circleRound(teamIDs []string, r int) []Pairing {
	n := len(teamIDs)
	m := n - 1
	rest := teamIDs[1:]

	positions := make([]string, n)
	positions[0] = teamIDs[0]
	for p := 1; p < n; p++ {
		positions[p] = rest[((p-1-r)%m+m)%m]
	}

	pairs := make([]Pairing, 0, n/2)
	for i := 0; i < n/2; i++ {
		home, away := positions[i], positions[n-1-i]
		if r%2 == 1 {
			home, away = away, home
		}
		pairs = append(pairs, Pairing{Team1ID: home, Team2ID: away})
	}
	return pairs
}

// MatchNumber is dense across a stage: matchday-major, then group, then pair.
// Every (matchday, group, pair) maps to a distinct number without a counter.
func MatchNumber(matchday, groupIndex, pairIndex, groupCount, teamsPerGroup int) int {
	pairsPerGroup := teamsPerGroup / 2
	return ((matchday-1)*groupCount+groupIndex)*pairsPerGroup + pairIndex + 1
}

// BuildMatchday materializes matchday r (1-indexed) for every group of a stage.
// Either every group yields its matches or an error is returned and nothing is.
// Match IDs are left empty for the store to assign.
func BuildMatchday(stage *models.StageDefinition, groups []models.Group, matchday int, now time.Time) ([]models.MatchRecord, error) {
	if stage == nil || stage.Groups == nil {
		return nil, fmt.Errorf("%w: stage has no groups config", ErrInvalidInput)
	}
	cfg := stage.Groups
	if matchday < 1 || matchday > cfg.Matchdays() {
		return nil, fmt.Errorf("%w: matchday %d, stage has %d", ErrInvalidMatchday, matchday, cfg.Matchdays())
	}
	if len(groups) != cfg.GroupCount {
		return nil, fmt.Errorf("%w: stage has %d groups, config expects %d", ErrGroupNotFull, len(groups), cfg.GroupCount)
	}

	matches := make([]models.MatchRecord, 0, cfg.GroupCount*cfg.TeamsPerGroup/2)
	for gi, g := range groups {
		if len(g.TeamIDs) != cfg.TeamsPerGroup {
			return nil, groupErr(g.ID, fmt.Errorf("%w: %d of %d teams", ErrGroupNotFull, len(g.TeamIDs), cfg.TeamsPerGroup))
		}
		pairs, err := RoundPairings(g.TeamIDs, matchday)
		if err != nil {
			return nil, groupErr(g.ID, err)
		}
		for pi, p := range pairs {
			matches = append(matches, models.MatchRecord{
				TournamentID: stage.TournamentID,
				StageID:      stage.ID,
				GroupID:      g.ID,
				Matchday:     matchday,
				MatchNumber:  MatchNumber(matchday, gi, pi, cfg.GroupCount, cfg.TeamsPerGroup),
				Team1ID:      p.Team1ID,
				Team2ID:      p.Team2ID,
				MatchFormat:  cfg.MatchFormat,
				CreatedAt:    now,
			})
		}
	}
	return matches, nil
}
