package brackets

import (
	"fmt"

	"github.com/Dosada05/stage-engine/models"
)

// SeedBracket turns final group standings into the seed array handed to a
// BracketGenerator.
//
// Template entry i (0-indexed) resolves to two teams. The first takes seed i+1
// (index i), the second takes seed teamCount-i (index teamCount-1-i). A
// generator that opens with seed 1 vs seed N, seed 2 vs seed N-1 and so on
// therefore reproduces the template's round 1 matchups exactly.
func SeedBracket(standings *models.StageStandings, advancePerGroup int, pairings []models.PairingTemplateEntry, teamCount int) ([]string, error) {
	if standings == nil || !standings.IsComplete {
		return nil, ErrStageNotComplete
	}
	if teamCount < 2 || teamCount%2 != 0 {
		return nil, fmt.Errorf("%w: team count %d must be even and at least 2", ErrInvalidInput, teamCount)
	}
	if advancePerGroup < 1 {
		return nil, fmt.Errorf("%w: advance per group %d", ErrInvalidInput, advancePerGroup)
	}
	if len(pairings) != teamCount/2 {
		return nil, fmt.Errorf("%w: %d template entries for %d teams, need %d",
			ErrInvalidPairingMapping, len(pairings), teamCount, teamCount/2)
	}

	for _, g := range standings.Groups {
		if len(g.Rows) < advancePerGroup {
			return nil, groupErr(g.GroupID, fmt.Errorf("%w: %d ranked teams, %d advance", ErrGroupNotFull, len(g.Rows), advancePerGroup))
		}
	}

	resolve := func(entry int, letter string, place int) (string, error) {
		g, ok := standings.GroupByLetter(letter)
		if !ok {
			return "", groupErr(letter, fmt.Errorf("%w: entry %d references missing group %s", ErrInvalidPairingMapping, entry+1, letter))
		}
		if place < 1 || place > advancePerGroup {
			return "", groupErr(g.GroupID, fmt.Errorf("%w: entry %d references place %d, %d advance", ErrInvalidPairingMapping, entry+1, place, advancePerGroup))
		}
		return g.Rows[place-1].TeamID, nil
	}

	seeds := make([]string, teamCount)
	for i, p := range pairings {
		first, err := resolve(i, p.GroupA, p.PlaceA)
		if err != nil {
			return nil, err
		}
		second, err := resolve(i, p.GroupB, p.PlaceB)
		if err != nil {
			return nil, err
		}
		seeds[i] = first
		seeds[teamCount-1-i] = second
	}

	seen := make(map[string]int, teamCount)
	for i, id := range seeds {
		if id == "" {
			return nil, fmt.Errorf("%w: seed %d is empty", ErrInvalidPairingMapping, i+1)
		}
		if prev, dup := seen[id]; dup {
			return nil, fmt.Errorf("%w: team %s at seeds %d and %d", ErrDuplicateTeamInBracket, id, prev+1, i+1)
		}
		seen[id] = i
	}
	return seeds, nil
}
