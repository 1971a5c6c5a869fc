package brackets

import (
	"context"
	"fmt"
	"math/bits"
	"sort"

	"github.com/Dosada05/stage-engine/models"
)

type node struct {
	teamID           *string
	sourceMatchUID   *string
	isByePlaceholder bool
}

type SingleEliminationGenerator struct {
}

func NewSingleEliminationGenerator() BracketGenerator {
	return &SingleEliminationGenerator{}
}

func (g *SingleEliminationGenerator) GetName() string {
	return "SingleElimination"
}

// SeedOrder returns the slot order of seeds for a bracket of size (a power of
// two): 4 -> [1 4 2 3], 8 -> [1 8 4 5 2 7 3 6]. Adjacent slots meet in round 1.
func SeedOrder(size int) []int {
	order := []int{1}
	for len(order) < size {
		next := make([]int, 0, len(order)*2)
		total := len(order)*2 + 1
		for _, s := range order {
			next = append(next, s, total-s)
		}
		order = next
	}
	return order
}

func (g *SingleEliminationGenerator) GenerateBracket(ctx context.Context, params GenerateBracketParams) ([]*models.BracketMatch, error) {
	seeds := params.SeededTeamIDs
	n := len(seeds)
	if n < 2 {
		return nil, fmt.Errorf("%w: single elimination needs at least 2 seeds, got %d", ErrInvalidInput, n)
	}

	numRounds := bits.Len(uint(n - 1))
	sizeOfFullBracket := 1 << numRounds

	currentRoundNodes := make([]*node, 0, sizeOfFullBracket)
	for _, seed := range SeedOrder(sizeOfFullBracket) {
		if seed > n {
			currentRoundNodes = append(currentRoundNodes, &node{isByePlaceholder: true})
			continue
		}
		id := seeds[seed-1]
		currentRoundNodes = append(currentRoundNodes, &node{teamID: &id})
	}

	allGeneratedMatches := make([]*models.BracketMatch, 0, sizeOfFullBracket-1)
	for r := 1; r <= numRounds; r++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		nextRoundNodes := make([]*node, 0, len(currentRoundNodes)/2)
		matchesInThisRound := 0

		for i := 0; i < len(currentRoundNodes); i += 2 {
			node1 := currentRoundNodes[i]
			node2 := currentRoundNodes[i+1]

			matchesInThisRound++
			uid := fmt.Sprintf("R%dM%d", r, matchesInThisRound)

			bm := &models.BracketMatch{
				TournamentID: params.TournamentID,
				StageID:      params.StageID,
				UID:          uid,
				Round:        r,
				OrderInRound: matchesInThisRound,
				MatchFormat:  params.MatchFormat,
			}

			switch {
			case node1.teamID != nil && node2.isByePlaceholder:
				bm.IsBye = true
				bm.ByeTeamID = node1.teamID
				bm.Team1ID = node1.teamID
				nextRoundNodes = append(nextRoundNodes, &node{teamID: node1.teamID})
			case node2.teamID != nil && node1.isByePlaceholder:
				bm.IsBye = true
				bm.ByeTeamID = node2.teamID
				bm.Team1ID = node2.teamID
				nextRoundNodes = append(nextRoundNodes, &node{teamID: node2.teamID})
			case node1.isByePlaceholder && node2.isByePlaceholder:
				return nil, fmt.Errorf("%w: two byes meet in %s", ErrInvalidInput, uid)
			default:
				bm.Team1ID, bm.SourceMatch1UID = node1.teamID, node1.sourceMatchUID
				bm.Team2ID, bm.SourceMatch2UID = node2.teamID, node2.sourceMatchUID
				nextRoundNodes = append(nextRoundNodes, &node{sourceMatchUID: &uid})
			}

			allGeneratedMatches = append(allGeneratedMatches, bm)
		}
		currentRoundNodes = nextRoundNodes
	}

	sort.Slice(allGeneratedMatches, func(i, j int) bool {
		if allGeneratedMatches[i].Round != allGeneratedMatches[j].Round {
			return allGeneratedMatches[i].Round < allGeneratedMatches[j].Round
		}
		return allGeneratedMatches[i].OrderInRound < allGeneratedMatches[j].OrderInRound
	})
	for i, m := range allGeneratedMatches {
		m.MatchNumber = params.FirstMatchNumber + i
	}

	return allGeneratedMatches, nil
}
