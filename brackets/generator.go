package brackets

import (
	"context"

	"github.com/Dosada05/stage-engine/models"
)

// GenerateBracketParams carries the seed array produced by SeedBracket.
//
// Seed contract: SeededTeamIDs[k] is seed k+1. A generator must open round 1
// with seed 1 vs seed N, seed 2 vs seed N-1, ..., which is the order SeedBracket
// mirrors the fixed pairing template into. When N is not a power of two the top
// seeds receive byes instead and the template only holds for the lower seeds.
type GenerateBracketParams struct {
	TournamentID  string
	StageID       string
	SeededTeamIDs []string
	MatchFormat   string
	// FirstMatchNumber continues numbering after the groups stage.
	FirstMatchNumber int
}

type BracketGenerator interface {
	GenerateBracket(ctx context.Context, params GenerateBracketParams) ([]*models.BracketMatch, error)

	GetName() string
}
