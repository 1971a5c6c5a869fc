package repositories

import (
	"context"
	"errors"

	"github.com/Dosada05/stage-engine/models"
)

var (
	ErrTournamentNotFound     = errors.New("tournament not found")
	ErrTournamentConflict     = errors.New("tournament already exists")
	ErrStageNotFound          = errors.New("stage not found")
	ErrRuntimeStateNotFound   = errors.New("stage runtime state not found")
	ErrRuntimeStateExists     = errors.New("stage runtime state already exists")
	ErrMatchdayExists         = errors.New("matches already exist for this matchday")
	ErrMatchNotFound          = errors.New("match not found")
	ErrMatchCompleted         = errors.New("match is already complete")
	ErrBracketMatchesConflict = errors.New("bracket matches already exist for this stage")
)

type TournamentRepository interface {
	// Create stores the tournament together with its stage definitions.
	Create(ctx context.Context, t *models.Tournament, stages []models.StageDefinition) error
	GetByID(ctx context.Context, id string) (*models.Tournament, error)
	UpdateStatus(ctx context.Context, id string, status models.TournamentStatus) error
}

type StageRepository interface {
	GetByID(ctx context.Context, stageID string) (*models.StageDefinition, error)
	ListByTournament(ctx context.Context, tournamentID string) ([]models.StageDefinition, error)

	// LockStage serializes stage-advancing writers for the rest of the
	// surrounding transaction. Outside a transaction it only checks existence.
	LockStage(ctx context.Context, stageID string) error

	GetGroupState(ctx context.Context, stageID string) (*models.GroupRuntimeState, error)
	CreateGroupState(ctx context.Context, state *models.GroupRuntimeState) error
	UpdateGroupState(ctx context.Context, state *models.GroupRuntimeState) error

	GetPlayoffsState(ctx context.Context, stageID string) (*models.PlayoffsRuntimeState, error)
	CreatePlayoffsState(ctx context.Context, state *models.PlayoffsRuntimeState) error
}

type MatchRepository interface {
	// CreateMatchday inserts every match of one matchday or none of them.
	CreateMatchday(ctx context.Context, matches []models.MatchRecord) error
	MatchdayExists(ctx context.Context, stageID string, matchday int) (bool, error)
	ListByStage(ctx context.Context, stageID string, matchday *int) ([]models.MatchRecord, error)
	GetByID(ctx context.Context, id string) (*models.MatchRecord, error)
	// RecordResult completes an open match. A completed match is left untouched
	// and ErrMatchCompleted is returned.
	RecordResult(ctx context.Context, id string, team1Score, team2Score int) error

	CreateBracketMatches(ctx context.Context, matches []*models.BracketMatch) error
	ListBracketMatches(ctx context.Context, stageID string) ([]models.BracketMatch, error)
}

// Store groups the repositories of one backend. WithTx runs fn against a Store
// whose writes commit together when fn returns nil and are discarded otherwise.
type Store interface {
	Tournaments() TournamentRepository
	Stages() StageRepository
	Matches() MatchRepository

	WithTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
	Close(ctx context.Context) error
}
