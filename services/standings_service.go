package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/stage-engine/brackets"
	"github.com/Dosada05/stage-engine/metrics"
	"github.com/Dosada05/stage-engine/models"
	"github.com/Dosada05/stage-engine/repositories"
	"golang.org/x/sync/errgroup"
)

type StandingsService interface {
	// GetStandings recomputes the tables of a groups stage from its matches.
	// It has no side effects.
	GetStandings(ctx context.Context, tournamentID, stageID string) (*models.StageStandings, error)
}

type standingsService struct {
	store  repositories.Store
	logger *slog.Logger
}

func NewStandingsService(store repositories.Store, logger *slog.Logger) StandingsService {
	return &standingsService{store: store, logger: loggerOrDefault(logger)}
}

type standingsInput struct {
	stage   *models.StageDefinition
	state   *models.GroupRuntimeState
	matches []models.MatchRecord
}

func (s *standingsService) GetStandings(ctx context.Context, tournamentID, stageID string) (*models.StageStandings, error) {
	in := standingsInput{}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		stage, err := loadStage(gCtx, s.store, tournamentID, stageID, models.StageTypeGroupsRoundRobin)
		if err != nil {
			return err
		}
		in.stage = stage
		return nil
	})

	g.Go(func() error {
		state, err := loadGroupState(gCtx, s.store, stageID)
		if err != nil {
			return err
		}
		in.state = state
		return nil
	})

	g.Go(func() error {
		matches, err := s.store.Matches().ListByStage(gCtx, stageID, nil)
		if err != nil {
			return fmt.Errorf("failed to list matches for stage %s: %w", stageID, err)
		}
		in.matches = matches
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, newStageError("get_standings", tournamentID, stageID, 0, err)
	}

	standings, err := computeStandings(in)
	if err != nil {
		return nil, fail(ctx, s.logger, "get_standings", tournamentID, stageID, 0, err)
	}
	return standings, nil
}

// loadStandingsInput reads the same data as GetStandings one query at a time,
// for use inside a transaction.
func loadStandingsInput(ctx context.Context, tx repositories.Store, tournamentID, stageID string) (standingsInput, error) {
	stage, err := loadStage(ctx, tx, tournamentID, stageID, models.StageTypeGroupsRoundRobin)
	if err != nil {
		return standingsInput{}, err
	}
	state, err := loadGroupState(ctx, tx, stageID)
	if err != nil {
		return standingsInput{}, err
	}
	matches, err := tx.Matches().ListByStage(ctx, stageID, nil)
	if err != nil {
		return standingsInput{}, fmt.Errorf("failed to list matches for stage %s: %w", stageID, err)
	}
	return standingsInput{stage: stage, state: state, matches: matches}, nil
}

func computeStandings(in standingsInput) (*models.StageStandings, error) {
	started := time.Now()
	defer func() { metrics.RecordStandingsDuration(time.Since(started).Seconds()) }()

	if in.state.Status == models.StageStatusDrawing {
		return nil, fmt.Errorf("%w: live draw is still running", ErrStageNotActive)
	}
	return brackets.CalculateStandings(in.stage.ID, in.stage.Groups, in.state.Groups, in.matches)
}
