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
	"github.com/google/uuid"
)

// MatchdayOutcome reports what GenerateAllMatchdays did for one round.
type MatchdayOutcome struct {
	Matchday    int  `json:"matchday"`
	Created     int  `json:"created"`
	AlreadyDone bool `json:"already_done"`
}

type MatchdayGeneratedPayload struct {
	StageID  string               `json:"stage_id"`
	Matchday int                  `json:"matchday"`
	Matches  []models.MatchRecord `json:"matches"`
}

type ScheduleService interface {
	// GenerateMatchday creates every match of one matchday across all groups,
	// or none of them.
	GenerateMatchday(ctx context.Context, tournamentID, stageID string, matchday int) ([]models.MatchRecord, error)
	// GenerateAllMatchdays walks the matchdays in order. Matchdays that already
	// exist are skipped, so an interrupted run can simply be repeated.
	GenerateAllMatchdays(ctx context.Context, tournamentID, stageID string) ([]MatchdayOutcome, error)
	ListMatches(ctx context.Context, tournamentID, stageID string, matchday *int) ([]models.MatchRecord, error)
	// RecordResult completes a group match with its final score.
	RecordResult(ctx context.Context, tournamentID, matchID string, team1Score, team2Score int) (*models.MatchRecord, error)
}

type scheduleService struct {
	store     repositories.Store
	publisher EventPublisher
	logger    *slog.Logger
}

func NewScheduleService(store repositories.Store, publisher EventPublisher, logger *slog.Logger) ScheduleService {
	return &scheduleService{
		store:     store,
		publisher: publisherOrNoop(publisher),
		logger:    loggerOrDefault(logger),
	}
}

func (s *scheduleService) GenerateMatchday(ctx context.Context, tournamentID, stageID string, matchday int) ([]models.MatchRecord, error) {
	var matches []models.MatchRecord
	err := s.store.WithTx(ctx, func(ctx context.Context, tx repositories.Store) error {
		stage, err := loadStage(ctx, tx, tournamentID, stageID, models.StageTypeGroupsRoundRobin)
		if err != nil {
			return err
		}
		if err := tx.Stages().LockStage(ctx, stageID); err != nil {
			return mapRepositoryError(err)
		}
		state, err := loadGroupState(ctx, tx, stageID)
		if err != nil {
			return err
		}
		switch state.Status {
		case models.StageStatusActive:
		case models.StageStatusDrawing:
			return fmt.Errorf("%w: live draw is still running", ErrGroupNotFull)
		default:
			return fmt.Errorf("%w: stage %s is %s", ErrStageNotActive, stageID, state.Status)
		}

		cfg := stage.Groups
		if matchday < 1 || matchday > cfg.Matchdays() {
			return fmt.Errorf("%w: matchday %d, stage has %d", ErrInvalidMatchday, matchday, cfg.Matchdays())
		}
		exists, err := tx.Matches().MatchdayExists(ctx, stageID, matchday)
		if err != nil {
			return fmt.Errorf("failed to check matchday %d: %w", matchday, err)
		}
		if exists {
			return ErrDuplicateGeneration
		}

		matches, err = brackets.BuildMatchday(stage, state.Groups, matchday, time.Now().UTC())
		if err != nil {
			return err
		}
		for i := range matches {
			matches[i].ID = uuid.NewString()
		}
		return mapRepositoryError(tx.Matches().CreateMatchday(ctx, matches))
	})
	if err != nil {
		return nil, fail(ctx, s.logger, "generate_matchday", tournamentID, stageID, matchday, err)
	}

	metrics.RecordMatchday(len(matches))
	s.logger.InfoContext(ctx, "Matchday generated",
		slog.String("tournament_id", tournamentID),
		slog.String("stage_id", stageID),
		slog.Int("matchday", matchday),
		slog.Int("matches", len(matches)))
	s.publisher.Publish(tournamentID, brackets.EventMatchdayGenerated, MatchdayGeneratedPayload{
		StageID:  stageID,
		Matchday: matchday,
		Matches:  matches,
	})
	return matches, nil
}

func (s *scheduleService) GenerateAllMatchdays(ctx context.Context, tournamentID, stageID string) ([]MatchdayOutcome, error) {
	stage, err := loadStage(ctx, s.store, tournamentID, stageID, models.StageTypeGroupsRoundRobin)
	if err != nil {
		return nil, fail(ctx, s.logger, "generate_all_matchdays", tournamentID, stageID, 0, err)
	}

	outcomes := make([]MatchdayOutcome, 0, stage.Groups.Matchdays())
	for md := 1; md <= stage.Groups.Matchdays(); md++ {
		matches, err := s.GenerateMatchday(ctx, tournamentID, stageID, md)
		switch {
		case err == nil:
			outcomes = append(outcomes, MatchdayOutcome{Matchday: md, Created: len(matches)})
		case IsAlreadyDone(err):
			outcomes = append(outcomes, MatchdayOutcome{Matchday: md, AlreadyDone: true})
		default:
			return outcomes, err
		}
	}
	return outcomes, nil
}

func (s *scheduleService) ListMatches(ctx context.Context, tournamentID, stageID string, matchday *int) ([]models.MatchRecord, error) {
	if _, err := loadStage(ctx, s.store, tournamentID, stageID, models.StageTypeGroupsRoundRobin); err != nil {
		return nil, err
	}
	matches, err := s.store.Matches().ListByStage(ctx, stageID, matchday)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches for stage %s: %w", stageID, err)
	}
	if matches == nil {
		return []models.MatchRecord{}, nil
	}
	return matches, nil
}

func (s *scheduleService) RecordResult(ctx context.Context, tournamentID, matchID string, team1Score, team2Score int) (*models.MatchRecord, error) {
	var match *models.MatchRecord
	err := s.store.WithTx(ctx, func(ctx context.Context, tx repositories.Store) error {
		if team1Score < 0 || team2Score < 0 {
			return fmt.Errorf("%w: scores must not be negative", ErrInvalidInput)
		}
		var err error
		match, err = tx.Matches().GetByID(ctx, matchID)
		if err != nil {
			return mapRepositoryError(err)
		}
		if match.TournamentID != tournamentID {
			return ErrMatchNotFound
		}
		if match.IsComplete {
			return ErrMatchAlreadyComplete
		}
		state, err := loadGroupState(ctx, tx, match.StageID)
		if err != nil {
			return err
		}
		if state.Status != models.StageStatusActive {
			return fmt.Errorf("%w: stage %s is %s", ErrStageNotActive, match.StageID, state.Status)
		}

		if err := tx.Matches().RecordResult(ctx, matchID, team1Score, team2Score); err != nil {
			return mapRepositoryError(err)
		}
		match.Team1Score, match.Team2Score = &team1Score, &team2Score
		match.IsComplete = true
		return nil
	})
	if err != nil {
		stageID := ""
		if match != nil {
			stageID = match.StageID
		}
		return nil, fail(ctx, s.logger, "record_result", tournamentID, stageID, 0, err)
	}

	metrics.RecordResult()
	s.logger.InfoContext(ctx, "Match result recorded",
		slog.String("tournament_id", tournamentID),
		slog.String("stage_id", match.StageID),
		slog.String("group_id", match.GroupID),
		slog.String("match_id", matchID),
		slog.Int("matchday", match.Matchday))
	s.publisher.Publish(tournamentID, brackets.EventResultRecorded, match)
	return match, nil
}
