package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Dosada05/stage-engine/metrics"
	"github.com/Dosada05/stage-engine/models"
	"github.com/Dosada05/stage-engine/repositories"
)

// EventPublisher pushes live updates to tournament viewers. *brackets.Hub
// implements it.
type EventPublisher interface {
	Publish(tournamentID, eventType string, payload interface{})
}

type noopPublisher struct{}

func (noopPublisher) Publish(string, string, interface{}) {}

func publisherOrNoop(p EventPublisher) EventPublisher {
	if p == nil {
		return noopPublisher{}
	}
	return p
}

func loggerOrDefault(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}

// mapRepositoryError turns storage errors into service sentinels.
func mapRepositoryError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrTournamentNotFound):
		return ErrTournamentNotFound
	case errors.Is(err, repositories.ErrTournamentConflict):
		return ErrTournamentConflict
	case errors.Is(err, repositories.ErrStageNotFound):
		return ErrStageNotFound
	case errors.Is(err, repositories.ErrMatchNotFound):
		return ErrMatchNotFound
	case errors.Is(err, repositories.ErrRuntimeStateExists):
		return ErrAlreadyInitialized
	case errors.Is(err, repositories.ErrMatchdayExists):
		return ErrDuplicateGeneration
	case errors.Is(err, repositories.ErrMatchCompleted):
		return ErrMatchAlreadyComplete
	case errors.Is(err, repositories.ErrBracketMatchesConflict):
		return ErrAlreadyInitialized
	default:
		return err
	}
}

func isValidStatusTransition(current, next models.TournamentStatus) bool {
	if current == next {
		return true
	}
	allowedTransitions := map[models.TournamentStatus][]models.TournamentStatus{
		models.StatusRegistration:       {models.StatusRegistrationClosed},
		models.StatusRegistrationClosed: {models.StatusGroupDraw, models.StatusGroupStage},
		models.StatusGroupDraw:          {models.StatusGroupStage},
		models.StatusGroupStage:         {models.StatusPlayoffs, models.StatusCompleted},
		models.StatusPlayoffs:           {models.StatusCompleted},
		models.StatusCompleted:          {},
	}
	for _, allowedNextStatus := range allowedTransitions[current] {
		if next == allowedNextStatus {
			return true
		}
	}
	return false
}

func advanceTournament(ctx context.Context, tx repositories.Store, t *models.Tournament, next models.TournamentStatus) error {
	if !isValidStatusTransition(t.Status, next) {
		return fmt.Errorf("%w: tournament %s cannot move from %s to %s", ErrInvalidStatusTransition, t.ID, t.Status, next)
	}
	if t.Status == next {
		return nil
	}
	if err := tx.Tournaments().UpdateStatus(ctx, t.ID, next); err != nil {
		return mapRepositoryError(err)
	}
	t.Status = next
	return nil
}

// loadStage fetches a stage and checks that it belongs to the tournament and
// has the wanted type.
func loadStage(ctx context.Context, store repositories.Store, tournamentID, stageID string, want models.StageType) (*models.StageDefinition, error) {
	stage, err := store.Stages().GetByID(ctx, stageID)
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	if stage.TournamentID != tournamentID {
		return nil, ErrStageNotFound
	}
	if stage.Type != want {
		return nil, fmt.Errorf("%w: stage %s is %s, want %s", ErrWrongStageType, stageID, stage.Type, want)
	}
	switch want {
	case models.StageTypeGroupsRoundRobin:
		if stage.Groups == nil {
			return nil, fmt.Errorf("%w: stage %s has no groups config", ErrInvalidConfig, stageID)
		}
	case models.StageTypePlayoffs:
		if stage.Playoffs == nil {
			return nil, fmt.Errorf("%w: stage %s has no playoffs config", ErrInvalidConfig, stageID)
		}
	}
	return stage, nil
}

// loadGroupState returns the runtime state of a groups stage, mapping a
// missing state to ErrStageNotActive.
func loadGroupState(ctx context.Context, store repositories.Store, stageID string) (*models.GroupRuntimeState, error) {
	state, err := store.Stages().GetGroupState(ctx, stageID)
	if errors.Is(err, repositories.ErrRuntimeStateNotFound) {
		return nil, fmt.Errorf("%w: stage %s has not been initialized", ErrStageNotActive, stageID)
	}
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	return state, nil
}

// fail wraps err with its location, counts the rejection and logs it at a
// level matching its kind.
func fail(ctx context.Context, logger *slog.Logger, op, tournamentID, stageID string, matchday int, err error) error {
	se := newStageError(op, tournamentID, stageID, matchday, err)
	kind := ErrorKind(err)
	metrics.RecordRejection(op, kind)

	attrs := []any{
		slog.String("op", op),
		slog.String("tournament_id", tournamentID),
		slog.String("stage_id", stageID),
		slog.String("kind", kind),
		slog.Any("error", err),
	}
	if se.GroupID != "" {
		attrs = append(attrs, slog.String("group_id", se.GroupID))
	}
	if matchday > 0 {
		attrs = append(attrs, slog.Int("matchday", matchday))
	}

	switch {
	case IsAlreadyDone(err):
		logger.InfoContext(ctx, "Operation already done", attrs...)
	case kind == "internal":
		logger.ErrorContext(ctx, "Stage operation failed", attrs...)
	default:
		logger.WarnContext(ctx, "Stage operation rejected", attrs...)
	}
	return se
}
