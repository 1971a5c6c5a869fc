package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/Dosada05/stage-engine/brackets"
	"github.com/Dosada05/stage-engine/metrics"
	"github.com/Dosada05/stage-engine/models"
	"github.com/Dosada05/stage-engine/repositories"
)

type GroupStageService interface {
	// InitializeGroups populates the groups of a stage once registration has
	// closed, either instantly or by starting a live draw.
	InitializeGroups(ctx context.Context, tournamentID, stageID string) (*models.GroupRuntimeState, error)
	// RevealNext runs one live draw step and commits it on its own.
	RevealNext(ctx context.Context, tournamentID, stageID string) (*brackets.RevealResult, *models.GroupRuntimeState, error)
	GetGroups(ctx context.Context, tournamentID, stageID string) (*models.GroupRuntimeState, error)
}

type groupStageService struct {
	store     repositories.Store
	publisher EventPublisher
	logger    *slog.Logger

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewGroupStageService builds the service. A nil rng is replaced by one seeded
// from the clock.
func NewGroupStageService(store repositories.Store, publisher EventPublisher, logger *slog.Logger, rng *rand.Rand) GroupStageService {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &groupStageService{
		store:     store,
		publisher: publisherOrNoop(publisher),
		logger:    loggerOrDefault(logger),
		rng:       rng,
	}
}

func (s *groupStageService) InitializeGroups(ctx context.Context, tournamentID, stageID string) (*models.GroupRuntimeState, error) {
	var state *models.GroupRuntimeState
	err := s.store.WithTx(ctx, func(ctx context.Context, tx repositories.Store) error {
		t, err := tx.Tournaments().GetByID(ctx, tournamentID)
		if err != nil {
			return mapRepositoryError(err)
		}
		stage, err := loadStage(ctx, tx, tournamentID, stageID, models.StageTypeGroupsRoundRobin)
		if err != nil {
			return err
		}
		if err := tx.Stages().LockStage(ctx, stageID); err != nil {
			return mapRepositoryError(err)
		}

		_, err = tx.Stages().GetGroupState(ctx, stageID)
		switch {
		case err == nil:
			return ErrAlreadyInitialized
		case !errors.Is(err, repositories.ErrRuntimeStateNotFound):
			return err
		}

		if t.Status != models.StatusRegistrationClosed {
			return fmt.Errorf("%w: tournament %s is %s, registration must be closed first", ErrInvalidStatusTransition, t.ID, t.Status)
		}

		cfg := stage.Groups
		state = &models.GroupRuntimeState{StageID: stageID, UpdatedAt: time.Now().UTC()}
		next := models.StatusGroupStage

		s.rngMu.Lock()
		if cfg.UseLiveDraw {
			state.Groups, state.Draw, err = brackets.StartDraw(stageID, cfg, t.TeamIDs, s.rng, true)
			state.Status = models.StageStatusDrawing
			next = models.StatusGroupDraw
		} else {
			state.Groups, err = brackets.InstantGroups(stageID, cfg, t.TeamIDs, s.rng)
			state.Status = models.StageStatusActive
		}
		s.rngMu.Unlock()
		if err != nil {
			return err
		}

		if err := tx.Stages().CreateGroupState(ctx, state); err != nil {
			return mapRepositoryError(err)
		}
		return advanceTournament(ctx, tx, t, next)
	})
	if err != nil {
		return nil, fail(ctx, s.logger, "initialize_groups", tournamentID, stageID, 0, err)
	}

	metrics.RecordStageTransition(string(models.StageTypeGroupsRoundRobin), string(state.Status))
	s.logger.InfoContext(ctx, "Groups stage initialized",
		slog.String("tournament_id", tournamentID),
		slog.String("stage_id", stageID),
		slog.String("status", string(state.Status)))
	s.publisher.Publish(tournamentID, brackets.EventGroupsUpdated, publicGroupState(state))
	return publicGroupState(state), nil
}

func (s *groupStageService) RevealNext(ctx context.Context, tournamentID, stageID string) (*brackets.RevealResult, *models.GroupRuntimeState, error) {
	var (
		res   *brackets.RevealResult
		state *models.GroupRuntimeState
	)
	err := s.store.WithTx(ctx, func(ctx context.Context, tx repositories.Store) error {
		stage, err := loadStage(ctx, tx, tournamentID, stageID, models.StageTypeGroupsRoundRobin)
		if err != nil {
			return err
		}
		if err := tx.Stages().LockStage(ctx, stageID); err != nil {
			return mapRepositoryError(err)
		}
		state, err = tx.Stages().GetGroupState(ctx, stageID)
		if errors.Is(err, repositories.ErrRuntimeStateNotFound) {
			return ErrDrawNotInProgress
		}
		if err != nil {
			return err
		}

		res, err = brackets.RevealNext(state, stage.Groups.TeamsPerGroup)
		if err != nil {
			return err
		}
		state.UpdatedAt = time.Now().UTC()
		if err := tx.Stages().UpdateGroupState(ctx, state); err != nil {
			return mapRepositoryError(err)
		}
		if !res.Completed {
			return nil
		}

		t, err := tx.Tournaments().GetByID(ctx, tournamentID)
		if err != nil {
			return mapRepositoryError(err)
		}
		return advanceTournament(ctx, tx, t, models.StatusGroupStage)
	})
	if err != nil {
		return nil, nil, fail(ctx, s.logger, "reveal_next", tournamentID, stageID, 0, err)
	}

	metrics.RecordDrawReveal()
	s.logger.DebugContext(ctx, "Draw reveal",
		slog.String("tournament_id", tournamentID),
		slog.String("stage_id", stageID),
		slog.String("team_id", res.TeamID),
		slog.String("group_id", res.GroupID),
		slog.Int("remaining", res.Remaining))
	s.publisher.Publish(tournamentID, brackets.EventDrawReveal, res)

	if res.Completed {
		metrics.RecordStageTransition(string(models.StageTypeGroupsRoundRobin), string(models.StageStatusActive))
		s.logger.InfoContext(ctx, "Live draw completed", slog.String("tournament_id", tournamentID), slog.String("stage_id", stageID))
		s.publisher.Publish(tournamentID, brackets.EventGroupsUpdated, publicGroupState(state))
	}
	return res, publicGroupState(state), nil
}

func (s *groupStageService) GetGroups(ctx context.Context, tournamentID, stageID string) (*models.GroupRuntimeState, error) {
	if _, err := loadStage(ctx, s.store, tournamentID, stageID, models.StageTypeGroupsRoundRobin); err != nil {
		return nil, err
	}
	state, err := s.store.Stages().GetGroupState(ctx, stageID)
	if errors.Is(err, repositories.ErrRuntimeStateNotFound) {
		return &models.GroupRuntimeState{StageID: stageID, Status: models.StageStatusNotStarted, Groups: []models.Group{}}, nil
	}
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	return publicGroupState(state), nil
}

// publicGroupState hides the order of the undrawn pool from viewers.
func publicGroupState(state *models.GroupRuntimeState) *models.GroupRuntimeState {
	out := state.Clone()
	if out.Draw != nil {
		out.Draw.RemainingPool = nil
	}
	return out
}
