package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/stage-engine/brackets"
	"github.com/Dosada05/stage-engine/metrics"
	"github.com/Dosada05/stage-engine/models"
	"github.com/Dosada05/stage-engine/repositories"
	"github.com/Dosada05/stage-engine/storage"
	"github.com/google/uuid"
)

// SnapshotArchiver stores the sealed outcome of a groups stage.
// *storage.SnapshotArchiver implements it.
type SnapshotArchiver interface {
	Archive(ctx context.Context, snap *storage.StageSnapshot) (*storage.UploadResult, error)
}

type SeedResult struct {
	GroupsStageID   string                 `json:"groups_stage_id"`
	PlayoffsStageID string                 `json:"playoffs_stage_id"`
	SeededTeamIDs   []string               `json:"seeded_team_ids"`
	Standings       *models.StageStandings `json:"standings"`
	Bracket         []*models.BracketMatch `json:"bracket"`
	ArchiveKey      string                 `json:"archive_key,omitempty"`
}

type PlayoffsView struct {
	State   *models.PlayoffsRuntimeState `json:"state"`
	Matches []models.BracketMatch        `json:"matches"`
}

type PlayoffService interface {
	// SeedPlayoffs seals a completed groups stage and opens the playoffs with
	// the seeded bracket, all in one transaction.
	SeedPlayoffs(ctx context.Context, tournamentID, groupsStageID, playoffsStageID string) (*SeedResult, error)
	GetPlayoffs(ctx context.Context, tournamentID, playoffsStageID string) (*PlayoffsView, error)
}

type playoffService struct {
	store     repositories.Store
	generator brackets.BracketGenerator
	archiver  SnapshotArchiver
	publisher EventPublisher
	logger    *slog.Logger
}

// NewPlayoffService builds the service. archiver may be nil, in which case
// snapshots are not written.
func NewPlayoffService(
	store repositories.Store,
	generator brackets.BracketGenerator,
	archiver SnapshotArchiver,
	publisher EventPublisher,
	logger *slog.Logger,
) PlayoffService {
	if generator == nil {
		generator = brackets.NewSingleEliminationGenerator()
	}
	return &playoffService{
		store:     store,
		generator: generator,
		archiver:  archiver,
		publisher: publisherOrNoop(publisher),
		logger:    loggerOrDefault(logger),
	}
}

func (s *playoffService) SeedPlayoffs(ctx context.Context, tournamentID, groupsStageID, playoffsStageID string) (*SeedResult, error) {
	result := &SeedResult{GroupsStageID: groupsStageID, PlayoffsStageID: playoffsStageID}
	sealedAt := time.Now().UTC()

	err := s.store.WithTx(ctx, func(ctx context.Context, tx repositories.Store) error {
		t, err := tx.Tournaments().GetByID(ctx, tournamentID)
		if err != nil {
			return mapRepositoryError(err)
		}
		playoffs, err := loadStage(ctx, tx, tournamentID, playoffsStageID, models.StageTypePlayoffs)
		if err != nil {
			return err
		}
		for _, id := range []string{groupsStageID, playoffsStageID} {
			if err := tx.Stages().LockStage(ctx, id); err != nil {
				return mapRepositoryError(err)
			}
		}

		_, err = tx.Stages().GetPlayoffsState(ctx, playoffsStageID)
		switch {
		case err == nil:
			return ErrAlreadyInitialized
		case !errors.Is(err, repositories.ErrRuntimeStateNotFound):
			return err
		}

		in, err := loadStandingsInput(ctx, tx, tournamentID, groupsStageID)
		if err != nil {
			return err
		}
		if in.stage.Order >= playoffs.Order {
			return fmt.Errorf("%w: groups stage %s does not precede playoffs stage %s", ErrInvalidConfig, groupsStageID, playoffsStageID)
		}
		if !models.CanTransition(in.state.Status, models.StageStatusCompleted) {
			return fmt.Errorf("%w: groups stage is %s", ErrStageNotActive, in.state.Status)
		}

		standings, err := computeStandings(in)
		if err != nil {
			return err
		}
		if !standings.IsComplete {
			return ErrStageNotComplete
		}

		groupsCfg, playoffsCfg := in.stage.Groups, playoffs.Playoffs
		seeds, err := brackets.SeedBracket(standings, groupsCfg.TeamsAdvancePerGroup, playoffsCfg.FixedRound1Pairings, playoffsCfg.TeamCount)
		if err != nil {
			return err
		}

		bracket, err := s.generator.GenerateBracket(ctx, brackets.GenerateBracketParams{
			TournamentID:     tournamentID,
			StageID:          playoffsStageID,
			SeededTeamIDs:    seeds,
			MatchFormat:      playoffsCfg.MatchFormat,
			FirstMatchNumber: groupsCfg.GroupCount*groupsCfg.MatchesPerGroup() + 1,
		})
		if err != nil {
			return fmt.Errorf("bracket generator %s failed: %w", s.generator.GetName(), err)
		}
		for _, m := range bracket {
			m.ID = uuid.NewString()
		}
		if err := tx.Matches().CreateBracketMatches(ctx, bracket); err != nil {
			return mapRepositoryError(err)
		}

		in.state.Status = models.StageStatusCompleted
		in.state.UpdatedAt = sealedAt
		if err := tx.Stages().UpdateGroupState(ctx, in.state); err != nil {
			return mapRepositoryError(err)
		}
		if err := tx.Stages().CreatePlayoffsState(ctx, &models.PlayoffsRuntimeState{
			StageID:          playoffsStageID,
			Status:           models.StageStatusActive,
			AdvancingTeamIDs: seeds,
			SeededAt:         sealedAt,
		}); err != nil {
			return mapRepositoryError(err)
		}
		if err := advanceTournament(ctx, tx, t, models.StatusPlayoffs); err != nil {
			return err
		}

		result.SeededTeamIDs = seeds
		result.Standings = standings
		result.Bracket = bracket
		return nil
	})
	if err != nil {
		return nil, fail(ctx, s.logger, "seed_playoffs", tournamentID, groupsStageID, 0, err)
	}

	metrics.RecordStageTransition(string(models.StageTypeGroupsRoundRobin), string(models.StageStatusCompleted))
	metrics.RecordStageTransition(string(models.StageTypePlayoffs), string(models.StageStatusActive))
	s.logger.InfoContext(ctx, "Playoffs seeded",
		slog.String("tournament_id", tournamentID),
		slog.String("stage_id", groupsStageID),
		slog.String("playoffs_stage_id", playoffsStageID),
		slog.Any("seeds", result.SeededTeamIDs))

	if s.archiver != nil {
		res, err := s.archiver.Archive(ctx, &storage.StageSnapshot{
			TournamentID:    tournamentID,
			GroupsStageID:   groupsStageID,
			PlayoffsStageID: playoffsStageID,
			Standings:       result.Standings,
			SeededTeamIDs:   result.SeededTeamIDs,
			SealedAt:        sealedAt,
		})
		if err != nil {
			s.logger.WarnContext(ctx, "Failed to archive stage snapshot",
				slog.String("tournament_id", tournamentID),
				slog.String("stage_id", groupsStageID),
				slog.Any("error", err))
		} else {
			result.ArchiveKey = res.Key
		}
	}

	s.publisher.Publish(tournamentID, brackets.EventPlayoffsSeeded, result)
	return result, nil
}

func (s *playoffService) GetPlayoffs(ctx context.Context, tournamentID, playoffsStageID string) (*PlayoffsView, error) {
	if _, err := loadStage(ctx, s.store, tournamentID, playoffsStageID, models.StageTypePlayoffs); err != nil {
		return nil, err
	}
	state, err := s.store.Stages().GetPlayoffsState(ctx, playoffsStageID)
	if errors.Is(err, repositories.ErrRuntimeStateNotFound) {
		return &PlayoffsView{
			State:   &models.PlayoffsRuntimeState{StageID: playoffsStageID, Status: models.StageStatusNotStarted, AdvancingTeamIDs: []string{}},
			Matches: []models.BracketMatch{},
		}, nil
	}
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	matches, err := s.store.Matches().ListBracketMatches(ctx, playoffsStageID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bracket matches for stage %s: %w", playoffsStageID, err)
	}
	return &PlayoffsView{State: state, Matches: matches}, nil
}
