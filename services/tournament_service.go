package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/stage-engine/models"
	"github.com/Dosada05/stage-engine/repositories"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type CreateTournamentInput struct {
	Name    string                   `json:"name" validate:"required,max=200"`
	TeamIDs []string                 `json:"team_ids" validate:"required,min=2,unique,dive,required,max=64"`
	Stages  []models.StageDefinition `json:"stages" validate:"required,min=1"`
}

type TournamentService interface {
	CreateTournament(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error)
	GetTournament(ctx context.Context, id string) (*models.Tournament, error)
	CloseRegistration(ctx context.Context, id string) (*models.Tournament, error)
}

type tournamentService struct {
	store  repositories.Store
	logger *slog.Logger
}

func NewTournamentService(store repositories.Store, logger *slog.Logger) TournamentService {
	return &tournamentService{store: store, logger: loggerOrDefault(logger)}
}

func (s *tournamentService) CreateTournament(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error) {
	if err := models.Validator().Struct(input); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return nil, fmt.Errorf("%w: tournament field %s failed on %q", ErrInvalidConfig, verrs[0].Namespace(), verrs[0].Tag())
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	stages := make([]models.StageDefinition, len(input.Stages))
	copy(stages, input.Stages)
	seenIDs := make(map[string]bool, len(stages))
	for i := range stages {
		if stages[i].ID == "" {
			stages[i].ID = uuid.NewString()
		}
		if seenIDs[stages[i].ID] {
			return nil, fmt.Errorf("%w: duplicate stage id %s", ErrInvalidConfig, stages[i].ID)
		}
		seenIDs[stages[i].ID] = true
	}
	if err := models.ValidateStages(stages); err != nil {
		s.logger.WarnContext(ctx, "Tournament stage configuration rejected", slog.String("name", input.Name), slog.Any("error", err))
		return nil, err
	}

	now := time.Now().UTC()
	t := &models.Tournament{
		ID:        uuid.NewString(),
		Name:      input.Name,
		Status:    models.StatusRegistration,
		TeamIDs:   append([]string(nil), input.TeamIDs...),
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := s.store.WithTx(ctx, func(ctx context.Context, tx repositories.Store) error {
		if err := tx.Tournaments().Create(ctx, t, stages); err != nil {
			return fmt.Errorf("failed to create tournament: %w", mapRepositoryError(err))
		}
		return nil
	})
	if err != nil {
		return nil, fail(ctx, s.logger, "create_tournament", t.ID, "", 0, err)
	}

	for i := range stages {
		stages[i].TournamentID = t.ID
	}
	t.Stages = stages

	s.logger.InfoContext(ctx, "Tournament created",
		slog.String("tournament_id", t.ID),
		slog.Int("teams", len(t.TeamIDs)),
		slog.Int("stages", len(stages)))
	return t, nil
}

func (s *tournamentService) GetTournament(ctx context.Context, id string) (*models.Tournament, error) {
	t, err := s.store.Tournaments().GetByID(ctx, id)
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	stages, err := s.store.Stages().ListByTournament(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list stages for tournament %s: %w", id, err)
	}
	t.Stages = stages
	return t, nil
}

func (s *tournamentService) CloseRegistration(ctx context.Context, id string) (*models.Tournament, error) {
	var t *models.Tournament
	err := s.store.WithTx(ctx, func(ctx context.Context, tx repositories.Store) error {
		var err error
		t, err = tx.Tournaments().GetByID(ctx, id)
		if err != nil {
			return mapRepositoryError(err)
		}
		if t.Status != models.StatusRegistration {
			return fmt.Errorf("%w: tournament %s is %s", ErrInvalidStatusTransition, id, t.Status)
		}
		return advanceTournament(ctx, tx, t, models.StatusRegistrationClosed)
	})
	if err != nil {
		return nil, fail(ctx, s.logger, "close_registration", id, "", 0, err)
	}
	s.logger.InfoContext(ctx, "Registration closed", slog.String("tournament_id", id), slog.Int("teams", len(t.TeamIDs)))
	return t, nil
}
