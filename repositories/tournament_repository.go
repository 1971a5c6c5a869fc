package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Dosada05/stage-engine/models"
	"github.com/lib/pq"
)

type postgresTournamentRepository struct {
	exec SQLExecutor
}

func (r *postgresTournamentRepository) Create(ctx context.Context, t *models.Tournament, stages []models.StageDefinition) error {
	query := `
		INSERT INTO tournaments (id, name, status, team_ids, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.exec.ExecContext(ctx, query,
		t.ID, t.Name, t.Status, pq.Array(t.TeamIDs), t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "") {
			return ErrTournamentConflict
		}
		return fmt.Errorf("failed to insert tournament %s: %w", t.ID, err)
	}

	stageQuery := `
		INSERT INTO stages (id, tournament_id, name, type, stage_order, config)
		VALUES ($1, $2, $3, $4, $5, $6)`
	for _, st := range stages {
		config, err := marshalStageConfig(&st)
		if err != nil {
			return err
		}
		if _, err := r.exec.ExecContext(ctx, stageQuery, st.ID, t.ID, st.Name, st.Type, st.Order, config); err != nil {
			if isUniqueViolation(err, "") {
				return fmt.Errorf("%w: stage %s", ErrTournamentConflict, st.ID)
			}
			return fmt.Errorf("failed to insert stage %s: %w", st.ID, err)
		}
	}
	return nil
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, id string) (*models.Tournament, error) {
	query := `
		SELECT id, name, status, team_ids, created_at, updated_at
		FROM tournaments
		WHERE id = $1`

	t := &models.Tournament{}
	err := r.exec.QueryRowContext(ctx, query, id).Scan(
		&t.ID, &t.Name, &t.Status, pq.Array(&t.TeamIDs), &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *postgresTournamentRepository) UpdateStatus(ctx context.Context, id string, status models.TournamentStatus) error {
	query := `UPDATE tournaments SET status = $2, updated_at = now() WHERE id = $1`
	result, err := r.exec.ExecContext(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("failed to update status of tournament %s: %w", id, err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func marshalStageConfig(st *models.StageDefinition) (string, error) {
	var v interface{}
	switch st.Type {
	case models.StageTypeGroupsRoundRobin:
		v = st.Groups
	case models.StageTypePlayoffs:
		v = st.Playoffs
	default:
		return "", fmt.Errorf("unknown stage type %q", st.Type)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode config of stage %s: %w", st.ID, err)
	}
	return string(b), nil
}

func unmarshalStageConfig(st *models.StageDefinition, raw []byte) error {
	switch st.Type {
	case models.StageTypeGroupsRoundRobin:
		st.Groups = &models.GroupsRoundRobinConfig{}
		return json.Unmarshal(raw, st.Groups)
	case models.StageTypePlayoffs:
		st.Playoffs = &models.PlayoffsConfig{}
		return json.Unmarshal(raw, st.Playoffs)
	}
	return fmt.Errorf("unknown stage type %q", st.Type)
}
