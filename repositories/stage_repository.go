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

type postgresStageRepository struct {
	exec SQLExecutor
	inTx bool
}

const stageColumns = `id, tournament_id, name, type, stage_order, config`

func scanStage(row rowScanner) (*models.StageDefinition, error) {
	st := &models.StageDefinition{}
	var config []byte
	if err := row.Scan(&st.ID, &st.TournamentID, &st.Name, &st.Type, &st.Order, &config); err != nil {
		return nil, err
	}
	if err := unmarshalStageConfig(st, config); err != nil {
		return nil, fmt.Errorf("failed to decode config of stage %s: %w", st.ID, err)
	}
	return st, nil
}

func (r *postgresStageRepository) GetByID(ctx context.Context, stageID string) (*models.StageDefinition, error) {
	query := `SELECT ` + stageColumns + ` FROM stages WHERE id = $1`
	st, err := scanStage(r.exec.QueryRowContext(ctx, query, stageID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStageNotFound
		}
		return nil, err
	}
	return st, nil
}

func (r *postgresStageRepository) ListByTournament(ctx context.Context, tournamentID string) ([]models.StageDefinition, error) {
	query := `SELECT ` + stageColumns + ` FROM stages WHERE tournament_id = $1 ORDER BY stage_order`
	rows, err := r.exec.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list stages of tournament %s: %w", tournamentID, err)
	}
	defer rows.Close()

	stages := make([]models.StageDefinition, 0)
	for rows.Next() {
		st, err := scanStage(rows)
		if err != nil {
			return nil, err
		}
		stages = append(stages, *st)
	}
	return stages, rows.Err()
}

func (r *postgresStageRepository) LockStage(ctx context.Context, stageID string) error {
	query := `SELECT id FROM stages WHERE id = $1`
	if r.inTx {
		query += ` FOR UPDATE`
	}
	var id string
	if err := r.exec.QueryRowContext(ctx, query, stageID).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrStageNotFound
		}
		return fmt.Errorf("failed to lock stage %s: %w", stageID, err)
	}
	return nil
}

func (r *postgresStageRepository) GetGroupState(ctx context.Context, stageID string) (*models.GroupRuntimeState, error) {
	query := `
		SELECT stage_id, status, groups, draw, updated_at
		FROM stage_group_states
		WHERE stage_id = $1`

	s := &models.GroupRuntimeState{}
	var groups, draw []byte
	err := r.exec.QueryRowContext(ctx, query, stageID).Scan(&s.StageID, &s.Status, &groups, &draw, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRuntimeStateNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(groups, &s.Groups); err != nil {
		return nil, fmt.Errorf("failed to decode groups of stage %s: %w", stageID, err)
	}
	if len(draw) > 0 {
		s.Draw = &models.DrawState{}
		if err := json.Unmarshal(draw, s.Draw); err != nil {
			return nil, fmt.Errorf("failed to decode draw of stage %s: %w", stageID, err)
		}
	}
	return s, nil
}

// encodeGroupState returns JSON text; lib/pq would send a raw []byte as bytea.
func encodeGroupState(s *models.GroupRuntimeState) (groups string, draw interface{}, err error) {
	g, err := json.Marshal(s.Groups)
	if err != nil {
		return "", nil, fmt.Errorf("failed to encode groups of stage %s: %w", s.StageID, err)
	}
	if s.Draw != nil {
		b, err := json.Marshal(s.Draw)
		if err != nil {
			return "", nil, fmt.Errorf("failed to encode draw of stage %s: %w", s.StageID, err)
		}
		draw = string(b)
	}
	return string(g), draw, nil
}

func (r *postgresStageRepository) CreateGroupState(ctx context.Context, s *models.GroupRuntimeState) error {
	groups, draw, err := encodeGroupState(s)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO stage_group_states (stage_id, status, groups, draw, updated_at)
		VALUES ($1, $2, $3, $4, $5)`
	if _, err := r.exec.ExecContext(ctx, query, s.StageID, s.Status, groups, draw, s.UpdatedAt); err != nil {
		if isUniqueViolation(err, "stage_group_states_pkey") {
			return ErrRuntimeStateExists
		}
		return fmt.Errorf("failed to insert group state of stage %s: %w", s.StageID, err)
	}
	return nil
}

func (r *postgresStageRepository) UpdateGroupState(ctx context.Context, s *models.GroupRuntimeState) error {
	groups, draw, err := encodeGroupState(s)
	if err != nil {
		return err
	}
	query := `
		UPDATE stage_group_states
		SET status = $2, groups = $3, draw = $4, updated_at = $5
		WHERE stage_id = $1`
	result, err := r.exec.ExecContext(ctx, query, s.StageID, s.Status, groups, draw, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update group state of stage %s: %w", s.StageID, err)
	}
	return checkAffectedRows(result, ErrRuntimeStateNotFound)
}

func (r *postgresStageRepository) GetPlayoffsState(ctx context.Context, stageID string) (*models.PlayoffsRuntimeState, error) {
	query := `
		SELECT stage_id, status, advancing_team_ids, seeded_at
		FROM stage_playoff_states
		WHERE stage_id = $1`

	s := &models.PlayoffsRuntimeState{}
	err := r.exec.QueryRowContext(ctx, query, stageID).Scan(&s.StageID, &s.Status, pq.Array(&s.AdvancingTeamIDs), &s.SeededAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRuntimeStateNotFound
		}
		return nil, err
	}
	return s, nil
}

func (r *postgresStageRepository) CreatePlayoffsState(ctx context.Context, s *models.PlayoffsRuntimeState) error {
	query := `
		INSERT INTO stage_playoff_states (stage_id, status, advancing_team_ids, seeded_at)
		VALUES ($1, $2, $3, $4)`
	if _, err := r.exec.ExecContext(ctx, query, s.StageID, s.Status, pq.Array(s.AdvancingTeamIDs), s.SeededAt); err != nil {
		if isUniqueViolation(err, "stage_playoff_states_pkey") {
			return ErrRuntimeStateExists
		}
		return fmt.Errorf("failed to insert playoffs state of stage %s: %w", s.StageID, err)
	}
	return nil
}
