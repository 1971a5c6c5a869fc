package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Dosada05/stage-engine/models"
)

type postgresMatchRepository struct {
	exec SQLExecutor
}

const groupMatchColumns = `id, tournament_id, stage_id, group_id, matchday, match_number,
	team1_id, team2_id, team1_score, team2_score, is_complete, match_format, created_at`

func scanGroupMatch(row rowScanner) (*models.MatchRecord, error) {
	m := &models.MatchRecord{}
	var s1, s2 sql.NullInt64
	err := row.Scan(&m.ID, &m.TournamentID, &m.StageID, &m.GroupID, &m.Matchday, &m.MatchNumber,
		&m.Team1ID, &m.Team2ID, &s1, &s2, &m.IsComplete, &m.MatchFormat, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	m.Team1Score = nullIntPtr(s1)
	m.Team2Score = nullIntPtr(s2)
	return m, nil
}

// CreateMatchday writes the whole matchday with a single INSERT, so a failure
// leaves none of its rows behind even outside a transaction.
func (r *postgresMatchRepository) CreateMatchday(ctx context.Context, matches []models.MatchRecord) error {
	if len(matches) == 0 {
		return nil
	}
	const cols = 13
	var sb strings.Builder
	sb.WriteString(`INSERT INTO group_matches (` + groupMatchColumns + `) VALUES `)
	args := make([]interface{}, 0, len(matches)*cols)
	for i, m := range matches {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(")
		for c := 0; c < cols; c++ {
			if c > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "$%d", i*cols+c+1)
		}
		sb.WriteString(")")
		args = append(args, m.ID, m.TournamentID, m.StageID, m.GroupID, m.Matchday, m.MatchNumber,
			m.Team1ID, m.Team2ID, intPtrArg(m.Team1Score), intPtrArg(m.Team2Score), m.IsComplete, m.MatchFormat, m.CreatedAt)
	}

	if _, err := r.exec.ExecContext(ctx, sb.String(), args...); err != nil {
		if isUniqueViolation(err, "group_matches_stage_id_match_number_key") {
			return ErrMatchdayExists
		}
		return fmt.Errorf("failed to insert matchday %d of stage %s: %w", matches[0].Matchday, matches[0].StageID, err)
	}
	return nil
}

func (r *postgresMatchRepository) MatchdayExists(ctx context.Context, stageID string, matchday int) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM group_matches WHERE stage_id = $1 AND matchday = $2)`
	var exists bool
	if err := r.exec.QueryRowContext(ctx, query, stageID, matchday).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check matchday %d of stage %s: %w", matchday, stageID, err)
	}
	return exists, nil
}

func (r *postgresMatchRepository) ListByStage(ctx context.Context, stageID string, matchday *int) ([]models.MatchRecord, error) {
	query := `SELECT ` + groupMatchColumns + ` FROM group_matches WHERE stage_id = $1`
	args := []interface{}{stageID}
	if matchday != nil {
		query += ` AND matchday = $2`
		args = append(args, *matchday)
	}
	query += ` ORDER BY match_number`

	rows, err := r.exec.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches of stage %s: %w", stageID, err)
	}
	defer rows.Close()

	matches := make([]models.MatchRecord, 0)
	for rows.Next() {
		m, err := scanGroupMatch(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, *m)
	}
	return matches, rows.Err()
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, id string) (*models.MatchRecord, error) {
	query := `SELECT ` + groupMatchColumns + ` FROM group_matches WHERE id = $1`
	m, err := scanGroupMatch(r.exec.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	return m, nil
}

func (r *postgresMatchRepository) RecordResult(ctx context.Context, id string, team1Score, team2Score int) error {
	query := `
		UPDATE group_matches
		SET team1_score = $2, team2_score = $3, is_complete = TRUE
		WHERE id = $1 AND NOT is_complete`
	result, err := r.exec.ExecContext(ctx, query, id, team1Score, team2Score)
	if err != nil {
		return fmt.Errorf("failed to record result of match %s: %w", id, err)
	}
	if err := checkAffectedRows(result, ErrMatchCompleted); err != nil {
		if !errors.Is(err, ErrMatchCompleted) {
			return err
		}
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return getErr
		}
		return ErrMatchCompleted
	}
	return nil
}

const bracketMatchColumns = `id, tournament_id, stage_id, uid, round, order_in_round, match_number, match_format,
	team1_id, team2_id, source_match1_uid, source_match2_uid, is_bye, bye_team_id`

func (r *postgresMatchRepository) CreateBracketMatches(ctx context.Context, matches []*models.BracketMatch) error {
	if len(matches) == 0 {
		return nil
	}
	const cols = 14
	var sb strings.Builder
	sb.WriteString(`INSERT INTO bracket_matches (` + bracketMatchColumns + `) VALUES `)
	args := make([]interface{}, 0, len(matches)*cols)
	for i, m := range matches {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(")
		for c := 0; c < cols; c++ {
			if c > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "$%d", i*cols+c+1)
		}
		sb.WriteString(")")
		args = append(args, m.ID, m.TournamentID, m.StageID, m.UID, m.Round, m.OrderInRound, m.MatchNumber, m.MatchFormat,
			stringPtrArg(m.Team1ID), stringPtrArg(m.Team2ID), stringPtrArg(m.SourceMatch1UID), stringPtrArg(m.SourceMatch2UID),
			m.IsBye, stringPtrArg(m.ByeTeamID))
	}
	if _, err := r.exec.ExecContext(ctx, sb.String(), args...); err != nil {
		if isUniqueViolation(err, "") {
			return ErrBracketMatchesConflict
		}
		return fmt.Errorf("failed to insert bracket of stage %s: %w", matches[0].StageID, err)
	}
	return nil
}

func (r *postgresMatchRepository) ListBracketMatches(ctx context.Context, stageID string) ([]models.BracketMatch, error) {
	query := `SELECT ` + bracketMatchColumns + ` FROM bracket_matches WHERE stage_id = $1 ORDER BY round, order_in_round`
	rows, err := r.exec.QueryContext(ctx, query, stageID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bracket of stage %s: %w", stageID, err)
	}
	defer rows.Close()

	matches := make([]models.BracketMatch, 0)
	for rows.Next() {
		var m models.BracketMatch
		var t1, t2, src1, src2, bye sql.NullString
		if err := rows.Scan(&m.ID, &m.TournamentID, &m.StageID, &m.UID, &m.Round, &m.OrderInRound, &m.MatchNumber, &m.MatchFormat,
			&t1, &t2, &src1, &src2, &m.IsBye, &bye); err != nil {
			return nil, err
		}
		m.Team1ID, m.Team2ID = nullStringPtr(t1), nullStringPtr(t2)
		m.SourceMatch1UID, m.SourceMatch2UID = nullStringPtr(src1), nullStringPtr(src2)
		m.ByeTeamID = nullStringPtr(bye)
		matches = append(matches, m)
	}
	return matches, rows.Err()
}
