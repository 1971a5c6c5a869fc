package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

type PostgresStore struct {
	db     *sql.DB
	exec   SQLExecutor
	inTx   bool
	logger *slog.Logger
}

func NewPostgresStore(db *sql.DB, logger *slog.Logger) *PostgresStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresStore{db: db, exec: db, logger: logger}
}

func (s *PostgresStore) Tournaments() TournamentRepository {
	return &postgresTournamentRepository{exec: s.exec}
}

func (s *PostgresStore) Stages() StageRepository {
	return &postgresStageRepository{exec: s.exec, inTx: s.inTx}
}

func (s *PostgresStore) Matches() MatchRepository {
	return &postgresMatchRepository{exec: s.exec}
}

// WithTx runs fn inside one database transaction. Nested calls reuse the
// outer transaction.
func (s *PostgresStore) WithTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) (txErr error) {
	if s.inTx {
		return fn(ctx, s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		} else if txErr != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				s.logger.Error("transaction rollback failed", slog.Any("error", rbErr), slog.Any("cause", txErr))
				txErr = fmt.Errorf("transaction processing error: %w (rollback also failed: %v)", txErr, rbErr)
			}
		} else if cErr := tx.Commit(); cErr != nil {
			txErr = fmt.Errorf("failed to commit transaction: %w", cErr)
		}
	}()

	txErr = fn(ctx, &PostgresStore{db: s.db, exec: tx, inTx: true, logger: s.logger})
	return txErr
}

func (s *PostgresStore) Close(ctx context.Context) error {
	return s.db.Close()
}
