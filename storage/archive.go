package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/stage-engine/models"
)

// StageSnapshot is the sealed outcome of a groups stage: final standings and
// the seed array handed to the playoffs.
type StageSnapshot struct {
	TournamentID    string                 `json:"tournament_id"`
	GroupsStageID   string                 `json:"groups_stage_id"`
	PlayoffsStageID string                 `json:"playoffs_stage_id"`
	Standings       *models.StageStandings `json:"standings"`
	SeededTeamIDs   []string               `json:"seeded_team_ids"`
	SealedAt        time.Time              `json:"sealed_at"`
}

// SnapshotArchiver writes stage snapshots as JSON objects.
type SnapshotArchiver struct {
	uploader FileUploader
	logger   *slog.Logger
}

func NewSnapshotArchiver(uploader FileUploader, logger *slog.Logger) *SnapshotArchiver {
	if logger == nil {
		logger = slog.Default()
	}
	return &SnapshotArchiver{uploader: uploader, logger: logger}
}

// SnapshotKey is where the snapshot of one groups stage lives.
func SnapshotKey(tournamentID, groupsStageID string) string {
	return fmt.Sprintf("tournaments/%s/stages/%s/final.json", tournamentID, groupsStageID)
}

func (a *SnapshotArchiver) Archive(ctx context.Context, snap *StageSnapshot) (*UploadResult, error) {
	body, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("failed to encode stage snapshot: %w", err)
	}
	key := SnapshotKey(snap.TournamentID, snap.GroupsStageID)
	res, err := a.uploader.Upload(ctx, key, "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	a.logger.InfoContext(ctx, "Stage snapshot archived",
		slog.String("tournament_id", snap.TournamentID),
		slog.String("stage_id", snap.GroupsStageID),
		slog.String("key", res.Key))
	return res, nil
}
