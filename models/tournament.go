package models

import "time"

// TournamentStatus tracks the tournament as a whole across its stages.
type TournamentStatus string

const (
	StatusRegistration       TournamentStatus = "registration"
	StatusRegistrationClosed TournamentStatus = "registration_closed"
	StatusGroupDraw          TournamentStatus = "group_draw"
	StatusGroupStage         TournamentStatus = "group_stage"
	StatusPlayoffs           TournamentStatus = "playoffs"
	StatusCompleted          TournamentStatus = "completed"
)

// Tournament holds registered teams and the ordered stage definitions.
type Tournament struct {
	ID        string           `json:"id" bson:"_id" db:"id"`
	Name      string           `json:"name" bson:"name" db:"name"`
	Status    TournamentStatus `json:"status" bson:"status" db:"status"`
	TeamIDs   []string         `json:"team_ids" bson:"team_ids" db:"team_ids"`
	CreatedAt time.Time        `json:"created_at" bson:"created_at" db:"created_at"`
	UpdatedAt time.Time        `json:"updated_at" bson:"updated_at" db:"updated_at"`

	Stages []StageDefinition `json:"stages,omitempty" bson:"-" db:"-"`
}
