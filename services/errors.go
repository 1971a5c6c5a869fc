package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Dosada05/stage-engine/brackets"
	"github.com/Dosada05/stage-engine/models"
)

// Errors shared by the services and the HTTP error mapping.
var (
	ErrInvalidInput           = brackets.ErrInvalidInput
	ErrTeamCountMismatch      = brackets.ErrTeamCountMismatch
	ErrGroupNotFull           = brackets.ErrGroupNotFull
	ErrInvalidMatchday        = brackets.ErrInvalidMatchday
	ErrStageNotComplete       = brackets.ErrStageNotComplete
	ErrInvalidPairingMapping  = brackets.ErrInvalidPairingMapping
	ErrDuplicateTeamInBracket = brackets.ErrDuplicateTeamInBracket
	ErrDrawNotInProgress      = brackets.ErrDrawNotInProgress
	ErrRevealPending          = brackets.ErrRevealPending
	ErrUnsupportedTiebreaker  = brackets.ErrUnsupportedTiebreaker
	ErrInvalidConfig          = models.ErrInvalidConfig

	// Returned when a stage-advancing operation is repeated.
	ErrAlreadyInitialized  = errors.New("stage is already initialized")
	ErrDuplicateGeneration = errors.New("matchday has already been generated")

	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrStageNotActive          = errors.New("stage is not active")
	ErrWrongStageType          = errors.New("stage has the wrong type for this operation")
	ErrMatchAlreadyComplete    = errors.New("match is already complete")

	ErrTournamentConflict = errors.New("tournament or stage id already exists")
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrStageNotFound      = errors.New("stage not found")
	ErrMatchNotFound      = errors.New("match not found")
)

// StageError locates a failure inside a tournament's schedule. It unwraps to
// the underlying sentinel, so errors.Is keeps working on it.
type StageError struct {
	Op           string
	TournamentID string
	StageID      string
	GroupID      string
	Matchday     int
	Err          error
}

func (e *StageError) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	if e.TournamentID != "" {
		fmt.Fprintf(&b, " tournament=%s", e.TournamentID)
	}
	if e.StageID != "" {
		fmt.Fprintf(&b, " stage=%s", e.StageID)
	}
	if e.GroupID != "" {
		fmt.Fprintf(&b, " group=%s", e.GroupID)
	}
	if e.Matchday > 0 {
		fmt.Fprintf(&b, " matchday=%d", e.Matchday)
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	return b.String()
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func newStageError(op, tournamentID, stageID string, matchday int, err error) *StageError {
	se := &StageError{Op: op, TournamentID: tournamentID, StageID: stageID, Matchday: matchday, Err: err}
	var ge *brackets.GroupError
	if errors.As(err, &ge) {
		se.GroupID = ge.GroupID
	}
	return se
}

// IsAlreadyDone reports whether err only says the requested work already
// happened. Automated retriers may treat it as success; interactive callers
// should surface it as a mistake.
func IsAlreadyDone(err error) bool {
	return errors.Is(err, ErrAlreadyInitialized) || errors.Is(err, ErrDuplicateGeneration)
}

// ErrorKind names the sentinel behind err for metrics labels and logs.
func ErrorKind(err error) string {
	kinds := []struct {
		err  error
		kind string
	}{
		{ErrAlreadyInitialized, "already_initialized"},
		{ErrDuplicateGeneration, "duplicate_generation"},
		{ErrTeamCountMismatch, "team_count_mismatch"},
		{ErrGroupNotFull, "group_not_full"},
		{ErrInvalidMatchday, "invalid_matchday"},
		{ErrStageNotComplete, "stage_not_complete"},
		{ErrInvalidPairingMapping, "invalid_pairing_mapping"},
		{ErrDuplicateTeamInBracket, "duplicate_team_in_bracket"},
		{ErrDrawNotInProgress, "draw_not_in_progress"},
		{ErrRevealPending, "reveal_pending"},
		{ErrUnsupportedTiebreaker, "unsupported_tiebreaker"},
		{ErrInvalidConfig, "invalid_config"},
		{ErrInvalidStatusTransition, "invalid_status_transition"},
		{ErrStageNotActive, "stage_not_active"},
		{ErrWrongStageType, "wrong_stage_type"},
		{ErrMatchAlreadyComplete, "match_already_complete"},
		{ErrTournamentConflict, "tournament_conflict"},
		{ErrTournamentNotFound, "tournament_not_found"},
		{ErrStageNotFound, "stage_not_found"},
		{ErrMatchNotFound, "match_not_found"},
		{ErrInvalidInput, "invalid_input"},
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return "internal"
}
