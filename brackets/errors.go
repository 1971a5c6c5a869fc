package brackets

import (
	"errors"
	"fmt"

	"github.com/Dosada05/stage-engine/models"
)

var (
	ErrInvalidInput           = errors.New("invalid input")
	ErrTeamCountMismatch      = errors.New("registered team count does not match stage capacity")
	ErrGroupNotFull           = errors.New("group is not fully populated")
	ErrInvalidMatchday        = errors.New("matchday out of range")
	ErrStageNotComplete       = errors.New("groups stage is not complete")
	ErrInvalidPairingMapping  = errors.New("invalid playoff pairing mapping")
	ErrDuplicateTeamInBracket = errors.New("team appears more than once in bracket")
	ErrDrawNotInProgress      = errors.New("live draw is not in progress")
	ErrRevealPending          = errors.New("revealed team is waiting for placement")

	ErrUnsupportedTiebreaker = models.ErrUnsupportedTiebreaker
)

// GroupError ties a failure to the group it was detected in.
type GroupError struct {
	GroupID string
	Err     error
}

func (e *GroupError) Error() string {
	return fmt.Sprintf("group %s: %v", e.GroupID, e.Err)
}

func (e *GroupError) Unwrap() error {
	return e.Err
}

func groupErr(groupID string, err error) error {
	return &GroupError{GroupID: groupID, Err: err}
}
