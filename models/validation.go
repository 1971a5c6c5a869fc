package models

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	ErrInvalidConfig         = errors.New("invalid stage configuration")
	ErrUnsupportedTiebreaker = errors.New("unsupported tiebreaker")
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validator returns the shared validator with the stage rules registered.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New()
		v.RegisterValidation("even", validateEven)
		v.RegisterValidation("pow2", validatePowerOfTwo)
		v.RegisterValidation("tiebreaker", validateTiebreaker)
		validate = v
	})
	return validate
}

func validateEven(fl validator.FieldLevel) bool {
	return fl.Field().Int()%2 == 0
}

// validatePowerOfTwo holds single-elimination brackets to sizes that need no byes.
func validatePowerOfTwo(fl validator.FieldLevel) bool {
	n := fl.Field().Int()
	return n > 0 && n&(n-1) == 0
}

func validateTiebreaker(fl validator.FieldLevel) bool {
	return Tiebreaker(fl.Field().String()).IsSupported()
}

// ValidateStage checks a single stage definition, including the config variant
// selected by its Type.
func ValidateStage(def *StageDefinition) error {
	if def == nil {
		return fmt.Errorf("%w: stage definition is nil", ErrInvalidConfig)
	}
	if def.Groups != nil {
		// Reported by name before the generic tag pass so callers can tell it apart.
		for _, tb := range def.Groups.Tiebreakers {
			if !tb.IsSupported() {
				return fmt.Errorf("%w: %q in stage %q", ErrUnsupportedTiebreaker, tb, def.Name)
			}
		}
	}
	if err := Validator().Struct(def); err != nil {
		return formatValidationErrors(def.Name, err)
	}

	switch def.Type {
	case StageTypeGroupsRoundRobin:
		if def.Groups == nil || def.Playoffs != nil {
			return fmt.Errorf("%w: stage %q of type %s needs a groups config only", ErrInvalidConfig, def.Name, def.Type)
		}
	case StageTypePlayoffs:
		if def.Playoffs == nil || def.Groups != nil {
			return fmt.Errorf("%w: stage %q of type %s needs a playoffs config only", ErrInvalidConfig, def.Name, def.Type)
		}
		if got, want := len(def.Playoffs.FixedRound1Pairings), def.Playoffs.TeamCount/2; got != want {
			return fmt.Errorf("%w: stage %q declares %d round 1 pairings, team count %d needs %d",
				ErrInvalidConfig, def.Name, got, def.Playoffs.TeamCount, want)
		}
	}
	return nil
}

// ValidateStages checks every stage and the references a playoffs template makes
// into the groups stage that precedes it.
func ValidateStages(stages []StageDefinition) error {
	if len(stages) == 0 {
		return fmt.Errorf("%w: at least one stage is required", ErrInvalidConfig)
	}
	seenOrder := make(map[int]bool, len(stages))
	var lastGroups *GroupsRoundRobinConfig
	for i := range stages {
		def := &stages[i]
		if err := ValidateStage(def); err != nil {
			return err
		}
		if seenOrder[def.Order] {
			return fmt.Errorf("%w: duplicate stage order %d", ErrInvalidConfig, def.Order)
		}
		seenOrder[def.Order] = true

		switch def.Type {
		case StageTypeGroupsRoundRobin:
			lastGroups = def.Groups
		case StageTypePlayoffs:
			if lastGroups == nil {
				return fmt.Errorf("%w: playoffs stage %q has no preceding groups stage", ErrInvalidConfig, def.Name)
			}
			if err := validateTemplateReferences(def, lastGroups); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateTemplateReferences(def *StageDefinition, groups *GroupsRoundRobinConfig) error {
	advancing := groups.GroupCount * groups.TeamsAdvancePerGroup
	if def.Playoffs.TeamCount != advancing {
		return fmt.Errorf("%w: playoffs stage %q expects %d teams, groups stage advances %d",
			ErrInvalidConfig, def.Name, def.Playoffs.TeamCount, advancing)
	}
	for i, entry := range def.Playoffs.FixedRound1Pairings {
		for _, ref := range []struct {
			letter string
			place  int
		}{{entry.GroupA, entry.PlaceA}, {entry.GroupB, entry.PlaceB}} {
			idx := int(ref.letter[0] - 'A')
			if idx < 0 || idx >= groups.GroupCount {
				return fmt.Errorf("%w: pairing %d (%s) references unknown group %s", ErrInvalidConfig, i+1, entry, ref.letter)
			}
			if ref.place > groups.TeamsAdvancePerGroup {
				return fmt.Errorf("%w: pairing %d (%s) references place %d, only %d advance",
					ErrInvalidConfig, i+1, entry, ref.place, groups.TeamsAdvancePerGroup)
			}
		}
	}
	return nil
}

func formatValidationErrors(stageName string, err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: stage %q: %v", ErrInvalidConfig, stageName, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s must satisfy %s=%s", fe.Namespace(), fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s must satisfy %s", fe.Namespace(), fe.Tag()))
		}
	}
	return fmt.Errorf("%w: stage %q: %s", ErrInvalidConfig, stageName, strings.Join(msgs, "; "))
}
