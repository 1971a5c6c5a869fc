package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/Dosada05/stage-engine/services"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captured() (*cobra.Command, *bytes.Buffer) {
	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	return cmd, &out
}

// region alreadyDoneIsSuccess

func TestAlreadyDoneIsSuccess_RepeatedStep(t *testing.T) {
	repeated := []error{
		services.ErrDuplicateGeneration,
		fmt.Errorf("seed playoffs: %w", services.ErrAlreadyInitialized),
		&services.StageError{Op: "generate_matchday", StageID: "gs", Matchday: 2, Err: services.ErrDuplicateGeneration},
	}
	for _, err := range repeated {
		cmd, out := captured()
		require.NoError(t, alreadyDoneIsSuccess(cmd, err))

		var body map[string]string
		require.NoError(t, json.Unmarshal(out.Bytes(), &body), out.String())
		assert.Equal(t, "already_done", body["status"])
		assert.Equal(t, err.Error(), body["detail"])
	}
}

func TestAlreadyDoneIsSuccess_OtherErrorsPassThrough(t *testing.T) {
	for _, err := range []error{services.ErrStageNotComplete, services.ErrTournamentConflict, fmt.Errorf("dial tcp: connection refused")} {
		cmd, out := captured()
		assert.Equal(t, err, alreadyDoneIsSuccess(cmd, err))
		assert.Empty(t, out.String())
	}
}

// endregion

// region printJSON

func TestPrintJSON_Indented(t *testing.T) {
	cmd, out := captured()
	require.NoError(t, printJSON(cmd, services.MatchdayOutcome{Matchday: 3, Created: 4}))
	assert.Contains(t, out.String(), "\n  \"")
}

// endregion
