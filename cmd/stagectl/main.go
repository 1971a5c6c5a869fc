package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Dosada05/stage-engine/config"
	"github.com/Dosada05/stage-engine/db"
	"github.com/Dosada05/stage-engine/repositories"
	"github.com/Dosada05/stage-engine/services"
	"github.com/spf13/cobra"
)

var (
	tournamentID string
	stageID      string
	matchday     int
	allMatchdays bool
	groupsStage  string

	logger *slog.Logger
	store  repositories.Store
)

var rootCmd = &cobra.Command{
	Use:           "stagectl",
	Short:         "Advance tournament stages from scripts and schedulers",
	Long:          `stagectl drives the stage engine directly against the configured store. Steps that were already applied exit with status 0, so the commands are safe to retry.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))

		store, err = db.OpenStore(cmd.Context(), cfg, logger)
		if err != nil {
			return fmt.Errorf("failed to open store: %w", err)
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if store == nil {
			return nil
		}
		return store.Close(context.Background())
	},
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate group stage matchdays",
	RunE: func(cmd *cobra.Command, args []string) error {
		schedule := services.NewScheduleService(store, nil, logger)
		if allMatchdays {
			outcomes, err := schedule.GenerateAllMatchdays(cmd.Context(), tournamentID, stageID)
			if err != nil {
				return err
			}
			return printJSON(cmd, outcomes)
		}
		if matchday <= 0 {
			return errors.New("either --matchday or --all is required")
		}
		matches, err := schedule.GenerateMatchday(cmd.Context(), tournamentID, stageID, matchday)
		if err != nil {
			return alreadyDoneIsSuccess(cmd, err)
		}
		return printJSON(cmd, services.MatchdayOutcome{Matchday: matchday, Created: len(matches)})
	},
}

var standingsCmd = &cobra.Command{
	Use:   "standings",
	Short: "Print the current standings of a groups stage",
	RunE: func(cmd *cobra.Command, args []string) error {
		standings, err := services.NewStandingsService(store, logger).GetStandings(cmd.Context(), tournamentID, stageID)
		if err != nil {
			return err
		}
		return printJSON(cmd, standings)
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the playoffs stage from a completed groups stage",
	RunE: func(cmd *cobra.Command, args []string) error {
		if groupsStage == "" {
			return errors.New("--groups-stage is required")
		}
		playoffs := services.NewPlayoffService(store, nil, nil, nil, logger)
		result, err := playoffs.SeedPlayoffs(cmd.Context(), tournamentID, groupsStage, stageID)
		if err != nil {
			return alreadyDoneIsSuccess(cmd, err)
		}
		return printJSON(cmd, result)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&tournamentID, "tournament", "t", "", "Tournament ID")
	rootCmd.PersistentFlags().StringVarP(&stageID, "stage", "s", "", "Stage ID")
	_ = rootCmd.MarkPersistentFlagRequired("tournament")
	_ = rootCmd.MarkPersistentFlagRequired("stage")

	generateCmd.Flags().IntVarP(&matchday, "matchday", "m", 0, "Matchday to generate (1-based)")
	generateCmd.Flags().BoolVar(&allMatchdays, "all", false, "Generate every matchday not generated yet")
	generateCmd.MarkFlagsMutuallyExclusive("matchday", "all")

	seedCmd.Flags().StringVar(&groupsStage, "groups-stage", "", "Groups stage whose standings feed the bracket")
}

// alreadyDoneIsSuccess reports a repeated step on stdout and swallows it.
func alreadyDoneIsSuccess(cmd *cobra.Command, err error) error {
	if !services.IsAlreadyDone(err) {
		return err
	}
	return printJSON(cmd, map[string]string{"status": "already_done", "detail": err.Error()})
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	rootCmd.AddCommand(generateCmd, standingsCmd, seedCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
