// Command daywellctl is the operator CLI for daywell storage and the suggestion engine.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"example.com/daywell/internal/config"
	"example.com/daywell/internal/domain"
	"example.com/daywell/internal/llm"
	"example.com/daywell/internal/logging"
	"example.com/daywell/internal/persistence"
	"example.com/daywell/internal/suggest"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type app struct {
	cfg    config.Config
	logger *zap.Logger
	userID string
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:          "daywellctl",
		Short:        "Inspect and operate daywell activity data",
		SilenceUsage: true,

		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			a.cfg = config.Load()
			a.logger = logging.Must(a.cfg.LogLevel)
		},
	}
	root.PersistentFlags().StringVarP(&a.userID, "user", "u", "", "user id to operate on")

	root.AddCommand(
		newLogCmd(a),
		newDistributionCmd(a),
		newFreezeCmd(a),
		newSuggestCmd(a),
	)
	return root
}

// withService opens the configured storage backend for the duration of fn.
func (a *app) withService(ctx context.Context, fn func(*domain.Service) error) error {
	if a.userID == "" {
		return fmt.Errorf("--user is required")
	}
	backend, err := persistence.Open(ctx, a.cfg)
	if err != nil {
		return err
	}
	defer backend.Close()
	return fn(domain.NewService(backend.Repository, domain.WithLocation(a.cfg.Location())))
}

func newLogCmd(a *app) *cobra.Command {
	var (
		date     string
		hour     int
		activity string
		duration int
	)
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Record an activity entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd.Context(), func(svc *domain.Service) error {
				if date == "" {
					date = svc.Today()
				}
				entry, err := svc.RecordActivity(cmd.Context(), domain.RecordActivityInput{
					UserID:      a.userID,
					Date:        date,
					Hour:        hour,
					Activity:    activity,
					DurationMin: duration,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "logged %s: %d min of %s at %02d:00 on %s\n",
					entry.ID, entry.DurationMin, entry.Activity, entry.Hour, entry.Date)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "calendar date YYYY-MM-DD (default today)")
	cmd.Flags().IntVar(&hour, "hour", 0, "hour of day 0-23")
	cmd.Flags().StringVar(&activity, "activity", "", "activity category")
	cmd.Flags().IntVar(&duration, "duration", 0, "duration in minutes")
	_ = cmd.MarkFlagRequired("hour")
	_ = cmd.MarkFlagRequired("activity")
	_ = cmd.MarkFlagRequired("duration")
	return cmd
}

func newDistributionCmd(a *app) *cobra.Command {
	var (
		date  string
		width int
	)
	cmd := &cobra.Command{
		Use:   "distribution",
		Short: "Render a day's activity distribution",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd.Context(), func(svc *domain.Service) error {
				snapshot, err := svc.GetDistribution(cmd.Context(), a.userID, date)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderDistribution(snapshot, width))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "calendar date YYYY-MM-DD (default today)")
	cmd.Flags().IntVar(&width, "width", 40, "bar width in cells")
	return cmd
}

func newFreezeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "freeze",
		Short: "Manage sick-day freeze mode",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "enter",
		Short: "Freeze today's distribution and reject new entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd.Context(), func(svc *domain.Service) error {
				state, err := svc.EnterFreeze(cmd.Context(), a.userID)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderFreeze(state))
				return nil
			})
		},
	}, &cobra.Command{
		Use:   "exit",
		Short: "Lift freeze mode",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd.Context(), func(svc *domain.Service) error {
				removed, err := svc.ExitFreeze(cmd.Context(), a.userID)
				if err != nil {
					return err
				}
				if !removed {
					fmt.Fprintln(cmd.OutOrStdout(), "not frozen")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), "freeze lifted")
				return nil
			})
		},
	}, &cobra.Command{
		Use:   "status",
		Short: "Show freeze state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd.Context(), func(svc *domain.Service) error {
				state, err := svc.FreezeStatus(cmd.Context(), a.userID)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderFreeze(state))
				return nil
			})
		},
	})
	return cmd
}

func newSuggestCmd(a *app) *cobra.Command {
	var req suggest.Request
	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "Generate three task suggestions for a goal",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := llm.New(cmd.Context(), a.cfg)
			if err != nil {
				return err
			}
			opts := []suggest.Option{
				suggest.WithLogger(a.logger.Named("suggest")),
				suggest.WithTimeout(a.cfg.SuggestionTimeout),
				suggest.WithModel(a.cfg.LLMModel),
			}
			if a.cfg.SuggestionCatalog != "" {
				catalog, err := suggest.LoadCatalog(a.cfg.SuggestionCatalog)
				if err != nil {
					return err
				}
				opts = append(opts, suggest.WithCatalog(catalog))
			}

			result := suggest.NewEngine(client, opts...).Generate(cmd.Context(), req)
			fmt.Fprintln(cmd.OutOrStdout(), renderSuggestions(result))
			return nil
		},
	}
	cmd.Flags().StringVar(&req.GoalTitle, "goal", "", "goal title")
	cmd.Flags().StringVar(&req.GoalCategory, "category", "", "goal category")
	cmd.Flags().StringVar(&req.Mood, "mood", "", "current mood label")
	cmd.Flags().IntVar(&req.EnergyLevel, "energy", 3, "energy level 1-5")
	_ = cmd.MarkFlagRequired("goal")
	return cmd
}
