package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"example.com/journal/internal/config"
	"example.com/journal/internal/domain"
	"example.com/journal/internal/insights"
	"example.com/journal/internal/store"
)

type overviewOutput struct {
	User        string                 `json:"user"`
	Timezone    string                 `json:"timezone"`
	Daily       []insights.DailyPoint  `json:"daily"`
	Weekly      []insights.WeeklyPoint `json:"weekly"`
	CurrentWeek insights.Averages      `json:"current_week"`
}

func newInsightsCmd(cfg config.Config) *cobra.Command {
	var (
		user string
		tz   string
	)
	cmd := &cobra.Command{
		Use:   "insights",
		Short: "Print a user's energy and engagement series as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(user) == "" {
				return errors.New("--user is required")
			}
			loc, err := time.LoadLocation(tz)
			if err != nil {
				return fmt.Errorf("--tz: %w", err)
			}

			st, err := store.Open(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			series := insights.NewService(domain.NewService(st.Repo, nil))
			overview, err := series.Overview(cmd.Context(), user, loc)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(overviewOutput{
				User:        user,
				Timezone:    loc.String(),
				Daily:       overview.Daily,
				Weekly:      overview.Weekly,
				CurrentWeek: overview.CurrentWeek,
			})
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "user id to aggregate")
	cmd.Flags().StringVar(&tz, "tz", cfg.Timezone, "IANA time zone for calendar days")
	return cmd
}
