package main

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/iliyamo/dog-playground-booking/internal/admission"
	"github.com/iliyamo/dog-playground-booking/internal/config"
	"github.com/iliyamo/dog-playground-booking/internal/database"
	"github.com/iliyamo/dog-playground-booking/internal/repository"
	"github.com/iliyamo/dog-playground-booking/internal/service"
)

func newSlotsCmd() *cobra.Command {
	var (
		playgroundID uint64
		date         string
		category     string
	)

	cmd := &cobra.Command{
		Use:   "slots",
		Short: "Print the 24 slot statuses of one playground day",
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := admission.ParseCategory(category)
			if err != nil {
				return err
			}
			cfg, err := config.LoadDB()
			if err != nil {
				return err
			}
			newLogger(cfg)

			day := service.Day(time.Now().In(cfg.Location))
			if date != "" {
				if day, err = time.ParseInLocation(time.DateOnly, date, cfg.Location); err != nil {
					return fmt.Errorf("invalid --date: %w", err)
				}
			}

			db, err := database.Open(dbOptions(cfg))
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()

			svc := service.NewBookingService(admission.NewConfig(),
				repository.NewBookingRepo(sqlx.NewDb(db, "mysql"), 5*time.Second))
			slots, err := svc.SlotStatuses(cmd.Context(), playgroundID, day, cat)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "playground %d, %s, as %s\n", playgroundID, day.Format(time.DateOnly), cat)
			fmt.Fprintln(w, "HOUR\tSTATUS\tDOGS\tCATEGORIES")
			for _, s := range slots {
				codes := make([]string, len(s.Categories))
				for i, c := range s.Categories {
					codes[i] = c.String()
				}
				fmt.Fprintf(w, "%s\t%s\t%d/%d\t%s\n", s.Label, s.Status, s.Count, s.Limit, strings.Join(codes, ","))
			}
			return w.Flush()
		},
	}
	cmd.Flags().Uint64Var(&playgroundID, "playground", 0, "playground id")
	cmd.Flags().StringVar(&date, "date", "", "day as YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&category, "category", "STANDARD", "category the statuses are computed for")
	_ = cmd.MarkFlagRequired("playground")
	return cmd
}
