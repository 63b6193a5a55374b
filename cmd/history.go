package cmd

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect recorded sync runs",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent sync runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := bootstrap()
		if err != nil {
			return err
		}
		defer rt.log.Sync()
		if rt.history == nil {
			return errors.New("history is not available, check the database settings")
		}

		runs, err := rt.history.List(context.Background(), historyLimit)
		if err != nil {
			return err
		}
		for _, r := range runs {
			rt.log.Info("Run",
				zap.String("id", r.ID),
				zap.Time("started_at", r.StartedAt),
				zap.String("status", string(r.Status)),
				zap.String("mode", r.Mode),
				zap.String("trigger", r.Trigger),
				zap.Int("total", r.Total),
				zap.Int("created", r.Created),
				zap.Int("updated", r.Updated),
				zap.Int("failed", r.Failed),
				zap.Int("skipped", r.Skipped),
				zap.String("error", r.Error),
			)
		}
		return nil
	},
}

var historyReportCmd = &cobra.Command{
	Use:   "report <run-id>",
	Short: "Print the archived per-product report of a run as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := bootstrap()
		if err != nil {
			return err
		}
		defer rt.log.Sync()
		if rt.history == nil {
			return errors.New("history is not available, check the database settings")
		}

		report, err := rt.history.Report(context.Background(), args[0])
		if err != nil {
			return err
		}
		defer report.Close()
		_, err = io.Copy(os.Stdout, report)
		return err
	},
}

func init() {
	historyListCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum number of runs")
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyReportCmd)
	RootCmd.AddCommand(historyCmd)
}
