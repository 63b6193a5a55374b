package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"catalog-sync/core/reconcile"
	"catalog-sync/feature/syncjob"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	syncMode    string
	syncWorkers int
	syncTest    bool
	syncDryRun  bool
	syncStrict  bool
	yesConfirm  bool
)

// syncCmd is the parent command for sync operations.
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync the Sentos catalog into Shopify",
}

var syncRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a full catalog sync",
	Long: `Runs a sync of the whole Sentos catalog and waits for it to finish.
Ctrl-C stops dispatching new products; products already in progress finish.

Modes:
  full       create missing products, update details, stock and images
  missing    only create products that do not exist in Shopify
  details    update title, description and product type
  stock      create missing variants and set inventory
  media      sync images, alt text is the image URL
  media_seo  sync images, alt text is the product title

Examples:
  # Preview the first 20 products without writing
  sync run --test --dry-run

  # Stock only, 8 workers, non-interactive
  sync run --mode stock --workers 8 --yes`,
	RunE: runSync,
}

var syncSKUCmd = &cobra.Command{
	Use:   "sku <sku>",
	Short: "Sync a single product by SKU",
	Args:  cobra.ExactArgs(1),
	RunE:  runSyncSKU,
}

func init() {
	for _, c := range []*cobra.Command{syncRunCmd, syncSKUCmd} {
		c.Flags().StringVar(&syncMode, "mode", "", "Sync mode (default from SYNC_MODE)")
		c.Flags().BoolVar(&syncDryRun, "dry-run", false, "Compute changes without writing to Shopify")
		c.Flags().BoolVar(&syncStrict, "strict", false, "Skip products that only match by title")
	}
	syncRunCmd.Flags().IntVar(&syncWorkers, "workers", 0, "Concurrent workers, 1-10 (default from SYNC_WORKERS)")
	syncRunCmd.Flags().BoolVar(&syncTest, "test", false, "Only process the first 20 products")
	syncRunCmd.Flags().BoolVar(&yesConfirm, "yes", false, "Auto-confirm writing to the store (non-interactive)")

	syncCmd.AddCommand(syncRunCmd)
	syncCmd.AddCommand(syncSKUCmd)
	RootCmd.AddCommand(syncCmd)
}

// runOptions merges the flags into the configured defaults.
func runOptions(cmd *cobra.Command, defaults reconcile.RunOptions) (reconcile.RunOptions, error) {
	req := syncjob.RunRequest{Mode: syncMode, Workers: syncWorkers}
	if cmd.Flags().Changed("test") {
		req.TestMode = &syncTest
	}
	if cmd.Flags().Changed("dry-run") {
		req.DryRun = &syncDryRun
	}
	if cmd.Flags().Changed("strict") {
		req.StrictSKUMatch = &syncStrict
	}
	return req.Apply(defaults)
}

func runSync(cmd *cobra.Command, args []string) error {
	rt, err := bootstrap()
	if err != nil {
		return err
	}
	l := rt.log
	defer l.Sync()

	jobs, err := rt.newJobService()
	if err != nil {
		return err
	}
	opts, err := runOptions(cmd, jobs.Defaults())
	if err != nil {
		return err
	}

	if !opts.DryRun && !confirmWrite(opts) {
		l.Warn("Operation cancelled by user. No changes were made.")
		return nil
	}

	snap, err := jobs.Start(opts, syncjob.TriggerCLI)
	if err != nil {
		return err
	}
	l.Info("Sync started", zap.String("run_id", snap.ID), zap.String("mode", string(snap.Options.Mode)))

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(signals)

	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	done := make(chan struct{})
	go func() {
		_, _ = jobs.Wait(ctx)
		close(done)
	}()

wait:
	for {
		select {
		case <-done:
			break wait
		case <-signals:
			l.Warn("Interrupt received, finishing products in progress")
			_, _ = jobs.Cancel()
		case <-ticker.C:
			if s, err := jobs.Current(); err == nil {
				logProgress(l, s.Progress)
			}
		}
	}

	res, err := jobs.Results()
	if err != nil {
		return err
	}
	printSyncReport(l, res)
	return nil
}

func runSyncSKU(cmd *cobra.Command, args []string) error {
	rt, err := bootstrap()
	if err != nil {
		return err
	}
	l := rt.log
	defer l.Sync()

	jobs, err := rt.newJobService()
	if err != nil {
		return err
	}
	opts, err := runOptions(cmd, jobs.Defaults())
	if err != nil {
		return err
	}

	res, err := jobs.SyncSKU(context.Background(), args[0], opts)
	if err != nil {
		return err
	}
	logResult(l, res)
	return nil
}

func logProgress(l *zap.Logger, p reconcile.Progress) {
	l.Info("Progress",
		zap.String("state", string(p.State)),
		zap.Int("percent", p.Percent),
		zap.Int("processed", p.Stats.Processed),
		zap.Int("total", p.Stats.Total),
		zap.Float64("rate", p.Rate),
		zap.Duration("eta", p.ETA.Round(time.Second)),
	)
}

func logResult(l *zap.Logger, r reconcile.SyncResult) {
	fields := []zap.Field{
		zap.String("sku", r.NaturalKey),
		zap.String("name", r.Name),
		zap.String("status", string(r.Status)),
	}
	if r.MatchedBy != "" {
		fields = append(fields, zap.String("matched_by", string(r.MatchedBy)))
	}
	if len(r.ChangesApplied) > 0 {
		fields = append(fields, zap.Strings("changes", r.ChangesApplied))
	}
	if r.ErrorReason != "" {
		fields = append(fields, zap.String("reason", r.ErrorReason))
	}
	l.Info("Product result", fields...)
}

// printSyncReport logs the summary and up to 10 failures.
func printSyncReport(l *zap.Logger, res *reconcile.Results) {
	s := res.Stats
	l.Info("Sync report",
		zap.Int("total", s.Total),
		zap.Int("created", s.Created),
		zap.Int("updated", s.Updated),
		zap.Int("skipped", s.Skipped),
		zap.Int("failed", s.Failed),
		zap.Bool("cancelled", res.Cancelled),
		zap.Duration("duration", res.Duration.Round(time.Second)),
	)

	const maxShow = 10
	shown := 0
	for _, r := range res.Results {
		if r.Status != reconcile.StatusFailed {
			continue
		}
		if shown == maxShow {
			l.Info("Additional failures not shown", zap.Int("count", s.Failed-maxShow))
			break
		}
		logResult(l, r)
		shown++
	}
}

// confirmWrite prompts the user for confirmation or uses --yes flag.
func confirmWrite(opts reconcile.RunOptions) bool {
	if yesConfirm {
		fmt.Println("\n✓ Auto-confirmed via --yes flag")
		return true
	}

	fmt.Printf("\n⚠️  Mode %q will write to the Shopify store. Type 'yes' to continue: ", opts.Mode)
	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	return strings.TrimSpace(response) == "yes"
}
