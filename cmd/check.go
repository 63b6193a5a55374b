package cmd

import (
	"context"
	"errors"
	"time"

	"catalog-sync/core/database"
	"catalog-sync/core/ratelimit"
	"catalog-sync/core/transport"
	"catalog-sync/feature/history"
	"catalog-sync/feature/sentos"
	"catalog-sync/feature/shopify"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// checkCmd tests the connection to both systems and the history schema.
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Test connections to Sentos, Shopify and the history database",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := bootstrap()
		if err != nil {
			return err
		}
		l := rt.log
		defer l.Sync()

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		// Checks fail fast instead of retrying for minutes.
		tcfg := rt.cfg.Transport
		tcfg.MaxRetries = 1

		var failed []error

		if err := rt.cfg.Sentos.Validate(); err != nil {
			failed = append(failed, err)
		} else {
			src := sentos.NewClient(rt.cfg.Sentos, transport.New(tcfg, nil, l), l)
			total, err := src.Ping(ctx)
			if err != nil {
				l.Error("Sentos check failed", zap.Error(err))
				failed = append(failed, err)
			} else {
				l.Info("Sentos reachable", zap.Int("products", total), zap.Bool("image_order", rt.cfg.Sentos.Cookie != ""))
			}
		}

		if err := rt.cfg.Shopify.Validate(); err != nil {
			failed = append(failed, err)
		} else {
			dst := shopify.NewClient(rt.cfg.Shopify, transport.New(tcfg, ratelimit.New(rt.cfg.RateLimit), l), l)
			shop, err := dst.Ping(ctx)
			if err != nil {
				l.Error("Shopify check failed", zap.Error(err))
				failed = append(failed, err)
			} else if location, err := dst.DefaultLocation(ctx); err != nil {
				l.Error("Shopify location check failed", zap.Error(err))
				failed = append(failed, err)
			} else {
				l.Info("Shopify reachable",
					zap.String("shop", shop.Name),
					zap.String("currency", shop.Currency),
					zap.String("plan", shop.Plan),
					zap.String("location", location))
			}
		}

		if rt.db == nil {
			l.Warn("History database unavailable")
		} else {
			missing, err := database.MissingColumns(rt.db, history.SyncRun{}.TableName(), history.Columns())
			switch {
			case err != nil:
				l.Error("History schema check failed", zap.Error(err))
			case len(missing) > 0:
				l.Warn("History table is missing columns", zap.Strings("missing", missing))
			default:
				l.Info("History database ready", zap.String("driver", rt.db.Dialector.Name()))
			}
		}

		return errors.Join(failed...)
	},
}

func init() {
	RootCmd.AddCommand(checkCmd)
}
