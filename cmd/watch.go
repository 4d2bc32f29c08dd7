// cmd/watch.go
package cmd

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/clipper-cli/internal/coupon"
	"github.com/xkilldash9x/clipper-cli/internal/watcher"
)

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <url>",
		Short: "Keep a tab open and clip automatically whenever a coupon page shows up",
		Long: `Opens the URL and follows the tab as you browse. Each time the page settles
on a coupon page (by address or because coupon buttons are present) every coupon
is clipped. Runs until interrupted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := configFromContext(ctx)
			if err != nil {
				return err
			}
			r, err := newClipRunner(cmd, cfg)
			if err != nil {
				return err
			}
			if err := r.allow.Check(args[0]); err != nil {
				return err
			}

			src := newTabSource(cfg.Browser(), r.logger)
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
				defer cancel()
				if err := src.Shutdown(shutdownCtx); err != nil {
					r.logger.Warn("Browser shutdown failed.", zap.Error(err))
				}
			}()

			tab, err := src.NewTab()
			if err != nil {
				return err
			}
			defer tab.Close()
			if err := tab.Navigate(ctx, args[0]); err != nil {
				return err
			}

			auto := newAutoClipper(r, tab, cmd.OutOrStdout())
			w := watcher.New(tab, auto, watcher.Options{
				PollInterval: cfg.Watcher().PollInterval,
				SettleDelay:  cfg.Watcher().SettleDelay,
			}, r.logger)
			if err := w.Start(ctx); err != nil {
				return err
			}
			r.logger.Info("Watching tab for coupon pages.", zap.String("url", args[0]))

			<-ctx.Done()
			w.Stop()
			return nil
		},
	}
	cmd.Flags().StringP("mode", "m", "all", "Clip mode: 'all' or 'available'")
	cmd.Flags().Bool("toast", false, "Also show status messages as a toast inside the page")
	return cmd
}

// autoClipper runs a clip batch on settled navigations to coupon pages.
type autoClipper struct {
	runner  *clipRunner
	tab     pageTab
	limiter *rate.Limiter

	mu  sync.Mutex
	out io.Writer
}

func newAutoClipper(r *clipRunner, tab pageTab, out io.Writer) *autoClipper {
	every := rate.Every(r.cfg.Watcher().MinTriggerInterval)
	return &autoClipper{
		runner:  r,
		tab:     tab,
		limiter: rate.NewLimiter(every, 1),
		out:     out,
	}
}

func (a *autoClipper) OnNavigate(ctx context.Context, url string) {
	log := a.runner.logger.With(zap.String("url", url))

	if err := a.runner.allow.Check(url); err != nil {
		log.Debug("Left the supported sites, not clipping.")
		return
	}

	doc := a.tab.Document()
	if !a.runner.allow.IsCouponURL(url) {
		det, err := coupon.Detect(ctx, doc)
		if err != nil || !det.Found() {
			log.Debug("Not a coupon page.")
			return
		}
	}

	if !a.limiter.Allow() {
		log.Info("Skipping auto-clip, the last run was too recent.")
		return
	}

	res, err := a.runner.clipDocument(ctx, doc, a.runner.notifierFor(a.tab))
	if err != nil {
		log.Warn("Auto-clip failed.", zap.Error(err))
		return
	}
	res.URL = url

	a.mu.Lock()
	defer a.mu.Unlock()
	fmt.Fprintf(a.out, "%s: %s\n", url, res.Summary())
}
