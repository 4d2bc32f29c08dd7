// cmd/clip.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/clipper-cli/api/schemas"
	"github.com/xkilldash9x/clipper-cli/internal/browser/dom"
	"github.com/xkilldash9x/clipper-cli/internal/config"
	"github.com/xkilldash9x/clipper-cli/internal/coupon"
	"github.com/xkilldash9x/clipper-cli/internal/hosts"
	"github.com/xkilldash9x/clipper-cli/internal/notify"
	"github.com/xkilldash9x/clipper-cli/internal/observability"
)

const shutdownTimeout = 15 * time.Second

// clipReport is one entry of the --json output.
type clipReport struct {
	Target string              `json:"target"`
	Result *schemas.ClipResult `json:"result,omitempty"`
	Error  string              `json:"error,omitempty"`
}

func newClipCmd() *cobra.Command {
	var (
		snapshots []string
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "clip [urls...]",
		Short: "Clip every coupon on one or more retailer coupon pages",
		Long: `Opens each URL in its own browser tab, detects the retailer and clicks
every clip / send-to-card button it finds. Supported retailers are the Kroger
family of stores, CVS and Walgreens.

With --snapshot the same algorithm runs against saved HTML files instead of a
live browser.`,
		Example: `  clipper clip https://www.kroger.com/savings/cl/coupons/
  clipper clip --mode available --remote-url http://127.0.0.1:9222 https://www.cvs.com/extracare/home
  clipper clip --snapshot saved-coupons.html --json`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && len(snapshots) == 0 {
				return errors.New("requires at least one URL or --snapshot file")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFromContext(cmd.Context())
			if err != nil {
				return err
			}
			r, err := newClipRunner(cmd, cfg)
			if err != nil {
				return err
			}

			reports := r.clipSnapshots(cmd.Context(), snapshots)
			if len(args) > 0 {
				reports = append(reports, r.clipURLs(cmd.Context(), args)...)
			}
			err = r.report(cmd.OutOrStdout(), reports, asJSON)
			if ctxErr := cmd.Context().Err(); ctxErr != nil {
				return ctxErr
			}
			return err
		},
	}

	cmd.Flags().StringP("mode", "m", string(schemas.ModeAll), "Clip mode: 'all' or 'available'")
	cmd.Flags().Bool("toast", false, "Also show status messages as a toast inside the page")
	cmd.Flags().Int("concurrency", 0, "Maximum number of pages clipped at once (overrides config)")
	cmd.Flags().StringSliceVar(&snapshots, "snapshot", nil, "Run against a saved HTML page instead of a browser (repeatable)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the results as JSON")
	return cmd
}

// clipRunner carries what every clip target needs.
type clipRunner struct {
	cfg     config.Interface
	logger  *zap.Logger
	mode    schemas.ClipMode
	allow   *hosts.AllowList
	console notify.Notifier
}

func newClipRunner(cmd *cobra.Command, cfg config.Interface) (*clipRunner, error) {
	mode, err := schemas.ParseClipMode(cfg.Clipper().Mode)
	if err != nil {
		return nil, err
	}
	return &clipRunner{
		cfg:     cfg,
		logger:  observability.GetLogger().Named("clip"),
		mode:    mode,
		allow:   hosts.New(cfg.Sites().Allowed, cfg.Sites().CouponURLHints),
		console: notify.NewConsole(cmd.ErrOrStderr(), os.Getenv("NO_COLOR") == ""),
	}, nil
}

func (r *clipRunner) newClipper(n notify.Notifier) *coupon.Clipper {
	return coupon.New(r.logger,
		coupon.WithTiming(coupon.TimingFromConfig(r.cfg.Clipper())),
		coupon.WithNotifier(n),
	)
}

// clipDocument runs one batch and waits for it.
func (r *clipRunner) clipDocument(ctx context.Context, doc dom.Document, n notify.Notifier) (*schemas.ClipResult, error) {
	batch, err := r.newClipper(n).Start(ctx, doc, r.mode)
	if err != nil {
		return nil, err
	}
	return batch.Wait(), nil
}

// notifierFor adds the in-page toast when it is enabled.
func (r *clipRunner) notifierFor(tab pageTab) notify.Notifier {
	if !r.cfg.Clipper().Toast {
		return r.console
	}
	return notify.Multi{r.console, notify.NewPageToast(tab)}
}

func (r *clipRunner) clipURLs(ctx context.Context, urls []string) []clipReport {
	reports := make([]clipReport, len(urls))

	var (
		src     tabSource
		srcOnce sync.Once
	)
	source := func() tabSource {
		srcOnce.Do(func() { src = newTabSource(r.cfg.Browser(), r.logger) })
		return src
	}

	var g errgroup.Group
	g.SetLimit(r.cfg.Browser().Concurrency)
	for i, u := range urls {
		g.Go(func() error {
			reports[i] = clipReport{Target: u}
			res, err := r.clipURL(ctx, source, u)
			if err != nil {
				reports[i].Error = err.Error()
				r.logger.Warn("Clip failed.", zap.String("url", u), zap.Error(err))
				return nil
			}
			reports[i].Result = res
			return nil
		})
	}
	_ = g.Wait()

	if src != nil {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := src.Shutdown(shutdownCtx); err != nil {
			r.logger.Warn("Browser shutdown failed.", zap.Error(err))
		}
	}
	return reports
}

func (r *clipRunner) clipURL(ctx context.Context, source func() tabSource, url string) (*schemas.ClipResult, error) {
	if err := r.allow.Check(url); err != nil {
		r.notify(ctx, notify.LevelError, err.Error())
		return nil, err
	}
	if hint := r.allow.Hint(url); hint != "" {
		r.notify(ctx, notify.LevelInfo, hint)
	}

	tab, err := source().NewTab()
	if err != nil {
		return nil, err
	}
	defer tab.Close()

	if err := tab.Navigate(ctx, url); err != nil {
		return nil, err
	}
	res, err := r.clipDocument(ctx, tab.Document(), r.notifierFor(tab))
	if err != nil {
		return nil, err
	}
	res.URL = url
	return res, nil
}

func (r *clipRunner) notify(ctx context.Context, level notify.Level, msg string) {
	if err := r.console.Notify(ctx, level, msg); err != nil {
		r.logger.Debug("Failed to deliver notification.", zap.Error(err))
	}
}

func (r *clipRunner) clipSnapshots(ctx context.Context, paths []string) []clipReport {
	reports := make([]clipReport, 0, len(paths))
	for _, p := range paths {
		rep := clipReport{Target: p}
		res, err := r.clipSnapshot(ctx, p)
		if err != nil {
			rep.Error = err.Error()
		} else {
			rep.Result = res
		}
		reports = append(reports, rep)
	}
	return reports
}

func (r *clipRunner) clipSnapshot(ctx context.Context, path string) (*schemas.ClipResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer f.Close()

	doc, err := dom.NewStaticDocument(f, dom.WithClickReaction(markClipped))
	if err != nil {
		return nil, err
	}
	return r.clipDocument(ctx, doc, r.console)
}

// markClipped stands in for the retailer's response to a click on a saved page.
func markClipped(s *goquery.Selection) error {
	for _, p := range coupon.Profiles() {
		if s.Is(p.MatchSelector) {
			s.SetText(p.PastVerb)
			return nil
		}
	}
	return nil
}

func (r *clipRunner) report(w io.Writer, reports []clipReport, asJSON bool) error {
	if asJSON {
		out, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalIndent(reports, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode results: %w", err)
		}
		if _, err := fmt.Fprintln(w, string(out)); err != nil {
			return err
		}
	} else {
		for _, rep := range reports {
			line := rep.Error
			if rep.Result != nil {
				line = rep.Result.Summary()
			}
			if len(reports) > 1 {
				line = rep.Target + ": " + line
			}
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
	}

	failed := 0
	for _, rep := range reports {
		if rep.Error != "" {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d targets failed", failed, len(reports))
	}
	return nil
}
