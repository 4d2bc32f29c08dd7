// cmd/sites.go
package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/clipper-cli/internal/coupon"
	"github.com/xkilldash9x/clipper-cli/internal/hosts"
)

func newSitesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sites",
		Short: "List the supported hosts and retailer profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFromContext(cmd.Context())
			if err != nil {
				return err
			}
			allow := hosts.New(cfg.Sites().Allowed, cfg.Sites().CouponURLHints)

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "Supported hosts:")
			for _, d := range allow.Domains() {
				fmt.Fprintf(w, "  %s\n", d)
			}
			fmt.Fprintln(w)
			fmt.Fprintln(w, "PROFILE\tPACING\tBUTTONS")
			timing := coupon.TimingFromConfig(cfg.Clipper())
			for _, p := range coupon.Profiles() {
				fmt.Fprintf(w, "%s\t%s\t%s\n", p.Name, pacing(p, timing), p.MatchSelector)
			}
			return w.Flush()
		},
	}
}

func pacing(p coupon.SiteProfile, t coupon.Timing) string {
	if p.Confirmation {
		return fmt.Sprintf("one at a time, confirmed (poll %s x%d)", t.PollInterval, t.PollAttempts)
	}
	return fmt.Sprintf("every %s", t.IntervalFor(p))
}
