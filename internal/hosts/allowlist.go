// internal/hosts/allowlist.go
package hosts

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// ErrUnsupportedPage is returned for pages outside the allow-list. No page
// access happens once a URL has been rejected.
var ErrUnsupportedPage = errors.New("please navigate to a supported coupon page first")

const (
	hintUnsupported = "Navigate to a supported coupon page to use this extension"
	hintNotCoupons  = "Navigate to the coupons section for best results"
)

// AllowList decides which hosts the clipper may run against.
type AllowList struct {
	domains map[string]struct{}
	hints   []string
}

// New builds an allow-list from registrable domains ("kroger.com") and the
// URL fragments that mark a coupon page ("coupon", "weekly-ad").
func New(domains, couponHints []string) *AllowList {
	a := &AllowList{domains: make(map[string]struct{}, len(domains))}
	for _, d := range domains {
		d = strings.ToLower(strings.TrimSpace(d))
		d = strings.TrimPrefix(d, "www.")
		d = strings.TrimSuffix(d, ".")
		if d != "" {
			a.domains[d] = struct{}{}
		}
	}
	for _, h := range couponHints {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			a.hints = append(a.hints, h)
		}
	}
	return a
}

// Domains returns the allowed domains sorted.
func (a *AllowList) Domains() []string {
	out := make([]string, 0, len(a.domains))
	for d := range a.domains {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// Check returns ErrUnsupportedPage unless rawURL is an http(s) URL whose host
// belongs to an allowed domain.
func (a *AllowList) Check(rawURL string) error {
	host, err := hostOf(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnsupportedPage, err)
	}
	if a.allowed(host) {
		return nil
	}
	return fmt.Errorf("%w: %s is not a supported store", ErrUnsupportedPage, host)
}

func (a *AllowList) allowed(host string) bool {
	if registrable, err := publicsuffix.EffectiveTLDPlusOne(host); err == nil {
		if _, ok := a.domains[registrable]; ok {
			return true
		}
	}
	// Entries below the registrable domain ("shop.example.co.uk") match
	// themselves and their subdomains.
	for d := range a.domains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// IsCouponURL reports whether the URL looks like a coupon listing.
func (a *AllowList) IsCouponURL(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	for _, h := range a.hints {
		if strings.Contains(lower, h) {
			return true
		}
	}
	return false
}

// Hint returns guidance for the user about the page, or "" when the page is
// a supported coupon page.
func (a *AllowList) Hint(rawURL string) string {
	switch {
	case a.Check(rawURL) != nil:
		return hintUnsupported
	case !a.IsCouponURL(rawURL):
		return hintNotCoupons
	default:
		return ""
	}
}

func hostOf(rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", rawURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("url %q is not an http(s) page", rawURL)
	}
	host := strings.TrimSuffix(strings.ToLower(u.Hostname()), ".")
	if host == "" {
		return "", fmt.Errorf("url %q has no host", rawURL)
	}
	return host, nil
}
