// internal/browser/dom/static.go
package dom

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// ClickReaction lets a StaticDocument emulate the page's response to a click.
// It runs under the document lock and may rewrite the clicked button. A
// non-nil error is returned from Click as the click failure.
type ClickReaction func(button *goquery.Selection) error

// ClickEvent records a click delivered to a StaticDocument.
type ClickEvent struct {
	ID   string
	Text string
	At   time.Time
}

// StaticDocument is an in-memory HTML page. It backs the --snapshot mode and
// most of the clipper tests.
type StaticDocument struct {
	mu       sync.Mutex
	doc      *goquery.Document
	reaction ClickReaction
	clicks   []ClickEvent
	now      func() time.Time
}

// StaticOption configures a StaticDocument.
type StaticOption func(*StaticDocument)

// WithClickReaction installs a reaction hook run on every click.
func WithClickReaction(r ClickReaction) StaticOption {
	return func(d *StaticDocument) { d.reaction = r }
}

// WithClock overrides the time source used for click timestamps.
func WithClock(now func() time.Time) StaticOption {
	return func(d *StaticDocument) { d.now = now }
}

// NewStaticDocument parses HTML from r.
func NewStaticDocument(r io.Reader, opts ...StaticOption) (*StaticDocument, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}
	d := &StaticDocument{doc: doc, now: time.Now}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// ParseHTML is NewStaticDocument for string input.
func ParseHTML(html string, opts ...StaticOption) (*StaticDocument, error) {
	return NewStaticDocument(strings.NewReader(html), opts...)
}

// QueryAll implements Document.
func (d *StaticDocument) QueryAll(ctx context.Context, selector string) ([]Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	// goquery treats a malformed selector as matching nothing.
	sel := d.doc.Find(selector)
	elements := make([]Element, 0, sel.Length())
	sel.Each(func(i int, s *goquery.Selection) {
		elements = append(elements, &staticElement{doc: d, sel: s, pos: i})
	})
	return elements, nil
}

// Clicks returns a copy of the click log.
func (d *StaticDocument) Clicks() []ClickEvent {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]ClickEvent, len(d.clicks))
	copy(out, d.clicks)
	return out
}

// HTML renders the current document, including any changes made by reactions.
func (d *StaticDocument) HTML() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.doc.Html()
}

type staticElement struct {
	doc *StaticDocument
	sel *goquery.Selection
	pos int
}

func (e *staticElement) ID() string {
	for _, attr := range []string{"id", "data-testid"} {
		if v, ok := e.sel.Attr(attr); ok && v != "" {
			return v
		}
	}
	return "#" + strconv.Itoa(e.pos)
}

func (e *staticElement) State(ctx context.Context) (ButtonState, error) {
	if err := ctx.Err(); err != nil {
		return ButtonState{}, err
	}
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	return readState(e.sel), nil
}

func readState(s *goquery.Selection) ButtonState {
	_, disabled := s.Attr("disabled")
	if aria, ok := s.Attr("aria-disabled"); ok && aria == "true" {
		disabled = true
	}
	return ButtonState{
		Text:     s.Text(),
		Disabled: disabled,
		Loading:  s.HasClass("loading"),
	}
}

func (e *staticElement) Click(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()

	e.doc.clicks = append(e.doc.clicks, ClickEvent{
		ID:   e.ID(),
		Text: strings.TrimSpace(e.sel.Text()),
		At:   e.doc.now(),
	})
	if e.doc.reaction != nil {
		return e.doc.reaction(e.sel)
	}
	return nil
}
