// internal/browser/cdp_document.go
package browser

import (
	"context"
	"fmt"

	"github.com/chromedp/cdproto/cdp"
	cdpdom "github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"github.com/xkilldash9x/clipper-cli/internal/browser/dom"
)

const (
	readStateFn = `function() {
	return {
		text: this.textContent || "",
		disabled: !!this.disabled || this.getAttribute("aria-disabled") === "true",
		loading: !!this.classList && this.classList.contains("loading"),
	};
}`
	clickFn = `function() { this.click(); return true; }`
)

type cdpDocument struct {
	tab *Tab
}

func (d *cdpDocument) QueryAll(ctx context.Context, selector string) ([]dom.Element, error) {
	var nodes []*cdp.Node
	if err := d.tab.run(ctx, chromedp.Nodes(selector, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0))); err != nil {
		return nil, fmt.Errorf("query %q: %w", selector, err)
	}
	out := make([]dom.Element, 0, len(nodes))
	for i, n := range nodes {
		out = append(out, &cdpElement{tab: d.tab, node: n, pos: i})
	}
	return out, nil
}

type cdpElement struct {
	tab  *Tab
	node *cdp.Node
	pos  int
}

func (e *cdpElement) ID() string {
	if id := e.node.AttributeValue("id"); id != "" {
		return id
	}
	if id := e.node.AttributeValue("data-testid"); id != "" {
		return id
	}
	return fmt.Sprintf("#%d", e.pos)
}

func (e *cdpElement) State(ctx context.Context) (dom.ButtonState, error) {
	var st dom.ButtonState
	if err := e.call(ctx, readStateFn, &st); err != nil {
		return dom.ButtonState{}, fmt.Errorf("failed to read button %s: %w", e.ID(), err)
	}
	return st, nil
}

func (e *cdpElement) Click(ctx context.Context) error {
	var ok bool
	if err := e.call(ctx, clickFn, &ok); err != nil {
		return fmt.Errorf("failed to click button %s: %w", e.ID(), err)
	}
	return nil
}

// call invokes fn with the node bound to this.
func (e *cdpElement) call(ctx context.Context, fn string, res interface{}) error {
	return e.tab.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		obj, err := cdpdom.ResolveNode().WithNodeID(e.node.NodeID).Do(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = runtime.ReleaseObject(obj.ObjectID).Do(ctx) }()

		return chromedp.CallFunctionOn(fn, res, func(p *runtime.CallFunctionOnParams) *runtime.CallFunctionOnParams {
			return p.WithObjectID(obj.ObjectID)
		}).Do(ctx)
	}))
}
