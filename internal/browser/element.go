package browser

import (
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// rodElement bounds every action that waits on the element by timeout.
type rodElement struct {
	el      *rod.Element
	timeout time.Duration
}

func wrap(els rod.Elements, timeout time.Duration) []Element {
	out := make([]Element, 0, len(els))
	for _, el := range els {
		out = append(out, &rodElement{el: el, timeout: timeout})
	}
	return out
}

func (e *rodElement) Text() (string, error) {
	el := e.el.Timeout(e.timeout)
	defer el.CancelTimeout()
	return el.Text()
}

// Attribute resolves href and src through the DOM property so relative
// links come back absolute.
func (e *rodElement) Attribute(name string) (string, bool, error) {
	if name == "href" || name == "src" {
		if p, err := e.el.Property(name); err == nil && p.Str() != "" {
			return p.Str(), true, nil
		}
	}
	v, err := e.el.Attribute(name)
	if err != nil {
		return "", false, err
	}
	if v == nil {
		return "", false, nil
	}
	return *v, true, nil
}

func (e *rodElement) Element(selector string) (Element, error) {
	has, el, err := e.el.Has(selector)
	if err != nil {
		return nil, fmt.Errorf("query %q: %w", selector, err)
	}
	if !has {
		return nil, fmt.Errorf("%q: %w", selector, ErrNotFound)
	}
	return &rodElement{el: el, timeout: e.timeout}, nil
}

func (e *rodElement) Elements(selector string) ([]Element, error) {
	els, err := e.el.Elements(selector)
	if err != nil {
		return nil, fmt.Errorf("query %q: %w", selector, err)
	}
	return wrap(els, e.timeout), nil
}

func (e *rodElement) Has(selector string) bool {
	has, _, err := e.el.Has(selector)
	return err == nil && has
}

// Click fails once the element stays hidden or covered past the timeout.
func (e *rodElement) Click() error {
	el := e.el.Timeout(e.timeout)
	defer el.CancelTimeout()
	return el.Click(proto.InputMouseButtonLeft, 1)
}

func (e *rodElement) Input(text string) error {
	el := e.el.Timeout(e.timeout)
	defer el.CancelTimeout()
	// typing over a selection replaces any prefilled value
	_ = el.SelectAllText()
	return el.Input(text)
}
