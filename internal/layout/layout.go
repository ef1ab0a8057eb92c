// Package layout recognises which course page template a page uses and
// hands out the walker registered for it.
package layout

import (
	"context"
	"errors"
	"fmt"

	"teachdl/internal/browser"
	"teachdl/internal/course"
)

// Template is a known course page markup. Declaration order is
// classification precedence.
type Template int

const (
	Unsupported Template = iota
	Simple
	Classic
	Colossal
)

// ErrUnsupported means no known template marker is on the page.
var ErrUnsupported = errors.New("unsupported course template")

var markers = map[Template]string{
	Simple:   "#__next",
	Classic:  ".course-mainbar",
	Colossal: ".block__curriculum",
}

// precedence lists the templates in the order they are probed.
var precedence = []Template{Simple, Classic, Colossal}

func (t Template) String() string {
	switch t {
	case Simple:
		return "simple"
	case Classic:
		return "classic"
	case Colossal:
		return "colossal"
	default:
		return "unsupported"
	}
}

// Marker is the selector whose presence identifies the template.
func (t Template) Marker() string {
	return markers[t]
}

// Walker enumerates a course page of one template. Walk fails only when
// the course folder cannot be created; anything smaller is logged and
// skipped.
type Walker interface {
	Template() Template
	Walk(ctx context.Context, env course.Env) (*course.Course, []course.Lecture, error)
}

// Classify probes the template markers in precedence order. Missing
// markers are not errors.
func Classify(page browser.Page) (Template, error) {
	for _, t := range precedence {
		if page.Has(t.Marker()) {
			return t, nil
		}
	}
	return Unsupported, fmt.Errorf("%s: %w", page.URL(), ErrUnsupported)
}

// Select classifies the page and returns its registered walker.
func Select(page browser.Page) (Walker, error) {
	t, err := Classify(page)
	if err != nil {
		return nil, err
	}
	w, ok := Get(t)
	if !ok {
		return nil, fmt.Errorf("%s: no walker for %s template: %w", page.URL(), t, ErrUnsupported)
	}
	return w, nil
}
