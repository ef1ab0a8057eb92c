package browser

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound is returned when a selector matches nothing.
var ErrNotFound = errors.New("element not found")

// Element is a handle to one DOM node in the current frame.
type Element interface {
	Text() (string, error)
	// Attribute returns the attribute value and whether it is present.
	Attribute(name string) (string, bool, error)
	// Element returns the first descendant matching selector or ErrNotFound.
	Element(selector string) (Element, error)
	Elements(selector string) ([]Element, error)
	Has(selector string) bool
	Click() error
	Input(text string) error
}

// Page is the browser driver as seen by the course walkers and the
// download orchestrator. All lookups run against the current frame.
type Page interface {
	Navigate(url string) error
	URL() string
	Title() (string, error)
	// HTML returns the serialized document of the current frame.
	HTML() (string, error)

	// Has probes for selector without waiting. Absence is not an error.
	Has(selector string) bool
	Element(selector string) (Element, error)
	Elements(selector string) ([]Element, error)
	WaitElement(selector string, timeout time.Duration) (Element, error)

	Eval(js string) error

	SwitchToFrame(frame Element) error
	SwitchToDefault()

	// SetDownloadDir makes browser-initiated downloads land in dir.
	SetDownloadDir(dir string) error
}

// ChildText returns the trimmed text of el's first descendant matching
// selector.
func ChildText(el Element, selector string) (string, error) {
	child, err := el.Element(selector)
	if err != nil {
		return "", err
	}
	text, err := child.Text()
	if err != nil {
		return "", fmt.Errorf("read text of %q: %w", selector, err)
	}
	return strings.TrimSpace(text), nil
}

// Href returns el's link target, failing when it has none.
func Href(el Element) (string, error) {
	href, ok, err := el.Attribute("href")
	if err != nil {
		return "", fmt.Errorf("read href: %w", err)
	}
	if !ok || href == "" {
		return "", fmt.Errorf("href: %w", ErrNotFound)
	}
	return href, nil
}
