// Package browsertest provides an in-memory browser.Page for tests.
//
// A Doc maps CSS selectors to the nodes they match; nothing is parsed, so a
// test only describes the selectors the code under test asks for.
package browsertest

import (
	"errors"
	"fmt"
	"time"

	"teachdl/internal/browser"
)

// Node is a fake DOM element.
type Node struct {
	InnerText string
	Attrs     map[string]string
	Children  map[string][]*Node
	// Frame is the document shown when the node is entered as an iframe.
	Frame *Doc
	// TextErr makes Text fail.
	TextErr error
	OnClick func() error
	Clicks  int
	Inputs  []string
}

// Doc is a fake document.
type Doc struct {
	Title string
	HTML  string
	Nodes map[string][]*Node
}

// Page implements browser.Page over a set of documents keyed by URL.
type Page struct {
	Docs map[string]*Doc

	// NavigateErr fails navigation to the given URLs.
	NavigateErr map[string]error
	// OnEval runs for every script; it may mutate the current doc.
	OnEval func(doc *Doc, js string) error

	Navigations []string
	Evals       []string
	DownloadDir string
	FrameSwitch int

	url    string
	frames []*Doc
}

var _ browser.Page = (*Page)(nil)

// New returns a Page that starts on url.
func New(url string, docs map[string]*Doc) *Page {
	return &Page{Docs: docs, url: url}
}

func (p *Page) doc() *Doc {
	if n := len(p.frames); n > 0 {
		return p.frames[n-1]
	}
	if d, ok := p.Docs[p.url]; ok {
		return d
	}
	return &Doc{}
}

func (p *Page) Navigate(url string) error {
	p.Navigations = append(p.Navigations, url)
	if err := p.NavigateErr[url]; err != nil {
		return err
	}
	p.frames = nil
	p.url = url
	return nil
}

func (p *Page) URL() string { return p.url }

func (p *Page) Title() (string, error) { return p.doc().Title, nil }

func (p *Page) HTML() (string, error) { return p.doc().HTML, nil }

func (p *Page) Has(selector string) bool {
	return len(p.doc().Nodes[selector]) > 0
}

func (p *Page) Element(selector string) (browser.Element, error) {
	return first(p.doc().Nodes, selector)
}

func (p *Page) Elements(selector string) ([]browser.Element, error) {
	return all(p.doc().Nodes[selector]), nil
}

func (p *Page) WaitElement(selector string, _ time.Duration) (browser.Element, error) {
	return first(p.doc().Nodes, selector)
}

func (p *Page) Eval(js string) error {
	p.Evals = append(p.Evals, js)
	if p.OnEval != nil {
		return p.OnEval(p.doc(), js)
	}
	return nil
}

func (p *Page) SwitchToFrame(frame browser.Element) error {
	n, ok := frame.(*Node)
	if !ok || n.Frame == nil {
		return errors.New("not a frame")
	}
	p.FrameSwitch++
	p.frames = append(p.frames, n.Frame)
	return nil
}

func (p *Page) SwitchToDefault() { p.frames = nil }

// InFrame reports whether lookups currently target a frame.
func (p *Page) InFrame() bool { return len(p.frames) > 0 }

func (p *Page) SetDownloadDir(dir string) error {
	p.DownloadDir = dir
	return nil
}

func (n *Node) Text() (string, error) {
	if n.TextErr != nil {
		return "", n.TextErr
	}
	return n.InnerText, nil
}

func (n *Node) Attribute(name string) (string, bool, error) {
	v, ok := n.Attrs[name]
	return v, ok, nil
}

func (n *Node) Element(selector string) (browser.Element, error) {
	return first(n.Children, selector)
}

func (n *Node) Elements(selector string) ([]browser.Element, error) {
	return all(n.Children[selector]), nil
}

func (n *Node) Has(selector string) bool { return len(n.Children[selector]) > 0 }

func (n *Node) Click() error {
	n.Clicks++
	if n.OnClick != nil {
		return n.OnClick()
	}
	return nil
}

func (n *Node) Input(text string) error {
	n.Inputs = append(n.Inputs, text)
	return nil
}

func first(nodes map[string][]*Node, selector string) (browser.Element, error) {
	if ns := nodes[selector]; len(ns) > 0 {
		return ns[0], nil
	}
	return nil, fmt.Errorf("%q: %w", selector, browser.ErrNotFound)
}

func all(nodes []*Node) []browser.Element {
	out := make([]browser.Element, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n)
	}
	return out
}
