// Package classic walks courses rendered with the sidebar/mainbar layout.
package classic

import (
	"context"
	"regexp"

	"teachdl/internal/browser"
	"teachdl/internal/course"
	"teachdl/internal/layout"
)

const (
	titleSel   = "body > section > div.course-sidebar > div > h2"
	coverSel   = ".course-image"
	sectionSel = ".course-section"
	chapterSel = ".section-title"
	itemSel    = ".section-item"
	linkSel    = ".item"
	nameSel    = ".lecture-name"
)

// resizeRe matches the image CDN's resize segment.
var resizeRe = regexp.MustCompile(`/resize=.+?/`)

func init() {
	layout.Register(&Walker{})
}

type Walker struct{}

func (w *Walker) Template() layout.Template { return layout.Classic }

func (w *Walker) Walk(ctx context.Context, env course.Env) (*course.Course, []course.Lecture, error) {
	var raw string
	if el, err := env.Page.WaitElement(titleSel, env.Timeout); err != nil {
		env.Log.Warn("could not get course title, using tab title instead", "err", err)
	} else {
		raw, _ = el.Text()
	}

	c, err := course.New(env, raw)
	if err != nil {
		return nil, nil, err
	}
	c.SaveSnapshot(env)

	if img, err := env.Page.Element(coverSel); err != nil {
		env.Log.Warn("could not find course image", "err", err)
	} else if src, ok, _ := img.Attribute("src"); ok {
		c.SaveCover(ctx, env, CoverCandidates(src)...)
	}

	col := course.NewCollector(c, env.Log)
	sections, err := env.Page.Elements(sectionSel)
	if err != nil {
		env.Log.Warn("could not list chapters", "err", err)
	}
	for _, section := range sections {
		walkSection(env, col, section)
	}
	return c, col.Lectures(), nil
}

// CoverCandidates returns the full-resolution image URL followed by the
// original one.
func CoverCandidates(src string) []string {
	hd := resizeRe.ReplaceAllString(src, "/")
	if hd == src {
		return []string{src}
	}
	return []string{hd, src}
}

func walkSection(env course.Env, col *course.Collector, section browser.Element) {
	name, err := browser.ChildText(section, chapterSel)
	if err != nil {
		col.Skip("no chapter title: " + err.Error())
		return
	}

	ch, err := col.Chapter(name)
	if err != nil {
		env.Log.Warn("skipping chapter", "chapter", name, "err", err)
		return
	}
	env.Log.Info("found chapter", "chapter", ch.Index, "title", name)

	items, err := section.Elements(itemSel)
	if err != nil {
		env.Log.Warn("could not list lectures", "chapter", ch.Index, "err", err)
		return
	}
	for _, item := range items {
		link, err := item.Element(linkSel)
		if err != nil {
			env.Log.Warn("skipping lecture", "chapter", ch.Index, "err", err)
			continue
		}
		href, err := browser.Href(link)
		if err != nil {
			env.Log.Warn("skipping lecture", "chapter", ch.Index, "err", err)
			continue
		}
		text, err := browser.ChildText(item, nameSel)
		if err != nil {
			env.Log.Warn("skipping lecture", "chapter", ch.Index, "err", err)
			continue
		}
		ch.Add(href, text)
	}
}
