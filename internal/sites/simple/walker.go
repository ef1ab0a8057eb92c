// Package simple walks courses rendered by the Next.js course player.
package simple

import (
	"context"

	"teachdl/internal/browser"
	"teachdl/internal/course"
	"teachdl/internal/layout"
)

const (
	wrapSel     = ".wrap"
	headingSel  = ".heading"
	coverSel    = "#__next > div > div > div:nth-of-type(2) > div > div:nth-of-type(1) > img"
	sectionSel  = ".slim-section"
	lockedSel   = ".drip-tag"
	lectureSel  = ".bar"
	lectureLink = ".text"
)

func init() {
	layout.Register(&Walker{})
}

type Walker struct{}

func (w *Walker) Template() layout.Template { return layout.Simple }

func (w *Walker) Walk(ctx context.Context, env course.Env) (*course.Course, []course.Lecture, error) {
	c, err := course.New(env, title(env))
	if err != nil {
		return nil, nil, err
	}
	c.SaveSnapshot(env)

	if img, err := env.Page.Element(coverSel); err != nil {
		env.Log.Warn("could not find course image", "err", err)
	} else if src, ok, _ := img.Attribute("src"); ok {
		c.SaveCover(ctx, env, src)
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

func title(env course.Env) string {
	if _, err := env.Page.WaitElement(wrapSel, env.Timeout); err != nil {
		env.Log.Warn("could not get course title, using tab title instead", "err", err)
		return ""
	}
	el, err := env.Page.WaitElement(headingSel, env.Timeout)
	if err != nil {
		env.Log.Warn("could not get course title, using tab title instead", "err", err)
		return ""
	}
	t, _ := el.Text()
	return t
}

func walkSection(env course.Env, col *course.Collector, section browser.Element) {
	name, err := browser.ChildText(section, headingSel)
	if err != nil {
		col.Skip("no chapter title: " + err.Error())
		return
	}
	if section.Has(lockedSel) {
		col.Skip("not available yet: " + name)
		return
	}

	ch, err := col.Chapter(name)
	if err != nil {
		env.Log.Warn("skipping chapter", "chapter", name, "err", err)
		return
	}
	env.Log.Info("found chapter", "chapter", ch.Index, "title", name)

	bars, err := section.Elements(lectureSel)
	if err != nil {
		env.Log.Warn("could not list lectures", "chapter", ch.Index, "err", err)
		return
	}
	for _, bar := range bars {
		link, err := bar.Element(lectureLink)
		if err != nil {
			env.Log.Warn("skipping lecture", "chapter", ch.Index, "err", err)
			continue
		}
		href, err := browser.Href(link)
		if err != nil {
			env.Log.Warn("skipping lecture", "chapter", ch.Index, "err", err)
			continue
		}
		text, _ := link.Text()
		ch.Add(href, text)
	}
}
