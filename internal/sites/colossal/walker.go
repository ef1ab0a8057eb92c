// Package colossal walks courses rendered with the block curriculum layout.
// That layout hides upcoming content, so the walker reveals it before
// reading the curriculum.
package colossal

import (
	"context"

	"teachdl/internal/browser"
	"teachdl/internal/course"
	"teachdl/internal/layout"
)

const (
	titleSel   = ".lecture_heading"
	sectionSel = ".block__curriculum__section"
	chapterSel = ".block__curriculum__section__title"
	linkSel    = ".block__curriculum__section__list__item__link"
	nameSel    = ".block__curriculum__section__list__item__lecture-name"
)

// UnhideScript removes the hidden class from every element.
const UnhideScript = `() => document.querySelectorAll(".hidden").forEach(e => e.classList.remove("hidden"))`

func init() {
	layout.Register(&Walker{})
}

type Walker struct{}

func (w *Walker) Template() layout.Template { return layout.Colossal }

func (w *Walker) Walk(_ context.Context, env course.Env) (*course.Course, []course.Lecture, error) {
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

	if err := env.Page.Eval(UnhideScript); err != nil {
		env.Log.Warn("could not unhide elements", "err", err)
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

	links, err := section.Elements(linkSel)
	if err != nil {
		env.Log.Warn("could not list lectures", "chapter", ch.Index, "err", err)
		return
	}
	for _, link := range links {
		href, err := browser.Href(link)
		if err != nil {
			env.Log.Warn("skipping lecture", "chapter", ch.Index, "err", err)
			continue
		}
		text, err := browser.ChildText(link, nameSel)
		if err != nil {
			env.Log.Warn("skipping lecture", "chapter", ch.Index, "err", err)
			continue
		}
		ch.Add(href, text)
	}
}
