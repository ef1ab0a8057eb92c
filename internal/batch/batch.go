// Package batch runs a list of course URLs through one browser session.
package batch

import (
	"context"
	"errors"
	"fmt"

	"teachdl/internal/course"
	"teachdl/internal/download"
	"teachdl/internal/layout"
)

// CourseResult is the outcome of one course URL.
type CourseResult struct {
	URL        string
	Template   layout.Template
	Course     *course.Course
	Lectures   int
	Downloaded int
	Err        error
}

// Summary collects every course attempted in a run.
type Summary struct {
	Courses []CourseResult
}

// Failed counts courses that could not be walked.
func (s Summary) Failed() int {
	n := 0
	for _, c := range s.Courses {
		if c.Err != nil {
			n++
		}
	}
	return n
}

// Runner processes courses one after another. A failing course is logged
// and the run moves on.
type Runner struct {
	env  course.Env
	orch *download.Orchestrator
}

// New returns a runner that walks pages through env.Page and downloads
// lectures with orch, which must drive the same page.
func New(env course.Env, orch *download.Orchestrator) *Runner {
	return &Runner{env: env, orch: orch}
}

func (r *Runner) Run(ctx context.Context, urls []string) Summary {
	var sum Summary
	for i, u := range urls {
		if ctx.Err() != nil {
			r.env.Log.Warn("run interrupted", "remaining", len(urls)-i)
			break
		}
		res := r.runCourse(ctx, u)
		if res.Err != nil {
			r.env.Log.Error("course failed", "url", u, "err", res.Err)
		} else {
			r.env.Log.Info("course finished", "url", u, "template", res.Template,
				"lectures", res.Lectures, "downloaded", res.Downloaded)
		}
		sum.Courses = append(sum.Courses, res)
	}
	return sum
}

func (r *Runner) runCourse(ctx context.Context, url string) (res CourseResult) {
	res.URL = url
	log := r.env.Log.With("course", url)
	env := r.env
	env.Log = log

	defer func() {
		if p := recover(); p != nil {
			env.Page.SwitchToDefault()
			res.Err = fmt.Errorf("panic: %v", p)
		}
	}()

	if env.Page.URL() != url {
		if err := env.Page.Navigate(url); err != nil {
			res.Err = fmt.Errorf("failed to open course: %w", err)
			return res
		}
	}
	if _, err := env.Page.WaitElement("body", env.Timeout); err != nil {
		log.Warn("course page did not finish loading", "err", err)
	}

	w, err := layout.Select(env.Page)
	if err != nil {
		if errors.Is(err, layout.ErrUnsupported) {
			log.Error("downloader does not support this course template")
		}
		res.Err = err
		return res
	}
	res.Template = w.Template()
	log.Info("detected course template", "template", res.Template)

	c, lectures, err := w.Walk(ctx, env)
	if err != nil {
		res.Err = err
		return res
	}
	res.Course = c
	res.Lectures = len(lectures)

	for _, lr := range r.orch.ProcessAll(ctx, lectures) {
		if lr.Downloaded() {
			res.Downloaded++
		}
	}
	return res
}
