// Package course holds the per-course data model shared by the template
// walkers and the download orchestrator.
package course

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"teachdl/internal/browser"
	"teachdl/internal/extractor"
	"teachdl/internal/fetcher"
	"teachdl/internal/sanitize"
)

const (
	SnapshotFile = "course.html"
	CoverFile    = "course-image.jpg"
	fallbackName = "course"
)

// Env is what a walker needs from the running session.
type Env struct {
	Page      browser.Page
	HTTP      fetcher.Getter
	Log       *slog.Logger
	OutputDir string
	// Timeout bounds waited lookups.
	Timeout time.Duration
}

// Lecture describes one lecture to download. It is never modified after a
// walker emits it.
type Lecture struct {
	Link  string
	Title string
	// Index is 1-based and dense within the chapter.
	Index int
	// ChapterIndex is 1-based; skipped chapters still consume a number.
	ChapterIndex int
	// Dir is the chapter folder, created before the lecture is emitted.
	Dir string
}

// Base is the file name stem shared by the lecture's artifacts.
func (l Lecture) Base() string {
	return fmt.Sprintf("%02d-%s", l.Index, l.Title)
}

// Course is the output root of one course.
type Course struct {
	Title    string
	Root     string
	Snapshot string
	Cover    string
}

// New creates the course root under <output>/courses. The root is always
// absolute since the browser resolves download paths in its own process.
// An empty rawTitle falls back to the document title.
func New(env Env, rawTitle string) (*Course, error) {
	title := sanitize.Title(rawTitle)
	if title == "" {
		if t, err := env.Page.Title(); err == nil {
			title = sanitize.Title(t)
		}
	}
	if title == "" {
		title = fallbackName
	}

	out, err := filepath.Abs(env.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve output folder: %w", err)
	}
	root := filepath.Join(out, "courses", title)
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create course folder: %w", err)
	}
	env.Log.Info("course folder ready", "title", title, "path", root)
	return &Course{Title: title, Root: root}, nil
}

// SaveSnapshot writes the course page to course.html. Failures are logged.
func (c *Course) SaveSnapshot(env Env) {
	html, err := extractor.Snapshot(env.Page)
	if err == nil {
		path := filepath.Join(c.Root, SnapshotFile)
		if err = os.WriteFile(path, []byte(html), 0o644); err == nil {
			c.Snapshot = path
			env.Log.Info("saved course page", "path", path)
			return
		}
	}
	env.Log.Warn("could not save course page", "err", err)
}

// SaveCover downloads the first candidate URL that answers 2xx into
// course-image.jpg. Failures are logged.
func (c *Course) SaveCover(ctx context.Context, env Env, candidates ...string) {
	for _, u := range candidates {
		if u == "" {
			continue
		}
		resp, err := env.HTTP.Get(ctx, u, nil)
		if err != nil {
			env.Log.Warn("could not download cover image", "url", u, "err", err)
			continue
		}
		if !resp.OK() {
			env.Log.Warn("could not download cover image", "url", u, "status", resp.Status)
			continue
		}
		path := filepath.Join(c.Root, CoverFile)
		if err := os.WriteFile(path, resp.Body, 0o644); err != nil {
			env.Log.Warn("could not save cover image", "err", err)
			return
		}
		c.Cover = path
		env.Log.Info("saved cover image", "url", u)
		return
	}
}
