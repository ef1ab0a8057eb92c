// Package download runs the per-lecture download chain: page snapshot,
// native file attachment, embedded player video and the completion marker.
package download

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"teachdl/internal/browser"
	"teachdl/internal/course"
	"teachdl/internal/media"
)

// Strategy names what produced a lecture's video.
type Strategy string

const (
	None     Strategy = ""
	File     Strategy = "file"
	Embedded Strategy = "embedded"
)

// FileDownloader fetches attachment URLs outside the browser.
type FileDownloader interface {
	DownloadFile(ctx context.Context, url, destPath string) error
}

// Options toggle the optional steps and bound the waits.
type Options struct {
	Notes       bool
	Attachments bool
	Complete    bool

	// CompleteDelay is how long to wait after marking a lecture complete.
	CompleteDelay time.Duration
	// PollInterval is the download directory poll period.
	PollInterval time.Duration
	// FileTimeout bounds the wait for a clicked file; zero waits until the
	// context ends.
	FileTimeout       time.Duration
	AttachmentWorkers int

	// Media is the template for every embedded player download; Output is
	// filled per frame.
	Media media.Options
}

// Result is the outcome of one lecture. Process always returns one.
type Result struct {
	Lecture  course.Lecture
	Strategy Strategy
	Files    []string
	// Errors maps step name to its failure.
	Errors  map[string]error
	Aborted bool
}

// Downloaded reports whether a video was saved.
func (r *Result) Downloaded() bool { return r.Strategy != None }

func (r *Result) fail(step string, err error) {
	if _, ok := r.Errors[step]; !ok {
		r.Errors[step] = err
	}
}

// Orchestrator downloads lectures one at a time through a single page.
type Orchestrator struct {
	page  browser.Page
	media media.Downloader
	files FileDownloader
	log   *slog.Logger
	opts  Options
	steps []step
}

func New(page browser.Page, md media.Downloader, files FileDownloader, log *slog.Logger, opts Options) *Orchestrator {
	if opts.PollInterval <= 0 {
		opts.PollInterval = time.Second
	}
	if opts.AttachmentWorkers <= 0 {
		opts.AttachmentWorkers = 4
	}
	o := &Orchestrator{page: page, media: md, files: files, log: log, opts: opts}
	o.steps = o.chain()
	return o
}

// Process runs the chain for one lecture. Failures are recorded in the
// result and never returned or raised.
func (o *Orchestrator) Process(ctx context.Context, l course.Lecture) (res Result) {
	res = Result{Lecture: l, Errors: map[string]error{}}
	log := o.log.With("chapter", l.ChapterIndex, "lecture", l.Base())
	j := &job{lecture: l, log: log, res: &res}

	defer func() {
		if r := recover(); r != nil {
			o.page.SwitchToDefault()
			res.fail("panic", fmt.Errorf("%v", r))
			log.Error("lecture aborted", "panic", r)
		}
	}()

	log.Info("processing lecture", "url", l.Link)
	for _, s := range o.steps {
		if err := ctx.Err(); err != nil {
			res.fail(s.name, err)
			res.Aborted = true
			break
		}
		out := s.run(ctx, j)
		if out == done {
			break
		}
		if out == abort {
			res.Aborted = true
			break
		}
	}

	switch {
	case res.Downloaded():
		log.Info("lecture downloaded", "strategy", res.Strategy, "files", len(res.Files))
	case res.Aborted:
		log.Warn("lecture not downloaded", "errors", len(res.Errors))
	default:
		log.Warn("no video found for lecture", "errors", len(res.Errors))
	}
	return res
}

// ProcessAll handles every lecture in order and stops early only when ctx
// is done.
func (o *Orchestrator) ProcessAll(ctx context.Context, lectures []course.Lecture) []Result {
	results := make([]Result, 0, len(lectures))
	for _, l := range lectures {
		if ctx.Err() != nil {
			break
		}
		results = append(results, o.Process(ctx, l))
	}
	return results
}
