package download

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"teachdl/internal/browser"
	"teachdl/internal/course"
	"teachdl/internal/extractor"
	"teachdl/internal/sanitize"
)

const (
	videoAttachmentSel = ".lecture-attachment-type-video"
	fileAttachmentSel  = ".lecture-attachment-type-file"
	playerFrameSel     = `iframe[data-testid^="embed-player"]`
	completeSel        = "#lecture_complete_button"
)

type outcome int

const (
	next outcome = iota
	done
	abort
)

type step struct {
	name string
	run  func(ctx context.Context, j *job) outcome
}

type job struct {
	lecture course.Lecture
	log     *slog.Logger
	res     *Result
}

func (o *Orchestrator) chain() []step {
	steps := []step{
		{"navigate", o.navigate},
		{"snapshot", o.snapshot},
	}
	if o.opts.Notes {
		steps = append(steps, step{"notes", o.notes})
	}
	if o.opts.Attachments {
		steps = append(steps, step{"attachments", o.attachments})
	}
	steps = append(steps,
		step{"file", o.file},
		step{"embedded", o.embedded},
	)
	if o.opts.Complete {
		steps = append(steps, step{"complete", o.complete})
	}
	return steps
}

func (o *Orchestrator) navigate(_ context.Context, j *job) outcome {
	if o.page.URL() == j.lecture.Link {
		return next
	}
	j.log.Info("navigating to lecture")
	if err := o.page.Navigate(j.lecture.Link); err != nil {
		j.res.fail("navigate", err)
		j.log.Error("could not open lecture", "err", err)
		return abort
	}
	return next
}

func (o *Orchestrator) snapshot(_ context.Context, j *job) outcome {
	html, err := extractor.Snapshot(o.page)
	if err == nil {
		p := filepath.Join(j.lecture.Dir, j.lecture.Base()+".html")
		if err = os.WriteFile(p, []byte(html), 0o644); err == nil {
			j.log.Debug("saved lecture page", "path", p)
			return next
		}
	}
	j.res.fail("snapshot", err)
	j.log.Warn("could not save lecture page", "err", err)
	return next
}

func (o *Orchestrator) notes(_ context.Context, j *job) outcome {
	html, err := o.page.HTML()
	if err == nil {
		var text string
		if text, err = extractor.Markdown(html); err == nil {
			p := filepath.Join(j.lecture.Dir, j.lecture.Base()+".md")
			if err = os.WriteFile(p, []byte(text), 0o644); err == nil {
				j.log.Debug("saved lecture notes", "path", p)
				return next
			}
		}
	}
	j.res.fail("notes", err)
	j.log.Warn("could not save lecture notes", "err", err)
	return next
}

type attachment struct {
	url  string
	name string
}

func (o *Orchestrator) attachments(ctx context.Context, j *job) outcome {
	boxes, err := o.page.Elements(fileAttachmentSel)
	if err != nil || len(boxes) == 0 {
		j.log.Debug("no attachments")
		return next
	}
	links, err := boxes[0].Elements("a")
	if err != nil {
		j.res.fail("attachments", err)
		return next
	}

	var files []attachment
	seen := map[string]int{}
	for _, link := range links {
		href, ok, err := link.Attribute("href")
		if err != nil || !ok || href == "" {
			continue
		}
		text, _ := link.Text()
		base := attachmentName(href, text)
		seen[base]++
		name := base
		if n := seen[base]; n > 1 {
			name = fmt.Sprintf("%d-%s", n, base)
		}
		files = append(files, attachment{url: href, name: name})
	}
	if len(files) == 0 {
		return next
	}

	dir := filepath.Join(j.lecture.Dir, j.lecture.Base())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		j.res.fail("attachments", err)
		j.log.Warn("could not create attachment folder", "err", err)
		return next
	}

	var g errgroup.Group
	g.SetLimit(o.opts.AttachmentWorkers)
	for _, f := range files {
		dest := filepath.Join(dir, f.name)
		if _, err := os.Stat(dest); err == nil {
			j.log.Info("skipping existing attachment", "file", f.name)
			continue
		}
		g.Go(func() error {
			if err := o.files.DownloadFile(ctx, f.url, dest); err != nil {
				j.log.Warn("could not download attachment", "file", f.name, "err", err)
				return fmt.Errorf("%s: %w", f.name, err)
			}
			j.log.Info("downloaded attachment", "file", f.name)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		j.res.fail("attachments", err)
	}
	return next
}

// attachmentName prefers the link text and falls back to the URL's last
// path segment.
func attachmentName(href, text string) string {
	if name := sanitize.Title(strings.TrimSpace(text)); name != "" {
		return name
	}
	if u, err := url.Parse(href); err == nil {
		if base := sanitize.Title(path.Base(u.Path)); base != "" && base != "." && base != "-" {
			return base
		}
	}
	return "attachment"
}

func (o *Orchestrator) file(ctx context.Context, j *job) outcome {
	box, err := o.page.Element(videoAttachmentSel)
	if err != nil {
		j.log.Debug("no video attachment")
		return next
	}
	link, err := box.Element("a")
	if err != nil {
		j.log.Debug("no video attachment link")
		return next
	}

	dir := j.lecture.Dir
	if err := o.page.SetDownloadDir(dir); err != nil {
		j.res.fail("file", err)
		return next
	}
	before, err := listFiles(dir)
	if err != nil {
		j.res.fail("file", err)
		return next
	}
	if err := link.Click(); err != nil {
		j.res.fail("file", err)
		j.log.Warn("could not start video file download", "err", err)
		return next
	}

	name, err := waitForNewFile(ctx, dir, before, o.opts.PollInterval, o.opts.FileTimeout)
	if err != nil {
		j.res.fail("file", err)
		j.log.Warn("video file download did not finish", "err", err)
		return next
	}

	target := filepath.Join(dir, fmt.Sprintf("%d-%s%s", j.lecture.Index, j.lecture.Title, filepath.Ext(name)))
	if err := os.Rename(filepath.Join(dir, name), target); err != nil {
		j.res.fail("file", err)
		j.log.Warn("could not rename video file", "err", err)
		return next
	}

	j.res.Strategy = File
	j.res.Files = append(j.res.Files, target)
	j.log.Info("downloaded video file", "path", target)
	return done
}

func (o *Orchestrator) embedded(ctx context.Context, j *job) outcome {
	frames, err := o.page.Elements(playerFrameSel)
	if err != nil {
		j.res.fail("embedded", err)
		return next
	}
	if len(frames) == 0 {
		j.log.Debug("no embedded player")
		return next
	}

	for i, frame := range frames {
		name := j.lecture.Base()
		if len(frames) > 1 {
			name = fmt.Sprintf("%s-%d", name, i+1)
		}
		out := filepath.Join(j.lecture.Dir, name+".mp4")

		mediaURL, err := o.frameMediaURL(frame)
		if err == nil {
			opts := o.opts.Media
			opts.Output = out
			err = o.media.Download(ctx, mediaURL, opts)
		}
		if err != nil {
			j.res.fail(fmt.Sprintf("embedded[%d]", i+1), err)
			j.log.Warn("could not download player video", "frame", i+1, "err", err)
			continue
		}

		j.res.Strategy = Embedded
		j.res.Files = append(j.res.Files, out)
		j.log.Info("downloaded player video", "frame", i+1, "path", out)
	}
	return next
}

// frameMediaURL reads the player payload inside frame. The page is back on
// the top-level document when it returns.
func (o *Orchestrator) frameMediaURL(frame browser.Element) (string, error) {
	defer o.page.SwitchToDefault()
	if err := o.page.SwitchToFrame(frame); err != nil {
		return "", err
	}
	html, err := o.page.HTML()
	if err != nil {
		return "", err
	}
	return extractor.MediaURL(html)
}

func (o *Orchestrator) complete(ctx context.Context, j *job) outcome {
	o.page.SwitchToDefault()
	btn, err := o.page.Element(completeSel)
	if err == nil {
		err = btn.Click()
	}
	if err != nil {
		j.res.fail("complete", err)
		j.log.Warn("could not complete lecture", "err", err)
		return next
	}
	j.log.Info("completed lecture")

	if o.opts.CompleteDelay > 0 {
		t := time.NewTimer(o.opts.CompleteDelay)
		defer t.Stop()
		select {
		case <-ctx.Done():
		case <-t.C:
		}
	}
	return next
}
