package course

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"teachdl/internal/sanitize"
)

// Collector numbers chapters and lectures while a walker enumerates them.
// Every chapter seen advances the chapter number, whether it is kept,
// skipped or fails.
type Collector struct {
	course   *Course
	log      *slog.Logger
	chapter  int
	lectures []Lecture
}

func NewCollector(c *Course, log *slog.Logger) *Collector {
	return &Collector{course: c, log: log}
}

// Chapter is an open chapter folder.
type Chapter struct {
	Index int
	Dir   string

	col  *Collector
	next int
}

// Skip consumes a chapter number without creating a folder.
func (c *Collector) Skip(reason string) {
	c.chapter++
	c.log.Info("skipping chapter", "chapter", c.chapter, "reason", reason)
}

// Chapter consumes the next chapter number and creates its folder. The
// number prefix keeps folders of same-titled chapters apart.
func (c *Collector) Chapter(rawTitle string) (*Chapter, error) {
	c.chapter++
	name := fmt.Sprintf("%02d-%s", c.chapter, sanitize.Title(rawTitle))
	dir := filepath.Join(c.course.Root, name)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create chapter folder %s: %w", name, err)
	}
	return &Chapter{Index: c.chapter, Dir: dir, col: c}, nil
}

// Add appends a lecture to the chapter. It reports false when link is empty.
func (ch *Chapter) Add(link, rawTitle string) bool {
	if link == "" {
		return false
	}
	ch.next++
	title := sanitize.Title(rawTitle)
	if title == "" {
		title = fmt.Sprintf("lecture-%d", ch.next)
	}
	ch.col.lectures = append(ch.col.lectures, Lecture{
		Link:         link,
		Title:        title,
		Index:        ch.next,
		ChapterIndex: ch.Index,
		Dir:          ch.Dir,
	})
	return true
}

// Lectures returns everything collected so far, in page order.
func (c *Collector) Lectures() []Lecture {
	return c.lectures
}
