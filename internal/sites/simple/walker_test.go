package simple

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teachdl/internal/browser/browsertest"
	"teachdl/internal/course"
	"teachdl/internal/fetcher"
	"teachdl/internal/logging"
)

const courseURL = "https://school.test/courses/go"

type noHTTP struct{}

func (noHTTP) Get(context.Context, string, map[string]string) (*fetcher.Response, error) {
	return nil, errors.New("offline")
}

type node = browsertest.Node

func bars(chapter, n int) []*node {
	out := make([]*node, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, &node{Children: map[string][]*node{
			".text": {{
				InnerText: fmt.Sprintf("Lesson %d.%d", chapter, i),
				Attrs:     map[string]string{"href": fmt.Sprintf("%s/lectures/%d%d", courseURL, chapter, i)},
			}},
		}})
	}
	return out
}

func section(title string, lectures []*node, locked bool) *node {
	children := map[string][]*node{
		".heading": {{InnerText: title}},
		".bar":     lectures,
	}
	if locked {
		children[".drip-tag"] = []*node{{InnerText: "Available in 3 days"}}
	}
	return &node{Children: children}
}

func walk(t *testing.T, sections ...*node) (*course.Course, []course.Lecture, string) {
	t.Helper()
	page := browsertest.New(courseURL, map[string]*browsertest.Doc{
		courseURL: {
			Title: "tab title",
			HTML:  "<html></html>",
			Nodes: map[string][]*node{
				".wrap":         {{}},
				".heading":      {{InnerText: "Go: From Zero"}},
				".slim-section": sections,
			},
		},
	})
	out := t.TempDir()
	env := course.Env{Page: page, HTTP: noHTTP{}, Log: logging.Discard(), OutputDir: out}

	c, lectures, err := (&Walker{}).Walk(context.Background(), env)
	require.NoError(t, err)
	return c, lectures, out
}

func TestWalkSkipsEmptyChapterNumber(t *testing.T) {
	c, lectures, out := walk(t,
		section("Intro", bars(1, 2), false),
		section("Empty", nil, false),
		section("Advanced", bars(3, 3), false),
	)

	assert.Equal(t, "Go--From-Zero", c.Title)
	assert.Equal(t, filepath.Join(out, "courses", "Go--From-Zero"), c.Root)
	assert.FileExists(t, filepath.Join(c.Root, course.SnapshotFile))

	require.Len(t, lectures, 5)
	var chapters []int
	for _, l := range lectures {
		chapters = append(chapters, l.ChapterIndex)
	}
	assert.Equal(t, []int{1, 1, 3, 3, 3}, chapters)
	assert.Equal(t, []int{1, 2}, []int{lectures[0].Index, lectures[1].Index})
	assert.Equal(t, []int{1, 2, 3}, []int{lectures[2].Index, lectures[3].Index, lectures[4].Index})

	assert.Equal(t, courseURL+"/lectures/31", lectures[2].Link)
	assert.Equal(t, "Lesson-3.1", lectures[2].Title)
	assert.Equal(t, filepath.Join(c.Root, "03-Advanced"), lectures[2].Dir)
	assert.DirExists(t, lectures[2].Dir)
}

func TestWalkSkipsLockedChapter(t *testing.T) {
	c, lectures, _ := walk(t,
		section("Intro", bars(1, 1), false),
		section("Bonus", bars(2, 2), true),
		section("Outro", bars(3, 1), false),
	)

	require.Len(t, lectures, 2)
	assert.Equal(t, 1, lectures[0].ChapterIndex)
	assert.Equal(t, 3, lectures[1].ChapterIndex)
	assert.NoDirExists(t, filepath.Join(c.Root, "02-Bonus"))
}

func TestWalkSkipsBrokenItems(t *testing.T) {
	broken := bars(1, 3)
	broken[1].Children[".text"][0].Attrs = nil
	noTitle := &node{Children: map[string][]*node{".bar": bars(2, 1)}}

	_, lectures, _ := walk(t,
		section("One", broken, false),
		noTitle,
		section("Three", bars(3, 1), false),
	)

	require.Len(t, lectures, 3)
	assert.Equal(t, "Lesson-1.1", lectures[0].Title)
	assert.Equal(t, "Lesson-1.3", lectures[1].Title)
	assert.Equal(t, 2, lectures[1].Index)
	assert.Equal(t, 3, lectures[2].ChapterIndex)
}

func TestWalkFallsBackToTabTitle(t *testing.T) {
	page := browsertest.New(courseURL, map[string]*browsertest.Doc{
		courseURL: {Title: "Tab Title"},
	})
	env := course.Env{Page: page, HTTP: noHTTP{}, Log: logging.Discard(), OutputDir: t.TempDir()}

	c, lectures, err := (&Walker{}).Walk(context.Background(), env)
	require.NoError(t, err)
	assert.Equal(t, "Tab-Title", c.Title)
	assert.Empty(t, lectures)
}

func TestWalkLectureDirsAreAbsolute(t *testing.T) {
	t.Chdir(t.TempDir())
	page := browsertest.New(courseURL, map[string]*browsertest.Doc{
		courseURL: {Nodes: map[string][]*node{
			".wrap":         {{}},
			".heading":      {{InnerText: "Go"}},
			".slim-section": {section("Intro", bars(1, 1), false)},
		}},
	})
	env := course.Env{Page: page, HTTP: noHTTP{}, Log: logging.Discard(), OutputDir: "."}

	_, lectures, err := (&Walker{}).Walk(context.Background(), env)
	require.NoError(t, err)
	require.Len(t, lectures, 1)
	assert.True(t, filepath.IsAbs(lectures[0].Dir), lectures[0].Dir)
	assert.DirExists(t, lectures[0].Dir)
}
