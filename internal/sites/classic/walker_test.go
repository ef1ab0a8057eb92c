package classic

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teachdl/internal/browser/browsertest"
	"teachdl/internal/course"
	"teachdl/internal/fetcher"
	"teachdl/internal/logging"
)

const courseURL = "https://school.test/courses/enrolled/42"

type node = browsertest.Node

type stubHTTP map[string]*fetcher.Response

func (s stubHTTP) Get(_ context.Context, url string, _ map[string]string) (*fetcher.Response, error) {
	if r, ok := s[url]; ok {
		return r, nil
	}
	return &fetcher.Response{Status: http.StatusNotFound}, nil
}

func items(chapter, n int) []*node {
	out := make([]*node, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, &node{Children: map[string][]*node{
			".item": {{Attrs: map[string]string{
				"href": fmt.Sprintf("%s/lectures/%d%d", courseURL, chapter, i),
			}}},
			".lecture-name": {{InnerText: fmt.Sprintf("\n  Video %d/%d (5:00)\n", chapter, i)}},
		}})
	}
	return out
}

func section(title string, lectures []*node) *node {
	return &node{Children: map[string][]*node{
		".section-title": {{InnerText: title}},
		".section-item":  lectures,
	}}
}

func newEnv(t *testing.T, nodes map[string][]*node, getter fetcher.Getter) course.Env {
	t.Helper()
	page := browsertest.New(courseURL, map[string]*browsertest.Doc{
		courseURL: {Title: "School", HTML: "<html></html>", Nodes: nodes},
	})
	return course.Env{Page: page, HTTP: getter, Log: logging.Discard(), OutputDir: t.TempDir()}
}

func TestWalk(t *testing.T) {
	const (
		src = "https://cdn.test/resize=width:480/abc"
		hd  = "https://cdn.test/abc"
	)
	env := newEnv(t, map[string][]*node{
		titleSel: {{InnerText: "Classic Course"}},
		coverSel: {{Attrs: map[string]string{"src": src}}},
		sectionSel: {
			section("First", items(1, 2)),
			section("Second", nil),
			section("Third", items(3, 3)),
		},
	}, stubHTTP{hd: {Status: http.StatusOK, Body: []byte("hd")}})

	c, lectures, err := (&Walker{}).Walk(context.Background(), env)
	require.NoError(t, err)

	assert.Equal(t, "Classic-Course", c.Title)
	data, err := os.ReadFile(filepath.Join(c.Root, course.CoverFile))
	require.NoError(t, err)
	assert.Equal(t, "hd", string(data))

	require.Len(t, lectures, 5)
	assert.Equal(t, course.Lecture{
		Link:         courseURL + "/lectures/11",
		Title:        "Video-1-1-(5-00)",
		Index:        1,
		ChapterIndex: 1,
		Dir:          filepath.Join(c.Root, "01-First"),
	}, lectures[0])
	assert.Equal(t, 3, lectures[2].ChapterIndex)
	assert.Equal(t, 1, lectures[2].Index)
	assert.Equal(t, 3, lectures[4].Index)
	assert.DirExists(t, filepath.Join(c.Root, "02-Second"))
}

func TestWalkCoverFallsBackToOriginal(t *testing.T) {
	src := "https://cdn.test/resize=width:480/abc"
	env := newEnv(t, map[string][]*node{
		coverSel: {{Attrs: map[string]string{"src": src}}},
	}, stubHTTP{src: {Status: http.StatusOK, Body: []byte("small")}})

	c, _, err := (&Walker{}).Walk(context.Background(), env)
	require.NoError(t, err)
	assert.Equal(t, "School", c.Title)
	data, err := os.ReadFile(filepath.Join(c.Root, course.CoverFile))
	require.NoError(t, err)
	assert.Equal(t, "small", string(data))
}

func TestWalkSkipsItemWithoutName(t *testing.T) {
	list := items(1, 2)
	delete(list[0].Children, ".lecture-name")
	env := newEnv(t, map[string][]*node{
		sectionSel: {section("Only", list)},
	}, stubHTTP{})

	_, lectures, err := (&Walker{}).Walk(context.Background(), env)
	require.NoError(t, err)
	require.Len(t, lectures, 1)
	assert.Equal(t, 1, lectures[0].Index)
	assert.Equal(t, courseURL+"/lectures/12", lectures[0].Link)
}

func TestCoverCandidates(t *testing.T) {
	assert.Equal(t,
		[]string{"https://cdn/abc", "https://cdn/resize=w:1/abc"},
		CoverCandidates("https://cdn/resize=w:1/abc"))
	assert.Equal(t, []string{"https://cdn/abc"}, CoverCandidates("https://cdn/abc"))
}

func TestWalkChapterNumbering(t *testing.T) {
	env := newEnv(t, map[string][]*node{
		titleSel: {{InnerText: "Numbers"}},
		sectionSel: {
			section("A", items(1, 2)),
			section("B", nil),
			section("C", items(3, 3)),
		},
	}, stubHTTP{})

	_, lectures, err := (&Walker{}).Walk(context.Background(), env)
	require.NoError(t, err)

	var got [][2]int
	for _, l := range lectures {
		got = append(got, [2]int{l.ChapterIndex, l.Index})
	}
	assert.Equal(t, [][2]int{{1, 1}, {1, 2}, {3, 1}, {3, 2}, {3, 3}}, got)
}
