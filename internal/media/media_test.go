package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEscapeTemplate(t *testing.T) {
	assert.Equal(t, "/out/01-100%%-done.mp4", EscapeTemplate("/out/01-100%-done.mp4"))
	assert.Equal(t, "/out/01-intro.mp4", EscapeTemplate("/out/01-intro.mp4"))
}

func TestHeaderArgs(t *testing.T) {
	got := HeaderArgs(map[string]string{
		"Referer":    "https://player.hotmart.com",
		"Origin":     "https://player.hotmart.com",
		"User-Agent": "ua",
	})
	assert.Equal(t, []string{
		"Origin:https://player.hotmart.com",
		"Referer:https://player.hotmart.com",
		"User-Agent:ua",
	}, got)
	assert.Empty(t, HeaderArgs(nil))
}

func TestWithDefaults(t *testing.T) {
	got := withDefaults(Options{Output: "x.mp4"})
	assert.Equal(t, DefaultFormat, got.Format)
	assert.Equal(t, DefaultMergeFormat, got.MergeFormat)
	assert.Equal(t, DefaultFragments, got.Concurrency)

	got = withDefaults(Options{Format: "best", Concurrency: 3})
	assert.Equal(t, "best", got.Format)
	assert.Equal(t, 3, got.Concurrency)
}
