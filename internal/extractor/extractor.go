// Package extractor turns page HTML into the artifacts written next to each
// lecture: the page snapshot, the player's media URL and Markdown notes.
package extractor

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/tidwall/gjson"

	"teachdl/internal/browser"
)

// MediaPath locates the first media asset inside the embedded player's
// __NEXT_DATA__ payload.
const MediaPath = "props.pageProps.applicationData.mediaAssets.0.url"

var ErrNoMedia = errors.New("no media url in player data")

// contentSelectors are tried in order when picking the lecture body for notes.
var contentSelectors = []string{
	".lecture-text-container",
	".lecture-content",
	"article",
	"main",
	"[role=main]",
}

// Snapshot returns the current frame's document with a DOCTYPE line.
func Snapshot(page browser.Page) (string, error) {
	html, err := page.HTML()
	if err != nil {
		return "", fmt.Errorf("failed to get full HTML: %w", err)
	}
	if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(html)), "<!doctype") {
		html = "<!DOCTYPE html>\n" + html
	}
	return html, nil
}

// MediaURL reads the media URL out of a player document.
func MediaURL(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse player html: %w", err)
	}

	script := doc.Find("script#__NEXT_DATA__").First()
	if script.Length() == 0 {
		return "", fmt.Errorf("__NEXT_DATA__: %w", browser.ErrNotFound)
	}

	payload := script.Text()
	if !gjson.Valid(payload) {
		return "", errors.New("player data is not valid json")
	}

	url := gjson.Get(payload, MediaPath).String()
	if url == "" {
		return "", ErrNoMedia
	}
	return url, nil
}

// Content returns the inner HTML of the lecture body, falling back to the
// whole body.
func Content(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse page html: %w", err)
	}
	doc.Find("script, style, noscript").Remove()

	for _, sel := range contentSelectors {
		if s := doc.Find(sel).First(); s.Length() > 0 {
			if inner, err := s.Html(); err == nil && strings.TrimSpace(inner) != "" {
				return inner, nil
			}
		}
	}

	inner, err := doc.Find("body").Html()
	if err != nil {
		return "", fmt.Errorf("failed to extract content: %w", err)
	}
	return inner, nil
}
