// Package media hands media URLs found in embedded players to yt-dlp.
package media

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/lrstanley/go-ytdlp"
)

const (
	DefaultFormat      = "bestvideo[ext=mp4]+bestaudio[ext=m4a]/best[ext=mp4]/best"
	DefaultMergeFormat = "mp4"
	DefaultFragments   = 15
)

// Options describe one download.
type Options struct {
	// Output is the literal destination path, not a yt-dlp template.
	Output      string
	Format      string
	MergeFormat string
	Concurrency int
	Headers     map[string]string
	// CookiesFile is a Netscape cookie file passed through when set.
	CookiesFile string
	Verbose     bool
}

// Downloader blocks until the media at url is written or fails.
type Downloader interface {
	Download(ctx context.Context, url string, opts Options) error
}

// YtDlp runs the yt-dlp binary, installing it on first use.
type YtDlp struct {
	log *slog.Logger

	once       sync.Once
	installErr error
}

func NewYtDlp(log *slog.Logger) *YtDlp {
	return &YtDlp{log: log}
}

func (y *YtDlp) install(ctx context.Context) error {
	y.once.Do(func() {
		if _, err := ytdlp.Install(ctx, nil); err != nil {
			y.installErr = fmt.Errorf("failed to install yt-dlp: %w", err)
		}
	})
	return y.installErr
}

func (y *YtDlp) Download(ctx context.Context, url string, opts Options) error {
	if err := y.install(ctx); err != nil {
		return err
	}

	opts = withDefaults(opts)
	dl := ytdlp.New().
		Output(EscapeTemplate(opts.Output)).
		Format(opts.Format).
		MergeOutputFormat(opts.MergeFormat).
		ConcurrentFragments(opts.Concurrency)

	for _, h := range HeaderArgs(opts.Headers) {
		dl.AddHeaders(h)
	}
	if opts.CookiesFile != "" {
		dl.Cookies(opts.CookiesFile)
	}
	if opts.Verbose {
		dl.Verbose()
	}

	y.log.Debug("running yt-dlp", "url", url, "output", opts.Output)
	if _, err := dl.Run(ctx, url); err != nil {
		return fmt.Errorf("yt-dlp %s: %w", url, err)
	}
	return nil
}

func withDefaults(opts Options) Options {
	if opts.Format == "" {
		opts.Format = DefaultFormat
	}
	if opts.MergeFormat == "" {
		opts.MergeFormat = DefaultMergeFormat
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultFragments
	}
	return opts
}

// EscapeTemplate makes a literal path safe to use as a yt-dlp output
// template.
func EscapeTemplate(path string) string {
	return strings.ReplaceAll(path, "%", "%%")
}

// HeaderArgs renders headers as "Name:value" in a stable order.
func HeaderArgs(headers map[string]string) []string {
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+":"+headers[k])
	}
	return out
}
